package loans

import "time"

type Status string

const (
	StatusBorrowed Status = "borrowed"
	StatusReturned Status = "returned"
)

const dateLayout = "2006-01-02"

// Loan: 媒体1点ごとの貸出記録
type Loan struct {
	LoanID              string     `json:"loanId"`
	MediaPropertyNumber string     `json:"mediaPropertyNumber"`
	Borrower            string     `json:"borrower"`
	Reason              string     `json:"reason,omitempty"`
	Unit                string     `json:"unit,omitempty"`
	LoanDate            string     `json:"loanDate"`                     // YYYY-MM-DD
	ExpectedReturnDate  string     `json:"expectedReturnDate,omitempty"` // YYYY-MM-DD
	ReturnDate          *time.Time `json:"returnDate"`                   // 返却時に1回だけセット
	Status              Status     `json:"status"`
	SourceIP            string     `json:"sourceIp,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func (l Loan) RecordKey() string { return l.LoanID }

type Filter struct {
	MediaPropertyNumber string
	Status              Status
	Unit                string
}
