package loans

type BorrowRequest struct {
	MediaPropertyNumbers []string `json:"mediaPropertyNumbers"`
	Borrower             string   `json:"borrower"`
	Reason               string   `json:"reason"`
	Unit                 string   `json:"unit"`
	LoanDate             string   `json:"loanDate"`
	ExpectedReturnDate   string   `json:"expectedReturnDate"`
}

type BorrowResponse struct {
	Message string `json:"message"`
	Loans   []Loan `json:"loans"`
}

type ReturnResponse struct {
	Message string `json:"message"`
	Loan    Loan   `json:"loan"`
}
