package applications

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// 遷移は pending → approved / rejected / withdrawn のみ
func canTransition(from, to Status) bool {
	if from != StatusPending {
		return false
	}
	return to == StatusApproved || to == StatusRejected || to == StatusWithdrawn
}

// Application: 可攜式儲存媒體の申請1件
type Application struct {
	ID             string            `json:"id"`
	AffiliatedUnit string            `json:"affiliatedUnit"`
	Custodian      string            `json:"custodian"`
	ContactPerson  string            `json:"contactPerson,omitempty"`
	AssetName      string            `json:"assetName,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	Remark         string            `json:"remark,omitempty"`
	ApplicantName  string            `json:"applicantName,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`

	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	SourceIP     string    `json:"sourceIp,omitempty"`
	SubmissionID string    `json:"submissionId,omitempty"`
	ApplNumber   *int      `json:"appl_number,omitempty"` // 承認時に採番
	ReviewedBy   string    `json:"reviewedBy,omitempty"`
}

func (a Application) RecordKey() string { return a.ID }
