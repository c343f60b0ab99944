package domain

import "time"

type VerificationStatus string

const (
	StatusPending  VerificationStatus = "PENDING"
	StatusVerified VerificationStatus = "VERIFIED"
	StatusRejected VerificationStatus = "REJECTED"
)

// IsTerminal reports whether no further workflow transition is defined
// from this status. Only the administrative edit override can move a
// record out of a terminal status.
func (s VerificationStatus) IsTerminal() bool {
	return s == StatusVerified || s == StatusRejected
}

func (s VerificationStatus) Valid() bool {
	return s == StatusPending || s == StatusVerified || s == StatusRejected
}

// VerificationRecord is a pending or decided claim that a person is a
// credentialed counselor. Name, affiliation and email are snapshots taken
// at submission time and are never re-derived from the linked account.
type VerificationRecord struct {
	ID                 string             `json:"id"`
	CounselorAccountID string             `json:"counselor_account_id,omitempty"`
	CounselorName      string             `json:"counselor_name"`
	Affiliation        string             `json:"professional_affiliation"`
	InstitutionalEmail string             `json:"institutional_email"`
	Status             VerificationStatus `json:"status"`
	RequestDate        time.Time          `json:"request_date"`
}
