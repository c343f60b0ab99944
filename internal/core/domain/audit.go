package domain

import "time"

// Audit action codes. One entry is appended per administrative action;
// self-service application is deliberately not audited.
const (
	ActionVerificationCreated  = "VERIFICATION_CREATED"
	ActionVerificationApproved = "VERIFICATION_APPROVED"
	ActionVerificationRejected = "VERIFICATION_REJECTED"
	ActionVerificationDeleted  = "VERIFICATION_DELETED"
	ActionUserCreated          = "USER_CREATED"
	ActionUserUpdated          = "USER_UPDATED"
	ActionUserDeleted          = "USER_DELETED"
)

// PerformedByUnknown is recorded when the acting identity cannot be resolved.
const PerformedByUnknown = "Unknown"

// AuditEntry is an immutable record of an administrative action. Entries are
// append-only; no update or delete is exposed anywhere in the module.
type AuditEntry struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	Details     string    `json:"details"`
	Timestamp   time.Time `json:"timestamp"`
}
