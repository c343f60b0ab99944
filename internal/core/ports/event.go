package ports

import (
	"context"
	"time"
)

// AuditRecordedEventType is the outbox event type under which audit entries
// are relayed to the message bus.
const AuditRecordedEventType = "audit.recorded"

// AuditRecordedEvent mirrors an audit entry onto the message bus for
// downstream compliance consumers. The database row remains the durable
// source of truth; this is a best-effort copy relayed from the outbox.
type AuditRecordedEvent struct {
	EntryID     string    `json:"entry_id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	Details     string    `json:"details"`
	Timestamp   time.Time `json:"timestamp"`
}

type AuditEventPublisher interface {
	PublishAuditRecorded(ctx context.Context, evt AuditRecordedEvent) error
}
