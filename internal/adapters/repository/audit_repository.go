package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

// outboxChannelName must match the channel the relay listens on.
const outboxChannelName = "outbox_channel"

// SQLAuditSink appends audit entries and, in the same transaction, an
// outbox event that the relay forwards to the message bus. Either both rows
// commit or neither does, so the bus copy can never exist without the
// durable entry.
type SQLAuditSink struct {
	db *sql.DB
}

var _ ports.AuditSink = (*SQLAuditSink)(nil)

func NewSQLAuditSink(db *sql.DB) *SQLAuditSink {
	return &SQLAuditSink{db: db}
}

func (s *SQLAuditSink) Append(ctx context.Context, action, performedBy, details string) error {
	entry := domain.AuditEntry{
		ID:          uuid.NewString(),
		Action:      action,
		PerformedBy: performedBy,
		Details:     details,
		Timestamp:   time.Now(),
	}

	payload, err := json.Marshal(ports.AuditRecordedEvent{
		EntryID:     entry.ID,
		Action:      entry.Action,
		PerformedBy: entry.PerformedBy,
		Details:     entry.Details,
		Timestamp:   entry.Timestamp,
	})
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, performed_by, details, timestamp)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.Action, entry.PerformedBy, entry.Details, entry.Timestamp,
	); err != nil {
		return err
	}

	outboxID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4)`,
		outboxID, ports.AuditRecordedEventType, payload, entry.Timestamp,
	); err != nil {
		return err
	}

	// wake the relay immediately instead of waiting for its periodic sweep
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, outboxChannelName, outboxID); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLAuditSink) Recent(ctx context.Context, n int) ([]domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, performed_by, details, timestamp
		   FROM audit_logs ORDER BY timestamp DESC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.PerformedBy, &entry.Details, &entry.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
