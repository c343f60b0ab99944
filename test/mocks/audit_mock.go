package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

// MockAuditSink implements ports.AuditSink in memory.
type MockAuditSink struct {
	mu sync.RWMutex

	Entries []domain.AuditEntry

	// Error injection for testing error scenarios
	AppendError error
	RecentError error
}

var _ ports.AuditSink = (*MockAuditSink)(nil)

func NewMockAuditSink() *MockAuditSink {
	return &MockAuditSink{}
}

func (m *MockAuditSink) Append(ctx context.Context, action, performedBy, details string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendError != nil {
		return m.AppendError
	}

	m.Entries = append(m.Entries, domain.AuditEntry{
		ID:          uuid.NewString(),
		Action:      action,
		PerformedBy: performedBy,
		Details:     details,
		Timestamp:   time.Now(),
	})
	return nil
}

func (m *MockAuditSink) Recent(ctx context.Context, n int) ([]domain.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.RecentError != nil {
		return nil, m.RecentError
	}

	// newest first
	var out []domain.AuditEntry
	for i := len(m.Entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.Entries[i])
	}
	return out, nil
}

// Last returns the most recent entry, or nil when the trail is empty.
func (m *MockAuditSink) Last() *domain.AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.Entries) == 0 {
		return nil
	}
	entry := m.Entries[len(m.Entries)-1]
	return &entry
}

// Reset clears all stored entries and injected errors.
func (m *MockAuditSink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = nil
	m.AppendError = nil
	m.RecentError = nil
}
