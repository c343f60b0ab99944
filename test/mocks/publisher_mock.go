package mocks

import (
	"context"
	"sync"

	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

// MockAuditEventPublisher implements ports.AuditEventPublisher for testing
// the outbox relay without a real RabbitMQ connection.
type MockAuditEventPublisher struct {
	mu sync.RWMutex

	PublishedEvents []ports.AuditRecordedEvent

	// Error injection for testing error scenarios
	PublishError error

	PublishCallCount int
}

var _ ports.AuditEventPublisher = (*MockAuditEventPublisher)(nil)

func NewMockAuditEventPublisher() *MockAuditEventPublisher {
	return &MockAuditEventPublisher{
		PublishedEvents: make([]ports.AuditRecordedEvent, 0),
	}
}

func (m *MockAuditEventPublisher) PublishAuditRecorded(ctx context.Context, evt ports.AuditRecordedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishCallCount++

	if m.PublishError != nil {
		return m.PublishError
	}

	m.PublishedEvents = append(m.PublishedEvents, evt)
	return nil
}

// GetPublishedEvents returns a copy of everything published so far.
func (m *MockAuditEventPublisher) GetPublishedEvents() []ports.AuditRecordedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]ports.AuditRecordedEvent, len(m.PublishedEvents))
	copy(events, m.PublishedEvents)
	return events
}

// Reset clears all tracking data.
func (m *MockAuditEventPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishedEvents = make([]ports.AuditRecordedEvent, 0)
	m.PublishError = nil
	m.PublishCallCount = 0
}
