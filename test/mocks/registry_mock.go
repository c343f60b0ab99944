// Package mocks provides in-memory implementations of the port interfaces
// so services can be tested without a database, Redis, or RabbitMQ.
package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

// MockVerificationRegistry implements ports.VerificationRegistry in memory.
type MockVerificationRegistry struct {
	mu sync.RWMutex

	records map[string]*domain.VerificationRecord

	// Call tracking for verification
	CreateCalls []domain.VerificationRecord
	FindCalls   []string
	UpdateCalls []domain.VerificationRecord
	DeleteCalls []string

	// Error injection for testing error scenarios
	CreateError error
	FindError   error
	UpdateError error
	DeleteError error
	ListError   error
	CountError  error
}

var _ ports.VerificationRegistry = (*MockVerificationRegistry)(nil)

func NewMockVerificationRegistry() *MockVerificationRegistry {
	return &MockVerificationRegistry{records: make(map[string]*domain.VerificationRecord)}
}

// SeedRecord adds a record to the registry for test setup.
func (m *MockVerificationRegistry) SeedRecord(record domain.VerificationRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := record
	m.records[record.ID] = &copied
}

// Record returns a copy of the stored record, or nil when absent.
func (m *MockVerificationRegistry) Record(id string) *domain.VerificationRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return nil
	}
	copied := *record
	return &copied
}

func (m *MockVerificationRegistry) Create(ctx context.Context, record domain.VerificationRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, record)

	if m.CreateError != nil {
		return "", m.CreateError
	}

	copied := record
	m.records[record.ID] = &copied
	return record.ID, nil
}

func (m *MockVerificationRegistry) Find(ctx context.Context, id string) (*domain.VerificationRecord, error) {
	m.mu.Lock()
	m.FindCalls = append(m.FindCalls, id)
	m.mu.Unlock()

	if m.FindError != nil {
		return nil, m.FindError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *MockVerificationRegistry) Update(ctx context.Context, record domain.VerificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, record)

	if m.UpdateError != nil {
		return m.UpdateError
	}

	if _, ok := m.records[record.ID]; !ok {
		return domain.ErrNotFound
	}
	copied := record
	m.records[record.ID] = &copied
	return nil
}

func (m *MockVerificationRegistry) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, id)

	if m.DeleteError != nil {
		return m.DeleteError
	}

	if _, ok := m.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *MockVerificationRegistry) List(ctx context.Context, status *domain.VerificationStatus) ([]domain.VerificationRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.VerificationRecord
	for _, record := range m.records {
		if status != nil && record.Status != *status {
			continue
		}
		out = append(out, *record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestDate.After(out[j].RequestDate)
	})
	return out, nil
}

func (m *MockVerificationRegistry) CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, record := range m.records {
		if record.Status == status {
			count++
		}
	}
	return count, nil
}

// Reset clears all stored data and call tracking.
func (m *MockVerificationRegistry) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]*domain.VerificationRecord)
	m.CreateCalls = nil
	m.FindCalls = nil
	m.UpdateCalls = nil
	m.DeleteCalls = nil
	m.CreateError = nil
	m.FindError = nil
	m.UpdateError = nil
	m.DeleteError = nil
	m.ListError = nil
	m.CountError = nil
}
