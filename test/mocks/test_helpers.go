package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

// PendingRecord builds a Pending verification record for test setup.
func PendingRecord(id, accountID string) domain.VerificationRecord {
	return domain.VerificationRecord{
		ID:                 id,
		CounselorAccountID: accountID,
		CounselorName:      "Dana Velasquez",
		Affiliation:        "Riverside Counseling Center",
		InstitutionalEmail: "dana.velasquez@riverside.example",
		Status:             domain.StatusPending,
		RequestDate:        time.Now().Add(-24 * time.Hour),
	}
}

// InactiveCounselor builds an inactive counselor account matching the email
// used by PendingRecord.
func InactiveCounselor(id string) domain.Account {
	return domain.Account{
		ID:        id,
		Email:     "dana.velasquez@riverside.example",
		FullName:  "Dana Velasquez",
		IsActive:  false,
		CreatedAt: time.Now().Add(-24 * time.Hour),
	}
}

// MockCache implements ports.Cache in memory, ignoring TTLs.
type MockCache struct {
	mu sync.RWMutex

	values map[string]string

	GetError error
	SetError error
}

var _ ports.Cache = (*MockCache)(nil)

func NewMockCache() *MockCache {
	return &MockCache{values: make(map[string]string)}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetError != nil {
		return "", m.GetError
	}
	value, ok := m.values[key]
	if !ok {
		return "", ports.ErrCacheMiss
	}
	return value, nil
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetError != nil {
		return m.SetError
	}
	m.values[key] = value
	return nil
}

// Reset clears stored values and injected errors.
func (m *MockCache) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	m.GetError = nil
	m.SetError = nil
}
