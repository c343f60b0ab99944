package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

// MockAccountDirectory implements ports.AccountDirectory in memory.
type MockAccountDirectory struct {
	mu sync.RWMutex

	accounts    map[string]*domain.Account // by id
	credentials map[string]string          // account id -> raw credential
	roles       map[string][]domain.Role   // account id -> assigned roles
	knownRoles  map[domain.Role]bool

	// Call tracking for verification
	FindByEmailCalls []string
	CreateCalls      []domain.Account
	UpdateCalls      []domain.Account
	DeleteCalls      []string
	AssignRoleCalls  []string

	// Error injection for testing error scenarios
	FindByEmailError error
	SearchError      error
	FindByIDError    error
	CreateError      error
	UpdateError      error
	DeleteError      error
	EnsureRoleError  error
	AssignRoleError  error
	RemoveRoleError  error
	GetRolesError    error
	CountError       error
}

var _ ports.AccountDirectory = (*MockAccountDirectory)(nil)

func NewMockAccountDirectory() *MockAccountDirectory {
	return &MockAccountDirectory{
		accounts:    make(map[string]*domain.Account),
		credentials: make(map[string]string),
		roles:       make(map[string][]domain.Role),
		knownRoles:  make(map[domain.Role]bool),
	}
}

// SeedAccount adds an account to the directory for test setup.
func (m *MockAccountDirectory) SeedAccount(account domain.Account, roles ...domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := account
	m.accounts[account.ID] = &copied
	m.roles[account.ID] = append([]domain.Role(nil), roles...)
}

// Account returns a copy of the stored account, or nil when absent.
func (m *MockAccountDirectory) Account(id string) *domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil
	}
	copied := *account
	return &copied
}

// AccountByEmail returns a copy of the stored account, or nil when absent.
func (m *MockAccountDirectory) AccountByEmail(email string) *domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, account := range m.accounts {
		if strings.EqualFold(account.Email, email) {
			copied := *account
			return &copied
		}
	}
	return nil
}

// Credential returns the raw credential recorded for the account id.
func (m *MockAccountDirectory) Credential(accountID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credentials[accountID]
}

func (m *MockAccountDirectory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	m.FindByEmailCalls = append(m.FindByEmailCalls, email)
	m.mu.Unlock()

	if m.FindByEmailError != nil {
		return nil, m.FindByEmailError
	}

	account := m.AccountByEmail(email)
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account, nil
}

func (m *MockAccountDirectory) Search(ctx context.Context, search string) ([]domain.Account, error) {
	if m.SearchError != nil {
		return nil, m.SearchError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(search)
	var out []domain.Account
	for _, account := range m.accounts {
		if needle == "" ||
			strings.Contains(strings.ToLower(account.Email), needle) ||
			strings.Contains(strings.ToLower(account.FullName), needle) {
			out = append(out, *account)
		}
	}
	return out, nil
}

func (m *MockAccountDirectory) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}

	account := m.Account(id)
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account, nil
}

func (m *MockAccountDirectory) Create(ctx context.Context, account domain.Account, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, account)

	if m.CreateError != nil {
		return m.CreateError
	}

	for _, existing := range m.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return domain.ErrConflict
		}
	}
	copied := account
	m.accounts[account.ID] = &copied
	m.credentials[account.ID] = credential
	return nil
}

func (m *MockAccountDirectory) Update(ctx context.Context, account domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, account)

	if m.UpdateError != nil {
		return m.UpdateError
	}

	if _, ok := m.accounts[account.ID]; !ok {
		return domain.ErrNotFound
	}
	copied := account
	m.accounts[account.ID] = &copied
	return nil
}

func (m *MockAccountDirectory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, id)

	if m.DeleteError != nil {
		return m.DeleteError
	}

	if _, ok := m.accounts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.accounts, id)
	delete(m.credentials, id)
	delete(m.roles, id)
	return nil
}

func (m *MockAccountDirectory) EnsureRole(ctx context.Context, role domain.Role) error {
	if m.EnsureRoleError != nil {
		return m.EnsureRoleError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.knownRoles[role] = true
	return nil
}

func (m *MockAccountDirectory) AssignRole(ctx context.Context, accountID string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AssignRoleCalls = append(m.AssignRoleCalls, accountID+":"+string(role))

	if m.AssignRoleError != nil {
		return m.AssignRoleError
	}

	for _, assigned := range m.roles[accountID] {
		if assigned == role {
			return nil
		}
	}
	m.roles[accountID] = append(m.roles[accountID], role)
	return nil
}

func (m *MockAccountDirectory) RemoveRole(ctx context.Context, accountID string, role domain.Role) error {
	if m.RemoveRoleError != nil {
		return m.RemoveRoleError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	assigned := m.roles[accountID]
	for i, candidate := range assigned {
		if candidate == role {
			m.roles[accountID] = append(assigned[:i], assigned[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockAccountDirectory) GetRoles(ctx context.Context, accountID string) ([]domain.Role, error) {
	if m.GetRolesError != nil {
		return nil, m.GetRolesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Role(nil), m.roles[accountID]...), nil
}

func (m *MockAccountDirectory) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts), nil
}

// Reset clears all stored data and call tracking.
func (m *MockAccountDirectory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts = make(map[string]*domain.Account)
	m.credentials = make(map[string]string)
	m.roles = make(map[string][]domain.Role)
	m.knownRoles = make(map[domain.Role]bool)
	m.FindByEmailCalls = nil
	m.CreateCalls = nil
	m.UpdateCalls = nil
	m.DeleteCalls = nil
	m.AssignRoleCalls = nil
	m.FindByEmailError = nil
	m.SearchError = nil
	m.FindByIDError = nil
	m.CreateError = nil
	m.UpdateError = nil
	m.DeleteError = nil
	m.EnsureRoleError = nil
	m.AssignRoleError = nil
	m.RemoveRoleError = nil
	m.GetRolesError = nil
	m.CountError = nil
}
