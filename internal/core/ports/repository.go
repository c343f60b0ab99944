package ports

import (
	"context"
	"errors"
	"time"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
)

// VerificationRegistry stores verification records. A failed Create or
// Update must leave prior state unchanged.
type VerificationRegistry interface {
	Create(ctx context.Context, record domain.VerificationRecord) (string, error)
	Find(ctx context.Context, id string) (*domain.VerificationRecord, error)
	Update(ctx context.Context, record domain.VerificationRecord) error
	Delete(ctx context.Context, id string) error
	// List returns records ordered by request date descending. A nil status
	// filter returns everything.
	List(ctx context.Context, status *domain.VerificationStatus) ([]domain.VerificationRecord, error)
	CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error)
}

// AccountDirectory manages user identities and role assignments. It is a
// capability the workflow consumes, not something it reimplements.
type AccountDirectory interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Search matches the string against email and full name; empty matches all.
	Search(ctx context.Context, search string) ([]domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, account domain.Account, credential string) error
	Update(ctx context.Context, account domain.Account) error
	Delete(ctx context.Context, id string) error
	EnsureRole(ctx context.Context, role domain.Role) error
	AssignRole(ctx context.Context, accountID string, role domain.Role) error
	RemoveRole(ctx context.Context, accountID string, role domain.Role) error
	GetRoles(ctx context.Context, accountID string) ([]domain.Role, error)
	Count(ctx context.Context) (int, error)
}

// AuditSink is the append-only record of administrative actions. Append must
// complete, or fail loudly, before the triggering operation is considered
// done.
type AuditSink interface {
	Append(ctx context.Context, action, performedBy, details string) error
	Recent(ctx context.Context, n int) ([]domain.AuditEntry, error)
}

// ErrCacheMiss is returned by Cache.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a small TTL cache used for dashboard aggregates. Failures are
// never fatal to the caller.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
