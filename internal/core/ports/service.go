package ports

import (
	"context"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
)

type ApplyInput struct {
	CounselorName   string `json:"counselor_name" validate:"required"`
	Affiliation     string `json:"professional_affiliation" validate:"required"`
	Email           string `json:"institutional_email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type AdminCreateInput struct {
	CounselorAccountID string `json:"counselor_account_id"`
	CounselorName      string `json:"counselor_name" validate:"required"`
	Affiliation        string `json:"professional_affiliation" validate:"required"`
	Email              string `json:"institutional_email" validate:"required,email"`
}

// AdminCreateResult carries the persisted record plus the one-time credential
// generated when the activation procedure had to create a fresh account. The
// credential is never stored in the clear and never returned again.
type AdminCreateResult struct {
	Record     domain.VerificationRecord `json:"record"`
	Credential string                    `json:"generated_credential,omitempty"`
}

// VerificationWorkflow is the state machine coupling verification decisions
// to the account lifecycle and the audit trail.
type VerificationWorkflow interface {
	Apply(ctx context.Context, input ApplyInput) (*domain.VerificationRecord, error)
	CreateByAdmin(ctx context.Context, actor string, input AdminCreateInput) (*AdminCreateResult, error)
	Approve(ctx context.Context, actor, id string) error
	Reject(ctx context.Context, actor, id string) error
	Edit(ctx context.Context, actor string, record domain.VerificationRecord) error
	Delete(ctx context.Context, actor, id string) error
	Get(ctx context.Context, id string) (*domain.VerificationRecord, error)
	List(ctx context.Context, status *domain.VerificationStatus) ([]domain.VerificationRecord, error)
}

type CreateAccountInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type EditAccountInput struct {
	ID       string `json:"id" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name"`
	IsActive bool   `json:"is_active"`
	Role     string `json:"role" validate:"required"`
}

// AccountView is an account joined with its effective role for listing.
type AccountView struct {
	domain.Account
	Role string `json:"role"`
}

// AccountAdmin covers the admin console's account management surface.
type AccountAdmin interface {
	List(ctx context.Context, search, roleFilter string) ([]AccountView, error)
	Create(ctx context.Context, actor string, input CreateAccountInput) (*domain.Account, error)
	Edit(ctx context.Context, actor string, input EditAccountInput) (*domain.Account, error)
	Delete(ctx context.Context, actor, actorAccountID, id string) error
}
