package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

// AccountService covers the admin console's account management: listing
// with search and role filter, creation, edit with role reassignment, and
// hard deletion. Every mutation is audited.
type AccountService struct {
	directory ports.AccountDirectory
	audit     ports.AuditSink
}

var _ ports.AccountAdmin = (*AccountService)(nil)

func NewAccountService(directory ports.AccountDirectory, audit ports.AuditSink) *AccountService {
	return &AccountService{directory: directory, audit: audit}
}

func (s *AccountService) List(ctx context.Context, search, roleFilter string) ([]ports.AccountView, error) {
	accounts, err := s.directory.Search(ctx, search)
	if err != nil {
		return nil, err
	}

	views := make([]ports.AccountView, 0, len(accounts))
	for _, account := range accounts {
		roles, err := s.directory.GetRoles(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		role := "None"
		if len(roles) > 0 {
			// the workflow treats accounts as effectively single-role
			role = string(roles[0])
		}
		if roleFilter != "" && role != roleFilter {
			continue
		}
		views = append(views, ports.AccountView{Account: account, Role: role})
	}
	return views, nil
}

func (s *AccountService) Create(ctx context.Context, actor string, input ports.CreateAccountInput) (*domain.Account, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	role := domain.Role(input.Role)
	if !role.Valid() {
		return nil, &domain.ValidationError{Field: "role", Reason: "unknown role " + input.Role}
	}

	existing, err := s.directory.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: an account already exists for %s", domain.ErrConflict, input.Email)
	}

	account := domain.Account{
		ID:        uuid.NewString(),
		Email:     input.Email,
		FullName:  input.FullName,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := s.directory.Create(ctx, account, input.Password); err != nil {
		return nil, err
	}
	if err := s.directory.EnsureRole(ctx, role); err != nil {
		return nil, err
	}
	if err := s.directory.AssignRole(ctx, account.ID, role); err != nil {
		return nil, err
	}

	if err := s.audit.Append(ctx, domain.ActionUserCreated, actorOrUnknown(actor),
		fmt.Sprintf("Created user %s as %s", account.Email, role)); err != nil {
		return &account, fmt.Errorf("%w: %v", domain.ErrAuditNotRecorded, err)
	}
	return &account, nil
}

func (s *AccountService) Edit(ctx context.Context, actor string, input ports.EditAccountInput) (*domain.Account, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	role := domain.Role(input.Role)
	if !role.Valid() {
		return nil, &domain.ValidationError{Field: "role", Reason: "unknown role " + input.Role}
	}

	account, err := s.directory.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	account.Email = input.Email
	account.FullName = input.FullName
	account.IsActive = input.IsActive
	if err := s.directory.Update(ctx, *account); err != nil {
		return nil, err
	}

	if err := s.reassignRole(ctx, account.ID, role); err != nil {
		return nil, err
	}

	if err := s.audit.Append(ctx, domain.ActionUserUpdated, actorOrUnknown(actor),
		fmt.Sprintf("Updated profile for %s. Role: %s, Active: %t", account.Email, role, account.IsActive)); err != nil {
		return account, fmt.Errorf("%w: %v", domain.ErrAuditNotRecorded, err)
	}
	return account, nil
}

// Delete removes an account permanently. Admins cannot delete themselves;
// that guard lives here so every transport gets it.
func (s *AccountService) Delete(ctx context.Context, actor, actorAccountID, id string) error {
	if id != "" && id == actorAccountID {
		return &domain.ValidationError{Field: "id", Reason: "you cannot delete your own account"}
	}

	account, err := s.directory.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.directory.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.audit.Append(ctx, domain.ActionUserDeleted, actorOrUnknown(actor),
		fmt.Sprintf("Deleted account %s", account.Email)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuditNotRecorded, err)
	}
	return nil
}

func (s *AccountService) reassignRole(ctx context.Context, accountID string, role domain.Role) error {
	current, err := s.directory.GetRoles(ctx, accountID)
	if err != nil {
		return err
	}
	if len(current) > 0 && current[0] == role {
		return nil
	}
	if len(current) > 0 {
		if err := s.directory.RemoveRole(ctx, accountID, current[0]); err != nil {
			return err
		}
	}
	if err := s.directory.EnsureRole(ctx, role); err != nil {
		return err
	}
	return s.directory.AssignRole(ctx, accountID, role)
}
