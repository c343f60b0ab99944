package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

// Bootstrap ensures the console's roles exist and seeds the first admin
// account. It is idempotent and safe to run on every startup.
func Bootstrap(ctx context.Context, directory ports.AccountDirectory, adminEmail, adminPassword string) error {
	for _, role := range domain.Roles {
		if err := directory.EnsureRole(ctx, role); err != nil {
			return err
		}
	}

	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	existing, err := directory.FindByEmail(ctx, adminEmail)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if existing != nil {
		return nil
	}

	admin := domain.Account{
		ID:        uuid.NewString(),
		Email:     adminEmail,
		FullName:  "System Administrator",
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := directory.Create(ctx, admin, adminPassword); err != nil {
		return err
	}
	if err := directory.AssignRole(ctx, admin.ID, domain.RoleAdmin); err != nil {
		return err
	}

	log.Printf("bootstrap: seeded admin account %s", adminEmail)
	return nil
}
