// Package unit contains unit tests for the core services, using the
// in-memory mocks so no database, Redis, or RabbitMQ is needed.
package unit

import (
	"context"
	"errors"
	"testing"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
	"github.com/neuronet-health/counselor-admin-service/internal/core/services"
	"github.com/neuronet-health/counselor-admin-service/test/mocks"
)

func newWorkflow() (*services.VerificationService, *mocks.MockVerificationRegistry, *mocks.MockAccountDirectory, *mocks.MockAuditSink) {
	registry := mocks.NewMockVerificationRegistry()
	directory := mocks.NewMockAccountDirectory()
	audit := mocks.NewMockAuditSink()
	return services.NewVerificationService(registry, directory, audit, nil), registry, directory, audit
}

func validApplyInput() ports.ApplyInput {
	return ports.ApplyInput{
		CounselorName:   "Dana Velasquez",
		Affiliation:     "Riverside Counseling Center",
		Email:           "dana.velasquez@riverside.example",
		Password:        "first-session",
		ConfirmPassword: "first-session",
	}
}

func TestVerificationService_Apply(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ports.ApplyInput)
		setupMocks  func(*mocks.MockVerificationRegistry, *mocks.MockAccountDirectory)
		wantErrIs   error
		wantErrAs   bool // expect a *domain.ValidationError
		wantRecords int
	}{
		{
			name:        "successful_application",
			mutate:      func(in *ports.ApplyInput) {},
			setupMocks:  func(r *mocks.MockVerificationRegistry, d *mocks.MockAccountDirectory) {},
			wantRecords: 1,
		},
		{
			name:      "missing_name_rejected",
			mutate:    func(in *ports.ApplyInput) { in.CounselorName = "" },
			wantErrAs: true,
		},
		{
			name:      "malformed_email_rejected",
			mutate:    func(in *ports.ApplyInput) { in.Email = "not-an-email" },
			wantErrAs: true,
		},
		{
			name:      "password_mismatch_rejected",
			mutate:    func(in *ports.ApplyInput) { in.ConfirmPassword = "different" },
			wantErrAs: true,
		},
		{
			name:   "existing_email_rejected",
			mutate: func(in *ports.ApplyInput) {},
			setupMocks: func(r *mocks.MockVerificationRegistry, d *mocks.MockAccountDirectory) {
				d.SeedAccount(mocks.InactiveCounselor("acc-1"))
			},
			wantErrIs: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workflow, registry, directory, audit := newWorkflow()
			if tt.setupMocks != nil {
				tt.setupMocks(registry, directory)
			}

			input := validApplyInput()
			tt.mutate(&input)

			record, err := workflow.Apply(context.Background(), input)

			if tt.wantErrIs != nil {
				if !errors.Is(err, tt.wantErrIs) {
					t.Fatalf("expected %v, got %v", tt.wantErrIs, err)
				}
				return
			}
			if tt.wantErrAs {
				var vErr *domain.ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if len(directory.CreateCalls) != 0 {
					t.Errorf("no account should be created on invalid input")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if record.Status != domain.StatusPending {
				t.Errorf("expected Pending record, got %s", record.Status)
			}
			if record.CounselorAccountID == "" {
				t.Error("expected record linked to the created account")
			}
			account := directory.Account(record.CounselorAccountID)
			if account == nil {
				t.Fatal("expected account in directory")
			}
			if account.IsActive {
				t.Error("applicant account must start inactive")
			}
			if len(registry.CreateCalls) != tt.wantRecords {
				t.Errorf("expected %d record creates, got %d", tt.wantRecords, len(registry.CreateCalls))
			}
			// self-service applications are not audited
			if len(audit.Entries) != 0 {
				t.Errorf("expected no audit entries, got %d", len(audit.Entries))
			}
		})
	}
}

func TestVerificationService_Apply_RollsBackAccountWhenRecordFails(t *testing.T) {
	workflow, registry, directory, _ := newWorkflow()
	registry.CreateError = errors.New("registry down")

	_, err := workflow.Apply(context.Background(), validApplyInput())
	if err == nil {
		t.Fatal("expected error")
	}

	if len(directory.CreateCalls) != 1 {
		t.Fatalf("expected 1 account create, got %d", len(directory.CreateCalls))
	}
	if len(directory.DeleteCalls) != 1 {
		t.Fatalf("expected the account to be rolled back, got %d deletes", len(directory.DeleteCalls))
	}
	if directory.DeleteCalls[0] != directory.CreateCalls[0].ID {
		t.Error("rollback deleted the wrong account")
	}
}

func TestVerificationService_Apply_RollsBackAccountWhenRoleAssignFails(t *testing.T) {
	workflow, registry, directory, _ := newWorkflow()
	directory.AssignRoleError = errors.New("roles table down")

	_, err := workflow.Apply(context.Background(), validApplyInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(directory.DeleteCalls) != 1 {
		t.Fatalf("expected the account to be rolled back, got %d deletes", len(directory.DeleteCalls))
	}
	if len(registry.CreateCalls) != 0 {
		t.Error("no record should be created when role assignment failed")
	}
}

func TestVerificationService_Approve(t *testing.T) {
	t.Run("pending_record_with_inactive_account", func(t *testing.T) {
		workflow, registry, directory, audit := newWorkflow()
		directory.SeedAccount(mocks.InactiveCounselor("acc-1"), domain.RoleCounselor)
		registry.SeedRecord(mocks.PendingRecord("rec-1", "acc-1"))

		if err := workflow.Approve(context.Background(), "admin@neuronet.example", "rec-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		record := registry.Record("rec-1")
		if record.Status != domain.StatusVerified {
			t.Errorf("expected Verified, got %s", record.Status)
		}
		account := directory.Account("acc-1")
		if !account.IsActive {
			t.Error("expected account activated")
		}
		if len(audit.Entries) != 1 {
			t.Fatalf("expected exactly 1 audit entry, got %d", len(audit.Entries))
		}
		entry := audit.Entries[0]
		if entry.Action != domain.ActionVerificationApproved {
			t.Errorf("expected %s, got %s", domain.ActionVerificationApproved, entry.Action)
		}
		if entry.PerformedBy != "admin@neuronet.example" {
			t.Errorf("expected actor in audit entry, got %q", entry.PerformedBy)
		}
	})

	t.Run("backfills_missing_account_linkage", func(t *testing.T) {
		workflow, registry, directory, _ := newWorkflow()
		directory.SeedAccount(mocks.InactiveCounselor("acc-1"))
		registry.SeedRecord(mocks.PendingRecord("rec-1", ""))

		if err := workflow.Approve(context.Background(), "admin", "rec-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := registry.Record("rec-1").CounselorAccountID; got != "acc-1" {
			t.Errorf("expected linkage backfilled to acc-1, got %q", got)
		}
	})

	t.Run("creates_account_when_none_exists", func(t *testing.T) {
		workflow, registry, directory, _ := newWorkflow()
		registry.SeedRecord(mocks.PendingRecord("rec-1", ""))

		if err := workflow.Approve(context.Background(), "admin", "rec-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		record := registry.Record("rec-1")
		if record.CounselorAccountID == "" {
			t.Fatal("expected record linked to a fresh account")
		}
		account := directory.Account(record.CounselorAccountID)
		if account == nil || !account.IsActive {
			t.Fatal("expected an active account for the approved counselor")
		}
		if directory.Credential(account.ID) == "" {
			t.Error("expected a generated credential for the fresh account")
		}
	})

	t.Run("missing_record_is_a_noop", func(t *testing.T) {
		workflow, registry, _, audit := newWorkflow()

		if err := workflow.Approve(context.Background(), "admin", "ghost"); err != nil {
			t.Fatalf("expected tolerant no-op, got %v", err)
		}
		if len(registry.UpdateCalls) != 0 {
			t.Error("no update expected for a missing record")
		}
		if len(audit.Entries) != 0 {
			t.Error("no audit entry expected for a no-op")
		}
	})

	t.Run("terminal_record_is_a_noop", func(t *testing.T) {
		workflow, registry, directory, audit := newWorkflow()
		record := mocks.PendingRecord("rec-1", "acc-1")
		record.Status = domain.StatusRejected
		registry.SeedRecord(record)
		directory.SeedAccount(mocks.InactiveCounselor("acc-1"))

		if err := workflow.Approve(context.Background(), "admin", "rec-1"); err != nil {
			t.Fatalf("expected tolerant no-op, got %v", err)
		}
		if got := registry.Record("rec-1").Status; got != domain.StatusRejected {
			t.Errorf("terminal status must not change, got %s", got)
		}
		if directory.Account("acc-1").IsActive {
			t.Error("account must stay untouched on a no-op")
		}
		if len(audit.Entries) != 0 {
			t.Error("no audit entry expected for a no-op")
		}
	})

	t.Run("activation_failure_blocks_the_transition", func(t *testing.T) {
		workflow, registry, directory, audit := newWorkflow()
		directory.SeedAccount(mocks.InactiveCounselor("acc-1"))
		registry.SeedRecord(mocks.PendingRecord("rec-1", "acc-1"))
		directory.UpdateError = errors.New("directory down")

		err := workflow.Approve(context.Background(), "admin", "rec-1")

		var linkErr *domain.LinkageError
		if !errors.As(err, &linkErr) {
			t.Fatalf("expected LinkageError, got %v", err)
		}
		if got := registry.Record("rec-1").Status; got != domain.StatusPending {
			t.Errorf("record must stay Pending when activation fails, got %s", got)
		}
		if len(audit.Entries) != 0 {
			t.Error("no audit entry expected for a blocked transition")
		}
	})

	t.Run("already_active_account_is_idempotent", func(t *testing.T) {
		workflow, registry, directory, _ := newWorkflow()
		account := mocks.InactiveCounselor("acc-1")
		account.IsActive = true
		directory.SeedAccount(account, domain.RoleCounselor)
		registry.SeedRecord(mocks.PendingRecord("rec-1", "acc-1"))

		if err := workflow.Approve(context.Background(), "admin", "rec-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(directory.UpdateCalls) != 0 {
			t.Errorf("an already-active account must not be rewritten, got %d updates", len(directory.UpdateCalls))
		}
		if len(directory.CreateCalls) != 0 {
			t.Errorf("no new account expected, got %d creates", len(directory.CreateCalls))
		}
	})

	t.Run("audit_failure_is_detectable_and_mutation_stands", func(t *testing.T) {
		workflow, registry, directory, audit := newWorkflow()
		directory.SeedAccount(mocks.InactiveCounselor("acc-1"))
		registry.SeedRecord(mocks.PendingRecord("rec-1", "acc-1"))
		audit.AppendError = errors.New("audit store down")

		err := workflow.Approve(context.Background(), "admin", "rec-1")

		if !errors.Is(err, domain.ErrAuditNotRecorded) {
			t.Fatalf("expected ErrAuditNotRecorded, got %v", err)
		}
		if got := registry.Record("rec-1").Status; got != domain.StatusVerified {
			t.Errorf("the committed transition must stand, got %s", got)
		}
	})
}

func TestVerificationService_Reject(t *testing.T) {
	t.Run("pending_record_rejected", func(t *testing.T) {
		workflow, registry, directory, audit := newWorkflow()
		directory.SeedAccount(mocks.InactiveCounselor("acc-1"))
		registry.SeedRecord(mocks.PendingRecord("rec-1", "acc-1"))

		if err := workflow.Reject(context.Background(), "admin", "rec-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := registry.Record("rec-1").Status; got != domain.StatusRejected {
			t.Errorf("expected Rejected, got %s", got)
		}
		// rejection leaves the account exactly as it was
		if directory.Account("acc-1").IsActive {
			t.Error("rejection must not activate the account")
		}
		if len(directory.UpdateCalls)+len(directory.DeleteCalls) != 0 {
			t.Error("rejection must not touch the directory")
		}
		if len(audit.Entries) != 1 || audit.Entries[0].Action != domain.ActionVerificationRejected {
			t.Errorf("expected one %s entry", domain.ActionVerificationRejected)
		}
	})

	t.Run("terminal_record_is_a_noop", func(t *testing.T) {
		workflow, registry, _, audit := newWorkflow()
		record := mocks.PendingRecord("rec-1", "acc-1")
		record.Status = domain.StatusVerified
		registry.SeedRecord(record)

		if err := workflow.Reject(context.Background(), "admin", "rec-1"); err != nil {
			t.Fatalf("expected tolerant no-op, got %v", err)
		}
		if got := registry.Record("rec-1").Status; got != domain.StatusVerified {
			t.Errorf("terminal status must not change, got %s", got)
		}
		if len(audit.Entries) != 0 {
			t.Error("no audit entry expected for a no-op")
		}
	})
}

func TestVerificationService_CreateByAdmin(t *testing.T) {
	input := ports.AdminCreateInput{
		CounselorName: "Priya Raman",
		Affiliation:   "Lakeside Youth Services",
		Email:         "priya.raman@lakeside.example",
	}

	t.Run("creates_verified_record_and_fresh_account", func(t *testing.T) {
		workflow, registry, directory, audit := newWorkflow()

		result, err := workflow.CreateByAdmin(context.Background(), "admin@neuronet.example", input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Record.Status != domain.StatusVerified {
			t.Errorf("expected Verified record, got %s", result.Record.Status)
		}
		if result.Credential == "" {
			t.Error("expected a one-time credential for the fresh account")
		}
		account := directory.AccountByEmail(input.Email)
		if account == nil || !account.IsActive {
			t.Fatal("expected an active account for the counselor")
		}
		stored := registry.Record(result.Record.ID)
		if stored.CounselorAccountID != account.ID {
			t.Errorf("expected stored record linked to %s, got %q", account.ID, stored.CounselorAccountID)
		}
		if len(audit.Entries) != 1 || audit.Entries[0].Action != domain.ActionVerificationCreated {
			t.Errorf("expected exactly one %s entry", domain.ActionVerificationCreated)
		}
	})

	t.Run("activates_existing_account_without_credential", func(t *testing.T) {
		workflow, _, directory, _ := newWorkflow()
		existing := mocks.InactiveCounselor("acc-1")
		existing.Email = input.Email
		directory.SeedAccount(existing, domain.RoleCounselor)

		result, err := workflow.CreateByAdmin(context.Background(), "admin", input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Credential != "" {
			t.Error("no credential expected when the account already exists")
		}
		if !directory.Account("acc-1").IsActive {
			t.Error("expected the existing account activated")
		}
	})

	t.Run("linkage_failure_keeps_the_verified_record", func(t *testing.T) {
		workflow, registry, directory, audit := newWorkflow()
		directory.FindByEmailError = errors.New("directory down")

		result, err := workflow.CreateByAdmin(context.Background(), "admin", input)

		var linkErr *domain.LinkageError
		if !errors.As(err, &linkErr) {
			t.Fatalf("expected LinkageError, got %v", err)
		}
		if result == nil {
			t.Fatal("the persisted record must still be returned")
		}
		stored := registry.Record(result.Record.ID)
		if stored == nil || stored.Status != domain.StatusVerified {
			t.Fatal("expected the record persisted as Verified despite the linkage failure")
		}
		if stored.CounselorAccountID != "" {
			t.Errorf("expected empty linkage, got %q", stored.CounselorAccountID)
		}
		if len(audit.Entries) != 1 {
			t.Errorf("the creation is still audited, got %d entries", len(audit.Entries))
		}
	})

	t.Run("invalid_input_rejected_before_any_mutation", func(t *testing.T) {
		workflow, registry, directory, _ := newWorkflow()
		bad := input
		bad.Email = "nope"

		_, err := workflow.CreateByAdmin(context.Background(), "admin", bad)

		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(registry.CreateCalls)+len(directory.CreateCalls) != 0 {
			t.Error("invalid input must not reach the stores")
		}
	})
}

func TestVerificationService_Edit(t *testing.T) {
	workflow, registry, _, audit := newWorkflow()
	registry.SeedRecord(mocks.PendingRecord("rec-1", "acc-1"))

	t.Run("overwrites_record_including_status", func(t *testing.T) {
		record := mocks.PendingRecord("rec-1", "acc-1")
		record.Status = domain.StatusRejected
		record.Affiliation = "Corrected Affiliation"

		if err := workflow.Edit(context.Background(), "admin", record); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stored := registry.Record("rec-1")
		if stored.Status != domain.StatusRejected || stored.Affiliation != "Corrected Affiliation" {
			t.Error("expected the override persisted wholesale")
		}
		// the override path carries no audit entry
		if len(audit.Entries) != 0 {
			t.Errorf("expected no audit entries, got %d", len(audit.Entries))
		}
	})

	t.Run("unknown_status_rejected", func(t *testing.T) {
		record := mocks.PendingRecord("rec-1", "acc-1")
		record.Status = "ON_HOLD"

		err := workflow.Edit(context.Background(), "admin", record)
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("missing_id_rejected", func(t *testing.T) {
		record := mocks.PendingRecord("", "acc-1")
		err := workflow.Edit(context.Background(), "admin", record)
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestVerificationService_Delete(t *testing.T) {
	t.Run("deletes_and_audits", func(t *testing.T) {
		workflow, registry, directory, audit := newWorkflow()
		directory.SeedAccount(mocks.InactiveCounselor("acc-1"))
		registry.SeedRecord(mocks.PendingRecord("rec-1", "acc-1"))

		if err := workflow.Delete(context.Background(), "admin", "rec-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if registry.Record("rec-1") != nil {
			t.Error("expected the record removed")
		}
		// the account outlives its verification record
		if directory.Account("acc-1") == nil {
			t.Error("the linked account must not be deleted")
		}
		if len(audit.Entries) != 1 || audit.Entries[0].Action != domain.ActionVerificationDeleted {
			t.Errorf("expected one %s entry", domain.ActionVerificationDeleted)
		}
	})

	t.Run("missing_record_is_a_noop", func(t *testing.T) {
		workflow, _, _, audit := newWorkflow()
		if err := workflow.Delete(context.Background(), "admin", "ghost"); err != nil {
			t.Fatalf("expected tolerant no-op, got %v", err)
		}
		if len(audit.Entries) != 0 {
			t.Error("no audit entry expected for a no-op")
		}
	})
}

func TestVerificationService_List(t *testing.T) {
	workflow, registry, _, _ := newWorkflow()
	pending := mocks.PendingRecord("rec-1", "acc-1")
	registry.SeedRecord(pending)
	verified := mocks.PendingRecord("rec-2", "acc-2")
	verified.Status = domain.StatusVerified
	registry.SeedRecord(verified)

	all, err := workflow.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 records, got %d", len(all))
	}

	status := domain.StatusPending
	filtered, err := workflow.List(context.Background(), &status)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "rec-1" {
		t.Errorf("expected only the pending record, got %d", len(filtered))
	}
}

func TestVerificationService_UnknownActorRecordedAsUnknown(t *testing.T) {
	workflow, registry, directory, audit := newWorkflow()
	directory.SeedAccount(mocks.InactiveCounselor("acc-1"))
	registry.SeedRecord(mocks.PendingRecord("rec-1", "acc-1"))

	if err := workflow.Approve(context.Background(), "", "rec-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := audit.Entries[0].PerformedBy; got != domain.PerformedByUnknown {
		t.Errorf("expected %q, got %q", domain.PerformedByUnknown, got)
	}
}
