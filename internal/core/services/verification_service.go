package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
	"github.com/neuronet-health/counselor-admin-service/internal/metrics"
)

var validate = validator.New()

// VerificationService is the workflow engine: it owns the
// Pending -> Verified / Pending -> Rejected transitions and couples them to
// the account lifecycle and the audit trail.
type VerificationService struct {
	registry  ports.VerificationRegistry
	directory ports.AccountDirectory
	audit     ports.AuditSink
	metrics   *metrics.Metrics
}

var _ ports.VerificationWorkflow = (*VerificationService)(nil)

func NewVerificationService(
	registry ports.VerificationRegistry,
	directory ports.AccountDirectory,
	audit ports.AuditSink,
	m *metrics.Metrics,
) *VerificationService {
	return &VerificationService{
		registry:  registry,
		directory: directory,
		audit:     audit,
		metrics:   m,
	}
}

// Apply handles a self-service counselor application. It creates an inactive
// Counselor account and a Pending verification record as one logical
// transaction: if the record cannot be persisted the account is rolled back.
// Self-service applications are deliberately not audited; the audit trail
// records administrative decisions only.
func (s *VerificationService) Apply(ctx context.Context, input ports.ApplyInput) (*domain.VerificationRecord, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.directory.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		// Re-application on a bound email is rejected, never silently
		// merged into someone else's account.
		return nil, fmt.Errorf("%w: an account already exists for %s", domain.ErrConflict, input.Email)
	}

	account := domain.Account{
		ID:        uuid.NewString(),
		Email:     input.Email,
		FullName:  input.CounselorName,
		IsActive:  false, // locked until approved
		CreatedAt: time.Now(),
	}
	if err := s.directory.Create(ctx, account, input.Password); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: an account already exists for %s", domain.ErrConflict, input.Email)
		}
		return nil, err
	}
	if err := s.assignCounselorRole(ctx, account.ID); err != nil {
		s.rollbackAccount(ctx, account.ID, err)
		return nil, err
	}

	record := domain.VerificationRecord{
		ID:                 uuid.NewString(),
		CounselorAccountID: account.ID,
		CounselorName:      input.CounselorName,
		Affiliation:        input.Affiliation,
		InstitutionalEmail: input.Email,
		Status:             domain.StatusPending,
		RequestDate:        time.Now(),
	}
	if _, err := s.registry.Create(ctx, record); err != nil {
		s.rollbackAccount(ctx, account.ID, err)
		return nil, fmt.Errorf("application not persisted: %w", err)
	}

	s.metrics.ObserveTransition("apply")
	return &record, nil
}

// CreateByAdmin creates a verification record that never passes through
// Pending: it is persisted as Verified and the activation procedure runs
// immediately. If linkage fails the record stays Verified with an empty
// account id and the failure is surfaced as a LinkageError, not rolled back.
func (s *VerificationService) CreateByAdmin(ctx context.Context, actor string, input ports.AdminCreateInput) (*ports.AdminCreateResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	record := domain.VerificationRecord{
		ID:                 uuid.NewString(),
		CounselorAccountID: input.CounselorAccountID,
		CounselorName:      input.CounselorName,
		Affiliation:        input.Affiliation,
		InstitutionalEmail: input.Email,
		Status:             domain.StatusVerified, // auto-approved
		RequestDate:        time.Now(),
	}
	if _, err := s.registry.Create(ctx, record); err != nil {
		return nil, err
	}

	credential, linkErr := s.ensureActiveAccount(ctx, &record)
	if linkErr == nil && record.CounselorAccountID != input.CounselorAccountID {
		if err := s.registry.Update(ctx, record); err != nil {
			record.CounselorAccountID = input.CounselorAccountID
			linkErr = &domain.LinkageError{Email: record.InstitutionalEmail, Cause: err}
		}
	}

	s.metrics.ObserveTransition("admin_create")

	result := &ports.AdminCreateResult{Record: record, Credential: credential}
	if err := s.appendAudit(ctx, domain.ActionVerificationCreated, actor,
		fmt.Sprintf("Created pre-approved verification for %s.", record.CounselorName)); err != nil {
		return result, errors.Join(linkErr, err)
	}
	if linkErr != nil {
		return result, linkErr
	}
	return result, nil
}

// Approve runs the canonical Pending -> Verified transition. A missing
// record and a record already in a terminal status are both tolerant no-ops.
// Activation always happens before the status flips, so a reader never
// observes Verified without the account being active.
func (s *VerificationService) Approve(ctx context.Context, actor, id string) error {
	record, err := s.findForTransition(ctx, id)
	if err != nil || record == nil {
		return err
	}

	if _, err := s.ensureActiveAccount(ctx, record); err != nil {
		return err
	}

	record.Status = domain.StatusVerified
	if err := s.registry.Update(ctx, *record); err != nil {
		return err
	}
	s.metrics.ObserveTransition("approve")

	return s.appendAudit(ctx, domain.ActionVerificationApproved, actor,
		fmt.Sprintf("Approved counselor %s.", record.CounselorName))
}

// Reject runs the canonical Pending -> Rejected transition. The linked
// account is left untouched: rejection does not retroactively destroy an
// account that may already be usable for other roles.
func (s *VerificationService) Reject(ctx context.Context, actor, id string) error {
	record, err := s.findForTransition(ctx, id)
	if err != nil || record == nil {
		return err
	}

	record.Status = domain.StatusRejected
	if err := s.registry.Update(ctx, *record); err != nil {
		return err
	}
	s.metrics.ObserveTransition("reject")

	return s.appendAudit(ctx, domain.ActionVerificationRejected, actor,
		fmt.Sprintf("Rejected counselor %s", record.CounselorName))
}

// Edit overwrites a record wholesale, status and request date included. It
// is the administrative override path and deliberately bypasses the
// Approve/Reject transition rules; do not merge it with the guarded
// transitions above. Only the status value set itself is checked.
func (s *VerificationService) Edit(ctx context.Context, actor string, record domain.VerificationRecord) error {
	if record.ID == "" {
		return &domain.ValidationError{Field: "id", Reason: "required"}
	}
	if !record.Status.Valid() {
		return &domain.ValidationError{Field: "status", Reason: "unknown status " + string(record.Status)}
	}
	if err := s.registry.Update(ctx, record); err != nil {
		return err
	}
	s.metrics.ObserveTransition("edit")
	return nil
}

// Delete removes a record unconditionally. The linked account is untouched.
// A missing record is a tolerant no-op and appends no audit entry.
func (s *VerificationService) Delete(ctx context.Context, actor, id string) error {
	record, err := s.registry.Find(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || record == nil {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return nil
	}

	if err := s.registry.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.ObserveTransition("delete")

	return s.appendAudit(ctx, domain.ActionVerificationDeleted, actor,
		fmt.Sprintf("Deleted verification request for %s", record.CounselorName))
}

func (s *VerificationService) Get(ctx context.Context, id string) (*domain.VerificationRecord, error) {
	return s.registry.Find(ctx, id)
}

func (s *VerificationService) List(ctx context.Context, status *domain.VerificationStatus) ([]domain.VerificationRecord, error) {
	return s.registry.List(ctx, status)
}

// findForTransition loads a record for a guarded transition. It returns
// (nil, nil) when the record is absent or already terminal, which callers
// treat as the documented tolerant no-op.
func (s *VerificationService) findForTransition(ctx context.Context, id string) (*domain.VerificationRecord, error) {
	record, err := s.registry.Find(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if record.Status.IsTerminal() {
		return nil, nil
	}
	return record, nil
}

// ensureActiveAccount is the activation procedure shared by Approve and
// CreateByAdmin: make sure an account exists and is active for the record's
// institutional email, and backfill the linkage if missing. It is
// idempotent; running it twice on an already-active, already-linked record
// changes nothing. When a fresh account is created the generated one-time
// credential is returned.
func (s *VerificationService) ensureActiveAccount(ctx context.Context, record *domain.VerificationRecord) (string, error) {
	account, err := s.directory.FindByEmail(ctx, record.InstitutionalEmail)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", &domain.LinkageError{Email: record.InstitutionalEmail, Cause: err}
	}

	if account != nil {
		if !account.IsActive {
			account.IsActive = true
			if err := s.directory.Update(ctx, *account); err != nil {
				return "", &domain.LinkageError{Email: record.InstitutionalEmail, Cause: err}
			}
		}
		if record.CounselorAccountID == "" {
			record.CounselorAccountID = account.ID
		}
		return "", nil
	}

	credential, err := generateCredential()
	if err != nil {
		return "", &domain.LinkageError{Email: record.InstitutionalEmail, Cause: err}
	}
	created := domain.Account{
		ID:        uuid.NewString(),
		Email:     record.InstitutionalEmail,
		FullName:  record.CounselorName,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := s.directory.Create(ctx, created, credential); err != nil {
		return "", &domain.LinkageError{Email: record.InstitutionalEmail, Cause: err}
	}
	if err := s.assignCounselorRole(ctx, created.ID); err != nil {
		return "", &domain.LinkageError{Email: record.InstitutionalEmail, Cause: err}
	}

	record.CounselorAccountID = created.ID
	return credential, nil
}

func (s *VerificationService) assignCounselorRole(ctx context.Context, accountID string) error {
	if err := s.directory.EnsureRole(ctx, domain.RoleCounselor); err != nil {
		return err
	}
	return s.directory.AssignRole(ctx, accountID, domain.RoleCounselor)
}

// rollbackAccount undoes an account created earlier in the same logical
// transaction. A rollback failure leaves an orphan, which is logged with the
// account id so it can be reconciled, never silently dropped.
func (s *VerificationService) rollbackAccount(ctx context.Context, accountID string, cause error) {
	if err := s.directory.Delete(ctx, accountID); err != nil {
		log.Printf("workflow: account %s orphaned after %v: rollback failed: %v", accountID, cause, err)
	}
}

// appendAudit writes the audit entry for a committed mutation. On failure
// the mutation stands, but the omission is detectable through
// domain.ErrAuditNotRecorded.
func (s *VerificationService) appendAudit(ctx context.Context, action, actor, details string) error {
	if err := s.audit.Append(ctx, action, actorOrUnknown(actor), details); err != nil {
		s.metrics.ObserveAuditFailure()
		return fmt.Errorf("%w: %s: %v", domain.ErrAuditNotRecorded, action, err)
	}
	return nil
}

func actorOrUnknown(actor string) string {
	if actor == "" {
		return domain.PerformedByUnknown
	}
	return actor
}

// generateCredential produces the one-time credential for accounts
// materialized by the activation procedure. It is returned to the caller
// once and stored only as a hash.
func generateCredential() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// validateInput converts validator failures into the domain's
// ValidationError so callers see one taxonomy.
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return &domain.ValidationError{Field: first.Field(), Reason: "failed " + first.Tag() + " check"}
	}
	return &domain.ValidationError{Reason: err.Error()}
}
