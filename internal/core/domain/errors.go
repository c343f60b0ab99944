package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that a referenced record or account does not exist.
	// Several workflow operations treat this as a tolerant no-op instead.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness or concurrent-modification conflict
	// detected at the storage boundary.
	ErrConflict = errors.New("conflict")

	// ErrAuditNotRecorded marks an operation whose account/record mutation
	// committed but whose audit entry could not be appended. The action
	// happened; the omission must stay detectable by the caller.
	ErrAuditNotRecorded = errors.New("audit entry not recorded")
)

// ValidationError reports malformed input, surfaced before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// LinkageError reports that the activation procedure could not find or
// create an account for a verification record. In the admin-create path it
// is surfaced as a warning and does not block the status transition.
type LinkageError struct {
	Email string
	Cause error
}

func (e *LinkageError) Error() string {
	return fmt.Sprintf("account linkage failed for %s: %v", e.Email, e.Cause)
}

func (e *LinkageError) Unwrap() error { return e.Cause }
