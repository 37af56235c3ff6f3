package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by the workflow engine. Controllers translate these
// into HTTP status codes; the engine itself never retries or swallows them.
var (
	// ErrNotFound is returned for an unknown submission id.
	ErrNotFound = errors.New("submission not found")

	// ErrInvalidTransition is returned when an operation is illegal from the
	// submission's current status.
	ErrInvalidTransition = errors.New("operation not allowed from current status")

	// ErrUnauthorized is returned when the actor is not eligible to perform
	// the transition.
	ErrUnauthorized = errors.New("actor is not eligible for this transition")

	// ErrConflict is returned to the loser of a concurrent transition race.
	// The caller must re-read the submission before retrying.
	ErrConflict = errors.New("submission was modified concurrently")

	// ErrReconciliationRequired is returned for a submission whose stored
	// status diverged from its activity log. Writes stay refused until the
	// flag is cleared manually.
	ErrReconciliationRequired = errors.New("submission is flagged for manual reconciliation")
)

// ValidationError reports a missing or malformed field in a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
