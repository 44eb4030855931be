package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when the requested action does not apply to the job's current status
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrForbidden is returned when the actor's role or identity may not perform the action
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned for unknown job, user or machine ids
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable wraps network and database failures
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")
)

// ValidationError names the submitted field that is missing or malformed
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
