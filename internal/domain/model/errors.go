package model

import (
	"errors"
	"fmt"
)

// ErrAuthentication indicates the supplied master password does not unlock
// the vault: key derivation succeeded but the sentinel record failed its
// integrity check.
var ErrAuthentication = errors.New("authentication failed: invalid master password")

// ErrValidation is the class sentinel for all input validation failures.
// Concrete failures are *ValidationError values; errors.Is(err, ErrValidation)
// matches them.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a field-level problem with an account, position,
// or watchlist item supplied to a write operation.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
