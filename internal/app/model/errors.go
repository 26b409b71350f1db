package model

import (
	"errors"
	"fmt"
)

// ErrInvalidIdentifier signals that a candidate id fails the identifier
// syntax. Handlers reject these before any store access.
var ErrInvalidIdentifier = errors.New("invalid route identifier")

// ValidationError reports a payload that failed normalization. It is never
// partially applied: the upsert that produced it leaves all state untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
