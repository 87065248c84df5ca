// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState is returned when an operation is not allowed given
	// the current status of the entity, for example confirming
	// participation in an event that has already been cancelled.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrEventCancelled indicates a mutation targeted an event whose status
	// is already cancelled. Cancellation is terminal.
	ErrEventCancelled = fmt.Errorf("%w: event is cancelled", ErrInvalidState)
)

// ValidationError wraps ErrValidation with the field that failed and a reason.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return "validation failed: " + e.Field + ": " + e.Message
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError wrapping the given cause,
// or ErrValidation when no cause is supplied.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}
