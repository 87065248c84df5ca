// Package service provides the application-level event participation
// lifecycle operations.
package service

import "fmt"

// Error handling principles:
//  1. Expected conditions surface as sentinel errors the caller checks with
//     errors.Is: store.ErrEventNotFound for absent events and
//     domain.ErrInvalidState (via domain.ErrEventCancelled) for operations a
//     cancelled event no longer permits.
//  2. Unexpected storage failures are wrapped in EventServiceError with the
//     failing operation attached.
//  3. Notification outcomes never become errors here: the caller's success
//     or failure depends strictly on the state mutation.

// EventServiceError is a custom error type for event service errors.
type EventServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for EventServiceError.
func (e *EventServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("event service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("event service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *EventServiceError) Unwrap() error {
	return e.Err
}

// NewEventServiceError creates a new EventServiceError.
func NewEventServiceError(operation, message string, err error) *EventServiceError {
	return &EventServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
