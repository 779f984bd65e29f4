// Package apperror defines the error taxonomy shared by services and handlers.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when a credential is missing, malformed, expired or tampered.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when a valid credential lacks the required role or ownership.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique value (email) is already taken.
	ErrConflict = errors.New("conflict")

	// ErrInsufficientStock is returned when a stock decrement would go below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateSubmission is returned when an idempotency key was already used.
	ErrDuplicateSubmission = errors.New("duplicate submission")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// OrderFailedError wraps the cause of a rolled back checkout.
type OrderFailedError struct {
	Cause error
}

// Error implements the error interface.
func (e *OrderFailedError) Error() string {
	return fmt.Sprintf("order failed: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *OrderFailedError) Unwrap() error {
	return e.Cause
}
