package errors

import (
	"errors"
	"fmt"
)

var (
	// Invoice errors
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrInvoiceAlreadyPaid = errors.New("invoice already paid")
	ErrInvoiceVoid        = errors.New("invoice is void")

	// Payment attempt errors
	ErrAttemptNotFound        = errors.New("payment attempt not found")
	ErrPendingAttemptExists   = errors.New("invoice has a pending payment attempt")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// Storage-level uniqueness races. Surfaced to callers as retryable
	// conflicts, never as crashes.
	ErrDuplicateIdempotencyKey    = errors.New("duplicate idempotency key for invoice")
	ErrDuplicateProviderPaymentID = errors.New("duplicate provider payment id")

	// Validation errors
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrValidationFailed       = errors.New("validation failed")
	ErrInvalidInput           = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
