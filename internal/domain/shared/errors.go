// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrConflict        = errors.New("conflict with current state")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrVersionMismatch        = errors.New("version mismatch")

	// Storage / external errors
	ErrStorage            = errors.New("storage error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "community", "reputation", "matching"
	Op      string // Operation that failed, e.g., "Accept", "ComputeMatches"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Community domain errors
var (
	ErrQuestionNotFound     = NewDomainError("community", "FindQuestion", ErrNotFound, "question not found")
	ErrAnswerNotFound       = NewDomainError("community", "FindAnswer", ErrNotFound, "answer not found")
	ErrAnswerMismatch       = NewDomainError("community", "Accept", ErrInvalidInput, "answer does not belong to question")
	ErrNotQuestionOwner     = NewDomainError("community", "Accept", ErrForbidden, "caller is not the question owner")
	ErrQuestionAccepted     = NewDomainError("community", "Accept", ErrConflict, "question already has an accepted answer")
	ErrQuestionNotOpen      = NewDomainError("community", "Accept", ErrInvalidState, "question is not open")
	ErrInvalidQuestionOwner = NewDomainError("community", "Validate", ErrInvalidID, "invalid question owner id")
)

// Reputation domain errors
var (
	ErrTutorNotFound      = NewDomainError("reputation", "Find", ErrNotFound, "tutor not found")
	ErrNonPositiveDelta   = NewDomainError("reputation", "Increment", ErrValueOutOfRange, "increment delta must be positive")
	ErrInvalidRankingPage = NewDomainError("reputation", "Rank", ErrInvalidInput, "invalid ranking page parameters")
)

// Matching domain errors
var (
	ErrInvalidCriteria   = NewDomainError("matching", "Validate", ErrValidation, "invalid match criteria")
	ErrEmptySubject      = NewDomainError("matching", "Validate", ErrEmptyValue, "criteria subject is required")
	ErrInvertedRateRange = NewDomainError("matching", "Validate", ErrValueOutOfRange, "rate range min exceeds max")
	ErrInvalidWindow     = NewDomainError("matching", "Validate", ErrValueOutOfRange, "availability window is invalid")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsForbidden checks if the error is an authorization error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsConflict checks if the error is a state conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrVersionMismatch)
}
