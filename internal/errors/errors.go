// Package errors provides domain-specific error types and sentinel errors
// for the advising engine.
//
// The pipeline distinguishes four outcomes: data that is simply absent
// (ErrNotFound, a normal result), malformed user input (ErrInvalidInput,
// handled by degrading rather than failing), a catalog that has not been
// loaded yet (ErrCatalogUnavailable, the only error a request must surface),
// and upstream failures such as the embedding API (ErrUpstream, logged and
// worked around with lexical-only retrieval).
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested course or record was not found.
	// Not an error condition for the caller; propagated as an empty result.
	ErrNotFound = errors.New("resource not found")

	// ErrCatalogUnavailable indicates the course catalog has not been loaded.
	// Retryable: the caller should report a temporary condition.
	ErrCatalogUnavailable = errors.New("catalog not loaded")

	// ErrInvalidInput indicates user-supplied input could not be parsed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream indicates an external dependency (embedding API, object
	// storage) failed. Retrieval degrades instead of failing the request.
	ErrUpstream = errors.New("upstream failure")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrRateLimitExceeded indicates a rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// ValidationError represents a record or parameter that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
