package genai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

// ErrorAction defines the action to take based on error type.
type ErrorAction int

const (
	// ActionRetry indicates the request should be retried with the same provider.
	ActionRetry ErrorAction = iota
	// ActionFallback indicates fallback to the other provider should be attempted.
	ActionFallback
	// ActionFail indicates the request should fail immediately (permanent error).
	ActionFail
)

// String returns a human-readable string for the error action.
func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// ProviderError wraps a provider failure with the context retry and
// fallback decisions need.
type ProviderError struct {
	Err        error
	StatusCode int
	Provider   Provider
	Retryable  bool
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return e.Err.Error() + " (status: " + strconv.Itoa(e.StatusCode) + ")"
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ClassifyError determines the appropriate action for a provider error:
//   - transient (429, 5xx, network) → Retry
//   - quota exhaustion after retries, auth, unknown model → Fallback
//   - bad request, cancellation → Fail
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionFail
	}

	if errors.Is(err, context.Canceled) {
		return ActionFail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ActionRetry
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.StatusCode {
		case http.StatusTooManyRequests:
			return ActionRetry
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			// Misconfigured provider; the other one may still work.
			return ActionFallback
		case http.StatusBadRequest:
			return ActionFail
		}
		if pe.StatusCode >= 500 {
			return ActionRetry
		}
		if pe.Retryable {
			return ActionRetry
		}
		return ActionFallback
	}

	// Unclassified errors (network, decode) are worth one more shot.
	return ActionRetry
}

// IsPermanent reports whether an error should never be retried.
func IsPermanent(err error) bool {
	return ClassifyError(err) == ActionFail
}
