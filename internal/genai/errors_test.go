package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorAction
	}{
		{"nil", nil, ActionFail},
		{"canceled", context.Canceled, ActionFail},
		{"deadline", context.DeadlineExceeded, ActionRetry},
		{"rate limited", &ProviderError{Err: errors.New("x"), StatusCode: http.StatusTooManyRequests}, ActionRetry},
		{"server error", &ProviderError{Err: errors.New("x"), StatusCode: http.StatusBadGateway}, ActionRetry},
		{"unauthorized", &ProviderError{Err: errors.New("x"), StatusCode: http.StatusUnauthorized}, ActionFallback},
		{"not found", &ProviderError{Err: errors.New("x"), StatusCode: http.StatusNotFound}, ActionFallback},
		{"bad request", &ProviderError{Err: errors.New("x"), StatusCode: http.StatusBadRequest}, ActionFail},
		{"network retryable", &ProviderError{Err: errors.New("x"), Retryable: true}, ActionRetry},
		{"empty result", &ProviderError{Err: errors.New("x")}, ActionFallback},
		{"plain error", errors.New("decode failed"), ActionRetry},
		{"wrapped provider error", fmt.Errorf("embed: %w", &ProviderError{Err: errors.New("x"), StatusCode: 503}), ActionRetry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	pe := &ProviderError{Err: inner, StatusCode: 500, Provider: ProviderOpenAI}

	if !errors.Is(pe, inner) {
		t.Error("ProviderError should unwrap to its cause")
	}
	if got := pe.Error(); got != "boom (status: 500)" {
		t.Errorf("Error() = %q", got)
	}

	noStatus := &ProviderError{Err: inner}
	if got := noStatus.Error(); got != "boom" {
		t.Errorf("Error() without status = %q", got)
	}
}

func TestErrorActionString(t *testing.T) {
	if ActionRetry.String() != "retry" || ActionFallback.String() != "fallback" || ActionFail.String() != "fail" {
		t.Error("unexpected ErrorAction string values")
	}
	if ErrorAction(99).String() != "unknown" {
		t.Error("out-of-range action should stringify as unknown")
	}
}
