package genai

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestCalculateBackoff(t *testing.T) {
	if d := CalculateBackoff(0, time.Second, 10*time.Second); d != 0 {
		t.Errorf("attempt 0 backoff = %v, want 0", d)
	}

	// Full jitter: random in [0, cappedDelay)
	for attempt := 1; attempt <= 5; attempt++ {
		d := CalculateBackoff(attempt, time.Second, 4*time.Second)
		if d < 0 || d >= 4*time.Second {
			t.Errorf("attempt %d backoff = %v, want in [0, 4s)", attempt, d)
		}
	}
}

func TestWithRetrySucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(), nil, func() error {
		calls++
		if calls < 3 {
			return &ProviderError{Err: errors.New("flaky"), StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry = %v, want success", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := &ProviderError{Err: errors.New("bad request"), StatusCode: http.StatusBadRequest}
	err := WithRetry(context.Background(), fastRetry(), nil, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("WithRetry = %v, want the permanent error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, permanent errors must not retry", calls)
	}
}

func TestWithRetryStopsOnFallbackError(t *testing.T) {
	calls := 0
	auth := &ProviderError{Err: errors.New("unauthorized"), StatusCode: http.StatusUnauthorized}
	err := WithRetry(context.Background(), fastRetry(), nil, func() error {
		calls++
		return auth
	})
	if !errors.Is(err, auth) {
		t.Fatalf("WithRetry = %v, want the auth error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, fallback-class errors must not retry the same provider", calls)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	retries := 0
	flaky := &ProviderError{Err: errors.New("down"), StatusCode: http.StatusBadGateway}
	err := WithRetry(context.Background(), fastRetry(), func(int, error) { retries++ }, func() error {
		calls++
		return flaky
	})
	if !errors.Is(err, flaky) {
		t.Fatalf("WithRetry = %v, want last error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if retries != 2 {
		t.Errorf("onRetry calls = %d, want 2", retries)
	}
}

func TestWithRetryRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, fastRetry(), nil, func() error {
		t.Fatal("fn should not run with canceled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("WithRetry = %v, want context.Canceled", err)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("zero sleep errored: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep with canceled context = %v, want context.Canceled", err)
	}
}
