package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestSessionID(t *testing.T) {
	ctx := context.Background()

	if got := GetSessionID(ctx); got != "" {
		t.Errorf("GetSessionID on empty context = %q, want empty", got)
	}

	ctx = WithSessionID(ctx, "session-42")
	if got := GetSessionID(ctx); got != "session-42" {
		t.Errorf("GetSessionID = %q, want session-42", got)
	}
}

func TestSessionIDEmptyValue(t *testing.T) {
	ctx := WithSessionID(context.Background(), "")
	if got := GetSessionID(ctx); got != "" {
		t.Errorf("GetSessionID with empty stored value = %q, want empty", got)
	}
}

func TestMustGetSessionIDPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for missing session ID")
		}
	}()
	MustGetSessionID(context.Background())
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()

	if _, ok := GetRequestID(ctx); ok {
		t.Error("GetRequestID on empty context should report not found")
	}

	ctx = WithRequestID(ctx, "req-7")
	got, ok := GetRequestID(ctx)
	if !ok || got != "req-7" {
		t.Errorf("GetRequestID = (%q, %v), want (req-7, true)", got, ok)
	}

	if got := MustGetRequestID(ctx); got != "req-7" {
		t.Errorf("MustGetRequestID = %q, want req-7", got)
	}
}

func TestPreserveTracing(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	parent = WithSessionID(parent, "session-1")
	parent = WithRequestID(parent, "req-1")

	detached := PreserveTracing(parent)

	// Tracing values survive
	if got := GetSessionID(detached); got != "session-1" {
		t.Errorf("detached session ID = %q, want session-1", got)
	}
	if got, ok := GetRequestID(detached); !ok || got != "req-1" {
		t.Errorf("detached request ID = (%q, %v), want (req-1, true)", got, ok)
	}

	// Deadline does not
	if _, ok := detached.Deadline(); ok {
		t.Error("detached context should not inherit deadline")
	}

	cancel()
	select {
	case <-detached.Done():
		t.Error("detached context should not inherit cancellation")
	default:
	}
}

func TestPreserveTracingEmpty(t *testing.T) {
	detached := PreserveTracing(context.Background())
	if got := GetSessionID(detached); got != "" {
		t.Errorf("expected no session ID, got %q", got)
	}
}
