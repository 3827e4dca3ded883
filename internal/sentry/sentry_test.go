package sentry

import (
	"testing"
	"time"
)

func TestInitializeDisabledWithoutToken(t *testing.T) {
	if err := Initialize(Config{}); err != nil {
		t.Errorf("Initialize() with empty token = %v, want nil (disabled)", err)
	}
	if IsEnabled() {
		t.Error("IsEnabled() = true without a token")
	}
}

func TestInitializeRequiresHost(t *testing.T) {
	if err := Initialize(Config{Token: "tok"}); err == nil {
		t.Error("Initialize() with a token but no host should fail")
	}
}

func TestInitializeAndFlush(t *testing.T) {
	// Sentry keeps global state; no t.Parallel here.
	err := Initialize(Config{
		Token:       "test-token",
		Host:        "errors.betterstack.com",
		Environment: "test",
	})
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !IsEnabled() {
		t.Error("IsEnabled() = false after Initialize")
	}
	if !Flush(time.Second) {
		t.Error("Flush() = false with no pending events")
	}
}
