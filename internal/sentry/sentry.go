// Package sentry wires error tracking for the advisor service. Events
// go to a Better Stack Errors ingest host through the Sentry SDK; an
// empty token disables the whole integration.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config controls the error-tracking integration.
type Config struct {
	Token       string  // Better Stack Errors token; empty disables tracking
	Host        string  // ingest host, e.g. "errors.betterstack.com"
	Environment string  // deployment environment name
	Release     string  // application release identifier
	SampleRate  float64 // 0 means sample everything
	Debug       bool
}

// Initialize sets up the SDK. The DSN is assembled as
// https://TOKEN@HOST/1; Better Stack ignores the project segment but
// the SDK requires one.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return fmt.Errorf("sentry: host is required when a token is set")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              fmt.Sprintf("https://%s@%s/1", cfg.Token, cfg.Host),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// IsEnabled reports whether the SDK was initialized.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// Flush drains buffered events; reports whether everything was sent
// within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// CaptureException reports an error on the hub bound to ctx when the
// request middleware put one there, falling back to the global hub.
func CaptureException(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}
