package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/chatharvard/chatharvard-go/internal/errors"
)

// FallbackEmbedder wraps a primary and fallback Embedder.
// Failover layers:
//  1. retry with backoff inside each provider
//  2. provider fallback (primary → fallback)
//  3. the caller degrades retrieval to lexical-only when both fail
type FallbackEmbedder struct {
	primary  Embedder
	fallback Embedder
}

// NewFallbackEmbedder builds the provider chain from whatever is
// configured. Returns nil when no provider has a key, which disables
// semantic search entirely.
func NewFallbackEmbedder(primary, fallback Embedder) *FallbackEmbedder {
	if primary != nil && !primary.IsConfigured() {
		primary = nil
	}
	if fallback != nil && !fallback.IsConfigured() {
		fallback = nil
	}
	if primary == nil {
		primary, fallback = fallback, nil
	}
	if primary == nil {
		return nil
	}
	return &FallbackEmbedder{primary: primary, fallback: fallback}
}

// Provider reports the active primary provider.
func (f *FallbackEmbedder) Provider() Provider {
	return f.primary.Provider()
}

// IsConfigured reports whether at least one provider is usable.
func (f *FallbackEmbedder) IsConfigured() bool {
	return f != nil && f.primary != nil
}

// Embed tries the primary embedder, then the fallback.
func (f *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f == nil || f.primary == nil {
		return nil, errors.New("no embedding provider configured")
	}

	start := time.Now()
	vector, err := f.primary.Embed(ctx, text)
	if err == nil {
		return vector, nil
	}

	action := ClassifyError(err)
	slog.WarnContext(ctx, "primary embedder failed",
		"provider", f.primary.Provider(),
		"error", err,
		"action", action.String(),
		"duration_ms", time.Since(start).Milliseconds())

	if action == ActionFail || f.fallback == nil {
		return nil, err
	}

	slog.InfoContext(ctx, "falling back to secondary embedder",
		"from", f.primary.Provider(),
		"to", f.fallback.Provider())

	vector, err = f.fallback.Embed(ctx, text)
	if err == nil {
		return vector, nil
	}

	slog.ErrorContext(ctx, "all embedding providers failed",
		"primary", f.primary.Provider(),
		"fallback", f.fallback.Provider(),
		"error", err)

	return nil, fmt.Errorf("%w: all embedding providers failed: %w", domerrors.ErrUpstream, err)
}
