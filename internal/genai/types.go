// Package genai provides embedding generation for semantic search.
// The engine embeds course descriptions at index build time and the
// user's query at retrieval time; both go through the same Embedder.
package genai

import (
	"context"
	"time"

	chromem "github.com/philippgille/chromem-go"
)

// Provider identifies an embedding provider.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// EmbeddingDimensions is the shared output dimension. Both providers
// support matryoshka truncation to this size, which keeps the vector
// store provider-agnostic.
const EmbeddingDimensions = 768

// Embedder generates an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Provider() Provider
	IsConfigured() bool
}

// RetryConfig controls retry behavior for transient provider errors.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig is tuned for interactive requests: a couple of
// quick retries, never more than a few seconds total.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     4 * time.Second,
	}
}

// MetricsRecorder is the subset of the metrics surface the embedding
// clients report to.
type MetricsRecorder interface {
	RecordEmbeddingRequest(provider, status string, duration float64)
}

// NewEmbeddingFunc adapts an Embedder into a chromem-go EmbeddingFunc.
func NewEmbeddingFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return e.Embed(ctx, text)
	}
}
