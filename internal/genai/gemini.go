package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	googlegenai "google.golang.org/genai"

	"github.com/chatharvard/chatharvard-go/internal/ratelimit"
)

const (
	// GeminiEmbeddingModel supports MRL truncation to EmbeddingDimensions.
	GeminiEmbeddingModel = "gemini-embedding-001"

	// geminiRateLimit is the requests per minute limit (1000 RPM for the
	// embedding API).
	geminiRateLimit = 1000
)

// GeminiEmbedder generates embeddings via the Gemini embedding API.
// It is the fallback provider.
type GeminiEmbedder struct {
	client      *googlegenai.Client
	rateLimiter *ratelimit.Limiter
	retryConfig RetryConfig
	metrics     MetricsRecorder
}

// NewGeminiEmbedder creates the fallback embedding client. An empty API
// key yields an unconfigured embedder that fails fast.
func NewGeminiEmbedder(ctx context.Context, apiKey string, m MetricsRecorder) (*GeminiEmbedder, error) {
	e := &GeminiEmbedder{
		rateLimiter: ratelimit.NewPerMinute(geminiRateLimit),
		retryConfig: DefaultRetryConfig(),
		metrics:     m,
	}
	if apiKey == "" {
		return e, nil
	}

	client, err := googlegenai.NewClient(ctx, &googlegenai.ClientConfig{
		APIKey:  apiKey,
		Backend: googlegenai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	e.client = client
	return e, nil
}

// Provider identifies this embedder.
func (e *GeminiEmbedder) Provider() Provider {
	return ProviderGemini
}

// IsConfigured returns true if the API key is set.
func (e *GeminiEmbedder) IsConfigured() bool {
	return e.client != nil
}

// Embed generates an embedding vector for the given text.
// Transient errors (429, 5xx, network) retry with exponential backoff.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.client == nil {
		return nil, &ProviderError{
			Err:      fmt.Errorf("gemini API key not configured"),
			Provider: ProviderGemini,
		}
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty or whitespace-only text cannot be embedded")
	}

	start := time.Now()
	var vector []float32

	err := WithRetry(ctx, e.retryConfig, nil, func() error {
		if err := e.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := e.client.Models.EmbedContent(ctx, GeminiEmbeddingModel,
			googlegenai.Text(text),
			&googlegenai.EmbedContentConfig{
				OutputDimensionality: googlegenai.Ptr[int32](EmbeddingDimensions),
			})
		if err != nil {
			pe := &ProviderError{Err: err, Provider: ProviderGemini, Retryable: true}
			var apierr googlegenai.APIError
			if errors.As(err, &apierr) {
				pe.StatusCode = apierr.Code
			}
			return pe
		}
		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
			return &ProviderError{
				Err:      fmt.Errorf("empty embedding returned"),
				Provider: ProviderGemini,
			}
		}

		vector = resp.Embeddings[0].Values
		return nil
	})

	if e.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		e.metrics.RecordEmbeddingRequest(string(ProviderGemini), status, time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	return vector, nil
}
