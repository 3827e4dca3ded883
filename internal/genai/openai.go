package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/chatharvard/chatharvard-go/internal/ratelimit"
	"github.com/chatharvard/chatharvard-go/internal/timeouts"
)

const (
	// DefaultOpenAIEmbeddingModel supports matryoshka truncation down to
	// EmbeddingDimensions.
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"

	// openAIRateLimit is requests per minute (tier-1 account limit).
	openAIRateLimit = 3000
)

// OpenAIEmbedder generates embeddings via the OpenAI embeddings API.
// It is the primary provider.
type OpenAIEmbedder struct {
	client      openai.Client
	model       string
	configured  bool
	rateLimiter *ratelimit.Limiter
	retryConfig RetryConfig
	metrics     MetricsRecorder
}

// NewOpenAIEmbedder creates the primary embedding client. A nil metrics
// recorder disables instrumentation. An empty API key yields an
// unconfigured embedder that fails fast, letting the caller fall back.
func NewOpenAIEmbedder(apiKey, model string, m MetricsRecorder) *OpenAIEmbedder {
	if model == "" {
		model = DefaultOpenAIEmbeddingModel
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(timeouts.EmbeddingRequest),
		),
		model:       model,
		configured:  apiKey != "",
		rateLimiter: ratelimit.NewPerMinute(openAIRateLimit),
		retryConfig: DefaultRetryConfig(),
		metrics:     m,
	}
}

// Provider identifies this embedder.
func (e *OpenAIEmbedder) Provider() Provider {
	return ProviderOpenAI
}

// IsConfigured returns true if the API key is set.
func (e *OpenAIEmbedder) IsConfigured() bool {
	return e.configured
}

// Embed generates an embedding vector for the given text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !e.configured {
		return nil, &ProviderError{
			Err:      fmt.Errorf("openai API key not configured"),
			Provider: ProviderOpenAI,
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

		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
			Model:      openai.EmbeddingModel(e.model),
			Dimensions: openai.Int(EmbeddingDimensions),
		})
		if err != nil {
			pe := &ProviderError{Err: err, Provider: ProviderOpenAI, Retryable: true}
			var apierr *openai.Error
			if errors.As(err, &apierr) {
				pe.StatusCode = apierr.StatusCode
			}
			return pe
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return &ProviderError{
				Err:      fmt.Errorf("empty embedding returned"),
				Provider: ProviderOpenAI,
			}
		}

		vector = make([]float32, len(resp.Data[0].Embedding))
		for i, v := range resp.Data[0].Embedding {
			vector[i] = float32(v)
		}
		return nil
	})

	if e.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		e.metrics.RecordEmbeddingRequest(string(ProviderOpenAI), status, time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	return vector, nil
}
