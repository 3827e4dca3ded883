// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the server, the retrieval pipeline, ranking weights, and external services.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	domerrors "github.com/chatharvard/chatharvard-go/internal/errors"
	"github.com/chatharvard/chatharvard-go/internal/stringutil"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir string // Directory holding the catalog SQLite database and vector store

	// Embedding Provider Configuration
	OpenAIAPIKey         string // OpenAI API key for embeddings (primary provider)
	OpenAIEmbeddingModel string // Model name (default: text-embedding-3-small)
	GeminiAPIKey         string // Gemini API key for embeddings (fallback provider)

	// Retrieval Configuration
	Retrieval RetrievalConfig

	// Ranking Configuration
	Ranker RankerWeights

	// Context Builder Configuration
	ContextBudgetChars int // Maximum context payload size in characters
	HistoryWindow      int // Trailing conversation turns considered

	// Request Limits
	SessionRateTokens float64       // token bucket size per chat session
	SessionRateRefill float64       // tokens per second refill per session
	ReadinessTimeout  time.Duration // readiness reports ready after this even if warmup is slow
	AdminToken        string        // bearer token for the catalog refresh endpoint (empty = disabled)

	// Catalog Snapshot (R2) Configuration
	R2 R2Config

	// Metrics Authentication
	MetricsUsername string
	MetricsPassword string // empty = no auth on /metrics

	// Sentry / Better Stack
	SentryToken         string // Better Stack Errors token (empty = disabled)
	SentryHost          string
	BetterStackToken    string // Better Stack Logs token (empty = disabled)
	BetterStackEndpoint string
	Environment         string
}

// RetrievalConfig holds the hybrid retriever knobs.
type RetrievalConfig struct {
	TopK            int     // Candidate cap after fusion (default: 50)
	SimilarityFloor float64 // Fused scores at or below this are discarded (default: 0.05)
	LexicalWeight   float64 // Weight of the BM25 side of fusion (default: 0.5)
	SemanticWeight  float64 // Weight of the vector side of fusion (default: 0.5)
}

// RankerWeights holds the final-score blend of the personalized ranker.
// The individual weights are policy, not contract; they must sum to 1.0.
type RankerWeights struct {
	Retrieval       float64 // Fused lexical+semantic relevance (default: 0.2)
	Personalization float64 // Interest/preference tag overlap (default: 0.3)
	Quality         float64 // Rating and workload fit (default: 0.4)
	Concentration   float64 // Department matches concentration (default: 0.1)
}

// Sum returns the total of all ranker weights.
func (w RankerWeights) Sum() float64 {
	return w.Retrieval + w.Personalization + w.Quality + w.Concentration
}

// R2Config holds Cloudflare R2 settings for catalog snapshot sync.
// The feature is disabled when AccountID is empty.
type R2Config struct {
	AccountID    string
	AccessKeyID  string
	SecretKey    string
	BucketName   string
	SnapshotKey  string        // Object key of the catalog snapshot (zstd-compressed SQLite)
	PollInterval time.Duration // How often to check for a newer snapshot
}

// Enabled reports whether snapshot sync is configured.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.SecretKey != "" && r.BucketName != ""
}

// Endpoint returns the R2 S3-compatible endpoint for the account.
func (r R2Config) Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.AccountID)
}

// Load reads configuration from environment variables.
// It attempts to load a .env file first, then reads from env vars.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// Server Configuration
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Data Configuration
		DataDir: getEnv("DATA_DIR", "./data"),

		// Embedding Provider Configuration
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIEmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),

		// Retrieval Configuration
		Retrieval: RetrievalConfig{
			TopK:            getIntEnv("RETRIEVAL_TOP_K", 50),
			SimilarityFloor: getFloatEnv("RETRIEVAL_SIMILARITY_FLOOR", 0.05),
			LexicalWeight:   getFloatEnv("RETRIEVAL_LEXICAL_WEIGHT", 0.5),
			SemanticWeight:  getFloatEnv("RETRIEVAL_SEMANTIC_WEIGHT", 0.5),
		},

		// Ranking Configuration
		Ranker: RankerWeights{
			Retrieval:       getFloatEnv("RANKER_RETRIEVAL_WEIGHT", 0.2),
			Personalization: getFloatEnv("RANKER_PERSONALIZATION_WEIGHT", 0.3),
			Quality:         getFloatEnv("RANKER_QUALITY_WEIGHT", 0.4),
			Concentration:   getFloatEnv("RANKER_CONCENTRATION_WEIGHT", 0.1),
		},

		// Context Builder Configuration
		ContextBudgetChars: getIntEnv("CONTEXT_BUDGET_CHARS", 16000),
		HistoryWindow:      getIntEnv("HISTORY_WINDOW", 10),

		// Request Limits
		SessionRateTokens: getFloatEnv("SESSION_RATE_TOKENS", 5),
		SessionRateRefill: getFloatEnv("SESSION_RATE_REFILL", 0.5),
		ReadinessTimeout:  getDurationEnv("READINESS_TIMEOUT", 5*time.Minute),
		AdminToken:        getEnv("ADMIN_TOKEN", ""),

		// Catalog Snapshot Configuration
		R2: R2Config{
			AccountID:    getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:  getEnv("R2_ACCESS_KEY_ID", ""),
			SecretKey:    getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:   getEnv("R2_BUCKET_NAME", ""),
			SnapshotKey:  getEnv("R2_SNAPSHOT_KEY", "snapshots/catalog.db.zst"),
			PollInterval: getDurationEnv("R2_SNAPSHOT_POLL_INTERVAL", time.Hour),
		},

		// Metrics Authentication
		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		// Sentry / Better Stack
		SentryToken:         getEnv("SENTRY_TOKEN", ""),
		SentryHost:          getEnv("SENTRY_HOST", "errors.betterstack.com"),
		BetterStackToken:    getEnv("BETTERSTACK_TOKEN", ""),
		BetterStackEndpoint: getEnv("BETTERSTACK_ENDPOINT", ""),
		Environment:         getEnv("ENVIRONMENT", "production"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, domerrors.NewValidationError("PORT", "required"))
	} else if !stringutil.IsNumeric(c.Port) {
		errs = append(errs, domerrors.NewValidationError("PORT", fmt.Sprintf("must be numeric, got %q", c.Port)))
	}
	if c.DataDir == "" {
		errs = append(errs, domerrors.NewValidationError("DATA_DIR", "required"))
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, domerrors.NewValidationError("RETRIEVAL_TOP_K", fmt.Sprintf("must be positive, got %d", c.Retrieval.TopK)))
	}
	if c.Retrieval.SimilarityFloor < 0 || c.Retrieval.SimilarityFloor >= 1 {
		errs = append(errs, domerrors.NewValidationError("RETRIEVAL_SIMILARITY_FLOOR", fmt.Sprintf("must be in [0,1), got %v", c.Retrieval.SimilarityFloor)))
	}
	if sum := c.Retrieval.LexicalWeight + c.Retrieval.SemanticWeight; !closeTo(sum, 1.0) {
		errs = append(errs, domerrors.NewValidationError("retrieval fusion weights", fmt.Sprintf("must sum to 1.0, got %v", sum)))
	}
	if sum := c.Ranker.Sum(); !closeTo(sum, 1.0) {
		errs = append(errs, domerrors.NewValidationError("ranker weights", fmt.Sprintf("must sum to 1.0, got %v", sum)))
	}
	if c.ContextBudgetChars <= 0 {
		errs = append(errs, domerrors.NewValidationError("CONTEXT_BUDGET_CHARS", fmt.Sprintf("must be positive, got %d", c.ContextBudgetChars)))
	}
	if c.HistoryWindow < 1 {
		errs = append(errs, domerrors.NewValidationError("HISTORY_WINDOW", fmt.Sprintf("must be at least 1, got %d", c.HistoryWindow)))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func closeTo(got, want float64) bool {
	const epsilon = 1e-6
	diff := got - want
	return diff < epsilon && diff > -epsilon
}

// SQLitePath returns the full path to the catalog SQLite database file.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// getEnv retrieves a string environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
