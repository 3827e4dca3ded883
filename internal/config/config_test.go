package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.05, cfg.Retrieval.SimilarityFloor, 1e-9)
	assert.InDelta(t, 0.5, cfg.Retrieval.LexicalWeight, 1e-9)
	assert.InDelta(t, 0.5, cfg.Retrieval.SemanticWeight, 1e-9)
	assert.InDelta(t, 1.0, cfg.Ranker.Sum(), 1e-9)
	assert.Equal(t, 16000, cfg.ContextBudgetChars)
	assert.Equal(t, 10, cfg.HistoryWindow)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RETRIEVAL_TOP_K", "25")
	t.Setenv("RANKER_RETRIEVAL_WEIGHT", "0.25")
	t.Setenv("RANKER_PERSONALIZATION_WEIGHT", "0.25")
	t.Setenv("RANKER_QUALITY_WEIGHT", "0.25")
	t.Setenv("RANKER_CONCENTRATION_WEIGHT", "0.25")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 25, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.25, cfg.Ranker.Quality, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadMalformedEnvFallsBack(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "not-a-number")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	t.Setenv("RETRIEVAL_SIMILARITY_FLOOR", "zero")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Retrieval.TopK)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.InDelta(t, 0.05, cfg.Retrieval.SimilarityFloor, 1e-9)
}

func TestValidateRankerWeights(t *testing.T) {
	t.Setenv("RANKER_QUALITY_WEIGHT", "0.9")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed on ranker weights: must sum to 1.0")
}

func TestValidateFusionWeights(t *testing.T) {
	t.Setenv("RETRIEVAL_LEXICAL_WEIGHT", "0.7")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed on retrieval fusion weights: must sum to 1.0")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Port:    "",
		DataDir: "",
		Retrieval: RetrievalConfig{
			TopK:            0,
			SimilarityFloor: 1.5,
			LexicalWeight:   0.5,
			SemanticWeight:  0.5,
		},
		Ranker: RankerWeights{
			Retrieval:       0.2,
			Personalization: 0.3,
			Quality:         0.4,
			Concentration:   0.1,
		},
		ContextBudgetChars: 16000,
		HistoryWindow:      10,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed on PORT: required")
	assert.Contains(t, err.Error(), "validation failed on DATA_DIR: required")
	assert.Contains(t, err.Error(), "validation failed on RETRIEVAL_TOP_K: must be positive")
	assert.Contains(t, err.Error(), "RETRIEVAL_SIMILARITY_FLOOR")
}

func TestSQLitePath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/catalog"}
	assert.Equal(t, "/var/lib/catalog/catalog.db", cfg.SQLitePath())
}

func TestR2ConfigEnabled(t *testing.T) {
	r2 := R2Config{}
	assert.False(t, r2.Enabled())

	r2 = R2Config{
		AccountID:   "acct",
		AccessKeyID: "key",
		SecretKey:   "secret",
		BucketName:  "bucket",
	}
	assert.True(t, r2.Enabled())
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com", r2.Endpoint())
}

func TestValidatePortNumeric(t *testing.T) {
	t.Setenv("PORT", "eight-thousand")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed on PORT: must be numeric")
}
