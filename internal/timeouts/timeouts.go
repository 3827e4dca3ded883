// Package timeouts provides centralized timeout constants for the application.
//
// These values are tuned around:
//   - Embedding API latency (OpenAI and Gemini round trips)
//   - SQLite performance characteristics (WAL mode, busy timeout)
//   - Catalog snapshot download sizes from object storage
package timeouts

import "time"

// HTTP server timeouts
const (
	// RequestProcessing is the timeout for handling a single chat request.
	// Covers query extraction, hybrid retrieval (including one embedding API
	// round trip), ranking, and context assembly.
	RequestProcessing = 25 * time.Second

	// HTTPRead is the HTTP server read timeout.
	// Chat payloads are small JSON bodies, so this can be short.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the HTTP server write timeout.
	// Should accommodate RequestProcessing + response serialization.
	HTTPWrite = 30 * time.Second

	// HTTPIdle is the HTTP server idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// Embedding API timeouts
const (
	// EmbeddingRequest is the timeout for a single embedding API call.
	EmbeddingRequest = 15 * time.Second

	// EmbeddingRetryInitial is the initial delay before retrying a failed call.
	// Uses exponential backoff: 1s -> 2s -> 4s
	EmbeddingRetryInitial = time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	// Handles read contention while a snapshot reload is in progress.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	// Prevents stale connections and allows connection pool refresh.
	DatabaseConnMaxLifetime = time.Hour
)

// Snapshot sync
const (
	// SnapshotDownload is the timeout for downloading a catalog snapshot
	// from object storage, including decompression.
	SnapshotDownload = 5 * time.Minute

	// SnapshotHead is the timeout for a metadata-only snapshot check.
	SnapshotHead = 10 * time.Second
)

// Background job intervals
const (
	// RateLimiterCleanupInterval is how often inactive per-session rate
	// limiters are cleaned up.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Warmup timeouts
const (
	// WarmupDefault is the default timeout for the entire warmup process,
	// dominated by embedding the full catalog on a cold vector store.
	WarmupDefault = 30 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	// Allows in-flight requests to complete before forceful termination.
	GracefulShutdown = 30 * time.Second
)
