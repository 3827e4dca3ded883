// Package warmup builds the catalog search indexes off the request
// path. The server boots serving 503s, a background build loads the
// course database, constructs the lexical and vector indexes, and
// publishes them; readiness flips once the first build lands.
package warmup

import (
	"context"
	"fmt"
	"time"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/logger"
	"github.com/chatharvard/chatharvard-go/internal/metrics"
	"github.com/chatharvard/chatharvard-go/internal/rag"
)

// CourseSource loads the raw course records an index build starts
// from. *storage.DB and *storage.HotSwapDB both satisfy it.
type CourseSource interface {
	LoadCourses(ctx context.Context) ([]catalog.CourseRecord, error)
}

// Builder rebuilds the catalog store and its indexes and publishes the
// result to the provider.
type Builder struct {
	provider *rag.Provider
	vdb      *rag.VectorDB
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewBuilder creates a Builder. vdb may be nil when semantic search is
// disabled.
func NewBuilder(provider *rag.Provider, vdb *rag.VectorDB, m *metrics.Metrics, log *logger.Logger) *Builder {
	return &Builder{
		provider: provider,
		vdb:      vdb,
		metrics:  m,
		log:      log.WithModule("warmup"),
	}
}

// Rebuild loads the catalog from src, builds a fresh store and index
// snapshot, and swaps it in. trigger names what started the build
// (boot, poll, manual) for logging and metrics.
func (b *Builder) Rebuild(ctx context.Context, src CourseSource, trigger string) (*rag.Index, error) {
	start := time.Now()

	idx, err := b.build(ctx, src)
	if err != nil {
		b.metrics.RecordCatalogReload(trigger, "error", 0)
		b.metrics.RecordWarmupTask("index_build", "error")
		return nil, err
	}

	b.provider.Swap(idx)
	b.metrics.RecordCatalogReload(trigger, "ok", idx.Store.Len())
	b.metrics.RecordWarmupTask("index_build", "ok")
	b.metrics.RecordWarmupDuration(time.Since(start).Seconds())

	b.log.WithFields(map[string]any{
		"trigger":  trigger,
		"courses":  idx.Store.Len(),
		"semantic": idx.Vector.IsEnabled(),
		"duration": time.Since(start).String(),
	}).Info("Catalog index published")

	return idx, nil
}

func (b *Builder) build(ctx context.Context, src CourseSource) (*rag.Index, error) {
	records, err := src.LoadCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("warmup: load courses: %w", err)
	}

	store, stats := catalog.Build(records)
	for reason, count := range stats.Skipped {
		for i := 0; i < count; i++ {
			b.metrics.RecordCatalogSkipped(reason)
		}
	}
	if skipped := stats.SkippedTotal(); skipped > 0 {
		b.log.WithFields(map[string]any{
			"total":   stats.Total,
			"loaded":  stats.Loaded,
			"skipped": skipped,
		}).Warn("Catalog build dropped malformed records")
	}

	idx, err := rag.BuildIndex(ctx, store, b.vdb, b.log)
	if err != nil {
		return nil, fmt.Errorf("warmup: build index: %w", err)
	}
	return idx, nil
}

// RunAsync performs the initial build in the background and marks the
// service ready when it completes. A failed first build leaves the
// readiness timeout in charge; requests get ErrCatalogUnavailable
// until a later rebuild succeeds.
func (b *Builder) RunAsync(ctx context.Context, src CourseSource, state *ReadinessState) {
	go func() {
		if _, err := b.Rebuild(ctx, src, "boot"); err != nil {
			b.log.WithError(err).Error("Initial catalog build failed")
			return
		}
		state.MarkReady()
	}()
}
