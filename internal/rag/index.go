package rag

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	domerrors "github.com/chatharvard/chatharvard-go/internal/errors"
	"github.com/chatharvard/chatharvard-go/internal/logger"
)

// Index bundles everything retrieval needs for one catalog snapshot:
// the store the scores refer to, the lexical index built over it, and
// the vector collection synced to it. Swapping to a new snapshot means
// swapping the whole Index so the three never disagree.
type Index struct {
	Store   *catalog.Store
	Lexical *BM25Index
	Vector  *VectorDB
}

// BuildIndex constructs the lexical index for the store and syncs the
// vector database to it, in parallel since the vector side may call
// out to an embedding provider. vdb may be nil (semantic search
// disabled).
func BuildIndex(ctx context.Context, store *catalog.Store, vdb *VectorDB, log *logger.Logger) (*Index, error) {
	var lexical *BM25Index

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lexical, err = NewBM25Index(store, log)
		if err != nil {
			return fmt.Errorf("failed to build lexical index: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := vdb.Initialize(gctx, store); err != nil {
			return fmt.Errorf("failed to initialize vector database: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Index{
		Store:   store,
		Lexical: lexical,
		Vector:  vdb,
	}, nil
}

// Provider hands out the current Index without locking. Readers get a
// consistent snapshot; a reload builds a fresh Index off to the side
// and publishes it with Swap.
type Provider struct {
	index atomic.Pointer[Index]
}

// NewProvider creates an empty provider. Current returns an error
// until the first Swap.
func NewProvider() *Provider {
	return &Provider{}
}

// Current returns the active index, or ErrCatalogUnavailable when no
// index has been published yet.
func (p *Provider) Current() (*Index, error) {
	idx := p.index.Load()
	if idx == nil {
		return nil, domerrors.ErrCatalogUnavailable
	}
	return idx, nil
}

// Swap publishes a new index and returns the previous one (nil on the
// first call).
func (p *Provider) Swap(idx *Index) *Index {
	return p.index.Swap(idx)
}

// Ready reports whether an index has been published.
func (p *Provider) Ready() bool {
	return p.index.Load() != nil
}
