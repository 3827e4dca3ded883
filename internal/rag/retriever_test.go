package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chatharvard/chatharvard-go/internal/config"
	domerrors "github.com/chatharvard/chatharvard-go/internal/errors"
	"github.com/chatharvard/chatharvard-go/internal/logger"
	"github.com/chatharvard/chatharvard-go/internal/metrics"
)

func testRetriever(t *testing.T) (*Retriever, *Index) {
	t.Helper()

	store := testStore(t)
	log := logger.New("error")
	lexical, err := NewBM25Index(store, log)
	if err != nil {
		t.Fatalf("NewBM25Index() error = %v", err)
	}

	idx := &Index{Store: store, Lexical: lexical, Vector: nil}
	cfg := config.RetrievalConfig{
		TopK:            50,
		SimilarityFloor: 0.05,
		LexicalWeight:   0.5,
		SemanticWeight:  0.5,
	}
	m := metrics.New(prometheus.NewRegistry())
	return NewRetriever(cfg, m, log), idx
}

func TestRetrieverRetrieveLexicalOnly(t *testing.T) {
	r, idx := testRetriever(t)

	candidates := r.Retrieve(context.Background(), idx, "introduction to probability")
	if len(candidates) == 0 {
		t.Fatal("Retrieve() returned no candidates")
	}
	if candidates[0].Record.Code != "STAT 110" {
		t.Errorf("Retrieve() top candidate = %s, want STAT 110", candidates[0].Record.Code)
	}

	// Records resolved from the store, scores populated.
	for _, c := range candidates {
		if c.Record == nil {
			t.Fatal("Retrieve() candidate has nil record")
		}
		if c.Score <= 0 {
			t.Errorf("Retrieve() candidate %s has score %f", c.Record.Code, c.Score)
		}
		if c.Breakdown.Semantic != 0 {
			t.Errorf("Retrieve() candidate %s has semantic score %f without a vector index",
				c.Record.Code, c.Breakdown.Semantic)
		}
	}
}

func TestRetrieverRetrieveNoMatch(t *testing.T) {
	r, idx := testRetriever(t)

	candidates := r.Retrieve(context.Background(), idx, "underwater basket weaving")
	if len(candidates) != 0 {
		t.Errorf("Retrieve() with unmatched query returned %d candidates, want 0", len(candidates))
	}
}

func TestRetrieverFastPath(t *testing.T) {
	r, idx := testRetriever(t)

	candidates := r.FastPath(idx, []string{"STAT 110", "CS 50"})
	if len(candidates) != 2 {
		t.Fatalf("FastPath() returned %d candidates, want 2", len(candidates))
	}
	// Mention order preserved, not score order.
	if candidates[0].Record.Code != "STAT 110" || candidates[1].Record.Code != "CS 50" {
		t.Errorf("FastPath() order = [%s, %s], want [STAT 110, CS 50]",
			candidates[0].Record.Code, candidates[1].Record.Code)
	}
	for _, c := range candidates {
		if c.Score != 1.0 {
			t.Errorf("FastPath() candidate %s score = %f, want 1.0", c.Record.Code, c.Score)
		}
	}
}

func TestRetrieverFastPathUnknownCode(t *testing.T) {
	r, idx := testRetriever(t)

	// Unknown codes are dropped silently rather than failing the lookup.
	candidates := r.FastPath(idx, []string{"CS 50", "BASKET 101"})
	if len(candidates) != 1 {
		t.Fatalf("FastPath() returned %d candidates, want 1", len(candidates))
	}
	if candidates[0].Record.Code != "CS 50" {
		t.Errorf("FastPath() candidate = %s, want CS 50", candidates[0].Record.Code)
	}

	if got := r.FastPath(idx, nil); got != nil {
		t.Errorf("FastPath() with no codes = %v, want nil", got)
	}
}

func TestProviderLifecycle(t *testing.T) {
	p := NewProvider()

	if p.Ready() {
		t.Error("Ready() = true before first Swap")
	}
	if _, err := p.Current(); !errors.Is(err, domerrors.ErrCatalogUnavailable) {
		t.Errorf("Current() error = %v, want ErrCatalogUnavailable", err)
	}

	store := testStore(t)
	first := &Index{Store: store}
	if prev := p.Swap(first); prev != nil {
		t.Errorf("first Swap() returned %v, want nil", prev)
	}
	if !p.Ready() {
		t.Error("Ready() = false after Swap")
	}

	got, err := p.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got != first {
		t.Error("Current() did not return the swapped index")
	}

	second := &Index{Store: store}
	if prev := p.Swap(second); prev != first {
		t.Error("Swap() did not return the previous index")
	}
}
