// Package rag provides the hybrid retrieval layer: BM25 keyword search
// and chromem-go vector search over the course catalog, fused into one
// candidate list.
package rag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iwilltry42/bm25-go/bm25"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/logger"
)

// BM25 parameters. k1=1.5, b=0.75 are the standard defaults.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// LexicalResult is one BM25 hit, referencing a corpus position in the
// store the index was built from.
type LexicalResult struct {
	Index int     // position in store.Courses()
	Code  string
	Score float64 // raw BM25 score (higher is better)
}

// BM25Index scores courses by keyword relevance. It is immutable after
// construction, like the store it is built from.
type BM25Index struct {
	okapi *bm25.BM25Okapi
	store *catalog.Store
	log   *logger.Logger
}

// NewBM25Index builds the lexical index over title+description+department
// of every course in the store.
func NewBM25Index(store *catalog.Store, log *logger.Logger) (*BM25Index, error) {
	records := store.Courses()
	corpus := make([]string, len(records))
	for i := range records {
		corpus[i] = records[i].SearchText()
	}

	idx := &BM25Index{store: store, log: log}
	if len(corpus) == 0 {
		return idx, nil
	}

	okapi, err := bm25.NewBM25Okapi(corpus, tokenize, bm25K1, bm25B, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create BM25 index: %w", err)
	}
	idx.okapi = okapi

	log.WithModule("rag").WithField("docs", len(corpus)).Info("BM25 index built")
	return idx, nil
}

// Search scores every document against the query and returns the topN
// positive hits, sorted by score descending. Score ties break by higher
// rating, then by code.
func (idx *BM25Index) Search(query string, topN int) ([]LexicalResult, error) {
	if idx == nil || idx.okapi == nil {
		return nil, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores, err := idx.okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("BM25 scoring failed: %w", err)
	}

	results := make([]LexicalResult, 0, len(scores))
	for i, score := range scores {
		if score > 0 {
			results = append(results, LexicalResult{
				Index: i,
				Code:  idx.store.At(i).Code,
				Score: score,
			})
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		ra, rb := results[a], results[b]
		if ra.Score != rb.Score {
			return ra.Score > rb.Score
		}
		// Tie-break: higher rating first (absent lowest), then code.
		ratingA := ratingOrNegative(idx.store.At(ra.Index))
		ratingB := ratingOrNegative(idx.store.At(rb.Index))
		if ratingA != ratingB {
			return ratingA > ratingB
		}
		return ra.Code < rb.Code
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

func ratingOrNegative(rec *catalog.CourseRecord) float64 {
	if rec.Rating == nil {
		return -1
	}
	return *rec.Rating
}
