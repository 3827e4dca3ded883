package rag

import (
	"context"
	"sync"
	"time"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/config"
	"github.com/chatharvard/chatharvard-go/internal/logger"
	"github.com/chatharvard/chatharvard-go/internal/metrics"
)

// ScoreBreakdown records where a candidate's score came from. The
// lexical and semantic parts are filled by retrieval; personalization
// and quality are filled later by the ranker.
type ScoreBreakdown struct {
	Lexical         float64 `json:"lexical"`
	Semantic        float64 `json:"semantic"`
	Quality         float64 `json:"quality"`
	Personalization float64 `json:"personalization"`
	Concentration   float64 `json:"concentration"`
}

// Candidate is a course surfaced by retrieval, carrying its blended
// score and the per-signal breakdown.
type Candidate struct {
	Record    *catalog.CourseRecord `json:"record"`
	Score     float64               `json:"score"`
	Breakdown ScoreBreakdown        `json:"breakdown"`
}

// Retriever runs hybrid search over an Index. It is stateless: the
// Index to search is passed per call so concurrent requests keep using
// the snapshot they started with across a reload.
type Retriever struct {
	cfg     config.RetrievalConfig
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewRetriever creates a retriever with the given fusion settings.
func NewRetriever(cfg config.RetrievalConfig, m *metrics.Metrics, log *logger.Logger) *Retriever {
	return &Retriever{
		cfg:     cfg,
		metrics: m,
		logger:  log.WithModule("rag"),
	}
}

// Retrieve runs lexical and semantic search in parallel and fuses the
// results. A failing side degrades the search to the other side rather
// than failing the request; when both sides fail the result is empty,
// not an error.
func (r *Retriever) Retrieve(ctx context.Context, idx *Index, query string) []Candidate {
	start := time.Now()

	// Over-fetch per side so fusion has overlap to work with.
	perSide := r.cfg.TopK * 2

	var (
		wg       sync.WaitGroup
		lexical  []LexicalResult
		semantic []SemanticResult
		lexErr   error
		semErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		lexStart := time.Now()
		lexical, lexErr = idx.Lexical.Search(query, perSide)
		r.metrics.RecordRetrievalStage("lexical", time.Since(lexStart).Seconds())
	}()
	go func() {
		defer wg.Done()
		semStart := time.Now()
		semantic, semErr = idx.Vector.Search(ctx, query, perSide)
		r.metrics.RecordRetrievalStage("semantic", time.Since(semStart).Seconds())
	}()
	wg.Wait()

	if lexErr != nil {
		r.logger.WithError(lexErr).Warn("Lexical search failed, degrading to semantic only")
		r.metrics.RecordRetrievalDegraded("lexical")
		lexical = nil
	}
	if semErr != nil {
		r.logger.WithError(semErr).Warn("Semantic search failed, degrading to lexical only")
		r.metrics.RecordRetrievalDegraded("semantic")
		semantic = nil
	}

	fused := FuseMinMax(
		lexical, semantic,
		r.cfg.LexicalWeight, r.cfg.SemanticWeight,
		r.cfg.SimilarityFloor, r.cfg.TopK,
	)

	candidates := make([]Candidate, 0, len(fused))
	for _, fr := range fused {
		rec, ok := idx.Store.GetByCode(fr.Code)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{
			Record: rec,
			Score:  fr.Score,
			Breakdown: ScoreBreakdown{
				Lexical:  fr.Lexical,
				Semantic: fr.Semantic,
			},
		})
	}

	r.metrics.RecordRetrievalStage("fusion", time.Since(start).Seconds())
	r.metrics.RecordRetrievalResult(len(candidates))
	return candidates
}

// FastPath resolves explicitly mentioned course codes directly against
// the store, bypassing search. Codes not present in the catalog are
// silently omitted; resolved candidates keep the order the codes were
// given in and carry a full score of 1.0.
func (r *Retriever) FastPath(idx *Index, codes []string) []Candidate {
	if len(codes) == 0 {
		return nil
	}
	candidates := make([]Candidate, 0, len(codes))
	for _, code := range codes {
		rec, ok := idx.Store.GetByCode(code)
		if !ok {
			r.logger.WithField("code", code).Debug("Mentioned course not in catalog")
			continue
		}
		candidates = append(candidates, Candidate{
			Record:    rec,
			Score:     1.0,
			Breakdown: ScoreBreakdown{Lexical: 1.0, Semantic: 1.0},
		})
	}
	return candidates
}
