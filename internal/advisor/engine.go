// Package advisor runs the full question-answering pipeline for one
// chat turn: extract, retrieve, filter, rank, and build the bounded
// context payload for the downstream LLM call.
package advisor

import (
	"context"
	"sort"
	"time"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/config"
	domerrors "github.com/chatharvard/chatharvard-go/internal/errors"
	"github.com/chatharvard/chatharvard-go/internal/logger"
	"github.com/chatharvard/chatharvard-go/internal/metrics"
	"github.com/chatharvard/chatharvard-go/internal/query"
	"github.com/chatharvard/chatharvard-go/internal/rag"
	"github.com/chatharvard/chatharvard-go/internal/recommend"
	"github.com/chatharvard/chatharvard-go/internal/storage"
)

var (
	respondWrap = domerrors.NewWrapper("advisor", "respond")
	similarWrap = domerrors.NewWrapper("advisor", "similar_courses")
)

// Request is one chat turn's input. Profile and History may be empty;
// PrevQuery carries the previous turn's extraction for follow-up
// inheritance and is nil on a fresh conversation.
type Request struct {
	Utterance string                 `json:"utterance"`
	Profile   *catalog.Profile       `json:"profile,omitempty"`
	History   []query.Turn           `json:"history,omitempty"`
	PrevQuery *query.StructuredQuery `json:"prevQuery,omitempty"`
}

// Response is the engine's output. Records is populated for lookup and
// compare intents so the conversational layer can render course cards
// directly; Context is always present.
type Response struct {
	Intent  query.Intent           `json:"intent"`
	Query   query.StructuredQuery  `json:"query"`
	Records []catalog.CourseRecord `json:"records,omitempty"`
	Context *ContextPayload        `json:"context"`
}

// RequirementSource loads concentration requirement rows. Satisfied by
// *storage.DB; nil disables the requirement-intent enrichment.
type RequirementSource interface {
	LoadConcentrationRequirements(ctx context.Context, concentration string) ([]storage.ConcentrationRequirement, error)
}

// Engine executes the pipeline. It is stateless per request; every
// request resolves the current index snapshot once and uses it
// throughout, so a concurrent catalog swap never splits a request
// across two snapshots.
type Engine struct {
	indexes      *rag.Provider
	retriever    *rag.Retriever
	ranker       *recommend.Ranker
	requirements RequirementSource
	builder      contextBuilder
	metrics      *metrics.Metrics
	logger       *logger.Logger
}

// NewEngine wires the pipeline stages together.
func NewEngine(cfg *config.Config, indexes *rag.Provider, retriever *rag.Retriever, requirements RequirementSource, m *metrics.Metrics, log *logger.Logger) *Engine {
	return &Engine{
		indexes:      indexes,
		retriever:    retriever,
		ranker:       recommend.NewRanker(cfg.Ranker),
		requirements: requirements,
		builder: contextBuilder{
			budgetChars:   cfg.ContextBudgetChars,
			historyWindow: cfg.HistoryWindow,
		},
		metrics: m,
		logger:  log.WithModule("advisor"),
	}
}

// Respond runs one pipeline execution. The only error it returns is
// an unavailable catalog; everything else degrades to a valid, possibly
// empty, response. Running it twice on identical input against the
// same snapshot yields identical output.
func (e *Engine) Respond(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	idx, err := e.indexes.Current()
	if err != nil {
		e.metrics.RecordQuery("unknown", "catalog_unavailable", time.Since(start).Seconds())
		return nil, respondWrap.Wrap(err, "The course catalog is still loading, please try again shortly.")
	}

	q := query.Extract(req.Utterance, req.History, req.PrevQuery)

	var resp *Response
	switch {
	case (q.Intent == query.IntentLookup || q.Intent == query.IntentCompare) && len(q.CourseCodeRefs) > 0:
		resp = e.respondDirect(idx, q, req)
	default:
		resp = e.respondRanked(ctx, idx, q, req)
	}

	e.metrics.RecordQuery(string(q.Intent), "ok", time.Since(start).Seconds())
	return resp, nil
}

// respondDirect serves lookup and compare: fetch the referenced codes
// straight from the store, in mention order, skipping absent ones.
func (e *Engine) respondDirect(idx *rag.Index, q query.StructuredQuery, req Request) *Response {
	candidates := e.retriever.FastPath(idx, q.CourseCodeRefs)

	records := make([]catalog.CourseRecord, 0, len(candidates))
	ctxCandidates := make([]CandidateContext, 0, len(candidates))
	for _, c := range candidates {
		records = append(records, *c.Record)
		ctxCandidates = append(ctxCandidates, CandidateContext{
			Record:    c.Record,
			Score:     c.Score,
			Breakdown: c.Breakdown,
		})
	}

	return &Response{
		Intent:  q.Intent,
		Query:   q,
		Records: records,
		Context: e.builder.build(q, ctxCandidates, req.Profile, req.History),
	}
}

// respondRanked serves recommend, requirement, and general: hybrid
// retrieval, constraint filtering, personalized ranking.
func (e *Engine) respondRanked(ctx context.Context, idx *rag.Index, q query.StructuredQuery, req Request) *Response {
	searchText := q.SearchText
	if searchText == "" {
		searchText = q.Utterance
	}

	candidates := e.retriever.Retrieve(ctx, idx, searchText)
	filtered := recommend.Filter(candidates, q.Filters, req.Profile)
	ranked := e.ranker.Rank(filtered, &q, req.Profile, recommend.DefaultResultLimit)

	ctxCandidates := make([]CandidateContext, 0, len(ranked))
	for _, c := range ranked {
		ctxCandidates = append(ctxCandidates, CandidateContext{
			Record:    c.Record,
			Score:     c.Score,
			Breakdown: c.Breakdown,
			Reasons:   recommend.Reasons(c.Record, req.Profile),
		})
	}

	payload := e.builder.build(q, ctxCandidates, req.Profile, req.History)

	if q.Intent == query.IntentRecommend {
		payload.WorkloadFriendly = workloadFriendly(filtered)
		payload.HighestRated = highestRated(filtered)
	}
	if q.Intent == query.IntentRequirement {
		e.attachRequirements(ctx, payload, req.Profile)
	}

	return &Response{
		Intent:  q.Intent,
		Query:   q,
		Context: payload,
	}
}

// attachRequirements enriches a requirement-intent payload with the
// student's concentration requirement rows. Failure to load them is a
// degradation, not a request failure.
func (e *Engine) attachRequirements(ctx context.Context, payload *ContextPayload, profile *catalog.Profile) {
	if e.requirements == nil || profile == nil || profile.Concentration == "" {
		return
	}
	reqs, err := e.requirements.LoadConcentrationRequirements(ctx, profile.Concentration)
	if err != nil {
		e.logger.WithError(err).WithField("concentration", profile.Concentration).
			Warn("Failed to load concentration requirements")
		return
	}
	payload.Requirements = reqs
}

// SimilarCourses returns up to limit courses in the same department
// and decade as the given code, sorted by rating descending (absent
// lowest) then code. The course itself is excluded.
func (e *Engine) SimilarCourses(code string, limit int) ([]catalog.CourseRecord, error) {
	idx, err := e.indexes.Current()
	if err != nil {
		return nil, err
	}
	rec, ok := idx.Store.GetByCode(code)
	if !ok {
		return nil, similarWrap.Wrap(domerrors.ErrNotFound, "That course is not in the catalog.")
	}

	decadeLow := (rec.Number / 10) * 10
	var similar []catalog.CourseRecord
	for _, other := range idx.Store.Courses() {
		if other.Code == rec.Code || other.Department != rec.Department {
			continue
		}
		if other.Number < decadeLow || other.Number > decadeLow+9 {
			continue
		}
		similar = append(similar, other)
	}

	sortRecordsByRating(similar)
	if limit > 0 && len(similar) > limit {
		similar = similar[:limit]
	}
	return similar, nil
}

func sortRecordsByRating(records []catalog.CourseRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := -1.0, -1.0
		if records[i].Rating != nil {
			ri = *records[i].Rating
		}
		if records[j].Rating != nil {
			rj = *records[j].Rating
		}
		if ri != rj {
			return ri > rj
		}
		return records[i].Code < records[j].Code
	})
}
