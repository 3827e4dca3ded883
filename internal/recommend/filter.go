// Package recommend applies hard constraints to retrieval candidates
// and re-scores the survivors with profile and quality signals.
package recommend

import (
	"strings"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/query"
	"github.com/chatharvard/chatharvard-go/internal/rag"
)

// Filter removes candidates violating the query's hard constraints and
// any course the student has already taken. It is a pure reduction:
// surviving candidates keep their order and scores. A candidate whose
// constrained numeric field is absent is kept — missing data never
// fails a threshold.
func Filter(candidates []rag.Candidate, f query.Filters, profile *catalog.Profile) []rag.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	var taken map[string]bool
	if profile != nil {
		taken = profile.TakenSet()
	}

	out := make([]rag.Candidate, 0, len(candidates))
	for _, c := range candidates {
		rec := c.Record

		if f.Department != "" && !strings.EqualFold(rec.Department, f.Department) {
			continue
		}
		if f.Level != nil && !f.Level.Contains(rec.Number) {
			continue
		}
		if f.Term != "" && !termMatches(rec.Term, f.Term) {
			continue
		}
		if f.MaxWorkload != nil && rec.WorkloadHours != nil && *rec.WorkloadHours > *f.MaxWorkload {
			continue
		}
		if f.MinRating != nil && rec.Rating != nil && *rec.Rating < *f.MinRating {
			continue
		}
		if taken[rec.Code] {
			continue
		}

		out = append(out, c)
	}
	return out
}

// termMatches compares a record term against a term filter. The filter
// may be just a season ("Spring") or season plus year ("Fall 2025");
// a bare season matches any year of that season.
func termMatches(recordTerm, filterTerm string) bool {
	rt := strings.ToLower(strings.TrimSpace(recordTerm))
	ft := strings.ToLower(strings.TrimSpace(filterTerm))
	if rt == ft {
		return true
	}
	return strings.HasPrefix(rt, ft+" ")
}
