package rag

import (
	"sort"
)

// Fusion defaults. Weights are overridable through config; the floor
// drops candidates whose blended score carries no real signal.
const (
	DefaultLexicalWeight  = 0.5
	DefaultSemanticWeight = 0.5
	DefaultScoreFloor     = 0.05
	DefaultFusionLimit    = 50
)

// FusedResult is one course after score fusion. Lexical and Semantic
// hold the min-max normalized per-side scores (0 when the course was
// absent from that side).
type FusedResult struct {
	Code     string
	Score    float64
	Lexical  float64
	Semantic float64
}

// FuseMinMax merges lexical and semantic results into one ranked list.
// Each side's scores are min-max normalized into [0,1] independently,
// then blended with the given weights. Courses below floor are dropped
// and at most limit results are returned, ordered by blended score
// descending with ties broken by code.
//
// BM25 scores and cosine similarities live on incomparable scales, so
// normalization happens per list before blending. A list whose scores
// are all equal normalizes to 1.0 for every member.
func FuseMinMax(lexical []LexicalResult, semantic []SemanticResult, lexWeight, semWeight, floor float64, limit int) []FusedResult {
	if limit <= 0 {
		limit = DefaultFusionLimit
	}

	lexNorm := normalizeLexical(lexical)
	semNorm := normalizeSemantic(semantic)

	merged := make(map[string]*FusedResult, len(lexNorm)+len(semNorm))
	for code, score := range lexNorm {
		merged[code] = &FusedResult{Code: code, Lexical: score}
	}
	for code, score := range semNorm {
		if fr, ok := merged[code]; ok {
			fr.Semantic = score
		} else {
			merged[code] = &FusedResult{Code: code, Semantic: score}
		}
	}

	results := make([]FusedResult, 0, len(merged))
	for _, fr := range merged {
		fr.Score = lexWeight*fr.Lexical + semWeight*fr.Semantic
		if fr.Score < floor {
			continue
		}
		results = append(results, *fr)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Code < results[j].Code
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// normalizeLexical min-max normalizes BM25 scores per code. Duplicate
// codes keep their best score.
func normalizeLexical(results []LexicalResult) map[string]float64 {
	if len(results) == 0 {
		return nil
	}
	raw := make(map[string]float64, len(results))
	for _, r := range results {
		if existing, ok := raw[r.Code]; !ok || r.Score > existing {
			raw[r.Code] = r.Score
		}
	}
	return minMax(raw)
}

func normalizeSemantic(results []SemanticResult) map[string]float64 {
	if len(results) == 0 {
		return nil
	}
	raw := make(map[string]float64, len(results))
	for _, r := range results {
		score := float64(r.Similarity)
		if existing, ok := raw[r.Code]; !ok || score > existing {
			raw[r.Code] = score
		}
	}
	return minMax(raw)
}

func minMax(raw map[string]float64) map[string]float64 {
	lo, hi := 0.0, 0.0
	first := true
	for _, v := range raw {
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := make(map[string]float64, len(raw))
	if hi == lo {
		// One score level only: every member is equally the best match.
		for k := range raw {
			out[k] = 1.0
		}
		return out
	}
	for k, v := range raw {
		out[k] = (v - lo) / (hi - lo)
	}
	return out
}
