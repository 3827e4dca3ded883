package recommend

import (
	"math"
	"sort"
	"strings"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/config"
	"github.com/chatharvard/chatharvard-go/internal/query"
	"github.com/chatharvard/chatharvard-go/internal/rag"
)

// DefaultResultLimit bounds the ranked list handed to the conversation
// layer. Three to five courses is what fits a chat reply.
const DefaultResultLimit = 5

// neutralSignal stands in for any quality signal that is statistically
// undefined. It keeps a record with no Q reports from ranking
// artificially high or low.
const neutralSignal = 0.5

// Within the quality weight, rating carries three times the influence
// of the workload-fit term.
const ratingShare = 0.75

// Ranker blends retrieval relevance with profile fit and catalog
// quality. Weights come from config and are validated there to sum
// to 1.0.
type Ranker struct {
	weights config.RankerWeights
}

// NewRanker creates a ranker with the given weight policy.
func NewRanker(weights config.RankerWeights) *Ranker {
	return &Ranker{weights: weights}
}

// Rank re-scores the filtered candidates and returns them in final
// order, capped to limit. The input slice is not modified.
func (r *Ranker) Rank(candidates []rag.Candidate, q *query.StructuredQuery, profile *catalog.Profile, limit int) []rag.Candidate {
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	ranked := make([]rag.Candidate, len(candidates))
	copy(ranked, candidates)

	profileTags := collectProfileTags(profile, q)
	concentrationDept := ""
	if profile != nil && profile.Concentration != "" {
		concentrationDept = query.DepartmentForName(profile.Concentration)
	}

	for i := range ranked {
		c := &ranked[i]
		rec := c.Record

		retrieval := c.Score
		personalization := tagOverlap(rec, profileTags)
		quality := ratingShare*ratingSignal(rec) + (1-ratingShare)*workloadFit(rec, q.Filters.MaxWorkload)
		concentration := 0.0
		if concentrationDept != "" && strings.EqualFold(rec.Department, concentrationDept) {
			concentration = 1.0
		}

		c.Breakdown.Personalization = personalization
		c.Breakdown.Quality = quality
		c.Breakdown.Concentration = concentration
		c.Score = r.weights.Retrieval*retrieval +
			r.weights.Personalization*personalization +
			r.weights.Quality*quality +
			r.weights.Concentration*concentration
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ra, rb := ratingOrLowest(a.Record), ratingOrLowest(b.Record)
		if ra != rb {
			return ra > rb
		}
		return a.Record.Code < b.Record.Code
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ratingSignal maps a 0-5 rating onto [0,1], neutral when absent.
func ratingSignal(rec *catalog.CourseRecord) float64 {
	if rec.Rating == nil {
		return neutralSignal
	}
	return *rec.Rating / 5.0
}

// workloadFit rewards workloads near the midpoint of an explicit max
// workload constraint: a course at half the ceiling fits best, one at
// the ceiling or near zero hours fits worst. Without a constraint or
// without workload data the term is neutral.
func workloadFit(rec *catalog.CourseRecord, maxWorkload *float64) float64 {
	if maxWorkload == nil || rec.WorkloadHours == nil || *maxWorkload <= 0 {
		return neutralSignal
	}
	mid := *maxWorkload / 2
	fit := 1 - math.Abs(*rec.WorkloadHours-mid)/mid
	if fit < 0 {
		return 0
	}
	return fit
}

// collectProfileTags gathers the lowercase tag vocabulary to match
// against course text: profile interests, learning preferences, and
// the preferences extracted from the utterance itself.
func collectProfileTags(profile *catalog.Profile, q *query.StructuredQuery) []string {
	var tags []string
	seen := make(map[string]bool)
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	if profile != nil {
		for _, t := range profile.Interests {
			add(t)
		}
		for _, t := range profile.LearningPreferences {
			add(t)
		}
	}
	if q != nil {
		for _, t := range q.Preferences {
			add(t)
		}
	}
	return tags
}

// tagOverlap is the share of tags that appear in the course's text,
// a Jaccard-style overlap against the tag set. No tags means no
// personalization signal, scored neutral so profiled and unprofiled
// sessions stay comparable.
func tagOverlap(rec *catalog.CourseRecord, tags []string) float64 {
	if len(tags) == 0 {
		return neutralSignal
	}
	text := strings.ToLower(rec.SearchText())
	matched := 0
	for _, tag := range tags {
		if strings.Contains(text, tag) {
			matched++
		}
	}
	return float64(matched) / float64(len(tags))
}

func ratingOrLowest(rec *catalog.CourseRecord) float64 {
	if rec.Rating == nil {
		return -1
	}
	return *rec.Rating
}
