// Package query turns a raw utterance into a StructuredQuery: intent,
// course code references, and hard filters. Extraction is pure string
// processing with no I/O, so every rule is unit-testable in isolation.
package query

// Intent classifies what the user is asking for.
type Intent string

const (
	IntentLookup      Intent = "lookup"
	IntentCompare     Intent = "compare"
	IntentRecommend   Intent = "recommend"
	IntentRequirement Intent = "requirement"
	IntentGeneral     Intent = "general"
)

// LevelRange is an inclusive course-number range, e.g. 130-139 for
// "130s" or 100-199 for "100-level".
type LevelRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether a course number falls inside the range.
func (r LevelRange) Contains(number int) bool {
	return number >= r.Min && number <= r.Max
}

// Filters are the hard constraints extracted from an utterance. Absent
// fields stay zero/nil and are skipped by the constraint filter.
type Filters struct {
	Department  string      `json:"department,omitempty"`
	Level       *LevelRange `json:"level,omitempty"`
	Term        string      `json:"term,omitempty"`
	MaxWorkload *float64    `json:"maxWorkload,omitempty"`
	MinRating   *float64    `json:"minRating,omitempty"`
}

// Empty reports whether no filter was extracted.
func (f Filters) Empty() bool {
	return f.Department == "" && f.Level == nil && f.Term == "" &&
		f.MaxWorkload == nil && f.MinRating == nil
}

// Turn is one prior conversation message, used for follow-up detection.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// StructuredQuery is the ephemeral per-utterance extraction result.
type StructuredQuery struct {
	Utterance      string   `json:"utterance"`
	Intent         Intent   `json:"intent"`
	CourseCodeRefs []string `json:"courseCodeRefs"`
	Filters        Filters  `json:"filters"`
	Preferences    []string `json:"preferences,omitempty"`
	IsFollowUp     bool     `json:"isFollowUp"`

	// SearchText is the utterance with extracted course codes stripped,
	// used as the free-text retrieval query.
	SearchText string `json:"searchText"`
}
