package advisor

import (
	"encoding/json"
	"sort"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/query"
	"github.com/chatharvard/chatharvard-go/internal/rag"
	"github.com/chatharvard/chatharvard-go/internal/storage"
	"github.com/chatharvard/chatharvard-go/internal/stringutil"
)

// Course descriptions are clamped in the payload; full text lives in
// the catalog and the LLM only needs the gist.
const descriptionClampChars = 300

// sublistSize bounds the workload-friendly and highest-rated lists.
const sublistSize = 3

// CandidateContext is one course as presented to the prompt builder.
type CandidateContext struct {
	Record    *catalog.CourseRecord `json:"record"`
	Score     float64               `json:"score"`
	Breakdown rag.ScoreBreakdown    `json:"breakdown"`
	Reasons   []string              `json:"reasons,omitempty"`
}

// ProfileSummary carries the profile fields relevant to prompting.
type ProfileSummary struct {
	Concentration       string   `json:"concentration,omitempty"`
	Year                string   `json:"year,omitempty"`
	Interests           []string `json:"interests,omitempty"`
	LearningPreferences []string `json:"learningPreferences,omitempty"`
	CoursesTaken        []string `json:"coursesTaken,omitempty"`
}

// ContextPayload is the bounded, structured bundle handed to the
// downstream prompt construction step. Candidates is always non-nil so
// an empty result serializes as [] and the caller can render a
// "couldn't find it" reply instead of failing.
type ContextPayload struct {
	Query            query.StructuredQuery              `json:"query"`
	Candidates       []CandidateContext                 `json:"candidates"`
	ProfileSummary   *ProfileSummary                    `json:"profileSummary,omitempty"`
	HistoryWindow    []query.Turn                       `json:"historyWindow,omitempty"`
	WorkloadFriendly []string                           `json:"workloadFriendly,omitempty"`
	HighestRated     []string                           `json:"highestRated,omitempty"`
	Requirements     []storage.ConcentrationRequirement `json:"requirements,omitempty"`
}

// Size returns the payload's serialized size in characters.
func (p *ContextPayload) Size() int {
	b, err := json.Marshal(p)
	if err != nil {
		return 0
	}
	return len(b)
}

// contextBuilder assembles a ContextPayload under a character budget.
type contextBuilder struct {
	budgetChars   int
	historyWindow int
}

// build assembles the payload and enforces the budget by truncating in
// priority order: trailing course records first, then profile fields,
// then oldest history turns. The most recent user turn survives
// regardless.
func (cb *contextBuilder) build(q query.StructuredQuery, candidates []CandidateContext, profile *catalog.Profile, history []query.Turn) *ContextPayload {
	if candidates == nil {
		candidates = []CandidateContext{}
	}
	for i := range candidates {
		candidates[i].Record = clampDescription(candidates[i].Record)
	}

	payload := &ContextPayload{
		Query:          q,
		Candidates:     candidates,
		ProfileSummary: summarizeProfile(profile),
		HistoryWindow:  trailingWindow(history, cb.historyWindow),
	}

	cb.enforceBudget(payload)
	return payload
}

func (cb *contextBuilder) enforceBudget(p *ContextPayload) {
	if cb.budgetChars <= 0 || p.Size() <= cb.budgetChars {
		return
	}

	// Drop whole trailing course records first.
	for len(p.Candidates) > 0 && p.Size() > cb.budgetChars {
		p.Candidates = p.Candidates[:len(p.Candidates)-1]
	}

	// Then profile fields, least essential first.
	if p.ProfileSummary != nil && p.Size() > cb.budgetChars {
		p.ProfileSummary.CoursesTaken = nil
		if p.Size() > cb.budgetChars {
			p.ProfileSummary.LearningPreferences = nil
			p.ProfileSummary.Interests = nil
		}
		if p.Size() > cb.budgetChars {
			p.ProfileSummary = nil
		}
	}

	// Finally the oldest history turns. The most recent user turn stays
	// even if the payload ends up over budget, including when assistant
	// turns follow it.
	lastUser := -1
	for i := len(p.HistoryWindow) - 1; i >= 0; i-- {
		if p.HistoryWindow[i].Role == "user" {
			lastUser = i
			break
		}
	}
	for len(p.HistoryWindow) > 0 && p.Size() > cb.budgetChars {
		drop := 0
		if drop == lastUser {
			drop++
		}
		if drop >= len(p.HistoryWindow) {
			break
		}
		p.HistoryWindow = dropTurn(p.HistoryWindow, drop)
		if lastUser > drop {
			lastUser--
		}
	}
}

// dropTurn removes the turn at index i without touching the backing
// array, which the caller's history may share.
func dropTurn(window []query.Turn, i int) []query.Turn {
	if i == 0 {
		return window[1:]
	}
	trimmed := make([]query.Turn, 0, len(window)-1)
	trimmed = append(trimmed, window[:i]...)
	trimmed = append(trimmed, window[i+1:]...)
	return trimmed
}

// clampDescription shortens a record's description for the payload.
// Returns a copy when clamping is needed: candidates share pointers
// into the catalog store, which must stay untouched.
func clampDescription(rec *catalog.CourseRecord) *catalog.CourseRecord {
	if rec == nil || len(rec.Description) <= descriptionClampChars {
		return rec
	}
	clamped := *rec
	clamped.Description = stringutil.Truncate(rec.Description, descriptionClampChars)
	return &clamped
}

func summarizeProfile(profile *catalog.Profile) *ProfileSummary {
	if profile == nil {
		return nil
	}
	return &ProfileSummary{
		Concentration:       profile.Concentration,
		Year:                profile.Year,
		Interests:           profile.Interests,
		LearningPreferences: profile.LearningPreferences,
		CoursesTaken:        profile.CoursesTaken,
	}
}

func trailingWindow(history []query.Turn, n int) []query.Turn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// workloadFriendly lists the codes of the lightest courses among the
// candidates, ascending by weekly hours. Courses without workload data
// cannot claim to be light and are left out.
func workloadFriendly(candidates []rag.Candidate) []string {
	withHours := make([]rag.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Record.WorkloadHours != nil {
			withHours = append(withHours, c)
		}
	}
	sort.SliceStable(withHours, func(i, j int) bool {
		return *withHours[i].Record.WorkloadHours < *withHours[j].Record.WorkloadHours
	})
	return topCodes(withHours, sublistSize)
}

// highestRated lists the top-rated candidate codes, descending.
func highestRated(candidates []rag.Candidate) []string {
	withRating := make([]rag.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Record.Rating != nil {
			withRating = append(withRating, c)
		}
	}
	sort.SliceStable(withRating, func(i, j int) bool {
		return *withRating[i].Record.Rating > *withRating[j].Record.Rating
	})
	return topCodes(withRating, sublistSize)
}

func topCodes(candidates []rag.Candidate, n int) []string {
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	codes := make([]string, len(candidates))
	for i, c := range candidates {
		codes[i] = c.Record.Code
	}
	return codes
}
