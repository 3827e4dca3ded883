package query

import (
	"strings"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/stringutil"
)

// lookupPhrases signal a request for a specific course's information.
var lookupPhrases = []string{
	"what is",
	"what's",
	"tell me about",
	"course information",
	"information about",
	"info on",
	"details about",
	"describe",
	"syllabus",
	"prerequisites for",
	"taught by",
	"who teaches",
}

// lookupQualifiers count as lookup only next to the word "course".
var lookupQualifiers = []string{
	"card", "info", "details", "information", "description", "overview",
}

var requirementPhrases = []string{
	"requirement",
	"required for",
	"concentration requires",
	"fulfill",
	"satisfy",
	"need to take for",
	"have to take for",
	"count toward",
	"counts toward",
}

var recommendPhrases = []string{
	"recommend",
	"suggest",
	"looking for",
	"i need",
	"need a",
	"what should",
	"which course",
	"which class",
	"advise",
	"options",
	"alternatives",
	"best",
	"easiest",
	"hardest",
	"chillest",
}

var comparePhrases = []string{
	"compare",
	"versus",
	" vs ",
	" vs.",
	"difference between",
	"easier than",
	"harder than",
}

// Extract parses an utterance into a StructuredQuery. It never fails:
// anything unparseable is simply left absent. history provides the
// trailing conversation for follow-up resolution and prev is the
// previous turn's extraction (nil on a fresh conversation).
func Extract(utterance string, history []Turn, prev *StructuredQuery) StructuredQuery {
	lower := strings.ToLower(stringutil.CollapseWhitespace(utterance))

	q := StructuredQuery{
		Utterance:      utterance,
		CourseCodeRefs: catalog.FindCodes(utterance),
	}

	q.Filters = extractFilters(lower)
	if q.Filters.Department == "" && len(q.CourseCodeRefs) == 0 {
		// An explicit uppercase abbreviation ("any EPS classes?") only
		// counts when nothing else pinned down a department; codes in
		// the utterance would otherwise leak their prefix here.
		q.Filters.Department = ExtractDepartmentAbbrev(utterance)
	}
	q.Preferences = extractPreferences(lower)
	q.IsFollowUp = detectFollowUp(lower, q.CourseCodeRefs, history)

	// Follow-ups without their own codes inherit the courses the
	// assistant just talked about.
	if q.IsFollowUp && len(q.CourseCodeRefs) == 0 {
		q.CourseCodeRefs = codesFromLastAssistantTurn(history)
	}

	q.Intent = classifyIntent(lower, len(q.CourseCodeRefs))

	if q.IsFollowUp && prev != nil {
		inherit(&q, prev)
	}

	q.SearchText = buildSearchText(utterance)
	return q
}

// classifyIntent applies the rule chain in precedence order. Compare
// needs two codes so "compare" alone on a single course still reads as
// a lookup of that course.
func classifyIntent(lower string, codeCount int) Intent {
	if codeCount >= 2 && containsAny(lower, comparePhrases) {
		return IntentCompare
	}

	if codeCount >= 1 {
		if containsAny(lower, lookupPhrases) {
			return IntentLookup
		}
		if strings.Contains(lower, "course") && containsAny(lower, lookupQualifiers) {
			return IntentLookup
		}
	}

	if containsAny(lower, requirementPhrases) {
		return IntentRequirement
	}

	if containsAny(lower, recommendPhrases) || expressesConstraint(lower) {
		return IntentRecommend
	}

	// A bare code with no other signal is still a course question.
	if codeCount >= 1 {
		return IntentLookup
	}

	return IntentGeneral
}

// expressesConstraint reports whether the utterance carries numeric,
// workload, or rating qualifiers, which imply a recommendation ask
// even without an explicit request verb.
func expressesConstraint(lower string) bool {
	qualifiers := []string{
		"hours", "workload", "rating", "q score", "well-rated",
		"highly-rated", "top-rated", "easy", "chill", "light",
		"-level", " level", "0s ",
	}
	if containsAny(lower, qualifiers) {
		return true
	}
	return strings.HasSuffix(lower, "0s") || strings.HasSuffix(lower, "0s?")
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// buildSearchText strips extracted course codes from the utterance so
// retrieval sees topical text, not code tokens that BM25 would latch
// onto as rare terms.
func buildSearchText(utterance string) string {
	stripped := catalog.StripCodes(utterance)
	return stringutil.CollapseWhitespace(stripped)
}

// inherit fills unset fields from the previous turn's query so short
// follow-ups ("what about in the spring?") keep their context.
func inherit(q *StructuredQuery, prev *StructuredQuery) {
	if len(q.CourseCodeRefs) == 0 {
		q.CourseCodeRefs = append([]string(nil), prev.CourseCodeRefs...)
	}
	if q.Filters.Department == "" {
		q.Filters.Department = prev.Filters.Department
	}
	if q.Filters.Level == nil && prev.Filters.Level != nil {
		lv := *prev.Filters.Level
		q.Filters.Level = &lv
	}
	if q.Filters.Term == "" {
		q.Filters.Term = prev.Filters.Term
	}
	if q.Filters.MaxWorkload == nil && prev.Filters.MaxWorkload != nil {
		v := *prev.Filters.MaxWorkload
		q.Filters.MaxWorkload = &v
	}
	if q.Filters.MinRating == nil && prev.Filters.MinRating != nil {
		v := *prev.Filters.MinRating
		q.Filters.MinRating = &v
	}
	if q.Intent == IntentGeneral && prev.Intent != IntentGeneral {
		q.Intent = prev.Intent
	}
}
