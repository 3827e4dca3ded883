package query

import (
	"reflect"
	"testing"
)

func TestExtractLookup(t *testing.T) {
	q := Extract("Tell me about CS 50", nil, nil)

	if q.Intent != IntentLookup {
		t.Errorf("Intent = %s, want lookup", q.Intent)
	}
	if !reflect.DeepEqual(q.CourseCodeRefs, []string{"CS 50"}) {
		t.Errorf("CourseCodeRefs = %v, want [CS 50]", q.CourseCodeRefs)
	}
	if q.IsFollowUp {
		t.Error("IsFollowUp = true on a fresh conversation")
	}
}

func TestExtractCompare(t *testing.T) {
	q := Extract("Compare CS50 and CS51 workload", nil, nil)

	if q.Intent != IntentCompare {
		t.Errorf("Intent = %s, want compare", q.Intent)
	}
	if !reflect.DeepEqual(q.CourseCodeRefs, []string{"CS 50", "CS 51"}) {
		t.Errorf("CourseCodeRefs = %v, want [CS 50, CS 51]", q.CourseCodeRefs)
	}
}

func TestExtractCompareNeedsTwoCodes(t *testing.T) {
	// "compare" with a single code cannot be a comparison.
	q := Extract("How does CS 50 compare?", nil, nil)
	if q.Intent == IntentCompare {
		t.Error("Intent = compare with only one code")
	}
}

func TestExtractRecommendWithFilters(t *testing.T) {
	q := Extract("I need a 130s level math class", nil, nil)

	if q.Intent != IntentRecommend {
		t.Errorf("Intent = %s, want recommend", q.Intent)
	}
	if q.Filters.Department != "MATH" {
		t.Errorf("Department = %q, want MATH", q.Filters.Department)
	}
	if q.Filters.Level == nil || q.Filters.Level.Min != 130 || q.Filters.Level.Max != 139 {
		t.Errorf("Level = %+v, want [130,139]", q.Filters.Level)
	}
	if len(q.CourseCodeRefs) != 0 {
		t.Errorf("CourseCodeRefs = %v, want none", q.CourseCodeRefs)
	}
}

func TestExtractRecommendQualitative(t *testing.T) {
	q := Extract("What's the easiest 100-level Economics course?", nil, nil)

	if q.Intent != IntentRecommend {
		t.Errorf("Intent = %s, want recommend", q.Intent)
	}
	if q.Filters.Department != "ECON" {
		t.Errorf("Department = %q, want ECON", q.Filters.Department)
	}
	if q.Filters.Level == nil || q.Filters.Level.Min != 100 || q.Filters.Level.Max != 199 {
		t.Errorf("Level = %+v, want [100,199]", q.Filters.Level)
	}
	if q.Filters.MaxWorkload == nil || *q.Filters.MaxWorkload != 10.0 {
		t.Errorf("MaxWorkload = %v, want 10.0 from qualitative easy", q.Filters.MaxWorkload)
	}
}

func TestExtractRequirement(t *testing.T) {
	q := Extract("What courses fulfill the CS concentration requirement?", nil, nil)
	if q.Intent != IntentRequirement {
		t.Errorf("Intent = %s, want requirement", q.Intent)
	}
}

func TestExtractGeneral(t *testing.T) {
	q := Extract("How does shopping week work around here exactly?", nil, nil)
	if q.Intent != IntentGeneral {
		t.Errorf("Intent = %s, want general", q.Intent)
	}
	if !q.Filters.Empty() {
		t.Errorf("Filters = %+v, want empty", q.Filters)
	}
}

func TestExtractBareCodeIsLookup(t *testing.T) {
	q := Extract("I was wondering whether anyone here has ever taken STAT 110 before", nil, nil)
	if q.Intent != IntentLookup {
		t.Errorf("Intent = %s, want lookup for a bare code mention", q.Intent)
	}
}

func TestExtractNeverPanicsOnGarbage(t *testing.T) {
	inputs := []string{
		"",
		"    ",
		"????!!!",
		"\x00\x01\x02",
		"less than hours rating above",
		"130s 140s 100-level between 5 and 3",
	}
	for _, in := range inputs {
		q := Extract(in, nil, nil)
		if q.Intent == "" {
			t.Errorf("Extract(%q) produced empty intent", in)
		}
	}
}

func TestExtractSearchTextStripsCodes(t *testing.T) {
	q := Extract("Tell me about CS 50 and its final project", nil, nil)
	if got := q.SearchText; got != "Tell me about and its final project" {
		t.Errorf("SearchText = %q, want codes stripped", got)
	}
}

func TestExtractFollowUpInheritsCodes(t *testing.T) {
	history := []Turn{
		{Role: "user", Content: "Tell me about CS 50"},
		{Role: "assistant", Content: "CS 50 is an introduction to computer science..."},
	}
	q := Extract("Is it hard?", history, nil)

	if !q.IsFollowUp {
		t.Fatal("IsFollowUp = false for a pronoun follow-up")
	}
	if !reflect.DeepEqual(q.CourseCodeRefs, []string{"CS 50"}) {
		t.Errorf("CourseCodeRefs = %v, want inherited [CS 50]", q.CourseCodeRefs)
	}
}

func TestExtractFollowUpInheritsFilters(t *testing.T) {
	maxW := 12.0
	prev := &StructuredQuery{
		Intent:  IntentRecommend,
		Filters: Filters{Department: "MATH", Level: &LevelRange{Min: 130, Max: 139}, MaxWorkload: &maxW},
	}
	history := []Turn{
		{Role: "user", Content: "I need a 130s level math class under 12 hours"},
		{Role: "assistant", Content: "MATH 131 looks like a fit..."},
	}

	q := Extract("what about in the spring?", history, prev)

	if !q.IsFollowUp {
		t.Fatal("IsFollowUp = false for 'what about'")
	}
	if q.Filters.Department != "MATH" {
		t.Errorf("Department = %q, want inherited MATH", q.Filters.Department)
	}
	if q.Filters.Level == nil || q.Filters.Level.Min != 130 {
		t.Errorf("Level = %+v, want inherited [130,139]", q.Filters.Level)
	}
	if q.Filters.MaxWorkload == nil || *q.Filters.MaxWorkload != 12.0 {
		t.Errorf("MaxWorkload = %v, want inherited 12", q.Filters.MaxWorkload)
	}
	if q.Filters.Term != "Spring" {
		t.Errorf("Term = %q, want Spring extracted fresh, not inherited", q.Filters.Term)
	}
}

func TestExtractFreshTurnIgnoresPrev(t *testing.T) {
	prev := &StructuredQuery{
		Intent:  IntentRecommend,
		Filters: Filters{Department: "MATH"},
	}
	// No history: nothing to follow up on, prev must not leak in.
	q := Extract("What are the best government classes on campus this year?", nil, prev)

	if q.IsFollowUp {
		t.Error("IsFollowUp = true without history")
	}
	if q.Filters.Department != "GOV" {
		t.Errorf("Department = %q, want GOV from the utterance itself", q.Filters.Department)
	}
}
