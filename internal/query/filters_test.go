package query

import (
	"testing"
)

func TestExtractDepartment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a math class", "MATH"},
		{"some mathematics course", "MATH"},
		{"compsci electives", "CS"},
		{"computer science classes", "CS"},
		{"economics lectures", "ECON"},
		{"intro to statistics", "STAT"},
		{"a government seminar", "GOV"},
		{"philosophy of mind", "PHIL"},
		{"no department here", ""},
	}
	for _, tt := range tests {
		if got := extractDepartment(tt.input); got != tt.want {
			t.Errorf("extractDepartment(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractDepartmentAbbrev(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Any good EPS classes?", "EPS"},
		{"What does a TDM concentration look like?", "TDM"},
		{"My GPA is fine", ""},
		{"nothing uppercase here", ""},
	}
	for _, tt := range tests {
		if got := ExtractDepartmentAbbrev(tt.input); got != tt.want {
			t.Errorf("ExtractDepartmentAbbrev(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractLevelRange(t *testing.T) {
	tests := []struct {
		input string
		want  *LevelRange
	}{
		{"a 130s class", &LevelRange{130, 139}},
		{"something in the 90s", &LevelRange{90, 99}},
		{"a 100-level course", &LevelRange{100, 199}},
		{"a 100 level course", &LevelRange{100, 199}},
		{"a 130-level course", &LevelRange{130, 139}},
		{"level 200 classes", &LevelRange{200, 299}},
		{"from 130 to 139", &LevelRange{130, 139}},
		{"between 100 and 150", &LevelRange{100, 150}},
		{"courses 110-120", &LevelRange{110, 120}},
		{"no level mentioned", nil},
	}
	for _, tt := range tests {
		got := extractLevelRange(tt.input)
		switch {
		case got == nil && tt.want == nil:
		case got == nil || tt.want == nil || *got != *tt.want:
			t.Errorf("extractLevelRange(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestExtractTerm(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"in the fall", "Fall"},
		{"spring classes", "Spring"},
		{"fall 2025 offerings", "Fall 2025"},
		{"next spring 2026", "Spring 2026"},
		{"offered f23", "Fall 2023"},
		{"offered s24", "Spring 2024"},
		{"no term here", ""},
	}
	for _, tt := range tests {
		if got := extractTerm(tt.input); got != tt.want {
			t.Errorf("extractTerm(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractMaxWorkload(t *testing.T) {
	tests := []struct {
		input string
		want  float64 // 0 means absent
	}{
		{"less than 10 hours", 10},
		{"under 8 hours a week", 8},
		{"at most 12 hours", 12},
		{"no more than 6 hours", 6},
		{"15 hours or less", 15},
		{"something easy", 10},
		{"the chillest option", 10},
		{"a manageable workload", 10},
		{"a demanding course", 0},
		{"ten hours", 0}, // spelled-out numbers are not parsed
	}
	for _, tt := range tests {
		got := extractMaxWorkload(tt.input)
		switch {
		case tt.want == 0 && got != nil:
			t.Errorf("extractMaxWorkload(%q) = %v, want absent", tt.input, *got)
		case tt.want != 0 && (got == nil || *got != tt.want):
			t.Errorf("extractMaxWorkload(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestExtractMinRating(t *testing.T) {
	tests := []struct {
		input string
		want  float64 // 0 means absent
	}{
		{"at least 4 rating", 4},
		{"above 4.5 rating", 4.5},
		{"a rating of 4.2", 4.2},
		{"score above 3.5", 3.5},
		{"above 4", 4},
		{"at least 12 hours", 0}, // hours, not a rating
		{"well-rated courses", 4},
		{"top-rated classes", 4},
		{"a good q score", 4},
		{"any rating at all", 0},
	}
	for _, tt := range tests {
		got := extractMinRating(tt.input)
		switch {
		case tt.want == 0 && got != nil:
			t.Errorf("extractMinRating(%q) = %v, want absent", tt.input, *got)
		case tt.want != 0 && (got == nil || *got != tt.want):
			t.Errorf("extractMinRating(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestExtractPreferences(t *testing.T) {
	prefs := extractPreferences("an easy hands-on seminar with projects")

	want := map[string]bool{"easy": true, "practical": true, "seminar": true, "project-based": true}
	for _, p := range prefs {
		if !want[p] {
			t.Errorf("extractPreferences() unexpected tag %q", p)
		}
		delete(want, p)
	}
	for missing := range want {
		t.Errorf("extractPreferences() missing tag %q", missing)
	}
}

func TestLevelRangeContains(t *testing.T) {
	r := LevelRange{Min: 130, Max: 139}
	for _, n := range []int{130, 135, 139} {
		if !r.Contains(n) {
			t.Errorf("Contains(%d) = false, want true", n)
		}
	}
	for _, n := range []int{129, 140, 0} {
		if r.Contains(n) {
			t.Errorf("Contains(%d) = true, want false", n)
		}
	}
}
