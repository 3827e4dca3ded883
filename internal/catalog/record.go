// Package catalog holds the course data model and the immutable catalog
// store. A store is built once from a dataset snapshot and never mutated;
// refreshes build a new store and publish it through a Provider.
package catalog

import "strings"

// CourseRecord is one offered course instance. A course may recur per term,
// so code+term is the natural key.
//
// Statistically undefined numeric fields (no Q reports filed) are nil
// pointers, which serialize as JSON null. They must never enter ranking
// arithmetic as zero.
type CourseRecord struct {
	Code          string   `json:"code"`   // normalized "DEPT NNN[L]"
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Department    string   `json:"department"`
	Number        int      `json:"number"` // numeric part of Code, the course level
	Term          string   `json:"term"`   // e.g. "Fall 2023"
	Units         string   `json:"units,omitempty"`
	Instructors   []string `json:"instructors,omitempty"`
	Schedule      []string `json:"schedule,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty"`

	Rating        *float64 `json:"rating"`        // Q-guide mean, 0-5
	WorkloadHours *float64 `json:"workloadHours"` // mean weekly hours
	Enrollment    *int     `json:"enrollment"`

	QReportLink string `json:"qReportLink,omitempty"`
}

// SearchText returns the text the lexical and semantic indexes are built
// over: title, description, and department concatenated.
func (r *CourseRecord) SearchText() string {
	var b strings.Builder
	b.Grow(len(r.Title) + len(r.Description) + len(r.Department) + 2)
	b.WriteString(r.Title)
	if r.Description != "" {
		b.WriteByte(' ')
		b.WriteString(r.Description)
	}
	if r.Department != "" {
		b.WriteByte(' ')
		b.WriteString(r.Department)
	}
	return b.String()
}

// Profile is the student profile the engine reads. It is owned by an
// external profile service; the engine never writes it.
type Profile struct {
	Concentration       string   `json:"concentration,omitempty"`
	Year                string   `json:"year,omitempty"` // Freshman/Sophomore/Junior/Senior
	CoursesTaken        []string `json:"coursesTaken,omitempty"`
	Interests           []string `json:"interests,omitempty"`
	LearningPreferences []string `json:"learningPreferences,omitempty"`
}

// TakenSet returns the profile's completed courses as a set of normalized
// codes. Codes that fail normalization are dropped.
func (p *Profile) TakenSet() map[string]bool {
	if len(p.CoursesTaken) == 0 {
		return nil
	}
	set := make(map[string]bool, len(p.CoursesTaken))
	for _, raw := range p.CoursesTaken {
		if code := NormalizeCode(raw); code != "" {
			set[code] = true
		}
	}
	return set
}
