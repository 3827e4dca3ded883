package catalog

import (
	"time"
)

// Store is the immutable catalog. It is safe for unlimited concurrent
// readers because it is never mutated after Build returns; a refreshed
// catalog is built as a new Store and swapped through a Provider.
type Store struct {
	records    []CourseRecord
	byCode     map[string]int // normalized code -> index of latest-term record
	byCodeTerm map[string]int // "code|term" -> index
	builtAt    time.Time
}

// BuildStats reports what a Build run kept and dropped.
type BuildStats struct {
	Total   int
	Loaded  int
	Skipped map[string]int // reason -> count
}

// SkippedTotal returns the number of records dropped during the build.
func (s BuildStats) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

// Skip reasons recorded in BuildStats.
const (
	SkipMissingCode   = "missing_code"
	SkipMissingTitle  = "missing_title"
	SkipDuplicateTerm = "duplicate_code_term"
)

// Build constructs an immutable Store from a dataset snapshot.
//
// Records missing a parseable code or a title are skipped and counted,
// never fatal for the whole load. Per-term variants of a course are all
// kept; a plain code lookup resolves to the latest term's record.
func Build(records []CourseRecord) (*Store, BuildStats) {
	stats := BuildStats{
		Total:   len(records),
		Skipped: make(map[string]int),
	}

	s := &Store{
		records:    make([]CourseRecord, 0, len(records)),
		byCode:     make(map[string]int, len(records)),
		byCodeTerm: make(map[string]int, len(records)),
		builtAt:    time.Now(),
	}

	for _, rec := range records {
		code := NormalizeCode(rec.Code)
		if code == "" {
			stats.Skipped[SkipMissingCode]++
			continue
		}
		if rec.Title == "" {
			stats.Skipped[SkipMissingTitle]++
			continue
		}

		rec.Code = code
		if dept, number, ok := SplitCode(code); ok {
			if rec.Department == "" {
				rec.Department = dept
			}
			rec.Number = number
		}

		termID := code + "|" + rec.Term
		if _, dup := s.byCodeTerm[termID]; dup {
			stats.Skipped[SkipDuplicateTerm]++
			continue
		}

		idx := len(s.records)
		s.records = append(s.records, rec)
		s.byCodeTerm[termID] = idx

		if prev, exists := s.byCode[code]; !exists || TermNewer(rec.Term, s.records[prev].Term) {
			s.byCode[code] = idx
		}
	}

	stats.Loaded = len(s.records)
	return s, stats
}

// GetByCode returns the latest-term record for a course code. The input
// is normalized first, so raw forms like "cs50" resolve too.
func (s *Store) GetByCode(code string) (*CourseRecord, bool) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, false
	}
	idx, ok := s.byCode[normalized]
	if !ok {
		return nil, false
	}
	return &s.records[idx], true
}

// GetByCodeTerm returns the record for a specific code+term pair.
func (s *Store) GetByCodeTerm(code, term string) (*CourseRecord, bool) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, false
	}
	idx, ok := s.byCodeTerm[normalized+"|"+term]
	if !ok {
		return nil, false
	}
	return &s.records[idx], true
}

// Courses returns all loaded records in build order. Callers must not
// mutate the returned slice.
func (s *Store) Courses() []CourseRecord {
	return s.records
}

// At returns the record at a corpus index. The retriever maps index
// scores back to records through this.
func (s *Store) At(i int) *CourseRecord {
	return &s.records[i]
}

// Len returns the number of loaded records.
func (s *Store) Len() int {
	return len(s.records)
}

// BuiltAt returns when the store was constructed.
func (s *Store) BuiltAt() time.Time {
	return s.builtAt
}
