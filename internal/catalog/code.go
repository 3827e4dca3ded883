package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chatharvard/chatharvard-go/internal/sliceutil"
)

// codeRE matches course codes in free text: 2-4 letters, optional
// whitespace, 1-3 digits, optional trailing letters ("CS50", "MATH 21A").
var codeRE = regexp.MustCompile(`\b([A-Za-z]{2,4})\s?(\d{1,3})([A-Za-z]{1,2})?\b`)

// NormalizeCode parses a raw course-code string and returns the canonical
// "DEPT NNN[L]" form: uppercase, single space separator. Returns "" when
// the input does not contain a course code.
//
// Extraction and catalog lookup both go through this routine so a code
// produced by one always matches lookups by the other.
func NormalizeCode(raw string) string {
	m := codeRE.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1]) + " " + m[2] + strings.ToUpper(m[3])
}

// FindCodes extracts every course code from free text, normalized,
// order preserved, duplicates removed keeping first occurrence.
func FindCodes(text string) []string {
	matches := codeRE.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		codes = append(codes, strings.ToUpper(m[1])+" "+m[2]+strings.ToUpper(m[3]))
	}
	return sliceutil.Deduplicate(codes, func(c string) string { return c })
}

// StripCodes removes every course-code match from text, leaving the
// topical words for free-text search.
func StripCodes(text string) string {
	return codeRE.ReplaceAllString(text, " ")
}

// SplitCode breaks a normalized code into department and numeric parts.
// The trailing letter suffix (the "A" in "MATH 21A") is dropped from the
// number. Returns ok=false for non-normalized input.
func SplitCode(code string) (dept string, number int, ok bool) {
	dept, rest, found := strings.Cut(code, " ")
	if !found || dept == "" {
		return "", 0, false
	}
	digits := rest
	for i, r := range rest {
		if r < '0' || r > '9' {
			digits = rest[:i]
			break
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return "", 0, false
	}
	return dept, n, true
}
