// Package stringutil provides common string manipulation utilities.
package stringutil

import "strings"

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CollapseWhitespace replaces runs of whitespace with a single space
// and trims leading/trailing whitespace.
//
// Example:
//
//	CollapseWhitespace("  cs   50\tintro ") returns "cs 50 intro"
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most limit runes, appending "..." when
// truncation occurs. The ellipsis counts against the limit, so the
// result never exceeds limit runes. Limits below 4 return the bare
// prefix without an ellipsis.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit < 4 {
		if limit < 0 {
			limit = 0
		}
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
