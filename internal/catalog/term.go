package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// seasonRank orders terms within an academic calendar year.
var seasonRank = map[string]int{
	"winter": 0,
	"spring": 1,
	"summer": 2,
	"fall":   3,
}

var termYearRE = regexp.MustCompile(`20\d{2}`)

// termKey converts a term string ("Fall 2023", "Spring 2024") into a
// sortable integer. Unparseable terms sort lowest so a record with a
// recognizable term always wins a latest-term comparison.
func termKey(term string) int {
	lower := strings.ToLower(term)

	year := 0
	if m := termYearRE.FindString(lower); m != "" {
		year, _ = strconv.Atoi(m)
	}

	season := -1
	for name, rank := range seasonRank {
		if strings.Contains(lower, name) {
			season = rank
			break
		}
	}

	if year == 0 && season < 0 {
		return -1
	}
	return year*10 + season + 1
}

// TermNewer reports whether term a is strictly newer than term b.
func TermNewer(a, b string) bool {
	return termKey(a) > termKey(b)
}
