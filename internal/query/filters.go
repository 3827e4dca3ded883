package query

import (
	"regexp"
	"strconv"
	"strings"
)

// deptAlias maps a spoken department name onto its catalog short form.
type deptAlias struct {
	re   *regexp.Regexp
	dept string
}

// deptAliases cover the common spoken names. The catalog uses 2-4
// letter department codes, so every alias lands on the short form.
var deptAliases = []deptAlias{
	{regexp.MustCompile(`\b(math|mathematics)\b`), "MATH"},
	{regexp.MustCompile(`\b(applied math|applied mathematics)\b`), "AM"},
	{regexp.MustCompile(`\b(cs|compsci|computer science)\b`), "CS"},
	{regexp.MustCompile(`\b(econ|economics)\b`), "ECON"},
	{regexp.MustCompile(`\b(gov|government)\b`), "GOV"},
	{regexp.MustCompile(`\bphysics\b`), "PHYS"},
	{regexp.MustCompile(`\b(chem|chemistry)\b`), "CHEM"},
	{regexp.MustCompile(`\b(hist|history)\b`), "HIST"},
	{regexp.MustCompile(`\b(phil|philosophy)\b`), "PHIL"},
	{regexp.MustCompile(`\b(stats|statistics)\b`), "STAT"},
	{regexp.MustCompile(`\b(bio|biology)\b`), "BIO"},
	{regexp.MustCompile(`\b(psych|psychology)\b`), "PSY"},
	{regexp.MustCompile(`\b(sociol\w*|sociology)\b`), "SOC"},
	{regexp.MustCompile(`\benglish\b`), "ENG"},
	{regexp.MustCompile(`\beducation\b`), "EDU"},
}

// abbrevRE picks up an explicit uppercase department abbreviation the
// alias table does not know ("What EPS courses are offered?").
var abbrevRE = regexp.MustCompile(`\b([A-Z]{2,4})\b`)

// abbrevStoplist holds uppercase tokens that read as departments but
// are not.
var abbrevStoplist = map[string]bool{
	"GPA": true, "TA": true, "TF": true, "OK": true,
	"AM": false, // applied math is a real department
	"PM": true, "FAQ": true, "ASAP": true,
}

var (
	decadeRE     = regexp.MustCompile(`\b(\d{1,3})0s\b`)
	levelSuffRE  = regexp.MustCompile(`\b(\d{1,3})[\s-]?level\b`)
	levelPrefRE  = regexp.MustCompile(`\blevel[\s-]?(\d{1,3})\b`)
	levelRangeRE = regexp.MustCompile(`\b(\d{1,3})\s*(?:to|through|-)\s*(\d{1,3})\b`)
	betweenRE    = regexp.MustCompile(`\bbetween (\d{1,3}) and (\d{1,3})\b`)

	maxHoursRE = regexp.MustCompile(`(?:less than|under|no more than|not more than|at most|fewer than|maximum|max|<|≤)\s*(\d+(?:\.\d+)?)\s*(?:hours|hrs)`)
	hoursOrLessRE = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:hours|hrs) or less`)

	minRatingBeforeRE = regexp.MustCompile(`(?:at least|minimum|above|over|>|≥)\s*(\d(?:\.\d+)?)\s*(?:rating|score|stars?)`)
	minRatingAfterRE  = regexp.MustCompile(`(?:rating|score)\s*(?:of\s*)?(?:at least|above|higher than|over)?\s*(\d(?:\.\d+)?)\b`)
	// Bare "above 4" / "at least 4.5" with no unit reads as a rating
	// threshold as long as it is not an hours figure.
	minRatingBareRE = regexp.MustCompile(`\b(?:above|at least) (\d(?:\.\d+)?)\b( hours?| hrs)?`)

	termYearRE      = regexp.MustCompile(`\b(20\d{2})\b`)
	termShortFormRE = regexp.MustCompile(`\b([fs])(\d{2})\b`)
)

// Qualitative fallbacks: "easy"-family words imply a workload ceiling,
// "well-rated"-family words imply a rating floor.
const (
	easyWorkloadCeiling = 10.0
	goodRatingFloor     = 4.0
)

var easyWorkloadRE = regexp.MustCompile(`\b(easy|easiest|chill|chillest|light workload|manageable|low commitment|minimal effort)\b`)
var goodRatingRE = regexp.MustCompile(`\b(well-rated|highly-rated|top-rated|well-reviewed|good q score|good reviews|great reviews)\b`)

// extractFilters pulls every hard constraint it can find. Input must
// already be lowercased and whitespace-collapsed; department-abbrev
// detection is the one rule that needs original case, so it runs on a
// best-effort uppercase scan of the same text.
func extractFilters(lower string) Filters {
	var f Filters

	f.Department = extractDepartment(lower)
	f.Level = extractLevelRange(lower)
	f.Term = extractTerm(lower)
	f.MaxWorkload = extractMaxWorkload(lower)
	f.MinRating = extractMinRating(lower)

	return f
}

// DepartmentForName maps a spoken or profile department name
// ("Computer Science") onto its catalog short form. Returns "" when
// the name is unknown.
func DepartmentForName(name string) string {
	return extractDepartment(strings.ToLower(name))
}

func extractDepartment(lower string) string {
	for _, alias := range deptAliases {
		if alias.re.MatchString(lower) {
			return alias.dept
		}
	}
	return ""
}

// ExtractDepartmentAbbrev finds an explicit uppercase abbreviation in
// the original-cased utterance ("Any good EPS classes?"). Used by the
// extractor only when the alias table found nothing.
func ExtractDepartmentAbbrev(utterance string) string {
	for _, m := range abbrevRE.FindAllString(utterance, -1) {
		if blocked, known := abbrevStoplist[m]; known && blocked {
			continue
		}
		return m
	}
	return ""
}

func extractLevelRange(lower string) *LevelRange {
	// Explicit ranges win: "130 to 139", "between 100 and 150".
	for _, re := range []*regexp.Regexp{betweenRE, levelRangeRE} {
		if m := re.FindStringSubmatch(lower); m != nil {
			lo, _ := strconv.Atoi(m[1])
			hi, _ := strconv.Atoi(m[2])
			if lo <= hi {
				return &LevelRange{Min: lo, Max: hi}
			}
		}
	}

	// "130s" means the decade 130-139.
	if m := decadeRE.FindStringSubmatch(lower); m != nil {
		base, _ := strconv.Atoi(m[1] + "0")
		return &LevelRange{Min: base, Max: base + 9}
	}

	// "100-level" spans the century 100-199; "130-level" narrows to
	// the decade.
	for _, re := range []*regexp.Regexp{levelSuffRE, levelPrefRE} {
		if m := re.FindStringSubmatch(lower); m != nil {
			base, _ := strconv.Atoi(m[1])
			if base%100 == 0 {
				return &LevelRange{Min: base, Max: base + 99}
			}
			decade := (base / 10) * 10
			return &LevelRange{Min: decade, Max: decade + 9}
		}
	}

	return nil
}

func extractTerm(lower string) string {
	var season string
	for _, s := range []string{"fall", "spring", "summer", "winter"} {
		if regexp.MustCompile(`\b` + s + `\b`).MatchString(lower) {
			season = strings.ToUpper(s[:1]) + s[1:]
			break
		}
	}

	if season != "" {
		if m := termYearRE.FindStringSubmatch(lower); m != nil {
			return season + " " + m[1]
		}
		return season
	}

	// Short forms: "F23" reads as Fall 2023, "S24" as Spring 2024.
	if m := termShortFormRE.FindStringSubmatch(lower); m != nil {
		season := "Fall"
		if m[1] == "s" {
			season = "Spring"
		}
		return season + " 20" + m[2]
	}

	return ""
}

func extractMaxWorkload(lower string) *float64 {
	for _, re := range []*regexp.Regexp{maxHoursRE, hoursOrLessRE} {
		if m := re.FindStringSubmatch(lower); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return &v
			}
		}
	}
	if easyWorkloadRE.MatchString(lower) {
		v := easyWorkloadCeiling
		return &v
	}
	return nil
}

func extractMinRating(lower string) *float64 {
	for _, re := range []*regexp.Regexp{minRatingBeforeRE, minRatingAfterRE} {
		if m := re.FindStringSubmatch(lower); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v <= 5 {
				return &v
			}
		}
	}
	if m := minRatingBareRE.FindStringSubmatch(lower); m != nil && m[2] == "" {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v <= 5 {
			return &v
		}
	}
	if goodRatingRE.MatchString(lower) {
		v := goodRatingFloor
		return &v
	}
	return nil
}

// preferenceTags maps pedagogy and difficulty vocabulary onto the tag
// vocabulary the ranker compares against profile preferences.
var preferenceTags = []struct {
	re  *regexp.Regexp
	tag string
}{
	{regexp.MustCompile(`\b(easy|easiest|simple|straightforward|light|manageable|chill|chillest|introductory|beginner)\b`), "easy"},
	{regexp.MustCompile(`\b(hard|hardest|difficult|challenging|rigorous|demanding|advanced|tough|intense)\b`), "hard"},
	{regexp.MustCompile(`\b(practical|applied|hands-on|real-world|career|industry)\b`), "practical"},
	{regexp.MustCompile(`\b(theoretical|theory|conceptual|abstract|foundational)\b`), "theoretical"},
	{regexp.MustCompile(`\b(lecture|lectures)\b`), "lecture"},
	{regexp.MustCompile(`\b(seminar|discussion|interactive|participation)\b`), "seminar"},
	{regexp.MustCompile(`\b(project|projects|lab|labs|building|coding|programming)\b`), "project-based"},
}

func extractPreferences(lower string) []string {
	var prefs []string
	for _, pt := range preferenceTags {
		if pt.re.MatchString(lower) {
			prefs = append(prefs, pt.tag)
		}
	}
	return prefs
}
