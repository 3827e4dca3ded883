package recommend

import (
	"fmt"
	"strings"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/query"
)

// Rating and workload tier boundaries for reason text.
const (
	highlyRatedFloor = 4.5
	wellRatedFloor   = 4.0

	lightWorkloadCeiling    = 8.0
	moderateWorkloadCeiling = 12.0
)

// Reasons explains why a course was recommended, one short phrase per
// signal. Absent data contributes no phrase rather than a hedge.
func Reasons(rec *catalog.CourseRecord, profile *catalog.Profile) []string {
	var reasons []string

	if rec.Rating != nil {
		switch r := *rec.Rating; {
		case r >= highlyRatedFloor:
			reasons = append(reasons, fmt.Sprintf("Highly rated (Q score %.2f)", r))
		case r >= wellRatedFloor:
			reasons = append(reasons, fmt.Sprintf("Well-rated (Q score %.2f)", r))
		default:
			reasons = append(reasons, fmt.Sprintf("Q score %.2f", r))
		}
	}

	if rec.WorkloadHours != nil {
		switch h := *rec.WorkloadHours; {
		case h < lightWorkloadCeiling:
			reasons = append(reasons, fmt.Sprintf("Light workload (%.1f hours/week)", h))
		case h < moderateWorkloadCeiling:
			reasons = append(reasons, fmt.Sprintf("Moderate workload (%.1f hours/week)", h))
		default:
			reasons = append(reasons, fmt.Sprintf("Heavy workload (%.1f hours/week)", h))
		}
	}

	if rec.Term != "" {
		reasons = append(reasons, "Offered in "+rec.Term)
	}

	switch {
	case rec.Number < 100:
		reasons = append(reasons, "Introductory level course")
	case rec.Number < 200:
		reasons = append(reasons, "Intermediate undergraduate course")
	default:
		reasons = append(reasons, "Advanced course")
	}

	if profile != nil && profile.Concentration != "" {
		dept := query.DepartmentForName(profile.Concentration)
		if dept != "" && strings.EqualFold(rec.Department, dept) {
			reasons = append(reasons, "In your concentration ("+profile.Concentration+")")
		}
		if buildsOnCoursework(rec, profile) {
			reasons = append(reasons, "Builds on your previous coursework")
		}
	}

	return reasons
}

// buildsOnCoursework reports whether the student has taken a lower-
// numbered course in the same department.
func buildsOnCoursework(rec *catalog.CourseRecord, profile *catalog.Profile) bool {
	for _, taken := range profile.CoursesTaken {
		code := catalog.NormalizeCode(taken)
		if code == "" {
			continue
		}
		dept, number, ok := catalog.SplitCode(code)
		if !ok {
			continue
		}
		if strings.EqualFold(dept, rec.Department) && number < rec.Number {
			return true
		}
	}
	return false
}
