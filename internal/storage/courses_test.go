package storage

import (
	"context"
	"testing"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }

func TestLoadCoursesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	in := []catalog.CourseRecord{
		{
			Code:          "CS 50",
			Title:         "Introduction to Computer Science",
			Description:   "Intensive introduction to computer science.",
			Department:    "CS",
			Term:          "Fall 2023",
			Units:         "4",
			Instructors:   []string{"D. Malan"},
			Schedule:      []string{"Mon 3:00-5:45"},
			Prerequisites: []string{"None"},
			Rating:        f64(4.5),
			WorkloadHours: f64(14.2),
			Enrollment:    i(722),
			QReportLink:   "https://qreports.example/cs50",
		},
		{
			Code:  "MATH 131",
			Title: "Topological Spaces",
			Term:  "Spring 2024",
			// No Q reports filed: all stats absent
		},
	}

	if err := db.SaveCoursesBatch(ctx, in); err != nil {
		t.Fatalf("SaveCoursesBatch failed: %v", err)
	}

	out, err := db.LoadCourses(ctx)
	if err != nil {
		t.Fatalf("LoadCourses failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("loaded %d records, want 2", len(out))
	}

	cs50 := out[0]
	if cs50.Code != "CS 50" {
		t.Errorf("Code = %q, want CS 50", cs50.Code)
	}
	if cs50.Rating == nil || *cs50.Rating != 4.5 {
		t.Errorf("Rating = %v, want 4.5", cs50.Rating)
	}
	if cs50.WorkloadHours == nil || *cs50.WorkloadHours != 14.2 {
		t.Errorf("WorkloadHours = %v, want 14.2", cs50.WorkloadHours)
	}
	if cs50.Enrollment == nil || *cs50.Enrollment != 722 {
		t.Errorf("Enrollment = %v, want 722", cs50.Enrollment)
	}
	if len(cs50.Instructors) != 1 || cs50.Instructors[0] != "D. Malan" {
		t.Errorf("Instructors = %v", cs50.Instructors)
	}

	math := out[1]
	if math.Rating != nil || math.WorkloadHours != nil || math.Enrollment != nil {
		t.Errorf("absent stats must load as nil, got rating=%v hours=%v enrollment=%v",
			math.Rating, math.WorkloadHours, math.Enrollment)
	}
}

func TestSaveCoursesBatchUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := catalog.CourseRecord{Code: "ECON 10", Title: "Principles of Economics", Term: "Fall 2023"}
	if err := db.SaveCoursesBatch(ctx, []catalog.CourseRecord{rec}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	rec.Title = "Principles of Economics (updated)"
	rec.Rating = f64(3.9)
	if err := db.SaveCoursesBatch(ctx, []catalog.CourseRecord{rec}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	out, err := db.LoadCourses(ctx)
	if err != nil {
		t.Fatalf("LoadCourses failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("loaded %d records, want 1 after upsert", len(out))
	}
	if out[0].Title != "Principles of Economics (updated)" {
		t.Errorf("Title = %q, upsert did not apply", out[0].Title)
	}
	if out[0].Rating == nil || *out[0].Rating != 3.9 {
		t.Errorf("Rating = %v, want 3.9", out[0].Rating)
	}
}

func TestLoadCoursesEmpty(t *testing.T) {
	db := newTestDB(t)

	out, err := db.LoadCourses(context.Background())
	if err != nil {
		t.Fatalf("LoadCourses on empty db failed: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty dataset, got %d records", len(out))
	}
}

func TestConcentrationRequirements(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	reqs := []ConcentrationRequirement{
		{Tier: 0, Description: "MATH 21A or equivalent"},
		{Tier: 1, Description: "Four core computer science courses"},
		{Tier: 2, Description: "Two technical electives"},
	}
	if err := db.SaveConcentrationRequirements(ctx, "Computer Science", reqs); err != nil {
		t.Fatalf("SaveConcentrationRequirements failed: %v", err)
	}

	got, err := db.LoadConcentrationRequirements(ctx, "computer science")
	if err != nil {
		t.Fatalf("LoadConcentrationRequirements failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("loaded %d requirements, want 3", len(got))
	}
	if got[0].Tier != 0 || got[2].Tier != 2 {
		t.Errorf("requirements not ordered by tier: %v", got)
	}

	none, err := db.LoadConcentrationRequirements(ctx, "Unknown")
	if err != nil {
		t.Fatalf("unknown concentration errored: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("unknown concentration should be empty, got %v", none)
	}
}
