// Command verify runs read-only consistency checks over the catalog
// database: every stored course must normalize to a valid code, the
// Q-report numerics must be in range, and the store build must not
// drop records silently. Run it against a freshly ingested database
// before publishing a snapshot.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/config"
	"github.com/chatharvard/chatharvard-go/internal/storage"
)

type checkResult struct {
	name    string
	passed  bool
	message string
}

func main() {
	fmt.Println("Catalog consistency verification")
	fmt.Println("================================")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database %s: %v\n", cfg.SQLitePath(), err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	records, err := db.LoadCourses(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load courses: %v\n", err)
		os.Exit(1)
	}

	var results []checkResult
	results = append(results, verifyStoreBuild(records))
	results = append(results, verifyCodes(records)...)
	results = append(results, verifyNumericRanges(records)...)

	fmt.Println("\nResults")
	fmt.Println("-------")
	failed := 0
	for _, r := range results {
		status := "PASS"
		if !r.passed {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s: %s\n", status, r.name, r.message)
	}

	fmt.Printf("\n%d checks, %d failed\n", len(results), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// verifyStoreBuild builds the in-memory store and reports anything the
// build dropped.
func verifyStoreBuild(records []catalog.CourseRecord) checkResult {
	store, stats := catalog.Build(records)
	if skipped := stats.SkippedTotal(); skipped > 0 {
		return checkResult{
			name:    "store build",
			passed:  false,
			message: fmt.Sprintf("%d of %d records dropped: %v", skipped, stats.Total, stats.Skipped),
		}
	}
	return checkResult{
		name:    "store build",
		passed:  true,
		message: fmt.Sprintf("%d records loaded, %d unique codes", stats.Loaded, store.Len()),
	}
}

// verifyCodes checks that every stored code survives a normalize and
// split round trip.
func verifyCodes(records []catalog.CourseRecord) []checkResult {
	var bad []string
	for _, rec := range records {
		code := catalog.NormalizeCode(rec.Code)
		if code == "" {
			bad = append(bad, rec.Code)
			continue
		}
		if _, _, ok := catalog.SplitCode(code); !ok {
			bad = append(bad, rec.Code)
		}
	}
	if len(bad) > 0 {
		sample := bad
		if len(sample) > 5 {
			sample = sample[:5]
		}
		return []checkResult{{
			name:    "course codes",
			passed:  false,
			message: fmt.Sprintf("%d codes do not round-trip, e.g. %v", len(bad), sample),
		}}
	}
	return []checkResult{{
		name:    "course codes",
		passed:  true,
		message: fmt.Sprintf("all %d codes normalize and split", len(records)),
	}}
}

// verifyNumericRanges checks present Q-report numerics: ratings on the
// 0-5 scale, workload hours and enrollment non-negative. Absent values
// are fine.
func verifyNumericRanges(records []catalog.CourseRecord) []checkResult {
	var bad []string
	for _, rec := range records {
		if rec.Rating != nil && (*rec.Rating < 0 || *rec.Rating > 5) {
			bad = append(bad, fmt.Sprintf("%s rating=%.2f", rec.Code, *rec.Rating))
		}
		if rec.WorkloadHours != nil && *rec.WorkloadHours < 0 {
			bad = append(bad, fmt.Sprintf("%s hours=%.1f", rec.Code, *rec.WorkloadHours))
		}
		if rec.Enrollment != nil && *rec.Enrollment < 0 {
			bad = append(bad, fmt.Sprintf("%s enrollment=%d", rec.Code, *rec.Enrollment))
		}
	}
	if len(bad) > 0 {
		sample := bad
		if len(sample) > 5 {
			sample = sample[:5]
		}
		return []checkResult{{
			name:    "numeric ranges",
			passed:  false,
			message: fmt.Sprintf("%d out-of-range values, e.g. %v", len(bad), sample),
		}}
	}
	return []checkResult{{
		name:    "numeric ranges",
		passed:  true,
		message: "all present ratings, workloads and enrollments in range",
	}}
}
