package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
)

// ConcentrationRequirement is one requirement row for a concentration.
// Tier groups requirements the way advising pages present them
// (0 = foundational, 1 = core, 2 = electives).
type ConcentrationRequirement struct {
	Concentration string `json:"concentration"`
	Tier          int    `json:"tier"`
	Description   string `json:"description"`
}

// LoadCourses reads the full catalog dataset joined with Q-report stats.
// SQL NULL stats come back as nil pointers on the record.
func (db *DB) LoadCourses(ctx context.Context) ([]catalog.CourseRecord, error) {
	query := `
		SELECT c.code, c.title, c.description, c.department, c.term, c.units,
		       c.instructors, c.schedule, c.prerequisites, c.q_report_link,
		       q.mean_rating, q.mean_hours, q.enrollment
		FROM courses c
		LEFT JOIN q_stats q ON q.course_id = c.id
		ORDER BY c.code, c.term
	`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []catalog.CourseRecord
	for rows.Next() {
		var (
			rec           catalog.CourseRecord
			instructors   string
			schedule      string
			prerequisites string
			rating        sql.NullFloat64
			hours         sql.NullFloat64
			enrollment    sql.NullInt64
		)
		if err := rows.Scan(
			&rec.Code, &rec.Title, &rec.Description, &rec.Department,
			&rec.Term, &rec.Units, &instructors, &schedule, &prerequisites,
			&rec.QReportLink, &rating, &hours, &enrollment,
		); err != nil {
			return nil, fmt.Errorf("scan course row: %w", err)
		}

		rec.Instructors = decodeStringList(ctx, rec.Code, "instructors", instructors)
		rec.Schedule = decodeStringList(ctx, rec.Code, "schedule", schedule)
		rec.Prerequisites = decodeStringList(ctx, rec.Code, "prerequisites", prerequisites)

		if rating.Valid {
			v := rating.Float64
			rec.Rating = &v
		}
		if hours.Valid {
			v := hours.Float64
			rec.WorkloadHours = &v
		}
		if enrollment.Valid {
			v := int(enrollment.Int64)
			rec.Enrollment = &v
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}

	slog.DebugContext(ctx, "loaded course dataset",
		"count", len(records),
		"duration_ms", time.Since(start).Milliseconds())

	return records, nil
}

// decodeStringList parses a JSON array column, degrading to empty on
// malformed rows rather than failing the whole load.
func decodeStringList(ctx context.Context, code, column, raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		slog.WarnContext(ctx, "malformed list column",
			"course", code,
			"column", column,
			"error", err)
		return nil
	}
	return list
}

// LoadConcentrationRequirements returns requirement rows for one
// concentration, ordered by tier. Empty result means the concentration
// is unknown, which the caller reports as absent data, not an error.
func (db *DB) LoadConcentrationRequirements(ctx context.Context, concentration string) ([]ConcentrationRequirement, error) {
	query := `
		SELECT concentration, tier, description
		FROM concentration_requirements
		WHERE concentration = ? COLLATE NOCASE
		ORDER BY tier, id
	`

	rows, err := db.conn.QueryContext(ctx, query, concentration)
	if err != nil {
		return nil, fmt.Errorf("query concentration requirements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reqs []ConcentrationRequirement
	for rows.Next() {
		var r ConcentrationRequirement
		if err := rows.Scan(&r.Concentration, &r.Tier, &r.Description); err != nil {
			return nil, fmt.Errorf("scan requirement row: %w", err)
		}
		reqs = append(reqs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requirements: %w", err)
	}

	return reqs, nil
}

// SaveCoursesBatch inserts course rows with their stats in one
// transaction. Used by tests and dataset import tooling, not by the
// request path.
func (db *DB) SaveCoursesBatch(ctx context.Context, records []catalog.CourseRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	courseStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO courses (code, title, description, department, term, units,
		                     instructors, schedule, prerequisites, q_report_link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code, term) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			department = excluded.department,
			units = excluded.units,
			instructors = excluded.instructors,
			schedule = excluded.schedule,
			prerequisites = excluded.prerequisites,
			q_report_link = excluded.q_report_link
	`)
	if err != nil {
		return fmt.Errorf("prepare course insert: %w", err)
	}
	defer func() { _ = courseStmt.Close() }()

	statsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO q_stats (course_id, mean_rating, mean_hours, enrollment)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(course_id) DO UPDATE SET
			mean_rating = excluded.mean_rating,
			mean_hours = excluded.mean_hours,
			enrollment = excluded.enrollment
	`)
	if err != nil {
		return fmt.Errorf("prepare stats insert: %w", err)
	}
	defer func() { _ = statsStmt.Close() }()

	for _, rec := range records {
		res, err := courseStmt.ExecContext(ctx,
			rec.Code, rec.Title, rec.Description, rec.Department, rec.Term, rec.Units,
			encodeStringList(rec.Instructors),
			encodeStringList(rec.Schedule),
			encodeStringList(rec.Prerequisites),
			rec.QReportLink,
		)
		if err != nil {
			return fmt.Errorf("insert course %s: %w", rec.Code, err)
		}

		if rec.Rating == nil && rec.WorkloadHours == nil && rec.Enrollment == nil {
			continue
		}

		id, err := res.LastInsertId()
		if err != nil || id == 0 {
			// Upsert of an existing row does not report an insert id.
			row := tx.QueryRowContext(ctx, `SELECT id FROM courses WHERE code = ? AND term = ?`, rec.Code, rec.Term)
			if err := row.Scan(&id); err != nil {
				return fmt.Errorf("resolve course id %s: %w", rec.Code, err)
			}
		}

		var rating, hours any
		var enrollment any
		if rec.Rating != nil {
			rating = *rec.Rating
		}
		if rec.WorkloadHours != nil {
			hours = *rec.WorkloadHours
		}
		if rec.Enrollment != nil {
			enrollment = *rec.Enrollment
		}
		if _, err := statsStmt.ExecContext(ctx, id, rating, hours, enrollment); err != nil {
			return fmt.Errorf("insert stats %s: %w", rec.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// SaveConcentrationRequirements replaces the requirement rows for a
// concentration.
func (db *DB) SaveConcentrationRequirements(ctx context.Context, concentration string, reqs []ConcentrationRequirement) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin requirements: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM concentration_requirements WHERE concentration = ?`, concentration); err != nil {
		return fmt.Errorf("clear requirements: %w", err)
	}

	for _, r := range reqs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO concentration_requirements (concentration, tier, description) VALUES (?, ?, ?)`,
			concentration, r.Tier, r.Description,
		); err != nil {
			return fmt.Errorf("insert requirement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit requirements: %w", err)
	}
	return nil
}

func encodeStringList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(b)
}
