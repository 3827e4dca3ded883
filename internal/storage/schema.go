package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(db *sql.DB) error {
	if err := createCoursesTable(db); err != nil {
		return err
	}

	if err := createQStatsTable(db); err != nil {
		return err
	}

	return createConcentrationRequirementsTable(db)
}

func createCoursesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS courses (
		id INTEGER PRIMARY KEY,
		code TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		term TEXT NOT NULL DEFAULT '',
		units TEXT NOT NULL DEFAULT '',
		instructors TEXT NOT NULL DEFAULT '[]',
		schedule TEXT NOT NULL DEFAULT '[]',
		prerequisites TEXT NOT NULL DEFAULT '[]',
		q_report_link TEXT NOT NULL DEFAULT ''
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_courses_code_term ON courses(code, term);
	CREATE INDEX IF NOT EXISTS idx_courses_department ON courses(department);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create courses table: %w", err)
	}

	return nil
}

func createQStatsTable(db *sql.DB) error {
	// Nullable columns carry "no reports filed" as SQL NULL.
	query := `
	CREATE TABLE IF NOT EXISTS q_stats (
		course_id INTEGER PRIMARY KEY REFERENCES courses(id) ON DELETE CASCADE,
		mean_rating REAL,
		mean_hours REAL,
		enrollment INTEGER
	);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create q_stats table: %w", err)
	}

	return nil
}

func createConcentrationRequirementsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS concentration_requirements (
		id INTEGER PRIMARY KEY,
		concentration TEXT NOT NULL,
		tier INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conc_req_concentration ON concentration_requirements(concentration);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create concentration_requirements table: %w", err)
	}

	return nil
}
