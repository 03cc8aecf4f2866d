package database

import (
	"fmt"
)

// Run statuses recorded in the ledger
const (
	RunStatusSuccess = "success"
	RunStatusFailure = "failure"
)

// Run is one row of the pipeline run ledger
type Run struct {
	RunID        string
	ExportPath   string
	StartedAt    int64
	FinishedAt   *int64
	RecordsSeen  int64
	StepRows     int64
	WorkoutRows  int64
	SkippedTotal int64
	SkippedJSON  *string
	Status       string
}

// RecordRun inserts a run ledger row
func (db *DB) RecordRun(r *Run) error {
	_, err := db.conn.Exec(`
		INSERT INTO etl_runs (
			run_id, export_path, started_at, finished_at,
			records_seen, step_rows, workout_rows, skipped_total, skipped_json,
			status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.ExportPath, r.StartedAt, r.FinishedAt,
		r.RecordsSeen, r.StepRows, r.WorkoutRows, r.SkippedTotal, r.SkippedJSON,
		r.Status)

	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT run_id, export_path, started_at, finished_at,
		       records_seen, step_rows, workout_rows, skipped_total, skipped_json,
		       status
		FROM etl_runs
		ORDER BY started_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		err := rows.Scan(
			&r.RunID, &r.ExportPath, &r.StartedAt, &r.FinishedAt,
			&r.RecordsSeen, &r.StepRows, &r.WorkoutRows, &r.SkippedTotal, &r.SkippedJSON,
			&r.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}
