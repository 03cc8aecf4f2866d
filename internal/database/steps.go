package database

import (
	"fmt"
)

// StepSample represents one step-count sample row
type StepSample struct {
	ID         int64
	Date       string
	StartTS    int64
	EndTS      int64
	Value      int64
	Unit       string
	SourceName string
}

// InsertStepSample inserts a single step sample
func (db *DB) InsertStepSample(s *StepSample) error {
	_, err := db.conn.Exec(`
		INSERT INTO step_samples (date, start_ts, end_ts, value, unit, source_name)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.Date, s.StartTS, s.EndTS, s.Value, s.Unit, s.SourceName)

	if err != nil {
		return fmt.Errorf("failed to insert step sample: %w", err)
	}
	return nil
}

// ListStepSamples returns step samples ordered by start time
func (db *DB) ListStepSamples(limit int) ([]*StepSample, error) {
	query := `
		SELECT id, date, start_ts, end_ts, value, unit, source_name
		FROM step_samples
		ORDER BY start_ts
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list step samples: %w", err)
	}
	defer rows.Close()

	var samples []*StepSample
	for rows.Next() {
		var s StepSample
		err := rows.Scan(&s.ID, &s.Date, &s.StartTS, &s.EndTS, &s.Value, &s.Unit, &s.SourceName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step sample: %w", err)
		}
		samples = append(samples, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating step samples: %w", err)
	}

	return samples, nil
}
