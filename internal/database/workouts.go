package database

import (
	"fmt"
)

// Workout represents one workout session row
type Workout struct {
	ID           int64
	Date         string
	ActivityType string
	StartTS      int64
	EndTS        int64
	DurationSec  int64
	Distance     *float64
	DistanceUnit string
	EnergyKcal   *float64
	EnergyUnit   string
	SourceName   string
}

// InsertWorkout inserts a single workout
func (db *DB) InsertWorkout(w *Workout) error {
	_, err := db.conn.Exec(`
		INSERT INTO workouts (
			date, activity_type, start_ts, end_ts, duration_sec,
			distance, distance_unit, energy_kcal, energy_unit, source_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, w.Date, w.ActivityType, w.StartTS, w.EndTS, w.DurationSec,
		w.Distance, w.DistanceUnit, w.EnergyKcal, w.EnergyUnit, w.SourceName)

	if err != nil {
		return fmt.Errorf("failed to insert workout: %w", err)
	}
	return nil
}

// ListWorkouts returns workouts ordered by start time
func (db *DB) ListWorkouts(limit int) ([]*Workout, error) {
	query := `
		SELECT id, date, activity_type, start_ts, end_ts, duration_sec,
		       distance, distance_unit, energy_kcal, energy_unit, source_name
		FROM workouts
		ORDER BY start_ts
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer rows.Close()

	var workouts []*Workout
	for rows.Next() {
		var w Workout
		err := rows.Scan(
			&w.ID, &w.Date, &w.ActivityType, &w.StartTS, &w.EndTS, &w.DurationSec,
			&w.Distance, &w.DistanceUnit, &w.EnergyKcal, &w.EnergyUnit, &w.SourceName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		workouts = append(workouts, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workouts: %w", err)
	}

	return workouts, nil
}
