package database

import (
	"fmt"
	"log/slog"
	"time"

	"apple-health-etl/internal/metrics"
)

// Mart rebuild statements in dependency order: steps_daily feeds
// activity_daily, which the monthly and weekday marts re-group. Every mart is
// fully derived, so rebuilding is idempotent.
var martStatements = []struct {
	name string
	sql  string
}{
	{"steps_daily", `
		INSERT INTO steps_daily (date, steps)
		SELECT date, SUM(value)
		FROM step_samples
		GROUP BY date
	`},
	{"activity_daily", `
		INSERT INTO activity_daily (date, steps, workouts_ct, workout_minutes, workout_distance, workout_energy)
		SELECT d.date,
		       COALESCE(s.steps, 0),
		       COALESCE(w.workouts_ct, 0),
		       COALESCE(w.minutes_total, 0),
		       COALESCE(w.distance_total, 0),
		       COALESCE(w.energy_total, 0)
		FROM dates d
		LEFT JOIN steps_daily s ON s.date = d.date
		LEFT JOIN (
			SELECT date,
			       COUNT(*) AS workouts_ct,
			       SUM(duration_sec) / 60.0 AS minutes_total,
			       SUM(COALESCE(distance, 0)) AS distance_total,
			       SUM(COALESCE(energy_kcal, 0)) AS energy_total
			FROM workouts
			GROUP BY date
		) w ON w.date = d.date
	`},
	{"workouts_by_type_daily", `
		INSERT INTO workouts_by_type_daily (date, activity_type, workouts_ct, minutes_total, distance_total, energy_total)
		SELECT date, activity_type,
		       COUNT(*),
		       SUM(duration_sec) / 60.0,
		       SUM(COALESCE(distance, 0)),
		       SUM(COALESCE(energy_kcal, 0))
		FROM workouts
		GROUP BY date, activity_type
	`},
	{"activity_monthly", `
		INSERT INTO activity_monthly (year_month, days_ct, steps_total, steps_avg, workouts_ct, workout_minutes, workout_distance, workout_energy)
		SELECT d.year_month,
		       COUNT(*),
		       SUM(a.steps),
		       AVG(a.steps),
		       SUM(a.workouts_ct),
		       SUM(a.workout_minutes),
		       SUM(a.workout_distance),
		       SUM(a.workout_energy)
		FROM activity_daily a
		JOIN dates d ON d.date = a.date
		GROUP BY d.year_month
	`},
	{"activity_weekday", `
		INSERT INTO activity_weekday (iso_dow, weekday, days_ct, steps_total, steps_avg, workouts_ct, workout_minutes)
		SELECT d.iso_dow,
		       CASE d.iso_dow
		           WHEN 1 THEN 'Monday'
		           WHEN 2 THEN 'Tuesday'
		           WHEN 3 THEN 'Wednesday'
		           WHEN 4 THEN 'Thursday'
		           WHEN 5 THEN 'Friday'
		           WHEN 6 THEN 'Saturday'
		           ELSE 'Sunday'
		       END,
		       COUNT(*),
		       SUM(a.steps),
		       AVG(a.steps),
		       SUM(a.workouts_ct),
		       SUM(a.workout_minutes)
		FROM activity_daily a
		JOIN dates d ON d.date = a.date
		GROUP BY d.iso_dow
	`},
}

// RebuildMarts rebuilds every derived mart in dependency order within a
// single transaction and returns per-mart row counts
func (db *DB) RebuildMarts() (map[string]int64, error) {
	logger := slog.Default()
	counts := make(map[string]int64, len(martStatements))

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range martStatements {
		start := time.Now()

		if _, err := tx.Exec("DELETE FROM " + m.name); err != nil {
			return nil, fmt.Errorf("failed to truncate %s: %w", m.name, err)
		}

		res, err := tx.Exec(m.sql)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild %s: %w", m.name, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}

		counts[m.name] = rows
		metrics.MartBuildDurationSeconds.WithLabelValues(m.name).Observe(time.Since(start).Seconds())
		metrics.MartRows.WithLabelValues(m.name).Set(float64(rows))
		logger.Info("Rebuilt mart", "mart", m.name, "rows", rows)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit mart rebuild: %w", err)
	}

	return counts, nil
}

// DailyRow is one activity_daily row
type DailyRow struct {
	Date            string
	Steps           int64
	WorkoutsCt      int64
	WorkoutMinutes  float64
	WorkoutDistance float64
	WorkoutEnergy   float64
}

// DailySummary returns daily activity rows, most recent first
func (db *DB) DailySummary(limit int) ([]*DailyRow, error) {
	query := `
		SELECT date, steps, workouts_ct, workout_minutes, workout_distance, workout_energy
		FROM activity_daily
		ORDER BY date DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summary: %w", err)
	}
	defer rows.Close()

	var days []*DailyRow
	for rows.Next() {
		var d DailyRow
		err := rows.Scan(&d.Date, &d.Steps, &d.WorkoutsCt, &d.WorkoutMinutes, &d.WorkoutDistance, &d.WorkoutEnergy)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily row: %w", err)
		}
		days = append(days, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily summary: %w", err)
	}

	return days, nil
}

// MonthlyRow is one activity_monthly row
type MonthlyRow struct {
	YearMonth       string
	DaysCt          int64
	StepsTotal      int64
	StepsAvg        float64
	WorkoutsCt      int64
	WorkoutMinutes  float64
	WorkoutDistance float64
	WorkoutEnergy   float64
}

// MonthlySummary returns monthly activity rows in calendar order
func (db *DB) MonthlySummary() ([]*MonthlyRow, error) {
	rows, err := db.conn.Query(`
		SELECT year_month, days_ct, steps_total, steps_avg, workouts_ct,
		       workout_minutes, workout_distance, workout_energy
		FROM activity_monthly
		ORDER BY year_month
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly summary: %w", err)
	}
	defer rows.Close()

	var months []*MonthlyRow
	for rows.Next() {
		var m MonthlyRow
		err := rows.Scan(&m.YearMonth, &m.DaysCt, &m.StepsTotal, &m.StepsAvg,
			&m.WorkoutsCt, &m.WorkoutMinutes, &m.WorkoutDistance, &m.WorkoutEnergy)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monthly row: %w", err)
		}
		months = append(months, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly summary: %w", err)
	}

	return months, nil
}

// WeekdayRow is one activity_weekday row
type WeekdayRow struct {
	IsoDow         int64
	Weekday        string
	DaysCt         int64
	StepsTotal     int64
	StepsAvg       float64
	WorkoutsCt     int64
	WorkoutMinutes float64
}

// WeekdaySummary returns weekday activity rows, Monday first
func (db *DB) WeekdaySummary() ([]*WeekdayRow, error) {
	rows, err := db.conn.Query(`
		SELECT iso_dow, weekday, days_ct, steps_total, steps_avg, workouts_ct, workout_minutes
		FROM activity_weekday
		ORDER BY iso_dow
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekday summary: %w", err)
	}
	defer rows.Close()

	var weekdays []*WeekdayRow
	for rows.Next() {
		var w WeekdayRow
		err := rows.Scan(&w.IsoDow, &w.Weekday, &w.DaysCt, &w.StepsTotal,
			&w.StepsAvg, &w.WorkoutsCt, &w.WorkoutMinutes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weekday row: %w", err)
		}
		weekdays = append(weekdays, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weekday summary: %w", err)
	}

	return weekdays, nil
}
