package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"apple-health-etl/internal/healthkit"
	"apple-health-etl/internal/metrics"
)

// DailyTotal is one activity_daily row as seen by the streak computation
type DailyTotal struct {
	Date  string
	Steps int64
}

// Streak is a run of consecutive calendar days at or above the step threshold
type Streak struct {
	StreakNo  int64
	StartDate string
	EndDate   string
	Length    int64
	IsCurrent bool
}

// StreakSummary is the single-row rollup of a streak computation
type StreakSummary struct {
	Threshold     int64
	LongestLength int64
	LongestStart  string
	LongestEnd    string
	CurrentLength int64
	ComputedAt    int64
}

// DailyTotals returns activity_daily (date, steps) in ascending date order
func (db *DB) DailyTotals() ([]DailyTotal, error) {
	rows, err := db.conn.Query(`SELECT date, steps FROM activity_daily ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer rows.Close()

	var days []DailyTotal
	for rows.Next() {
		var d DailyTotal
		if err := rows.Scan(&d.Date, &d.Steps); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		days = append(days, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily totals: %w", err)
	}

	return days, nil
}

// ComputeStreaks walks daily totals and finds every run of consecutive days
// with steps >= threshold.
//
// The input must be in strictly increasing date order; anything else is a
// caller bug and returns an error rather than a silently wrong answer. A
// missing calendar day breaks a run the same way a below-threshold day does.
// The final streak is current only if it ends on the final input date.
// When several streaks share the longest length, the most recent one is
// reported.
func ComputeStreaks(days []DailyTotal, threshold int64) ([]Streak, *StreakSummary, error) {
	summary := &StreakSummary{Threshold: threshold}

	var streaks []Streak
	var cur Streak
	active := false

	closeCurrent := func() {
		if active {
			streaks = append(streaks, cur)
			active = false
		}
	}

	var prev time.Time
	for i, day := range days {
		d, err := time.Parse(healthkit.DateLayout, day.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid daily total date %q: %w", day.Date, err)
		}
		if i > 0 && !d.After(prev) {
			return nil, nil, fmt.Errorf("daily totals out of order at %q", day.Date)
		}

		consecutive := i > 0 && prev.AddDate(0, 0, 1).Equal(d)
		if !consecutive {
			closeCurrent()
		}

		if day.Steps >= threshold {
			if active {
				cur.EndDate = day.Date
				cur.Length++
			} else {
				cur = Streak{StartDate: day.Date, EndDate: day.Date, Length: 1}
				active = true
			}
		} else {
			closeCurrent()
		}

		prev = d
	}

	if active {
		cur.IsCurrent = true
		streaks = append(streaks, cur)
	}

	for i := range streaks {
		streaks[i].StreakNo = int64(i + 1)
		if streaks[i].Length >= summary.LongestLength {
			summary.LongestLength = streaks[i].Length
			summary.LongestStart = streaks[i].StartDate
			summary.LongestEnd = streaks[i].EndDate
		}
	}
	if n := len(streaks); n > 0 && streaks[n-1].IsCurrent {
		summary.CurrentLength = streaks[n-1].Length
	}

	return streaks, summary, nil
}

// RebuildStreaks recomputes step streaks from activity_daily and persists
// them. An empty daily mart yields no streak rows and a zero-length summary.
func (db *DB) RebuildStreaks(threshold int64) ([]Streak, *StreakSummary, error) {
	start := time.Now()

	days, err := db.DailyTotals()
	if err != nil {
		return nil, nil, err
	}

	streaks, summary, err := ComputeStreaks(days, threshold)
	if err != nil {
		return nil, nil, err
	}
	summary.ComputedAt = time.Now().Unix()

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM step_streaks"); err != nil {
		return nil, nil, fmt.Errorf("failed to truncate step_streaks: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM streak_summary"); err != nil {
		return nil, nil, fmt.Errorf("failed to truncate streak_summary: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO step_streaks (streak_no, start_date, end_date, length, is_current)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range streaks {
		if _, err := stmt.Exec(s.StreakNo, s.StartDate, s.EndDate, s.Length, s.IsCurrent); err != nil {
			return nil, nil, fmt.Errorf("failed to insert streak: %w", err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO streak_summary (id, threshold, longest_length, longest_start, longest_end, current_length, computed_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
	`, summary.Threshold, summary.LongestLength,
		nullableDate(summary.LongestStart), nullableDate(summary.LongestEnd),
		summary.CurrentLength, summary.ComputedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert streak summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit streak rebuild: %w", err)
	}

	metrics.MartBuildDurationSeconds.WithLabelValues(metrics.MartStepStreaks).Observe(time.Since(start).Seconds())
	metrics.MartRows.WithLabelValues(metrics.MartStepStreaks).Set(float64(len(streaks)))

	slog.Default().Info("Rebuilt step streaks",
		"threshold", threshold,
		"streaks", len(streaks),
		"longest", summary.LongestLength,
		"current", summary.CurrentLength)

	return streaks, summary, nil
}

// StreakReport reads the persisted streaks and summary. The summary is nil
// if streaks have never been computed.
func (db *DB) StreakReport() ([]Streak, *StreakSummary, error) {
	rows, err := db.conn.Query(`
		SELECT streak_no, start_date, end_date, length, is_current
		FROM step_streaks
		ORDER BY streak_no
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query streaks: %w", err)
	}
	defer rows.Close()

	var streaks []Streak
	for rows.Next() {
		var s Streak
		if err := rows.Scan(&s.StreakNo, &s.StartDate, &s.EndDate, &s.Length, &s.IsCurrent); err != nil {
			return nil, nil, fmt.Errorf("failed to scan streak: %w", err)
		}
		streaks = append(streaks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating streaks: %w", err)
	}

	var summary StreakSummary
	var longestStart, longestEnd sql.NullString
	err = db.conn.QueryRow(`
		SELECT threshold, longest_length, longest_start, longest_end, current_length, computed_at
		FROM streak_summary WHERE id = 1
	`).Scan(&summary.Threshold, &summary.LongestLength, &longestStart, &longestEnd,
		&summary.CurrentLength, &summary.ComputedAt)

	if err == sql.ErrNoRows {
		return streaks, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get streak summary: %w", err)
	}
	summary.LongestStart = longestStart.String
	summary.LongestEnd = longestEnd.String

	return streaks, &summary, nil
}

// nullableDate maps an unset date to NULL
func nullableDate(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
