package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"apple-health-etl/internal/metrics"
	"apple-health-etl/internal/tables"
)

// LoadResult reports the outcome of one fact-table load
type LoadResult struct {
	Table   string
	Rows    int64
	Skipped int64
}

// LoadSteps truncates step_samples and reloads it from a steps table file.
// The whole load runs in one transaction, so a fatal error leaves the
// previous contents in place. Rows that fail to parse are warned and
// counted, not fatal.
func (db *DB) LoadSteps(path string) (*LoadResult, error) {
	start := time.Now()
	logger := slog.Default()

	r, err := tables.OpenReader(path, tables.StepColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to open steps table: %w", err)
	}
	defer r.Close()

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM step_samples"); err != nil {
		return nil, fmt.Errorf("failed to truncate step_samples: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO step_samples (date, start_ts, end_ts, value, unit, source_name)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	result := &LoadResult{Table: "step_samples"}
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.Warn("Skipping unparseable row", "table", result.Table, "error", err)
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to read steps table: %w", err)
		}

		s, err := tables.ParseStepRow(rec)
		if err != nil {
			logger.Warn("Skipping invalid row", "table", result.Table, "error", err)
			result.Skipped++
			continue
		}

		_, err = stmt.Exec(s.Date(), s.StartDate.Unix(), s.EndDate.Unix(), s.Value, s.Unit, s.SourceName)
		if err != nil {
			return nil, fmt.Errorf("failed to insert step sample: %w", err)
		}
		result.Rows++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit steps load: %w", err)
	}

	metrics.RowsLoadedTotal.WithLabelValues(metrics.TableStepSamples).Add(float64(result.Rows))
	metrics.RowsRejectedTotal.WithLabelValues(metrics.TableStepSamples).Add(float64(result.Skipped))
	metrics.LoadDurationSeconds.WithLabelValues(metrics.TableStepSamples).Observe(time.Since(start).Seconds())

	logger.Info("Loaded step samples",
		"path", path,
		"rows", result.Rows,
		"skipped", result.Skipped)

	return result, nil
}

// LoadWorkouts truncates workouts and reloads it from a workouts table file
func (db *DB) LoadWorkouts(path string) (*LoadResult, error) {
	start := time.Now()
	logger := slog.Default()

	r, err := tables.OpenReader(path, tables.WorkoutColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to open workouts table: %w", err)
	}
	defer r.Close()

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM workouts"); err != nil {
		return nil, fmt.Errorf("failed to truncate workouts: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO workouts (
			date, activity_type, start_ts, end_ts, duration_sec,
			distance, distance_unit, energy_kcal, energy_unit, source_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	result := &LoadResult{Table: "workouts"}
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.Warn("Skipping unparseable row", "table", result.Table, "error", err)
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to read workouts table: %w", err)
		}

		w, err := tables.ParseWorkoutRow(rec)
		if err != nil {
			logger.Warn("Skipping invalid row", "table", result.Table, "error", err)
			result.Skipped++
			continue
		}

		_, err = stmt.Exec(
			w.Date(), w.ActivityType, w.StartDate.Unix(), w.EndDate.Unix(), w.DurationSec(),
			nullDecimalFloat(w.Distance), w.DistanceUnit,
			nullDecimalFloat(w.Energy), w.EnergyUnit, w.SourceName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert workout: %w", err)
		}
		result.Rows++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit workouts load: %w", err)
	}

	metrics.RowsLoadedTotal.WithLabelValues(metrics.TableWorkouts).Add(float64(result.Rows))
	metrics.RowsRejectedTotal.WithLabelValues(metrics.TableWorkouts).Add(float64(result.Skipped))
	metrics.LoadDurationSeconds.WithLabelValues(metrics.TableWorkouts).Observe(time.Since(start).Seconds())

	logger.Info("Loaded workouts",
		"path", path,
		"rows", result.Rows,
		"skipped", result.Skipped)

	return result, nil
}

func nullDecimalFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f, _ := d.Decimal.Float64()
	return &f
}
