package tables

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"apple-health-etl/internal/healthkit"
)

// StepRow renders a step sample as a CSV record in StepColumns order.
func StepRow(s *healthkit.StepSample) []string {
	return []string{
		s.StartDate.Format(healthkit.TimeLayout),
		s.EndDate.Format(healthkit.TimeLayout),
		strconv.FormatInt(s.Value, 10),
		s.Unit,
		s.SourceName,
	}
}

// WorkoutRow renders a workout as a CSV record in WorkoutColumns order.
// Absent optional quantities serialize as empty fields.
func WorkoutRow(w *healthkit.Workout) []string {
	return []string{
		w.ActivityType,
		w.StartDate.Format(healthkit.TimeLayout),
		w.EndDate.Format(healthkit.TimeLayout),
		strconv.FormatInt(w.DurationSec(), 10),
		nullDecimalField(w.Distance),
		w.DistanceUnit,
		nullDecimalField(w.Energy),
		w.EnergyUnit,
		w.SourceName,
	}
}

// ParseStepRow parses a CSV record in StepColumns order back into a step
// sample. Loaders treat a failure here as a bad row, not a bad file.
func ParseStepRow(rec []string) (*healthkit.StepSample, error) {
	if len(rec) != len(StepColumns) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(StepColumns), len(rec))
	}

	start, err := healthkit.ParseTime(rec[0])
	if err != nil {
		return nil, fmt.Errorf("invalid start_date %q: %w", rec[0], err)
	}
	end, err := healthkit.ParseTime(rec[1])
	if err != nil {
		return nil, fmt.Errorf("invalid end_date %q: %w", rec[1], err)
	}

	value, err := strconv.ParseInt(rec[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", rec[2], err)
	}
	if value < 0 {
		return nil, fmt.Errorf("negative value %d", value)
	}

	return &healthkit.StepSample{
		StartDate:  start,
		EndDate:    end,
		Value:      value,
		Unit:       rec[3],
		SourceName: rec[4],
	}, nil
}

// ParseWorkoutRow parses a CSV record in WorkoutColumns order back into a
// workout.
func ParseWorkoutRow(rec []string) (*healthkit.Workout, error) {
	if len(rec) != len(WorkoutColumns) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(WorkoutColumns), len(rec))
	}

	if rec[0] == "" {
		return nil, fmt.Errorf("missing activity_type")
	}

	start, err := healthkit.ParseTime(rec[1])
	if err != nil {
		return nil, fmt.Errorf("invalid start_date %q: %w", rec[1], err)
	}
	end, err := healthkit.ParseTime(rec[2])
	if err != nil {
		return nil, fmt.Errorf("invalid end_date %q: %w", rec[2], err)
	}

	durationSec, err := strconv.ParseInt(rec[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid duration_sec %q: %w", rec[3], err)
	}
	if durationSec < 0 {
		return nil, fmt.Errorf("negative duration_sec %d", durationSec)
	}

	w := &healthkit.Workout{
		ActivityType: rec[0],
		StartDate:    start,
		EndDate:      end,
		Duration:     time.Duration(durationSec) * time.Second,
		DistanceUnit: rec[5],
		EnergyUnit:   rec[7],
		SourceName:   rec[8],
	}

	if rec[4] != "" {
		dist, err := healthkit.ParseQuantity(rec[4])
		if err != nil {
			return nil, fmt.Errorf("invalid distance %q: %w", rec[4], err)
		}
		w.Distance = decimal.NullDecimal{Decimal: dist, Valid: true}
	}
	if rec[6] != "" {
		energy, err := healthkit.ParseQuantity(rec[6])
		if err != nil {
			return nil, fmt.Errorf("invalid energy_kcal %q: %w", rec[6], err)
		}
		w.Energy = decimal.NullDecimal{Decimal: energy, Valid: true}
	}

	return w, nil
}

func nullDecimalField(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
