package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"apple-health-etl/internal/config"
	"apple-health-etl/internal/healthkit"
	"apple-health-etl/internal/metrics"
	"apple-health-etl/internal/tables"
)

// Summary reports what a single extract run produced.
type Summary struct {
	RunID        uuid.UUID
	ExportPath   string
	StepsPath    string
	WorkoutsPath string

	RecordsSeen int64
	StepRows    int64
	WorkoutRows int64
	Skipped     map[string]int64

	TotalSteps    int64
	TotalDistance decimal.Decimal
	TotalEnergy   decimal.Decimal

	Started  time.Time
	Finished time.Time
}

// SkippedTotal returns the number of records skipped across all reasons.
func (s *Summary) SkippedTotal() int64 {
	var total int64
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// Extractor streams an Apple Health export into the two table files
type Extractor struct {
	progressInterval int64
	logger           *slog.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(cfg *config.Config) *Extractor {
	return &Extractor{
		progressInterval: cfg.ProgressInterval,
		logger:           slog.Default(),
	}
}

// Run scans the export once and writes every valid step sample and workout to
// the table files. Malformed records are skipped and counted; a malformed XML
// stream or an unwritable output is fatal.
func (e *Extractor) Run(ctx context.Context, exportPath, stepsPath, workoutsPath string) (*Summary, error) {
	started := time.Now()
	summary := &Summary{
		RunID:        uuid.New(),
		ExportPath:   exportPath,
		StepsPath:    stepsPath,
		WorkoutsPath: workoutsPath,
		Skipped:      make(map[string]int64),
		Started:      started,
	}

	e.logger.Info("Starting extract",
		"run_id", summary.RunID,
		"export", exportPath,
		"steps", stepsPath,
		"workouts", workoutsPath)

	export, err := os.Open(exportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer export.Close()

	steps, err := tables.NewWriter(stepsPath, tables.StepColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to create steps table: %w", err)
	}
	defer steps.Close()

	workouts, err := tables.NewWriter(workoutsPath, tables.WorkoutColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to create workouts table: %w", err)
	}
	defer workouts.Close()

	sc := healthkit.NewScanner(export)

	var lastSeen, lastProgress int64
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if s := sc.Step(); s != nil {
			if err := steps.WriteRow(tables.StepRow(s)); err != nil {
				return nil, fmt.Errorf("failed to write step row: %w", err)
			}
			summary.TotalSteps += s.Value
			metrics.RowsExtractedTotal.WithLabelValues(metrics.KindSteps).Inc()
		}

		if w := sc.Workout(); w != nil {
			if err := workouts.WriteRow(tables.WorkoutRow(w)); err != nil {
				return nil, fmt.Errorf("failed to write workout row: %w", err)
			}
			if w.Distance.Valid {
				summary.TotalDistance = summary.TotalDistance.Add(w.Distance.Decimal)
			}
			if w.Energy.Valid {
				summary.TotalEnergy = summary.TotalEnergy.Add(w.Energy.Decimal)
			}
			metrics.RowsExtractedTotal.WithLabelValues(metrics.KindWorkouts).Inc()
		}

		seen := sc.RecordsSeen()
		metrics.RecordsScannedTotal.Add(float64(seen - lastSeen))
		lastSeen = seen

		if e.progressInterval > 0 && seen-lastProgress >= e.progressInterval {
			e.logger.Info("Extract progress",
				"records_seen", seen,
				"step_rows", steps.Rows(),
				"workout_rows", workouts.Rows())
			lastProgress = seen
		}
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	// Records scanned after the last emitted row still count.
	metrics.RecordsScannedTotal.Add(float64(sc.RecordsSeen() - lastSeen))

	if err := steps.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish steps table: %w", err)
	}
	if err := workouts.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish workouts table: %w", err)
	}

	summary.RecordsSeen = sc.RecordsSeen()
	summary.StepRows = steps.Rows()
	summary.WorkoutRows = workouts.Rows()
	for reason, n := range sc.StepSkips() {
		summary.Skipped[reason] += n
		metrics.RecordsSkippedTotal.WithLabelValues(metrics.KindSteps, reason).Add(float64(n))
	}
	for reason, n := range sc.WorkoutSkips() {
		summary.Skipped[reason] += n
		metrics.RecordsSkippedTotal.WithLabelValues(metrics.KindWorkouts, reason).Add(float64(n))
	}
	summary.Finished = time.Now()

	metrics.ExtractDurationSeconds.Observe(summary.Finished.Sub(started).Seconds())

	e.logger.Info("Extract complete",
		"run_id", summary.RunID,
		"records_seen", summary.RecordsSeen,
		"step_rows", summary.StepRows,
		"workout_rows", summary.WorkoutRows,
		"skipped", summary.SkippedTotal(),
		"total_steps", summary.TotalSteps,
		"duration", summary.Finished.Sub(started))

	return summary, nil
}
