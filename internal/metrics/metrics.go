package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Record kinds
	KindSteps    = "steps"
	KindWorkouts = "workouts"

	// Pipeline commands
	CommandExtract = "extract"
	CommandLoad    = "load"
	CommandMarts   = "marts"
	CommandRun     = "run"

	// Run results
	ResultSuccess = "success"
	ResultFailure = "failure"

	// Fact tables
	TableStepSamples = "step_samples"
	TableWorkouts    = "workouts"

	// Derived tables and marts
	MartDates           = "dates"
	MartStepsDaily      = "steps_daily"
	MartActivityDaily   = "activity_daily"
	MartWorkoutsByType  = "workouts_by_type_daily"
	MartActivityMonthly = "activity_monthly"
	MartActivityWeekday = "activity_weekday"
	MartStepStreaks     = "step_streaks"
)

// Extractor metrics
var (
	RecordsScannedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "export_records_scanned_total",
			Help: "Total number of source export records scanned",
		},
	)

	RowsExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_rows_extracted_total",
			Help: "Total number of valid rows extracted by record kind",
		},
		[]string{"kind"},
	)

	RecordsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_records_skipped_total",
			Help: "Total number of malformed records skipped by kind and reason",
		},
		[]string{"kind", "reason"},
	)

	ExtractDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extract_duration_seconds",
			Help:    "Time spent streaming the export into table files",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800, 3600},
		},
	)
)

// Loader metrics
var (
	RowsLoadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "load_rows_total",
			Help: "Total number of rows loaded into fact tables",
		},
		[]string{"table"},
	)

	RowsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "load_rows_rejected_total",
			Help: "Total number of table rows rejected during load",
		},
		[]string{"table"},
	)

	LoadDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "load_duration_seconds",
			Help:    "Time spent loading a table file into the database",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"table"},
	)
)

// Modeler metrics
var (
	MartBuildDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mart_build_duration_seconds",
			Help:    "Time spent rebuilding a derived table or mart",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"mart"},
	)

	MartRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mart_rows",
			Help: "Number of rows in a derived table or mart after rebuild",
		},
		[]string{"mart"},
	)
)

// Pipeline metrics
var (
	PipelineActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_active",
			Help: "Whether a pipeline run is currently in flight (1) or not (0)",
		},
	)

	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs by command and result",
		},
		[]string{"command", "result"},
	)

	TableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "table_rows",
			Help: "Current row counts of database tables",
		},
		[]string{"table"},
	)
)
