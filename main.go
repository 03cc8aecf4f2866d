package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"apple-health-etl/internal/config"
	"apple-health-etl/internal/database"
	"apple-health-etl/internal/extract"
	"apple-health-etl/internal/metrics"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting apple-health-etl",
		"command", command,
		"database", cfg.DatabasePath,
		"log_level", cfg.LogLevel)

	if err := run(command, cfg, os.Args[2:]); err != nil {
		logger.Error("Pipeline failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func run(command string, cfg *config.Config, args []string) error {
	logger := slog.Default()

	// Open database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Init(); err != nil {
		return err
	}

	// A signal cancels the in-flight run rather than killing the process
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		sig := <-sigChan
		logger.Info("Received signal, stopping run", "signal", sig.String())
		cancel()
	}()

	// Start metrics server and row count collector if enabled
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		go func() {
			logger.Info("Starting row count collector")
			metrics.StartRowCountCollector(ctx, db, 15*time.Second)
		}()

		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())

		metricsAddr := fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort)
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsMux,
		}

		go func() {
			logger.Info("Metrics server listening", "addr", metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()

		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("Metrics server shutdown failed", "error", err)
			}
		}()
	}

	metrics.PipelineActive.Set(1)
	defer metrics.PipelineActive.Set(0)

	var runErr error
	switch command {
	case "extract":
		runErr = runExtract(ctx, cfg, db, args)
	case "load":
		runErr = runLoad(db, args)
	case "marts":
		runErr = runMarts(cfg, db, args)
	case "run":
		runErr = runPipeline(ctx, cfg, db, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}

	result := metrics.ResultSuccess
	if runErr != nil {
		result = metrics.ResultFailure
	}
	metrics.PipelineRunsTotal.WithLabelValues(command, result).Inc()

	return runErr
}

func runExtract(ctx context.Context, cfg *config.Config, db *database.DB, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	exportPath := fs.String("export", "export.xml", "Apple Health export XML to read")
	stepsPath := fs.String("steps", "steps.csv", "Steps table file to write")
	workoutsPath := fs.String("workouts", "workouts.csv", "Workouts table file to write")
	fs.Parse(args)

	started := time.Now()
	summary, err := extract.NewExtractor(cfg).Run(ctx, *exportPath, *stepsPath, *workoutsPath)
	recordRun(db, *exportPath, started, summary, err)
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}

	printExtractSummary(summary)
	return nil
}

func runLoad(db *database.DB, args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	stepsPath := fs.String("steps", "steps.csv", "Steps table file to load")
	workoutsPath := fs.String("workouts", "workouts.csv", "Workouts table file to load")
	fs.Parse(args)

	steps, err := db.LoadSteps(*stepsPath)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	workouts, err := db.LoadWorkouts(*workoutsPath)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	printLoadSummary(steps, workouts)
	return nil
}

func runMarts(cfg *config.Config, db *database.DB, args []string) error {
	fs := flag.NewFlagSet("marts", flag.ExitOnError)
	threshold := fs.Int64("threshold", cfg.StepGoal, "Daily step goal used for streaks")
	fs.Parse(args)

	days, counts, streakSummary, err := rebuildMarts(db, *threshold)
	if err != nil {
		return err
	}

	printMartsSummary(days, counts, streakSummary)
	return nil
}

func runPipeline(ctx context.Context, cfg *config.Config, db *database.DB, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	exportPath := fs.String("export", "export.xml", "Apple Health export XML to read")
	stepsPath := fs.String("steps", "steps.csv", "Steps table file to write")
	workoutsPath := fs.String("workouts", "workouts.csv", "Workouts table file to write")
	threshold := fs.Int64("threshold", cfg.StepGoal, "Daily step goal used for streaks")
	fs.Parse(args)

	started := time.Now()
	summary, err := extract.NewExtractor(cfg).Run(ctx, *exportPath, *stepsPath, *workoutsPath)
	if err != nil {
		recordRun(db, *exportPath, started, summary, err)
		return fmt.Errorf("extract failed: %w", err)
	}

	steps, err := db.LoadSteps(*stepsPath)
	if err != nil {
		recordRun(db, *exportPath, started, summary, err)
		return fmt.Errorf("load failed: %w", err)
	}
	workouts, err := db.LoadWorkouts(*workoutsPath)
	if err != nil {
		recordRun(db, *exportPath, started, summary, err)
		return fmt.Errorf("load failed: %w", err)
	}

	days, counts, streakSummary, err := rebuildMarts(db, *threshold)
	if err != nil {
		recordRun(db, *exportPath, started, summary, err)
		return fmt.Errorf("marts failed: %w", err)
	}

	recordRun(db, *exportPath, started, summary, nil)
	printExtractSummary(summary)
	printLoadSummary(steps, workouts)
	printMartsSummary(days, counts, streakSummary)
	return nil
}

// rebuildMarts rebuilds the dates dimension, the marts and the streaks
func rebuildMarts(db *database.DB, threshold int64) (int64, map[string]int64, *database.StreakSummary, error) {
	days, err := db.RebuildDates()
	if err != nil {
		return 0, nil, nil, err
	}
	counts, err := db.RebuildMarts()
	if err != nil {
		return 0, nil, nil, err
	}
	_, streakSummary, err := db.RebuildStreaks(threshold)
	if err != nil {
		return 0, nil, nil, err
	}
	return days, counts, streakSummary, nil
}

// recordRun writes a run ledger row; failures here are logged, not fatal
func recordRun(db *database.DB, exportPath string, started time.Time, summary *extract.Summary, runErr error) {
	finished := time.Now().Unix()
	run := &database.Run{
		RunID:      uuid.NewString(),
		ExportPath: exportPath,
		StartedAt:  started.Unix(),
		FinishedAt: &finished,
		Status:     database.RunStatusSuccess,
	}
	if runErr != nil {
		run.Status = database.RunStatusFailure
	}

	if summary != nil {
		run.RunID = summary.RunID.String()
		run.RecordsSeen = summary.RecordsSeen
		run.StepRows = summary.StepRows
		run.WorkoutRows = summary.WorkoutRows
		run.SkippedTotal = summary.SkippedTotal()
		if b, err := json.Marshal(summary.Skipped); err == nil {
			s := string(b)
			run.SkippedJSON = &s
		}
	}

	if err := db.RecordRun(run); err != nil {
		slog.Default().Error("Failed to record run", "error", err)
	}
}

func printExtractSummary(s *extract.Summary) {
	fmt.Printf("Done. Scanned %d records: %d step rows, %d workout rows, %d skipped.\n",
		s.RecordsSeen, s.StepRows, s.WorkoutRows, s.SkippedTotal())
	fmt.Printf("Total steps: %d", s.TotalSteps)
	if !s.TotalDistance.IsZero() {
		fmt.Printf("; workout distance: %s", s.TotalDistance)
	}
	if !s.TotalEnergy.IsZero() {
		fmt.Printf("; workout energy: %s kcal", s.TotalEnergy)
	}
	fmt.Println()

	if len(s.Skipped) > 0 {
		reasons := make([]string, 0, len(s.Skipped))
		for reason := range s.Skipped {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Printf("  skipped %-22s %d\n", reason, s.Skipped[reason])
		}
	}
}

func printLoadSummary(steps, workouts *database.LoadResult) {
	fmt.Printf("Loaded %d step samples (%d skipped) and %d workouts (%d skipped).\n",
		steps.Rows, steps.Skipped, workouts.Rows, workouts.Skipped)
}

func printMartsSummary(days int64, counts map[string]int64, s *database.StreakSummary) {
	fmt.Printf("Built marts over %d days:", days)
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf(" %s=%d", name, counts[name])
	}
	fmt.Println()

	if s.LongestLength > 0 {
		fmt.Printf("Longest streak at %d steps/day: %d days (%s to %s); current: %d days.\n",
			s.Threshold, s.LongestLength, s.LongestStart, s.LongestEnd, s.CurrentLength)
	} else {
		fmt.Printf("No streaks at %d steps/day yet.\n", s.Threshold)
	}
}

func printUsage() {
	fmt.Println(`apple-health-etl - Apple Health export pipeline

Usage:
  apple-health-etl <command> [options]

Commands:
  extract      Scan an export XML into steps and workouts table files
  load         Load the table files into the fact tables
  marts        Rebuild the dates dimension, marts and streaks
  run          extract + load + marts in one go
  help         Show this help message

Options:
  extract, run   -export <path>    Export XML to read (default: export.xml)
                 -steps <path>     Steps table to write (default: steps.csv)
                 -workouts <path>  Workouts table to write (default: workouts.csv)
  load           -steps, -workouts Table files to load
  marts, run     -threshold <n>    Step goal for streaks (default: STEP_GOAL)

Table files ending in .gz are written and read gzip-compressed.

Environment Variables:
  DATABASE_PATH      - SQLite database path (default: ./health.db)
  STEP_GOAL          - Daily step goal for streaks (default: 10000)
  PROGRESS_INTERVAL  - Extract progress log cadence in records (default: 250000)
  METRICS_ENABLED    - Expose Prometheus metrics (default: false)
  METRICS_HOST       - Metrics listen host (default: localhost)
  METRICS_PORT       - Metrics listen port (default: 4102)
  LOG_LEVEL          - debug, info, warn or error (default: info)`)
}
