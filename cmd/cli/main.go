package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"apple-health-etl/internal/config"
	"apple-health-etl/internal/database"
)

func main() {
	// Disable structured logging for CLI
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors
	})))

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
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Open database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	switch command {
	case "summary":
		handleSummary(db)
	case "daily":
		handleDaily(db, os.Args[2:])
	case "monthly":
		handleMonthly(db)
	case "weekday":
		handleWeekday(db)
	case "streaks":
		handleStreaks(db)
	case "runs":
		handleRuns(db, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown command '%s'\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`apple-health-etl CLI - Warehouse Inspection

Usage:
  cli <command> [options]

Commands:
  summary            Row counts per table and the most recent pipeline run
  daily [-limit n]   Daily activity, newest first (default 14 days)
  monthly            Monthly activity rollup
  weekday            Activity totals by day of week
  streaks            Step streaks against the configured goal
  runs [-limit n]    Recent pipeline runs (default 10)
  help               Show this help message

Examples:
  cli summary
  cli daily -limit 30
  cli streaks

Environment Variables:
  DATABASE_PATH          - SQLite database file (default: ./health.db)
  STEP_GOAL              - Daily step goal used by streaks (default: 10000)`)
}

func handleSummary(db *database.DB) {
	counts, err := db.TableCounts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to count table rows: %v\n", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Table rows:")
	for _, name := range names {
		fmt.Printf("  %-24s %d\n", name, counts[name])
	}

	runs, err := db.ListRuns(1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("\nNo pipeline runs recorded yet.")
		return
	}

	r := runs[0]
	fmt.Printf("\nLast run: %s (%s)\n", r.RunID, r.Status)
	fmt.Printf("  Started:  %s\n", formatUnix(r.StartedAt))
	if r.FinishedAt != nil {
		fmt.Printf("  Finished: %s\n", formatUnix(*r.FinishedAt))
	}
	fmt.Printf("  Records seen: %d, step rows: %d, workout rows: %d, skipped: %d\n",
		r.RecordsSeen, r.StepRows, r.WorkoutRows, r.SkippedTotal)
}

func handleDaily(db *database.DB, args []string) {
	fs := flag.NewFlagSet("daily", flag.ExitOnError)
	limit := fs.Int("limit", 14, "Number of days to show")
	fs.Parse(args)

	days, err := db.DailySummary(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read daily activity: %v\n", err)
		os.Exit(1)
	}
	if len(days) == 0 {
		fmt.Println("No daily activity found. Run the pipeline first: health-etl run")
		return
	}

	fmt.Printf("%-12s %8s %9s %8s %9s %8s\n", "DATE", "STEPS", "WORKOUTS", "MINUTES", "DISTANCE", "ENERGY")
	for _, d := range days {
		fmt.Printf("%-12s %8d %9d %8.1f %9.2f %8.1f\n",
			d.Date, d.Steps, d.WorkoutsCt, d.WorkoutMinutes, d.WorkoutDistance, d.WorkoutEnergy)
	}
}

func handleMonthly(db *database.DB) {
	months, err := db.MonthlySummary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read monthly activity: %v\n", err)
		os.Exit(1)
	}
	if len(months) == 0 {
		fmt.Println("No monthly activity found. Run the pipeline first: health-etl run")
		return
	}

	fmt.Printf("%-9s %5s %9s %9s %9s %8s %9s %9s\n",
		"MONTH", "DAYS", "STEPS", "AVG/DAY", "WORKOUTS", "MINUTES", "DISTANCE", "ENERGY")
	for _, m := range months {
		fmt.Printf("%-9s %5d %9d %9.1f %9d %8.1f %9.2f %9.1f\n",
			m.YearMonth, m.DaysCt, m.StepsTotal, m.StepsAvg, m.WorkoutsCt,
			m.WorkoutMinutes, m.WorkoutDistance, m.WorkoutEnergy)
	}
}

func handleWeekday(db *database.DB) {
	weekdays, err := db.WeekdaySummary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read weekday activity: %v\n", err)
		os.Exit(1)
	}
	if len(weekdays) == 0 {
		fmt.Println("No weekday activity found. Run the pipeline first: health-etl run")
		return
	}

	fmt.Printf("%-10s %5s %9s %9s %9s %8s\n", "WEEKDAY", "DAYS", "STEPS", "AVG/DAY", "WORKOUTS", "MINUTES")
	for _, w := range weekdays {
		fmt.Printf("%-10s %5d %9d %9.1f %9d %8.1f\n",
			w.Weekday, w.DaysCt, w.StepsTotal, w.StepsAvg, w.WorkoutsCt, w.WorkoutMinutes)
	}
}

func handleStreaks(db *database.DB) {
	streaks, summary, err := db.StreakReport()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read streaks: %v\n", err)
		os.Exit(1)
	}
	if summary == nil {
		fmt.Println("No streaks computed yet. Run: health-etl marts")
		return
	}

	fmt.Printf("Step goal: %d steps/day\n", summary.Threshold)
	if summary.LongestLength > 0 {
		fmt.Printf("Longest streak: %d day(s), %s to %s\n",
			summary.LongestLength, summary.LongestStart, summary.LongestEnd)
	} else {
		fmt.Println("Longest streak: none")
	}
	fmt.Printf("Current streak: %d day(s)\n", summary.CurrentLength)

	if len(streaks) == 0 {
		return
	}

	fmt.Printf("\n%-4s %-12s %-12s %7s %8s\n", "NO", "START", "END", "LENGTH", "CURRENT")
	for _, s := range streaks {
		current := ""
		if s.IsCurrent {
			current = "yes"
		}
		fmt.Printf("%-4d %-12s %-12s %7d %8s\n", s.StreakNo, s.StartDate, s.EndDate, s.Length, current)
	}
}

func handleRuns(db *database.DB, args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Number of runs to show")
	fs.Parse(args)

	runs, err := db.ListRuns(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No pipeline runs recorded yet.")
		return
	}

	fmt.Printf("Found %d run(s):\n\n", len(runs))
	for _, r := range runs {
		fmt.Printf("Run: %s\n", r.RunID)
		fmt.Printf("  Status:  %s\n", r.Status)
		fmt.Printf("  Export:  %s\n", r.ExportPath)
		fmt.Printf("  Started: %s\n", formatUnix(r.StartedAt))
		if r.FinishedAt != nil {
			fmt.Printf("  Finished: %s\n", formatUnix(*r.FinishedAt))
		}
		fmt.Printf("  Records seen: %d, step rows: %d, workout rows: %d, skipped: %d\n",
			r.RecordsSeen, r.StepRows, r.WorkoutRows, r.SkippedTotal)
		if r.SkippedJSON != nil && *r.SkippedJSON != "" && *r.SkippedJSON != "{}" {
			fmt.Printf("  Skip reasons: %s\n", *r.SkippedJSON)
		}
		fmt.Println()
	}
}

func formatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05 MST")
}
