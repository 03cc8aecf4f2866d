package metrics

import (
	"context"
	"log/slog"
	"time"
)

// DB interface for table row-count queries
type DB interface {
	TableCounts() (map[string]int64, error)
}

// StartRowCountCollector starts a background goroutine that periodically
// samples table row counts from the database while a pipeline run is in
// flight
func StartRowCountCollector(ctx context.Context, db DB, interval time.Duration) {
	logger := slog.Default()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect once immediately
	collectRowCounts(db, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Row count collector stopping")
			return
		case <-ticker.C:
			collectRowCounts(db, logger)
		}
	}
}

func collectRowCounts(db DB, logger *slog.Logger) {
	counts, err := db.TableCounts()
	if err != nil {
		logger.Error("Failed to collect table counts", "error", err)
		return
	}

	for table, count := range counts {
		TableRows.WithLabelValues(table).Set(float64(count))
	}
}
