package database

import (
	"fmt"
	"time"

	"apple-health-etl/internal/metrics"
)

// rebuildDatesSQL generates one row per calendar day from the earliest to the
// latest fact date, across both fact tables. iso_dow is derived from
// strftime('%w') (0 = Sunday) so it works on every SQLite build.
const rebuildDatesSQL = `
WITH RECURSIVE bounds AS (
    SELECT MIN(d) AS lo, MAX(d) AS hi FROM (
        SELECT MIN(date) AS d FROM step_samples
        UNION ALL SELECT MAX(date) FROM step_samples
        UNION ALL SELECT MIN(date) FROM workouts
        UNION ALL SELECT MAX(date) FROM workouts
    )
),
span(d) AS (
    SELECT lo FROM bounds WHERE lo IS NOT NULL
    UNION ALL
    SELECT date(d, '+1 day') FROM span WHERE d < (SELECT hi FROM bounds)
)
INSERT INTO dates (date, year, quarter, month, day_of_month, iso_dow, year_month, is_weekend)
SELECT d,
       CAST(strftime('%Y', d) AS INTEGER),
       (CAST(strftime('%m', d) AS INTEGER) + 2) / 3,
       CAST(strftime('%m', d) AS INTEGER),
       CAST(strftime('%d', d) AS INTEGER),
       CASE CAST(strftime('%w', d) AS INTEGER)
           WHEN 0 THEN 7
           ELSE CAST(strftime('%w', d) AS INTEGER)
       END,
       strftime('%Y-%m', d),
       CASE WHEN CAST(strftime('%w', d) AS INTEGER) IN (0, 6) THEN 1 ELSE 0 END
FROM span
`

// RebuildDates rebuilds the dates dimension over the current fact tables.
// With no facts loaded the dimension is simply empty.
func (db *DB) RebuildDates() (int64, error) {
	start := time.Now()

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM dates"); err != nil {
		return 0, fmt.Errorf("failed to truncate dates: %w", err)
	}

	res, err := tx.Exec(rebuildDatesSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to rebuild dates: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit dates rebuild: %w", err)
	}

	metrics.MartBuildDurationSeconds.WithLabelValues(metrics.MartDates).Observe(time.Since(start).Seconds())
	metrics.MartRows.WithLabelValues(metrics.MartDates).Set(float64(rows))

	return rows, nil
}
