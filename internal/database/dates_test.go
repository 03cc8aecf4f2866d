package database

import (
	"testing"
)

// seedStepDay inserts one step sample on the given calendar day
func seedStepDay(t *testing.T, db *DB, date string, value int64) {
	t.Helper()
	if err := db.InsertStepSample(&StepSample{
		Date:       date,
		StartTS:    1696150800,
		EndTS:      1696151400,
		Value:      value,
		Unit:       "count",
		SourceName: "Phone",
	}); err != nil {
		t.Fatalf("Failed to seed step sample: %v", err)
	}
}

// seedWorkoutDay inserts one workout on the given calendar day
func seedWorkoutDay(t *testing.T, db *DB, date, activityType string, durationSec int64, distance, energy *float64) {
	t.Helper()
	if err := db.InsertWorkout(&Workout{
		Date:         date,
		ActivityType: activityType,
		StartTS:      1696269600,
		EndTS:        1696269600 + durationSec,
		DurationSec:  durationSec,
		Distance:     distance,
		DistanceUnit: "km",
		EnergyKcal:   energy,
		EnergyUnit:   "kcal",
		SourceName:   "Watch",
	}); err != nil {
		t.Fatalf("Failed to seed workout: %v", err)
	}
}

func TestRebuildDatesEmpty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}

	rows, err := db.RebuildDates()
	if err != nil {
		t.Fatalf("Failed to rebuild dates: %v", err)
	}
	if rows != 0 {
		t.Errorf("Expected 0 date rows with no facts, got %d", rows)
	}
}

func TestRebuildDatesSpansBothFactTables(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}

	// Steps cover the 5th and 7th; a workout extends the range to the 9th.
	seedStepDay(t, db, "2023-10-05", 500)
	seedStepDay(t, db, "2023-10-07", 800)
	seedWorkoutDay(t, db, "2023-10-09", "Running", 1800, nil, nil)

	rows, err := db.RebuildDates()
	if err != nil {
		t.Fatalf("Failed to rebuild dates: %v", err)
	}
	if rows != 5 {
		t.Errorf("Expected 5 date rows for 2023-10-05..2023-10-09, got %d", rows)
	}

	var year, quarter, month, dayOfMonth, isoDow, isWeekend int
	var yearMonth string
	err = db.Conn().QueryRow(`
		SELECT year, quarter, month, day_of_month, iso_dow, year_month, is_weekend
		FROM dates WHERE date = '2023-10-07'
	`).Scan(&year, &quarter, &month, &dayOfMonth, &isoDow, &yearMonth, &isWeekend)
	if err != nil {
		t.Fatalf("Failed to read date row: %v", err)
	}

	if year != 2023 || quarter != 4 || month != 10 || dayOfMonth != 7 {
		t.Errorf("Unexpected calendar fields: %d %d %d %d", year, quarter, month, dayOfMonth)
	}
	// 2023-10-07 was a Saturday
	if isoDow != 6 {
		t.Errorf("Expected iso_dow 6, got %d", isoDow)
	}
	if isWeekend != 1 {
		t.Errorf("Expected weekend flag, got %d", isWeekend)
	}
	if yearMonth != "2023-10" {
		t.Errorf("Expected year_month 2023-10, got %s", yearMonth)
	}

	// 2023-10-09 was a Monday
	err = db.Conn().QueryRow(`SELECT iso_dow, is_weekend FROM dates WHERE date = '2023-10-09'`).
		Scan(&isoDow, &isWeekend)
	if err != nil {
		t.Fatalf("Failed to read date row: %v", err)
	}
	if isoDow != 1 || isWeekend != 0 {
		t.Errorf("Expected Monday weekday row, got iso_dow %d weekend %d", isoDow, isWeekend)
	}
}

func TestRebuildDatesIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}

	seedStepDay(t, db, "2023-10-05", 500)
	seedStepDay(t, db, "2023-10-06", 600)

	first, err := db.RebuildDates()
	if err != nil {
		t.Fatalf("Failed to rebuild dates: %v", err)
	}
	second, err := db.RebuildDates()
	if err != nil {
		t.Fatalf("Failed to rebuild dates again: %v", err)
	}

	if first != second {
		t.Errorf("Expected identical rebuilds, got %d then %d", first, second)
	}
	if first != 2 {
		t.Errorf("Expected 2 date rows, got %d", first)
	}
}
