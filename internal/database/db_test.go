package database

import (
	"testing"
)

// setupTestDB opens a fresh database in a per-test temp dir
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	return db
}

func TestOpenAndInit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}

	if err := db.Health(); err != nil {
		t.Errorf("Expected healthy connection, got %v", err)
	}

	// Init must be safe to run again on an existing database
	if err := db.Init(); err != nil {
		t.Fatalf("Failed to re-init db: %v", err)
	}
}

func TestTableCounts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}

	counts, err := db.TableCounts()
	if err != nil {
		t.Fatalf("Failed to get table counts: %v", err)
	}

	if len(counts) != len(countedTables) {
		t.Errorf("Expected %d counted tables, got %d", len(countedTables), len(counts))
	}
	for table, n := range counts {
		if n != 0 {
			t.Errorf("Expected empty table %s, got %d rows", table, n)
		}
	}

	if err := db.InsertStepSample(&StepSample{
		Date:    "2023-10-01",
		StartTS: 1696150800,
		EndTS:   1696151400,
		Value:   512,
	}); err != nil {
		t.Fatalf("Failed to insert step sample: %v", err)
	}

	counts, err = db.TableCounts()
	if err != nil {
		t.Fatalf("Failed to get table counts: %v", err)
	}
	if counts["step_samples"] != 1 {
		t.Errorf("Expected 1 step sample, got %d", counts["step_samples"])
	}
}
