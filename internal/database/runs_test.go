package database

import (
	"testing"
)

func TestRecordAndListRuns(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}

	finished := int64(1700000100)
	skipped := `{"bad_value":2}`
	first := &Run{
		RunID:        "0e3f9a52-1111-4222-8333-444455556666",
		ExportPath:   "/data/export.xml",
		StartedAt:    1700000000,
		FinishedAt:   &finished,
		RecordsSeen:  100,
		StepRows:     80,
		WorkoutRows:  5,
		SkippedTotal: 2,
		SkippedJSON:  &skipped,
		Status:       RunStatusSuccess,
	}
	if err := db.RecordRun(first); err != nil {
		t.Fatalf("Failed to record run: %v", err)
	}

	second := &Run{
		RunID:      "1f4a0b63-2222-4333-9444-555566667777",
		ExportPath: "/data/export.xml",
		StartedAt:  1700003600,
		Status:     RunStatusFailure,
	}
	if err := db.RecordRun(second); err != nil {
		t.Fatalf("Failed to record run: %v", err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}

	// Newest first
	if runs[0].RunID != second.RunID {
		t.Errorf("Expected newest run first, got %s", runs[0].RunID)
	}
	if runs[0].Status != RunStatusFailure {
		t.Errorf("Expected failure status, got %s", runs[0].Status)
	}
	if runs[0].FinishedAt != nil {
		t.Errorf("Expected nil finished_at, got %v", *runs[0].FinishedAt)
	}
	if runs[0].SkippedJSON != nil {
		t.Error("Expected nil skipped_json for failed run")
	}

	if runs[1].RecordsSeen != 100 || runs[1].StepRows != 80 || runs[1].WorkoutRows != 5 {
		t.Errorf("Unexpected counters: %+v", runs[1])
	}
	if runs[1].FinishedAt == nil || *runs[1].FinishedAt != finished {
		t.Errorf("Expected finished_at %d, got %v", finished, runs[1].FinishedAt)
	}
	if runs[1].SkippedJSON == nil || *runs[1].SkippedJSON != skipped {
		t.Errorf("Expected skipped_json %s, got %v", skipped, runs[1].SkippedJSON)
	}
}

func TestListRunsLimit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}

	for i := int64(0); i < 5; i++ {
		run := &Run{
			RunID:     "00000000-0000-4000-8000-00000000000" + string(rune('a'+i)),
			StartedAt: 1700000000 + i,
			Status:    RunStatusSuccess,
		}
		if err := db.RecordRun(run); err != nil {
			t.Fatalf("Failed to record run: %v", err)
		}
	}

	runs, err := db.ListRuns(3)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("Expected 3 runs with limit, got %d", len(runs))
	}
}
