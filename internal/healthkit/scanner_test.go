package healthkit

import (
	"strings"
	"testing"
)

// sampleExport mimics the shape of a real export: a HealthData root, header
// elements, step-count Records (some with metadata children), Records of
// other types, Workouts, and a handful of malformed entries.
const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<HealthData locale="en_US">
 <ExportDate value="2023-10-06 09:00:00 +0100"/>
 <Me HKCharacteristicTypeIdentifierBiologicalSex="HKBiologicalSexNotSet"/>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="iPhone" unit="count" startDate="2023-10-05 08:30:00 +0100" endDate="2023-10-05 08:40:00 +0100" value="604"/>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="Watch" unit="count" startDate="2023-10-05 09:00:00 +0100" endDate="2023-10-05 09:10:00 +0100" value="912">
  <MetadataEntry key="HKMetadataKeySyncVersion" value="2"/>
 </Record>
 <Record type="HKQuantityTypeIdentifierActiveEnergyBurned" sourceName="Watch" unit="kcal" startDate="2023-10-05 09:00:00 +0100" endDate="2023-10-05 09:10:00 +0100" value="12.3"/>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="iPhone" unit="count" startDate="2023-10-05 10:00:00 +0100" endDate="2023-10-05 10:05:00 +0100"/>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="iPhone" unit="count" startDate="garbage" value="100"/>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="iPhone" unit="count" startDate="2023-10-05 11:00:00 +0100" value="-5"/>
 <Workout workoutActivityType="HKWorkoutActivityTypeRunning" duration="30.01" durationUnit="min" totalDistance="5.2" totalDistanceUnit="km" totalEnergyBurned="320.5" totalEnergyBurnedUnit="kcal" sourceName="Watch" startDate="2023-10-05 18:00:00 +0100" endDate="2023-10-05 18:30:00 +0100">
  <WorkoutEvent type="HKWorkoutEventTypePause" date="2023-10-05 18:10:00 +0100"/>
  <MetadataEntry key="HKIndoorWorkout" value="0"/>
 </Workout>
 <Workout workoutActivityType="HKWorkoutActivityTypeYoga" sourceName="Watch" startDate="2023-10-05 20:00:00 +0100" endDate="2023-10-05 19:00:00 +0100"/>
 <Workout workoutActivityType="HKWorkoutActivityTypeWalking" totalDistance="-1" sourceName="iPhone" startDate="2023-10-05 07:00:00 +0100" endDate="2023-10-05 07:20:00 +0100"/>
</HealthData>
`

func TestScannerExtractsRecognizedRecords(t *testing.T) {
	scanner := NewScanner(strings.NewReader(sampleExport))

	var steps []*StepSample
	var workouts []*Workout
	for scanner.Scan() {
		if s := scanner.Step(); s != nil {
			steps = append(steps, s)
		}
		if w := scanner.Workout(); w != nil {
			workouts = append(workouts, w)
		}
	}

	if err := scanner.Err(); err != nil {
		t.Fatalf("Scanner returned error: %v", err)
	}

	if len(steps) != 2 {
		t.Fatalf("Expected 2 valid step samples, got %d", len(steps))
	}
	if len(workouts) != 1 {
		t.Fatalf("Expected 1 valid workout, got %d", len(workouts))
	}

	t.Run("StepFields", func(t *testing.T) {
		first := steps[0]
		if first.Value != 604 {
			t.Errorf("Expected value 604, got %d", first.Value)
		}
		if first.Unit != "count" {
			t.Errorf("Expected unit 'count', got %q", first.Unit)
		}
		if first.SourceName != "iPhone" {
			t.Errorf("Expected source 'iPhone', got %q", first.SourceName)
		}
		if first.Date() != "2023-10-05" {
			t.Errorf("Expected date 2023-10-05, got %q", first.Date())
		}

		if steps[1].Value != 912 {
			t.Errorf("Expected second value 912, got %d", steps[1].Value)
		}
		if steps[1].SourceName != "Watch" {
			t.Errorf("Expected second source 'Watch', got %q", steps[1].SourceName)
		}
	})

	t.Run("WorkoutFields", func(t *testing.T) {
		w := workouts[0]
		if w.ActivityType != "Running" {
			t.Errorf("Expected activity 'Running' (prefix stripped), got %q", w.ActivityType)
		}
		if w.DurationSec() != 1800 {
			t.Errorf("Expected derived duration 1800s, got %d", w.DurationSec())
		}
		if !w.Distance.Valid || w.Distance.Decimal.String() != "5.2" {
			t.Errorf("Expected distance 5.2, got %+v", w.Distance)
		}
		if w.DistanceUnit != "km" {
			t.Errorf("Expected distance unit 'km', got %q", w.DistanceUnit)
		}
		if !w.Energy.Valid || w.Energy.Decimal.String() != "320.5" {
			t.Errorf("Expected energy 320.5, got %+v", w.Energy)
		}
		if w.EnergyUnit != "kcal" {
			t.Errorf("Expected energy unit 'kcal', got %q", w.EnergyUnit)
		}
	})

	t.Run("SkipAccounting", func(t *testing.T) {
		// 6 Records + 3 Workouts in the document
		if scanner.RecordsSeen() != 9 {
			t.Errorf("Expected 9 records seen, got %d", scanner.RecordsSeen())
		}

		stepSkips := scanner.StepSkips()
		if stepSkips[ReasonMissingValue] != 1 {
			t.Errorf("Expected 1 missing_value skip, got %d", stepSkips[ReasonMissingValue])
		}
		if stepSkips[ReasonBadStartDate] != 1 {
			t.Errorf("Expected 1 bad_start_date skip, got %d", stepSkips[ReasonBadStartDate])
		}
		if stepSkips[ReasonNegativeValue] != 1 {
			t.Errorf("Expected 1 negative_value skip, got %d", stepSkips[ReasonNegativeValue])
		}

		workoutSkips := scanner.WorkoutSkips()
		if workoutSkips[ReasonNegativeDuration] != 1 {
			t.Errorf("Expected 1 negative_duration skip, got %d", workoutSkips[ReasonNegativeDuration])
		}
		if workoutSkips[ReasonInvalidDistance] != 1 {
			t.Errorf("Expected 1 invalid_distance skip, got %d", workoutSkips[ReasonInvalidDistance])
		}
	})
}

func TestScannerYieldsDocumentOrder(t *testing.T) {
	scanner := NewScanner(strings.NewReader(sampleExport))

	var kinds []string
	for scanner.Scan() {
		switch {
		case scanner.Step() != nil:
			kinds = append(kinds, "step")
		case scanner.Workout() != nil:
			kinds = append(kinds, "workout")
		}
	}

	want := []string{"step", "step", "workout"}
	if len(kinds) != len(want) {
		t.Fatalf("Expected %d rows, got %d", len(want), len(kinds))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Row %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
}

func TestScannerEmptyExport(t *testing.T) {
	scanner := NewScanner(strings.NewReader(`<HealthData locale="en_US"></HealthData>`))

	if scanner.Scan() {
		t.Error("Expected no rows from empty export")
	}
	if err := scanner.Err(); err != nil {
		t.Errorf("Expected no error from empty export, got %v", err)
	}
	if scanner.RecordsSeen() != 0 {
		t.Errorf("Expected 0 records seen, got %d", scanner.RecordsSeen())
	}
}

func TestScannerTruncatedExport(t *testing.T) {
	truncated := `<HealthData><Record type="HKQuantityTypeIdentifierStepCount" startDate="2023-10-05 08:30:00 +0100" value="10"`

	scanner := NewScanner(strings.NewReader(truncated))
	for scanner.Scan() {
	}

	if scanner.Err() == nil {
		t.Error("Expected stream error for truncated export")
	}
}
