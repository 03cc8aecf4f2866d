package healthkit

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is the timestamp format used throughout an Apple Health export,
// e.g. "2023-10-05 08:30:00 +0100". Timestamps keep the zone offset they were
// written with; the pipeline never converts between zones.
const TimeLayout = "2006-01-02 15:04:05 -0700"

// DateLayout is the calendar-day format used for grouping and dimension keys.
const DateLayout = "2006-01-02"

// StepCountType is the Record type attribute identifying step-count samples.
const StepCountType = "HKQuantityTypeIdentifierStepCount"

// activityTypePrefix is stripped from workoutActivityType attributes,
// turning "HKWorkoutActivityTypeRunning" into "Running".
const activityTypePrefix = "HKWorkoutActivityType"

// StepSample is one step-count interval from the export. Samples may overlap
// or duplicate each other across source devices; they are passed through
// as-is and rolled up to daily totals downstream.
type StepSample struct {
	StartDate  time.Time
	EndDate    time.Time
	Value      int64
	Unit       string
	SourceName string
}

// Date returns the calendar day of the sample's start, in the zone offset
// the export wrote it with.
func (s *StepSample) Date() string {
	return s.StartDate.Format(DateLayout)
}

// Workout is one workout session from the export. Duration is derived from
// the start and end timestamps; the export's own duration attribute is
// ignored because its rounding is not consistent across source devices.
type Workout struct {
	ActivityType string
	StartDate    time.Time
	EndDate      time.Time
	Duration     time.Duration
	Distance     decimal.NullDecimal
	DistanceUnit string
	Energy       decimal.NullDecimal
	EnergyUnit   string
	SourceName   string
}

// Date returns the calendar day of the workout's start, in the zone offset
// the export wrote it with.
func (w *Workout) Date() string {
	return w.StartDate.Format(DateLayout)
}

// DurationSec returns the derived duration in whole seconds.
func (w *Workout) DurationSec() int64 {
	return int64(w.Duration / time.Second)
}

// StripActivityPrefix removes the HealthKit constant prefix from a workout
// activity type, leaving the plain label dashboards want.
func StripActivityPrefix(activityType string) string {
	return strings.TrimPrefix(activityType, activityTypePrefix)
}

// ParseQuantity parses a numeric attribute such as totalDistance or
// totalEnergyBurned. Quantities must be non-negative; decimal parsing avoids
// binary float round-trips so exported values survive re-serialization.
func ParseQuantity(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return decimal.Decimal{}, fmt.Errorf("empty quantity")
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse quantity %q: %w", v, err)
	}

	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative quantity %q", v)
	}

	return d, nil
}

// ParseTime parses an export timestamp.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
