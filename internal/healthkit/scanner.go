package healthkit

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"
)

// Skip reasons accumulated by the scanner. A skipped record is one of the two
// recognized kinds that failed field validation; unrecognized element types
// are not skips, they are simply not ours.
const (
	ReasonMissingStartDate = "missing_start_date"
	ReasonBadStartDate     = "bad_start_date"
	ReasonMissingEndDate   = "missing_end_date"
	ReasonBadEndDate       = "bad_end_date"
	ReasonMissingValue     = "missing_value"
	ReasonBadValue         = "bad_value"
	ReasonNegativeValue    = "negative_value"
	ReasonMissingActivity  = "missing_activity_type"
	ReasonNegativeDuration = "negative_duration"
	ReasonInvalidDistance  = "invalid_distance"
	ReasonInvalidEnergy    = "invalid_energy"
)

// Scanner streams recognized records out of an Apple Health export.
//
// The export is read as a forward-only token stream: for each <Record> or
// <Workout> start element the scanner reads the attributes and skips the
// subtree, so memory stays bounded no matter how large the file is. Records
// that fail validation are logged, counted per reason, and never abort the
// scan.
//
// Usage mirrors bufio.Scanner: call Scan until it returns false, then check
// Err. After a true Scan exactly one of Step or Workout returns non-nil.
type Scanner struct {
	d      *xml.Decoder
	logger *slog.Logger

	step    *StepSample
	workout *Workout
	err     error

	seen         int64
	stepSkips    map[string]int64
	workoutSkips map[string]int64
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		d:            xml.NewDecoder(r),
		logger:       slog.Default(),
		stepSkips:    make(map[string]int64),
		workoutSkips: make(map[string]int64),
	}
}

// Scan advances to the next valid step sample or workout.
// It returns false at end of input or on a stream-level error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	s.step, s.workout = nil, nil

	for {
		tok, err := s.d.Token()
		if err == io.EOF {
			return false
		}
		if err != nil {
			s.err = fmt.Errorf("failed to read export: %w", err)
			return false
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "Record":
			s.seen++
			attrs := attrMap(se)
			if !s.skipSubtree() {
				return false
			}
			if attrs["type"] != StepCountType {
				continue
			}

			sample, reason := parseStepSample(attrs)
			if reason != "" {
				s.stepSkips[reason]++
				s.logger.Warn("Skipping malformed step record",
					"reason", reason,
					"offset", s.d.InputOffset())
				continue
			}
			s.step = sample
			return true

		case "Workout":
			s.seen++
			attrs := attrMap(se)
			if !s.skipSubtree() {
				return false
			}

			workout, reason := parseWorkout(attrs)
			if reason != "" {
				s.workoutSkips[reason]++
				s.logger.Warn("Skipping malformed workout record",
					"reason", reason,
					"offset", s.d.InputOffset())
				continue
			}
			s.workout = workout
			return true
		}
	}
}

// Step returns the step sample produced by the last Scan, or nil.
func (s *Scanner) Step() *StepSample {
	return s.step
}

// Workout returns the workout produced by the last Scan, or nil.
func (s *Scanner) Workout() *Workout {
	return s.workout
}

// Err returns the first stream-level error encountered, if any.
// Per-record validation failures are not errors.
func (s *Scanner) Err() error {
	return s.err
}

// RecordsSeen returns how many <Record> and <Workout> elements have been
// encountered so far, including unrecognized and skipped ones.
func (s *Scanner) RecordsSeen() int64 {
	return s.seen
}

// StepSkips returns skipped step-record counts by reason.
func (s *Scanner) StepSkips() map[string]int64 {
	return s.stepSkips
}

// WorkoutSkips returns skipped workout-record counts by reason.
func (s *Scanner) WorkoutSkips() map[string]int64 {
	return s.workoutSkips
}

// skipSubtree consumes everything up to the element's closing tag, so child
// elements (MetadataEntry, WorkoutEvent, ...) never accumulate in memory.
func (s *Scanner) skipSubtree() bool {
	if err := s.d.Skip(); err != nil {
		s.err = fmt.Errorf("failed to read export: %w", err)
		return false
	}
	return true
}

func attrMap(se xml.StartElement) map[string]string {
	attrs := make(map[string]string, len(se.Attr))
	for _, a := range se.Attr {
		attrs[a.Name.Local] = a.Value
	}
	return attrs
}

// parseStepSample validates a step-count Record's attributes.
// The returned reason is empty on success.
func parseStepSample(attrs map[string]string) (*StepSample, string) {
	startStr := attrs["startDate"]
	if startStr == "" {
		return nil, ReasonMissingStartDate
	}
	start, err := ParseTime(startStr)
	if err != nil {
		return nil, ReasonBadStartDate
	}

	// endDate is optional for samples; a missing end means a point-in-time
	// sample at the start timestamp.
	end := start
	if endStr := attrs["endDate"]; endStr != "" {
		end, err = ParseTime(endStr)
		if err != nil {
			return nil, ReasonBadEndDate
		}
	}

	valueStr := attrs["value"]
	if valueStr == "" {
		return nil, ReasonMissingValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return nil, ReasonBadValue
	}
	if value < 0 {
		return nil, ReasonNegativeValue
	}

	return &StepSample{
		StartDate:  start,
		EndDate:    end,
		Value:      value,
		Unit:       attrs["unit"],
		SourceName: attrs["sourceName"],
	}, ""
}

// parseWorkout validates a Workout element's attributes.
// The returned reason is empty on success.
func parseWorkout(attrs map[string]string) (*Workout, string) {
	activityType := StripActivityPrefix(attrs["workoutActivityType"])
	if activityType == "" {
		return nil, ReasonMissingActivity
	}

	startStr := attrs["startDate"]
	if startStr == "" {
		return nil, ReasonMissingStartDate
	}
	start, err := ParseTime(startStr)
	if err != nil {
		return nil, ReasonBadStartDate
	}

	endStr := attrs["endDate"]
	if endStr == "" {
		return nil, ReasonMissingEndDate
	}
	end, err := ParseTime(endStr)
	if err != nil {
		return nil, ReasonBadEndDate
	}

	duration := end.Sub(start)
	if duration < 0 {
		return nil, ReasonNegativeDuration
	}

	w := &Workout{
		ActivityType: activityType,
		StartDate:    start,
		EndDate:      end,
		Duration:     duration,
		DistanceUnit: attrs["totalDistanceUnit"],
		EnergyUnit:   attrs["totalEnergyBurnedUnit"],
		SourceName:   attrs["sourceName"],
	}

	if distStr := attrs["totalDistance"]; distStr != "" {
		dist, err := ParseQuantity(distStr)
		if err != nil {
			return nil, ReasonInvalidDistance
		}
		w.Distance = decimal.NullDecimal{Decimal: dist, Valid: true}
	}

	if energyStr := attrs["totalEnergyBurned"]; energyStr != "" {
		energy, err := ParseQuantity(energyStr)
		if err != nil {
			return nil, ReasonInvalidEnergy
		}
		w.Energy = decimal.NullDecimal{Decimal: energy, Valid: true}
	}

	return w, ""
}
