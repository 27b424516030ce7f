package features

import (
	"math"

	"estimator/pkg/errors"
)

// Encoded is a schema-ordered row plus the tables that had to fall back while building it
type Encoded struct {
	Row       []float64
	Fallbacks []string
}

func (e *Encoded) note(table *Table, outcome Outcome) {
	if outcome == Fallback {
		e.Fallbacks = append(e.Fallbacks, table.Name())
	}
}

// nonNegative passes nil through as Unknown, rejects negatives and clips to max
func nonNegative(field string, v *float64, max float64) (float64, error) {
	if v == nil {
		return Unknown, nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, errors.NewValidationError(field, "must be a finite number", *v)
	}
	if *v < 0 {
		return 0, errors.NewValidationError(field, "must not be negative", *v)
	}
	return math.Min(*v, max), nil
}

// ordinal defaults nil to 0, rejects negatives and clips to max
func ordinal(field string, v *int, max int) (float64, error) {
	if v == nil {
		return 0, nil
	}
	if *v < 0 {
		return 0, errors.NewValidationError(field, "must not be negative", *v)
	}
	if *v > max {
		return float64(max), nil
	}
	return float64(*v), nil
}

// clip passes nil through as Unknown and clamps to [lo, hi]
func clip(field string, v *float64, lo, hi float64) (float64, error) {
	if v == nil {
		return Unknown, nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, errors.NewValidationError(field, "must be a finite number", *v)
	}
	return math.Max(lo, math.Min(*v, hi)), nil
}
