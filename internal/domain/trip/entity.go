package trip

import "estimator/internal/domain/explain"

// Request describes one intercity bus departure
type Request struct {
	RouteNo           string `json:"route_no"`
	BusType           string `json:"bus_type"`
	DepartureDate     string `json:"departure_date"` // YYYY-MM-DD
	DepartureTime     string `json:"departure_time"` // HH:MM
	Weather           string `json:"weather"`
	CrowdingLevel     string `json:"crowding_level"`
	DepartureDelayMin *int   `json:"departure_delay_min"`
}

// DelayClass is the predicted delay band
type DelayClass string

const (
	ClassOnTime          DelayClass = "On Time"
	ClassSlightlyDelayed DelayClass = "Slightly Delayed"
	ClassHeavilyDelayed  DelayClass = "Heavily Delayed"
)

// Valid checks if delay class is valid
func (c DelayClass) Valid() bool {
	switch c {
	case ClassOnTime, ClassSlightlyDelayed, ClassHeavilyDelayed:
		return true
	}
	return false
}

// String returns string representation
func (c DelayClass) String() string {
	return string(c)
}

// Meta echoes the derived trip context
type Meta struct {
	IsWeekend            bool    `json:"is_weekend"`
	IsPoya               bool    `json:"is_poya"`
	IsHoliday            bool    `json:"is_holiday"`
	IsFestival           bool    `json:"is_festival"`
	FestivalName         string  `json:"festival_name,omitempty"`
	TimeSlot             string  `json:"time_slot"`
	ScheduledDurationMin float64 `json:"scheduled_duration_min"`
}

// Prediction is the response for a trip request
type Prediction struct {
	Prediction    string               `json:"prediction"`
	ClassIndex    int                  `json:"pred_class_idx"`
	Probabilities []float64            `json:"probabilities"`
	ClassNames    []string             `json:"class_names"`
	Attribution   *explain.Attribution `json:"attribution"`
	Meta          Meta                 `json:"meta"`
}
