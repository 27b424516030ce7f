package features

import (
	"time"

	"estimator/pkg/errors"
)

// DateLayout is the only accepted calendar date format
const DateLayout = "2006-01-02"

// Festival is a named closed date range [Start, End]
type Festival struct {
	Name  string
	Start time.Time
	End   time.Time
}

// Contains is inclusive of both bounds
func (f Festival) Contains(d time.Time) bool {
	return !d.Before(f.Start) && !d.After(f.End)
}

// Calendar holds holiday, poya and festival reference data
type Calendar struct {
	holidays  map[string]struct{}
	poyaDays  map[string]struct{}
	festivals []Festival
}

// DayFlags are the calendar features derived for a single date
type DayFlags struct {
	Weekend       bool   `json:"is_weekend"`
	PublicHoliday bool   `json:"is_holiday"`
	PoyaDay       bool   `json:"is_poya"`
	Festival      bool   `json:"is_festival"`
	FestivalName  string `json:"festival_name,omitempty"`
}

// NewCalendar validates every date. Festivals keep their file order; the first match names the day.
func NewCalendar(holidays, poyaDays []string, festivals []Festival) (*Calendar, error) {
	c := &Calendar{
		holidays:  make(map[string]struct{}, len(holidays)),
		poyaDays:  make(map[string]struct{}, len(poyaDays)),
		festivals: festivals,
	}

	for _, d := range holidays {
		if _, err := time.Parse(DateLayout, d); err != nil {
			return nil, errors.Wrapf(err, "public holiday %q", d)
		}
		c.holidays[d] = struct{}{}
	}
	for _, d := range poyaDays {
		if _, err := time.Parse(DateLayout, d); err != nil {
			return nil, errors.Wrapf(err, "poya day %q", d)
		}
		c.poyaDays[d] = struct{}{}
	}
	for _, f := range festivals {
		if f.Start.After(f.End) {
			return nil, errors.Newf("festival %q starts %s after it ends %s",
				f.Name, f.Start.Format(DateLayout), f.End.Format(DateLayout))
		}
	}

	return c, nil
}

// Flags derives the calendar features of d
func (c *Calendar) Flags(d time.Time) DayFlags {
	key := d.Format(DateLayout)
	_, holiday := c.holidays[key]
	_, poya := c.poyaDays[key]

	flags := DayFlags{
		Weekend:       d.Weekday() == time.Saturday || d.Weekday() == time.Sunday,
		PublicHoliday: holiday,
		PoyaDay:       poya,
	}
	for _, f := range c.festivals {
		if f.Contains(d) {
			flags.Festival = true
			flags.FestivalName = f.Name
			break
		}
	}
	return flags
}

// Festivals returns the configured ranges
func (c *Calendar) Festivals() []Festival {
	return c.festivals
}

// Time-of-day buckets
const (
	SlotMorningPeak    = "Morning Peak"
	SlotMorningOffPeak = "Morning Off-Peak"
	SlotAfternoon      = "Afternoon"
	SlotEveningPeak    = "Evening Peak"
	SlotNight          = "Night"
)

// TimeSlot buckets an hour; anything outside 05:00-19:59 is Night
func TimeSlot(hour int) string {
	switch {
	case hour >= 5 && hour < 9:
		return SlotMorningPeak
	case hour >= 9 && hour < 12:
		return SlotMorningOffPeak
	case hour >= 12 && hour < 16:
		return SlotAfternoon
	case hour >= 16 && hour < 20:
		return SlotEveningPeak
	}
	return SlotNight
}

// DayOfWeek numbers Monday as 0 and Sunday as 6
func DayOfWeek(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
