package features

import (
	"time"

	"estimator/internal/domain/trip"
	"estimator/pkg/errors"
)

// Trip delay model columns
const (
	ColRouteNo           = "route_no_enc"
	ColRouteDistance     = "route_distance_km"
	ColBusType           = "bus_type_enc"
	ColScheduledDuration = "scheduled_duration_min"
	ColDepHour           = "dep_hour"
	ColDepMinute         = "dep_minute"
	ColDepartureDelay    = "departure_delay_min"
	ColTimeOfDay         = "time_of_day_enc"
	ColWeather           = "weather_enc"
	ColCrowding          = "crowding_level_enc"
	ColIsWeekend         = "is_weekend"
	ColIsPublicHoliday   = "is_public_holiday"
	ColIsPoyaDay         = "is_poya_day"
	ColIsFestival        = "is_festival_period"
	ColMonth             = "month"
	ColDayOfWeek         = "day_of_week_num"
)

// TripEncoded adds the derived context echoed back to callers
type TripEncoded struct {
	Encoded
	Flags             DayFlags
	TimeSlot          string
	ScheduledDuration float64
}

// TripEncoder builds rows for the bus delay classifier
type TripEncoder struct {
	schema    Schema
	routes    *Routes
	calendar  *Calendar
	routeNo   *Table
	busType   *Table
	timeOfDay *Table
	weather   *Table
	crowding  *Table
}

// NewTripEncoder checks the schema and binds reference tables
func NewTripEncoder(s Schema, routes *Routes, calendar *Calendar) (*TripEncoder, error) {
	if err := s.Require(ColRouteNo, ColRouteDistance, ColBusType, ColScheduledDuration, ColDepHour,
		ColDepMinute, ColDepartureDelay, ColTimeOfDay, ColWeather, ColCrowding, ColIsWeekend,
		ColIsPublicHoliday, ColIsPoyaDay, ColIsFestival, ColMonth, ColDayOfWeek); err != nil {
		return nil, err
	}
	if routes == nil || calendar == nil {
		return nil, errors.Wrap(errors.ErrSchemaMismatch, "trip encoder needs routes and calendar")
	}

	e := &TripEncoder{schema: s, routes: routes, calendar: calendar}
	for col, dst := range map[string]**Table{
		ColRouteNo:   &e.routeNo,
		ColBusType:   &e.busType,
		ColTimeOfDay: &e.timeOfDay,
		ColWeather:   &e.weather,
		ColCrowding:  &e.crowding,
	} {
		t, err := s.Table(col)
		if err != nil {
			return nil, err
		}
		*dst = t
	}
	return e, nil
}

// Encode validates req and returns its row
func (e *TripEncoder) Encode(req trip.Request) (*TripEncoded, error) {
	out := &TripEncoded{}

	route, ok := e.routes.Lookup(req.RouteNo)
	if !ok {
		return nil, errors.NewValidationError("route_no", "unknown route", req.RouteNo)
	}
	duration, ok := route.Durations[req.BusType]
	if !ok {
		return nil, errors.NewValidationError("bus_type", "service class not offered on route "+route.No, req.BusType)
	}

	date, err := time.Parse(DateLayout, req.DepartureDate)
	if err != nil {
		return nil, errors.NewValidationError("departure_date", "expected YYYY-MM-DD", req.DepartureDate)
	}
	hour, minute, err := parseClock(req.DepartureTime)
	if err != nil {
		return nil, err
	}

	delay := 0.0
	if req.DepartureDelayMin != nil {
		if *req.DepartureDelayMin < 0 {
			return nil, errors.NewValidationError("departure_delay_min", "must not be negative", *req.DepartureDelayMin)
		}
		delay = float64(*req.DepartureDelayMin)
	}

	routeCode, _, outcome, err := e.routeNo.Require("route_no", route.No)
	if err != nil {
		return nil, err
	}
	out.note(e.routeNo, outcome)

	busCode, _, outcome, err := e.busType.Require("bus_type", req.BusType)
	if err != nil {
		return nil, err
	}
	out.note(e.busType, outcome)

	weatherCode, _, outcome, err := e.weather.Require("weather", req.Weather)
	if err != nil {
		return nil, err
	}
	out.note(e.weather, outcome)

	crowdCode, _, outcome, err := e.crowding.Require("crowding_level", req.CrowdingLevel)
	if err != nil {
		return nil, err
	}
	out.note(e.crowding, outcome)

	out.TimeSlot = TimeSlot(hour)
	slotCode, _, outcome, err := e.timeOfDay.Require("departure_time", out.TimeSlot)
	if err != nil {
		return nil, err
	}
	out.note(e.timeOfDay, outcome)

	out.Flags = e.calendar.Flags(date)
	out.ScheduledDuration = duration

	out.Row, err = e.schema.Row(map[string]float64{
		ColRouteNo:           float64(routeCode),
		ColRouteDistance:     route.DistanceKM,
		ColBusType:           float64(busCode),
		ColScheduledDuration: duration,
		ColDepHour:           float64(hour),
		ColDepMinute:         float64(minute),
		ColDepartureDelay:    delay,
		ColTimeOfDay:         float64(slotCode),
		ColWeather:           float64(weatherCode),
		ColCrowding:          float64(crowdCode),
		ColIsWeekend:         boolValue(out.Flags.Weekend),
		ColIsPublicHoliday:   boolValue(out.Flags.PublicHoliday),
		ColIsPoyaDay:         boolValue(out.Flags.PoyaDay),
		ColIsFestival:        boolValue(out.Flags.Festival),
		ColMonth:             float64(date.Month()),
		ColDayOfWeek:         float64(DayOfWeek(date)),
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parseClock accepts HH:MM or H:MM with 0-23 hours and 00-59 minutes
func parseClock(s string) (int, int, error) {
	if len(s) == 4 && s[1] == ':' {
		s = "0" + s
	}
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, 0, errors.NewValidationError("departure_time", "expected HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
