package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estimator/internal/domain/property"
	"estimator/internal/domain/trip"
	"estimator/internal/domain/yield"
	"estimator/pkg/errors"
)

func TestPropertyEncoder_LandInColombo(t *testing.T) {
	enc, err := NewPropertyEncoder(propertySchema(t))
	require.NoError(t, err)

	out, err := enc.Encode(property.Request{
		PropertyType: "Land",
		Location:     "Colombo",
		LandSize:     f64(20),
		IsForRent:    false,
	})
	require.NoError(t, err)

	require.Len(t, out.Row, 8)
	assert.Equal(t, 1.0, out.Row[0])
	assert.Equal(t, 3.0, out.Row[1], "Colombo resolves from the table")
	assert.True(t, math.IsNaN(out.Row[2]), "bedrooms unknown")
	assert.True(t, math.IsNaN(out.Row[3]), "bathrooms unknown")
	assert.Equal(t, 20.0, out.Row[4])
	assert.Equal(t, []float64{0, 0, 0}, out.Row[5:])
	assert.False(t, out.LocationFallback)
	assert.Empty(t, out.Fallbacks)
}

func TestPropertyEncoder_UnknownLocationUsesHub(t *testing.T) {
	enc, err := NewPropertyEncoder(propertySchema(t))
	require.NoError(t, err)

	out, err := enc.Encode(property.Request{PropertyType: "House", Location: "Nonexistent Town", Bedrooms: f64(3)})
	require.NoError(t, err)

	assert.Equal(t, 3.0, out.Row[1])
	assert.NotEqual(t, 0.0, out.Row[1])
	assert.Equal(t, "Colombo", out.Location)
	assert.True(t, out.LocationFallback)
	assert.Equal(t, []string{"location"}, out.Fallbacks)
}

func TestPropertyEncoder_ClipsAndRejects(t *testing.T) {
	enc, err := NewPropertyEncoder(propertySchema(t))
	require.NoError(t, err)

	out, err := enc.Encode(property.Request{
		PropertyType: "House", Location: "Kandy",
		Bedrooms: f64(40), Bathrooms: f64(0), LandSize: f64(5000),
		QualityTier: intp(7), Furnishing: intp(1), IsForRent: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 20, 0, 1000, 1, 3, 1}, out.Row)

	tests := []struct {
		name  string
		req   property.Request
		field string
	}{
		{"unknown type", property.Request{PropertyType: "Castle", Location: "Kandy"}, "property_type"},
		{"negative bedrooms", property.Request{PropertyType: "House", Location: "Kandy", Bedrooms: f64(-1)}, "bedrooms"},
		{"negative land", property.Request{PropertyType: "Land", Location: "Kandy", LandSize: f64(-3)}, "land_size"},
		{"negative quality", property.Request{PropertyType: "House", Location: "Kandy", QualityTier: intp(-1)}, "quality_tier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Encode(tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))
			assert.Equal(t, tt.field, errors.FieldOf(err))
		})
	}
}

func TestNewPropertyEncoder_SchemaMismatch(t *testing.T) {
	s, err := NewSchema([]string{ColPropertyType, ColLocation}, nil,
		map[string]*Table{ColPropertyType: propertyTypeTable(t), ColLocation: locationTable(t)})
	require.NoError(t, err)

	_, err = NewPropertyEncoder(s)
	assert.True(t, errors.Is(err, errors.ErrSchemaMismatch))
}

func tripRequest(date string) trip.Request {
	return trip.Request{
		RouteNo:       "01",
		BusType:       "Semi Luxury",
		DepartureDate: date,
		DepartureTime: "07:45",
		Weather:       "Light Rain",
		CrowdingLevel: "High",
	}
}

func TestTripEncoder_Row(t *testing.T) {
	enc, err := NewTripEncoder(tripSchema(t), testRoutes(t), testCalendar(t))
	require.NoError(t, err)

	req := tripRequest("2024-05-23")
	req.DepartureDelayMin = intp(12)
	out, err := enc.Encode(req)
	require.NoError(t, err)

	assert.Equal(t, []float64{
		0, 116, 2, 185, 7, 45, 12, 3, 3, 0,
		0, 1, 1, 1, 5, 3,
	}, out.Row)
	assert.Equal(t, SlotMorningPeak, out.TimeSlot)
	assert.Equal(t, 185.0, out.ScheduledDuration)
	assert.Equal(t, "Vesak", out.Flags.FestivalName)
}

func TestTripEncoder_FestivalBoundary(t *testing.T) {
	enc, err := NewTripEncoder(tripSchema(t), testRoutes(t), testCalendar(t))
	require.NoError(t, err)
	festival, _ := tripSchema(t).Index(ColIsFestival)

	// Poson ends 2024-06-23
	out, err := enc.Encode(tripRequest("2024-06-23"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Row[festival])

	out, err = enc.Encode(tripRequest("2024-06-24"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Row[festival])
}

func TestTripEncoder_NightSlotFallsBackToUnknownCode(t *testing.T) {
	enc, err := NewTripEncoder(tripSchema(t), testRoutes(t), testCalendar(t))
	require.NoError(t, err)

	req := tripRequest("2024-07-01")
	req.DepartureTime = "22:10"
	out, err := enc.Encode(req)
	require.NoError(t, err)

	slot, _ := tripSchema(t).Index(ColTimeOfDay)
	assert.Equal(t, 0.0, out.Row[slot])
	assert.Equal(t, SlotNight, out.TimeSlot)
	assert.Equal(t, []string{"time_of_day"}, out.Fallbacks)
}

func TestTripEncoder_SingleDigitHour(t *testing.T) {
	enc, err := NewTripEncoder(tripSchema(t), testRoutes(t), testCalendar(t))
	require.NoError(t, err)

	req := tripRequest("2024-07-01")
	req.DepartureTime = "9:30"
	out, err := enc.Encode(req)
	require.NoError(t, err)

	hour, _ := tripSchema(t).Index(ColDepHour)
	minute, _ := tripSchema(t).Index(ColDepMinute)
	assert.Equal(t, 9.0, out.Row[hour])
	assert.Equal(t, 30.0, out.Row[minute])
	assert.Equal(t, SlotMorningOffPeak, out.TimeSlot)
}

func TestTripEncoder_Rejects(t *testing.T) {
	enc, err := NewTripEncoder(tripSchema(t), testRoutes(t), testCalendar(t))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*trip.Request)
		field  string
	}{
		{"unknown route", func(r *trip.Request) { r.RouteNo = "999" }, "route_no"},
		{"class not on route", func(r *trip.Request) { r.BusType = "Sleeper" }, "bus_type"},
		{"bad date", func(r *trip.Request) { r.DepartureDate = "2024-02-30" }, "departure_date"},
		{"bad time", func(r *trip.Request) { r.DepartureTime = "25:00" }, "departure_time"},
		{"single digit minute", func(r *trip.Request) { r.DepartureTime = "7:5" }, "departure_time"},
		{"three digit hour", func(r *trip.Request) { r.DepartureTime = "007:45" }, "departure_time"},
		{"unknown weather", func(r *trip.Request) { r.Weather = "Snow" }, "weather"},
		{"unknown crowding", func(r *trip.Request) { r.CrowdingLevel = "Packed" }, "crowding_level"},
		{"negative delay", func(r *trip.Request) { r.DepartureDelayMin = intp(-5) }, "departure_delay_min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tripRequest("2024-07-01")
			tt.mutate(&req)
			_, err := enc.Encode(req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))
			assert.Equal(t, tt.field, errors.FieldOf(err))
		})
	}
}

func TestForecastEncoder(t *testing.T) {
	enc, err := NewForecastEncoder(forecastSchema(t))
	require.NoError(t, err)

	seg, err := enc.Resolve("Galle", "House")
	require.NoError(t, err)
	assert.Equal(t, SegmentCodes{Location: "Galle", PropertyType: "House", LocationCode: 1, TypeCode: 0}, seg)

	ind := Indicators{Year: 2027, InflationPct: 5, LendingRatePct: 8, USDLKR: 315, GDPGrowthPct: 4.5, PolicyRatePct: 7.25, PropertyPriceIndex: 294}
	row, err := enc.Row(seg, 2027, 6, LiveInputs{Bedrooms: f64(3)}, ind)
	require.NoError(t, err)
	require.Len(t, row, 13)
	assert.Equal(t, []float64{2027, 6, 1, 0, 3}, row[:5])
	assert.True(t, math.IsNaN(row[5]))
	assert.True(t, math.IsNaN(row[6]))
	assert.Equal(t, []float64{5, 8, 315, 4.5, 7.25, 294}, row[7:])

	seg, err = enc.Resolve("Nowhere", "Land")
	require.NoError(t, err)
	assert.True(t, seg.LocationFallback)
	assert.Equal(t, 3, seg.LocationCode)

	_, err = enc.Resolve("Kandy", "Castle")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "unknown segment")
}

func TestTeaEncoder(t *testing.T) {
	enc, err := NewTeaEncoder(teaSchema(t))
	require.NoError(t, err)

	out, err := enc.Encode(yield.Request{
		District: "Nuwara Eliya", Elevation: "High", FertilizerType: "Organic", DrainageQuality: "Good",
		MonthlyRainfallMM: f64(1500), AvgTempC: f64(-10), SoilNitrogen: f64(40), SoilPH: f64(5.2),
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 0, 1000, -5, 40}, out.Row[:5])
	assert.True(t, math.IsNaN(out.Row[5]))
	assert.True(t, math.IsNaN(out.Row[6]))
	assert.Equal(t, []float64{5.2, 2, 0}, out.Row[7:])

	_, err = enc.Encode(yield.Request{District: "Jaffna", Elevation: "High", FertilizerType: "Organic", DrainageQuality: "Good"})
	assert.Equal(t, "district", errors.FieldOf(err))
}
