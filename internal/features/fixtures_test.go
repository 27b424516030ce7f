package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, name string, codes map[string]int) *Table {
	t.Helper()
	table, err := NewTable(name, codes)
	require.NoError(t, err)
	return table
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	require.NoError(t, err)
	return d
}

func locationTable(t *testing.T) *Table {
	return mustTable(t, "location", map[string]int{"Colombo": 3, "Kandy": 0, "Galle": 1, "Dehiwala": 2})
}

func propertyTypeTable(t *testing.T) *Table {
	return mustTable(t, "property_type", map[string]int{"House": 0, "Land": 1, "Apartment": 2})
}

func propertySchema(t *testing.T) Schema {
	t.Helper()
	s, err := NewSchema(
		[]string{ColPropertyType, ColLocation, ColBedrooms, ColBathrooms, ColLandSize, ColIsForRent, ColQualityTier, ColIsFurnished},
		map[string]string{ColLandSize: "Land Size (perches)"},
		map[string]*Table{ColPropertyType: propertyTypeTable(t), ColLocation: locationTable(t)},
	)
	require.NoError(t, err)
	return s
}

func testCalendar(t *testing.T) *Calendar {
	t.Helper()
	c, err := NewCalendar(
		[]string{"2024-05-23", "2024-05-24", "2024-12-25"},
		[]string{"2024-05-23", "2024-06-21"},
		[]Festival{
			{Name: "Vesak", Start: mustDate(t, "2024-05-20"), End: mustDate(t, "2024-05-26")},
			{Name: "Poson", Start: mustDate(t, "2024-06-18"), End: mustDate(t, "2024-06-23")},
			{Name: "Late Vesak", Start: mustDate(t, "2024-05-25"), End: mustDate(t, "2024-05-28")},
		},
	)
	require.NoError(t, err)
	return c
}

func testRoutes(t *testing.T) *Routes {
	t.Helper()
	r, err := NewRoutes([]Route{
		{No: "01", DistanceKM: 116, Durations: map[string]float64{"Normal": 210, "Semi Luxury": 185, "Luxury": 165}},
		{No: "04-2", DistanceKM: 37, Durations: map[string]float64{"Normal": 75, "Semi Luxury": 65, "Luxury": 55}},
	})
	require.NoError(t, err)
	return r
}

func tripSchema(t *testing.T) Schema {
	t.Helper()
	s, err := NewSchema(
		[]string{ColRouteNo, ColRouteDistance, ColBusType, ColScheduledDuration, ColDepHour, ColDepMinute,
			ColDepartureDelay, ColTimeOfDay, ColWeather, ColCrowding, ColIsWeekend, ColIsPublicHoliday,
			ColIsPoyaDay, ColIsFestival, ColMonth, ColDayOfWeek},
		nil,
		map[string]*Table{
			ColRouteNo:   mustTable(t, "route_no", map[string]int{"01": 0, "04-2": 1}),
			ColBusType:   mustTable(t, "bus_type", map[string]int{"Luxury": 0, "Normal": 1, "Semi Luxury": 2}),
			ColTimeOfDay: mustTable(t, "time_of_day", map[string]int{SlotAfternoon: 0, SlotEveningPeak: 1, SlotMorningOffPeak: 2, SlotMorningPeak: 3}),
			ColWeather:   mustTable(t, "weather", map[string]int{"Clear": 0, "Cloudy": 1, "Heavy Rain": 2, "Light Rain": 3, "Moderate Rain": 4}),
			ColCrowding:  mustTable(t, "crowding_level", map[string]int{"High": 0, "Low": 1, "Medium": 2}),
		},
	)
	require.NoError(t, err)
	return s
}

func forecastSchema(t *testing.T) Schema {
	t.Helper()
	s, err := NewSchema(
		[]string{ColYear, ColMonth, ColLocation, ColPropertyType, ColBedrooms, ColBathrooms, ColLandSize,
			ColInflation, ColLendingRate, ColUSDLKR, ColGDPGrowth, ColPolicyRate, ColPropertyPriceIndex},
		nil,
		map[string]*Table{ColPropertyType: propertyTypeTable(t), ColLocation: locationTable(t)},
	)
	require.NoError(t, err)
	return s
}

func teaSchema(t *testing.T) Schema {
	t.Helper()
	s, err := NewSchema(
		[]string{ColDistrict, ColElevation, ColRainfall, ColAvgTemp, ColSoilNitrogen, ColSoilPhosphorus,
			ColSoilPotassium, ColSoilPH, ColFertilizer, ColDrainageQuality},
		nil,
		map[string]*Table{
			ColDistrict:        mustTable(t, "district", map[string]int{"Badulla": 0, "Kandy": 1, "Nuwara Eliya": 2}),
			ColElevation:       mustTable(t, "elevation", map[string]int{"High": 0, "Low": 1, "Mid": 2}),
			ColFertilizer:      mustTable(t, "fertilizer_type", map[string]int{"Chemical": 0, "Combo": 1, "Organic": 2}),
			ColDrainageQuality: mustTable(t, "drainage_quality", map[string]int{"Good": 0, "Moderate": 1, "Poor": 2}),
		},
	)
	require.NoError(t, err)
	return s
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }
