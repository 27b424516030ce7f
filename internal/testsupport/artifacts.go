package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Node is one dump_model() tree node
type Node map[string]interface{}

// Leaf returns a leaf with value and sample count
func Leaf(value, count float64) Node {
	return Node{"leaf_value": value, "leaf_count": count}
}

// Split returns a numerical `<=` split with no missing value handling
func Split(feature int, threshold, count float64, left, right Node) Node {
	return Node{
		"split_feature": feature, "threshold": threshold, "decision_type": "<=",
		"default_left": true, "missing_type": "None", "internal_count": count,
		"left_child": left, "right_child": right,
	}
}

// SplitNaN returns a numerical split whose NaN values follow defaultLeft
func SplitNaN(feature int, threshold, count float64, defaultLeft bool, left, right Node) Node {
	n := Split(feature, threshold, count, left, right)
	n["missing_type"] = "NaN"
	n["default_left"] = defaultLeft
	return n
}

// CatSplit returns a categorical split; codes in categories ("1||3") go left
func CatSplit(feature int, categories string, count float64, left, right Node) Node {
	return Node{
		"split_feature": feature, "threshold": categories, "decision_type": "==",
		"default_left": false, "missing_type": "None", "internal_count": count,
		"left_child": left, "right_child": right,
	}
}

// Dump assembles a dump_model() document
func Dump(objective string, numClass int, features []string, trees ...Node) map[string]interface{} {
	perIter := 1
	if numClass > 1 {
		perIter = numClass
	}
	info := make([]map[string]interface{}, len(trees))
	for i, t := range trees {
		info[i] = map[string]interface{}{"tree_index": i, "tree_structure": t}
	}
	return map[string]interface{}{
		"name":                   "tree",
		"version":                "v4",
		"objective":              objective,
		"num_class":              numClass,
		"num_tree_per_iteration": perIter,
		"max_feature_idx":        len(features) - 1,
		"feature_names":          features,
		"tree_info":              info,
	}
}

// Feature schemas of the fixture models
var (
	PropertyFeatures = []string{"property_type", "location", "bedrooms", "bathrooms", "land_size_perches",
		"is_for_rent", "quality_tier", "is_furnished"}
	ForecastFeatures = []string{"year", "month", "location", "property_type", "bedrooms", "bathrooms",
		"land_size_perches", "inflation_pct", "lending_rate_pct", "usd_lkr", "gdp_growth_pct",
		"policy_rate_pct", "property_price_index"}
	TripFeatures = []string{"route_no_enc", "route_distance_km", "bus_type_enc", "scheduled_duration_min",
		"dep_hour", "dep_minute", "departure_delay_min", "time_of_day_enc", "weather_enc", "crowding_level_enc",
		"is_weekend", "is_public_holiday", "is_poya_day", "is_festival_period", "month", "day_of_week_num"}
	TeaFeatures = []string{"district", "elevation", "monthly_rainfall_mm", "avg_temp_c", "soil_nitrogen",
		"soil_phosphorus", "soil_potassium", "soil_ph", "fertilizer_type", "drainage_quality"}
)

// ClassNames of the fixture trip delay model
var ClassNames = []string{"On Time", "Slightly Delayed", "Heavily Delayed"}

// Encoders used by every fixture model. Colombo deliberately does not have code 0.
var Encoders = map[string]map[string]int{
	"property_type":    {"House": 0, "Land": 1, "Apartment": 2},
	"location":         {"Kandy": 0, "Galle": 1, "Dehiwala": 2, "Colombo": 3, "Nugegoda": 4},
	"route_no":         {"01": 0, "04": 1, "04-2": 2, "32": 3, "98": 4},
	"bus_type":         {"Luxury": 0, "Normal": 1, "Semi Luxury": 2},
	"time_of_day":      {"Afternoon": 0, "Evening Peak": 1, "Morning Off-Peak": 2, "Morning Peak": 3, "Night": 4},
	"weather":          {"Clear": 0, "Cloudy": 1, "Heavy Rain": 2, "Light Rain": 3, "Moderate Rain": 4},
	"crowding_level":   {"High": 0, "Low": 1, "Medium": 2},
	"district":         {"Badulla": 0, "Galle": 1, "Kandy": 2, "Nuwara Eliya": 3, "Ratnapura": 4},
	"elevation":        {"High": 0, "Low": 1, "Mid": 2},
	"fertilizer_type":  {"Chemical": 0, "Combo": 1, "Organic": 2},
	"drainage_quality": {"Good": 0, "Moderate": 1, "Poor": 2},
}

// PropertyModel: Colombo and land size dominate, rentals are far cheaper
func PropertyModel() map[string]interface{} {
	return Dump("regression", 1, PropertyFeatures,
		CatSplit(1, "3", 100,
			SplitNaN(4, 10, 40, true, Leaf(15.5, 15), Leaf(16.4, 25)),
			SplitNaN(2, 3, 60, false, Leaf(15.0, 35), Leaf(15.6, 25))),
		Split(0, 0.5, 100, Leaf(0.3, 55), SplitNaN(4, 30, 45, true, Leaf(-0.1, 30), Leaf(0.2, 15))),
		Split(5, 0.5, 100, Leaf(0.05, 80), Leaf(-2.5, 20)),
	)
}

// ForecastModel tracks the property price index with a Colombo premium
func ForecastModel() map[string]interface{} {
	return Dump("regression", 1, ForecastFeatures,
		Split(12, 287, 100, Leaf(16.0, 40), Split(12, 317, 60, Leaf(16.1, 30), Leaf(16.2, 30))),
		CatSplit(2, "3", 100, Leaf(0.2, 30), Leaf(0.0, 70)),
		SplitNaN(4, 3, 100, false, Leaf(0.0, 50), Leaf(0.05, 50)),
	)
}

// TripModel is a two-iteration, three-class delay classifier
func TripModel() map[string]interface{} {
	return Dump("multiclass num_class:3", 3, TripFeatures,
		Split(13, 0.5, 100, Split(6, 10, 70, Leaf(0.8, 50), Leaf(-0.2, 20)), Leaf(-0.5, 30)),
		Split(6, 10, 100, Leaf(0.1, 60), Leaf(0.6, 40)),
		CatSplit(8, "2||4", 100, Leaf(0.9, 25), Split(9, 0.5, 75, Leaf(0.3, 25), Leaf(-0.3, 50))),
		Split(4, 15.5, 100, Leaf(0.1, 60), Leaf(-0.1, 40)),
		Split(13, 0.5, 100, Leaf(0.0, 70), Leaf(0.4, 30)),
		Split(11, 0.5, 100, Leaf(-0.05, 85), Leaf(0.35, 15)),
	)
}

// TeaModel predicts metric tons per hectare on the raw scale
func TeaModel() map[string]interface{} {
	return Dump("regression", 1, TeaFeatures,
		CatSplit(1, "0", 100, Leaf(2.1, 40), Leaf(1.4, 60)),
		SplitNaN(2, 250, 100, true, Leaf(-0.2, 45), Leaf(0.25, 55)),
		CatSplit(8, "1", 100, Leaf(0.3, 30), Split(7, 5.5, 70, Leaf(0.1, 40), Leaf(-0.15, 30))),
	)
}

// Manifest binds the fixture models to their schemas
func Manifest() map[string]interface{} {
	return map[string]interface{}{
		"models": map[string]interface{}{
			"property": map[string]interface{}{
				"file":             "models/property.json",
				"features":         PropertyFeatures,
				"display_names":    map[string]string{"land_size_perches": "Land Size (perches)", "property_type": "Property Type", "location": "Location"},
				"target_transform": "log1p",
				"encoders":         map[string]string{"property_type": "property_type", "location": "location"},
			},
			"forecast": map[string]interface{}{
				"file":             "models/forecast.json",
				"features":         ForecastFeatures,
				"target_transform": "log1p",
				"encoders":         map[string]string{"property_type": "property_type", "location": "location"},
			},
			"trip_delay": map[string]interface{}{
				"file":          "models/trip_delay.json",
				"features":      TripFeatures,
				"display_names": map[string]string{"is_festival_period": "Festival Period", "departure_delay_min": "Departure Delay (min)"},
				"class_names":   ClassNames,
				"encoders": map[string]string{
					"route_no_enc": "route_no", "bus_type_enc": "bus_type", "time_of_day_enc": "time_of_day",
					"weather_enc": "weather", "crowding_level_enc": "crowding_level",
				},
			},
			"tea_yield": map[string]interface{}{
				"file":             "models/tea_yield.json",
				"features":         TeaFeatures,
				"target_transform": "identity",
				"encoders": map[string]string{
					"district": "district", "elevation": "elevation",
					"fertilizer_type": "fertilizer_type", "drainage_quality": "drainage_quality",
				},
			},
		},
	}
}

// Routes mirrors the intercity routes the delay model was trained on
func Routes() map[string]interface{} {
	route := func(no, name string, km, normal, semi, luxury float64) map[string]interface{} {
		return map[string]interface{}{
			"route_no": no, "name": name, "distance_km": km,
			"durations": map[string]float64{"Normal": normal, "Semi Luxury": semi, "Luxury": luxury},
		}
	}
	return map[string]interface{}{"routes": []interface{}{
		route("01", "Colombo - Kandy", 116, 210, 185, 165),
		route("32", "Colombo - Kataragama", 119, 195, 170, 150),
		route("04", "Colombo - Ratnapura", 94, 150, 130, 110),
		route("04-2", "Colombo - Avissawella", 37, 75, 65, 55),
		route("98", "Colombo - Galle", 100, 180, 160, 140),
	}}
}

// Calendar holds the 2024 observances plus the 2025 New Year and Vesak
func Calendar() map[string]interface{} {
	festival := func(name, start, end string) map[string]string {
		return map[string]string{"name": name, "start": start, "end": end}
	}
	return map[string]interface{}{
		"public_holidays": []string{"2024-01-15", "2024-02-04", "2024-04-12", "2024-04-13", "2024-05-01",
			"2024-05-23", "2024-05-24", "2024-12-25", "2025-04-14"},
		"poya_days": []string{"2024-01-25", "2024-05-23", "2024-06-21", "2024-07-21", "2025-05-12"},
		"festivals": []interface{}{
			festival("Sinhala New Year", "2024-04-10", "2024-04-16"),
			festival("Vesak", "2024-05-20", "2024-05-26"),
			festival("Poson", "2024-06-18", "2024-06-23"),
			festival("Kandy Perahera", "2024-07-24", "2024-08-10"),
			festival("Christmas", "2024-12-23", "2024-12-27"),
			festival("Vesak", "2025-05-10", "2025-05-16"),
		},
	}
}

// IndicatorsCSV covers 2018-2030
const IndicatorsCSV = `year,inflation_pct,lending_rate_pct,usd_lkr,gdp_growth_pct,policy_rate_pct,property_price_index
2018,4.3,12.1,162.5,3.3,8.0,100
2019,4.3,12.2,178.8,2.3,7.0,104
2020,4.6,9.9,185.5,-3.5,4.5,108
2021,6.0,8.6,198.9,3.5,6.0,115
2022,46.4,18.6,323.2,-7.8,15.5,150
2023,17.4,16.5,327.5,-2.3,10.0,205
2024,1.2,11.0,300.0,5.0,8.0,240
2025,2.5,9.5,300.0,4.5,7.75,265
2026,4.5,8.5,310.0,4.8,7.5,280
2027,5.0,8.5,315.0,4.5,7.5,294
2028,5.0,8.5,320.0,4.2,7.5,309
2029,5.0,8.5,325.0,4.0,7.5,325
2030,5.0,8.5,330.0,4.0,7.5,342
`

// ForecastCache precomputes two segments
func ForecastCache() map[string]interface{} {
	return map[string]interface{}{
		"Colombo": map[string]interface{}{
			"House": map[string]interface{}{
				"prices": map[string]float64{"2026": 45000000, "2027": 48100000, "2028": 51500000,
					"2029": 54700000, "2030": 58000000},
				"growth_4yr_pct": 28.9,
			},
		},
		"Kandy": map[string]interface{}{
			"Land": map[string]interface{}{
				"prices":         map[string]float64{"2026": 9000000, "2027": 9200000, "2028": 9350000, "2029": 9500000, "2030": 9657000},
				"growth_4yr_pct": 7.3,
			},
		},
	}
}

// Catalog is the optional static metadata file
func Catalog() map[string]interface{} {
	return map[string]interface{}{
		"dataset_size": map[string]int{"property": 17226, "trip_delay": 20000, "tea_yield": 6000},
		"metrics": map[string]map[string]float64{
			"property": {"r2": 0.87, "mae_lkr": 2150000},
		},
	}
}

// WriteArtifacts writes a complete, valid artifacts directory into a temp dir
func WriteArtifacts(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]interface{}{
		"manifest.json":                     Manifest(),
		"encoders.json":                     Encoders,
		"models/property.json":              PropertyModel(),
		"models/forecast.json":              ForecastModel(),
		"models/trip_delay.json":            TripModel(),
		"models/tea_yield.json":             TeaModel(),
		"reference/routes.json":             Routes(),
		"reference/calendar.json":           Calendar(),
		"reference/district_forecasts.json": ForecastCache(),
		"reference/catalog.json":            Catalog(),
	}
	for rel, doc := range files {
		WriteJSON(t, dir, rel, doc)
	}
	WriteFile(t, dir, "reference/economic_indicators.csv", IndicatorsCSV)

	return dir
}

// WriteJSON encodes doc into dir/rel
func WriteJSON(t *testing.T, dir, rel string, doc interface{}) {
	t.Helper()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("failed to encode %s: %v", rel, err)
	}
	WriteFile(t, dir, rel, string(data))
}

// WriteFile writes content into dir/rel, creating parents
func WriteFile(t *testing.T, dir, rel, content string) {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimLeft(content, "\n")), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
