package yield

import "estimator/internal/domain/explain"

// Request carries one plantation's site and soil readings. Nil numerics are unknown.
type Request struct {
	District          string   `json:"district"`
	Elevation         string   `json:"elevation"`
	MonthlyRainfallMM *float64 `json:"monthly_rainfall_mm"`
	AvgTempC          *float64 `json:"avg_temp_c"`
	SoilNitrogen      *float64 `json:"soil_nitrogen"`
	SoilPhosphorus    *float64 `json:"soil_phosphorus"`
	SoilPotassium     *float64 `json:"soil_potassium"`
	SoilPH            *float64 `json:"soil_ph"`
	FertilizerType    string   `json:"fertilizer_type"`
	DrainageQuality   string   `json:"drainage_quality"`
}

// Estimate is the response for a tea yield request, in metric tons per hectare
type Estimate struct {
	Yield       float64              `json:"yield_mt_per_hectare"`
	Formatted   string               `json:"formatted"`
	Attribution *explain.Attribution `json:"attribution"`
}
