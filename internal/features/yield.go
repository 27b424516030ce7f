package features

import "estimator/internal/domain/yield"

// Tea yield model columns
const (
	ColDistrict        = "district"
	ColElevation       = "elevation"
	ColRainfall        = "monthly_rainfall_mm"
	ColAvgTemp         = "avg_temp_c"
	ColSoilNitrogen    = "soil_nitrogen"
	ColSoilPhosphorus  = "soil_phosphorus"
	ColSoilPotassium   = "soil_potassium"
	ColSoilPH          = "soil_ph"
	ColFertilizer      = "fertilizer_type"
	ColDrainageQuality = "drainage_quality"
)

// TeaEncoder builds rows for the tea yield model
type TeaEncoder struct {
	schema     Schema
	district   *Table
	elevation  *Table
	fertilizer *Table
	drainage   *Table
}

// NewTeaEncoder checks the schema carries every tea column and its encoders
func NewTeaEncoder(s Schema) (*TeaEncoder, error) {
	if err := s.Require(ColDistrict, ColElevation, ColRainfall, ColAvgTemp, ColSoilNitrogen,
		ColSoilPhosphorus, ColSoilPotassium, ColSoilPH, ColFertilizer, ColDrainageQuality); err != nil {
		return nil, err
	}

	e := &TeaEncoder{schema: s}
	var err error
	if e.district, err = s.Table(ColDistrict); err != nil {
		return nil, err
	}
	if e.elevation, err = s.Table(ColElevation); err != nil {
		return nil, err
	}
	if e.fertilizer, err = s.Table(ColFertilizer); err != nil {
		return nil, err
	}
	if e.drainage, err = s.Table(ColDrainageQuality); err != nil {
		return nil, err
	}
	return e, nil
}

// Encode validates req and returns its row
func (e *TeaEncoder) Encode(req yield.Request) (*Encoded, error) {
	out := &Encoded{}
	codes := make(map[string]float64, e.schema.Len())

	for _, c := range []struct {
		col, field, value string
		table             *Table
	}{
		{ColDistrict, "district", req.District, e.district},
		{ColElevation, "elevation", req.Elevation, e.elevation},
		{ColFertilizer, "fertilizer_type", req.FertilizerType, e.fertilizer},
		{ColDrainageQuality, "drainage_quality", req.DrainageQuality, e.drainage},
	} {
		code, _, outcome, err := c.table.Require(c.field, c.value)
		if err != nil {
			return nil, err
		}
		out.note(c.table, outcome)
		codes[c.col] = float64(code)
	}

	for _, n := range []struct {
		col, field string
		v          *float64
		lo, hi     float64
	}{
		{ColRainfall, "monthly_rainfall_mm", req.MonthlyRainfallMM, 0, 1000},
		{ColAvgTemp, "avg_temp_c", req.AvgTempC, -5, 45},
		{ColSoilNitrogen, "soil_nitrogen", req.SoilNitrogen, 0, 200},
		{ColSoilPhosphorus, "soil_phosphorus", req.SoilPhosphorus, 0, 200},
		{ColSoilPotassium, "soil_potassium", req.SoilPotassium, 0, 200},
		{ColSoilPH, "soil_ph", req.SoilPH, 0, 14},
	} {
		v, err := clip(n.field, n.v, n.lo, n.hi)
		if err != nil {
			return nil, err
		}
		codes[n.col] = v
	}

	row, err := e.schema.Row(codes)
	if err != nil {
		return nil, err
	}
	out.Row = row
	return out, nil
}
