package features

import "estimator/pkg/errors"

// Forecast model columns beyond the shared property ones
const (
	ColYear               = "year"
	ColInflation          = "inflation_pct"
	ColLendingRate        = "lending_rate_pct"
	ColUSDLKR             = "usd_lkr"
	ColGDPGrowth          = "gdp_growth_pct"
	ColPolicyRate         = "policy_rate_pct"
	ColPropertyPriceIndex = "property_price_index"
)

// SegmentCodes is a resolved (location, property type) pair
type SegmentCodes struct {
	Location         string
	PropertyType     string
	LocationCode     int
	TypeCode         int
	LocationFallback bool
}

// LiveInputs are the optional listing details only the live path uses
type LiveInputs struct {
	Bedrooms *float64
	LandSize *float64
}

// ForecastEncoder builds per-year rows for the forecast model
type ForecastEncoder struct {
	schema    Schema
	locations *Table
	types     *Table
}

// NewForecastEncoder checks the schema carries every forecast column and its encoders
func NewForecastEncoder(s Schema) (*ForecastEncoder, error) {
	if err := s.Require(ColYear, ColMonth, ColLocation, ColPropertyType, ColBedrooms, ColBathrooms,
		ColLandSize, ColInflation, ColLendingRate, ColUSDLKR, ColGDPGrowth, ColPolicyRate,
		ColPropertyPriceIndex); err != nil {
		return nil, err
	}
	locations, err := s.Table(ColLocation)
	if err != nil {
		return nil, err
	}
	types, err := s.Table(ColPropertyType)
	if err != nil {
		return nil, err
	}
	return &ForecastEncoder{schema: s, locations: locations, types: types}, nil
}

// Resolve applies the same fallback policy as valuation. An unknown property type is an unknown segment.
func (e *ForecastEncoder) Resolve(location, propertyType string) (SegmentCodes, error) {
	typeCode, ptype, outcome := e.types.Resolve(propertyType)
	if outcome == Unresolved {
		return SegmentCodes{}, errors.NewValidationError("property_type", "unknown segment", propertyType)
	}
	locCode, loc, outcome := e.locations.Resolve(location)
	if outcome == Unresolved {
		return SegmentCodes{}, errors.NewValidationError("location", "unknown segment", location)
	}

	return SegmentCodes{
		Location:         loc,
		PropertyType:     ptype,
		LocationCode:     locCode,
		TypeCode:         typeCode,
		LocationFallback: outcome == Fallback,
	}, nil
}

// Row encodes one forecast year
func (e *ForecastEncoder) Row(seg SegmentCodes, year, month int, in LiveInputs, ind Indicators) ([]float64, error) {
	bedrooms, err := nonNegative("bedrooms", in.Bedrooms, MaxBedrooms)
	if err != nil {
		return nil, err
	}
	land, err := nonNegative("land_size", in.LandSize, MaxLandPerches)
	if err != nil {
		return nil, err
	}

	return e.schema.Row(map[string]float64{
		ColYear:               float64(year),
		ColMonth:              float64(month),
		ColLocation:           float64(seg.LocationCode),
		ColPropertyType:       float64(seg.TypeCode),
		ColBedrooms:           bedrooms,
		ColBathrooms:          Unknown,
		ColLandSize:           land,
		ColInflation:          ind.InflationPct,
		ColLendingRate:        ind.LendingRatePct,
		ColUSDLKR:             ind.USDLKR,
		ColGDPGrowth:          ind.GDPGrowthPct,
		ColPolicyRate:         ind.PolicyRatePct,
		ColPropertyPriceIndex: ind.PropertyPriceIndex,
	})
}
