package features

import (
	"estimator/internal/domain/property"
)

// Property model columns
const (
	ColPropertyType = "property_type"
	ColLocation     = "location"
	ColBedrooms     = "bedrooms"
	ColBathrooms    = "bathrooms"
	ColLandSize     = "land_size_perches"
	ColIsForRent    = "is_for_rent"
	ColQualityTier  = "quality_tier"
	ColIsFurnished  = "is_furnished"
)

// Clip limits applied during training
const (
	MaxBedrooms    = 20
	MaxBathrooms   = 15
	MaxLandPerches = 1000
	MaxQualityTier = 3
	MaxFurnishing  = 2
)

// PropertyEncoded adds the resolved location to the row
type PropertyEncoded struct {
	Encoded
	Location         string
	LocationFallback bool
}

// PropertyEncoder builds rows for the property valuation model
type PropertyEncoder struct {
	schema    Schema
	types     *Table
	locations *Table
}

// NewPropertyEncoder checks the schema carries every property column and its encoders
func NewPropertyEncoder(s Schema) (*PropertyEncoder, error) {
	if err := s.Require(ColPropertyType, ColLocation, ColBedrooms, ColBathrooms, ColLandSize,
		ColIsForRent, ColQualityTier, ColIsFurnished); err != nil {
		return nil, err
	}
	types, err := s.Table(ColPropertyType)
	if err != nil {
		return nil, err
	}
	locations, err := s.Table(ColLocation)
	if err != nil {
		return nil, err
	}
	return &PropertyEncoder{schema: s, types: types, locations: locations}, nil
}

// Encode validates req and returns its row
func (e *PropertyEncoder) Encode(req property.Request) (*PropertyEncoded, error) {
	out := &PropertyEncoded{}

	typeCode, _, outcome, err := e.types.Require("property_type", req.PropertyType)
	if err != nil {
		return nil, err
	}
	out.note(e.types, outcome)

	locCode, location, outcome, err := e.locations.Require("location", req.Location)
	if err != nil {
		return nil, err
	}
	out.note(e.locations, outcome)
	out.Location = location
	out.LocationFallback = outcome == Fallback

	bedrooms, err := nonNegative("bedrooms", req.Bedrooms, MaxBedrooms)
	if err != nil {
		return nil, err
	}
	bathrooms, err := nonNegative("bathrooms", req.Bathrooms, MaxBathrooms)
	if err != nil {
		return nil, err
	}
	land, err := nonNegative("land_size", req.LandSize, MaxLandPerches)
	if err != nil {
		return nil, err
	}
	quality, err := ordinal("quality_tier", req.QualityTier, MaxQualityTier)
	if err != nil {
		return nil, err
	}
	furnished, err := ordinal("furnishing_status", req.Furnishing, MaxFurnishing)
	if err != nil {
		return nil, err
	}

	out.Row, err = e.schema.Row(map[string]float64{
		ColPropertyType: float64(typeCode),
		ColLocation:     float64(locCode),
		ColBedrooms:     bedrooms,
		ColBathrooms:    bathrooms,
		ColLandSize:     land,
		ColIsForRent:    boolValue(bool(req.IsForRent)),
		ColQualityTier:  quality,
		ColIsFurnished:  furnished,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
