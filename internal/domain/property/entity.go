package property

import (
	"bytes"
	"encoding/json"
	"strconv"

	"estimator/internal/domain/explain"
	"estimator/pkg/errors"
)

// Type is a listing category
type Type string

const (
	TypeHouse     Type = "House"
	TypeLand      Type = "Land"
	TypeApartment Type = "Apartment"
)

// String returns string representation
func (t Type) String() string {
	return string(t)
}

// Flag accepts JSON booleans as well as 0/1, which listing exports use
type Flag bool

// UnmarshalJSON implements json.Unmarshaler
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		if n, err := strconv.ParseFloat(string(data), 64); err == nil && (n == 0 || n == 1) {
			*f = n == 1
			return nil
		}
		return errors.NewValidationError("is_for_rent", "expected boolean or 0/1", string(data))
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}

// Request asks for the fair market value of one listing. Nil numerics are unknown, not zero.
type Request struct {
	PropertyType string   `json:"property_type"`
	Location     string   `json:"location"`
	Bedrooms     *float64 `json:"bedrooms"`
	Bathrooms    *float64 `json:"bathrooms"`
	LandSize     *float64 `json:"land_size"`
	QualityTier  *int     `json:"quality_tier"`
	Furnishing   *int     `json:"furnishing_status"`
	IsForRent    Flag     `json:"is_for_rent"`
}

// PriceRange is the display band around a point estimate
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Valuation is the response for a property request
type Valuation struct {
	Price            float64              `json:"price"`
	Formatted        string               `json:"formatted"`
	Range            PriceRange           `json:"price_range"`
	PropertyType     string               `json:"property_type"`
	Location         string               `json:"location"`
	LocationFallback bool                 `json:"location_fallback"`
	IsForRent        bool                 `json:"is_for_rent"`
	Attribution      *explain.Attribution `json:"attribution"`
}
