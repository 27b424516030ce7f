// Package format renders prediction values for display.
package format

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Rupees renders a whole-rupee amount with thousands separators: "Rs 12,500,000"
func Rupees(v float64) string {
	return "Rs " + humanize.Comma(int64(math.Round(v)))
}

// Fixed rounds half away from zero to places decimals
func Fixed(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// FixedString renders v with exactly places decimals
func FixedString(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
