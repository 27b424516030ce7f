package forecast

import (
	"sort"
	"strings"
)

// Request asks for a multi-year price path of one segment. Bedrooms, LandSize and
// Years only affect the live path.
type Request struct {
	Location     string   `json:"location"`
	PropertyType string   `json:"property_type"`
	Bedrooms     *float64 `json:"bedrooms"`
	LandSize     *float64 `json:"land_size"`
	Years        []int    `json:"years,omitempty"`
}

// Source says which path produced a result
type Source string

const (
	SourceCache Source = "cache"
	SourceLive  Source = "live"
)

// String returns string representation
func (s Source) String() string {
	return string(s)
}

// Signal is the qualitative growth band
type Signal string

const (
	SignalStrong   Signal = "Strong Growth"
	SignalModerate Signal = "Moderate Growth"
	SignalStable   Signal = "Stable"
)

// String returns string representation
func (s Signal) String() string {
	return string(s)
}

// Point is one year of a forecast series
type Point struct {
	Year              int     `json:"year"`
	Value             float64 `json:"value"`
	RelativeGrowthPct float64 `json:"relative_growth_pct"`
}

// Result is the common output of the cache and live paths
type Result struct {
	Location         string  `json:"location"`
	PropertyType     string  `json:"property_type"`
	LocationFallback bool    `json:"location_fallback"`
	Series           []Point `json:"series"`
	GrowthPct        float64 `json:"growth_pct"`
	Signal           Signal  `json:"signal"`
	Source           Source  `json:"source"`
	BaseYear         int     `json:"base_year"`
	HorizonYear      int     `json:"horizon_year"`
}

// Segment is a precomputed series
type Segment struct {
	Prices    map[int]float64
	GrowthPct float64
}

// Years returns the segment's years in order
func (s Segment) Years() []int {
	out := make([]int, 0, len(s.Prices))
	for y := range s.Prices {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// Cache holds precomputed segments keyed by exact (location, property type)
type Cache struct {
	segments map[string]map[string]Segment
}

// NewCache wraps location -> property type -> segment
func NewCache(segments map[string]map[string]Segment) *Cache {
	if segments == nil {
		segments = map[string]map[string]Segment{}
	}
	return &Cache{segments: segments}
}

// Lookup matches the trimmed request strings exactly
func (c *Cache) Lookup(location, propertyType string) (Segment, bool) {
	byType, ok := c.segments[strings.TrimSpace(location)]
	if !ok {
		return Segment{}, false
	}
	s, ok := byType[strings.TrimSpace(propertyType)]
	return s, ok
}

// Len returns the number of cached segments
func (c *Cache) Len() int {
	n := 0
	for _, byType := range c.segments {
		n += len(byType)
	}
	return n
}
