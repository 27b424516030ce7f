package features

import (
	"sort"

	"estimator/pkg/errors"
)

// Route is one bus route with its per-class scheduled durations
type Route struct {
	No         string             `json:"route_no"`
	Name       string             `json:"name,omitempty"`
	DistanceKM float64            `json:"distance_km"`
	Durations  map[string]float64 `json:"durations"`
}

// Classes returns the service classes of the route, sorted
func (r Route) Classes() []string {
	out := make([]string, 0, len(r.Durations))
	for c := range r.Durations {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Routes is the route reference table
type Routes struct {
	byNo map[string]Route
}

// NewRoutes validates distances and durations
func NewRoutes(routes []Route) (*Routes, error) {
	byNo := make(map[string]Route, len(routes))
	for _, r := range routes {
		if r.No == "" {
			return nil, errors.New("route with empty route_no")
		}
		if _, dup := byNo[r.No]; dup {
			return nil, errors.Newf("duplicate route %q", r.No)
		}
		if r.DistanceKM <= 0 {
			return nil, errors.Newf("route %q has non-positive distance", r.No)
		}
		if len(r.Durations) == 0 {
			return nil, errors.Newf("route %q has no service classes", r.No)
		}
		for class, d := range r.Durations {
			if d <= 0 {
				return nil, errors.Newf("route %q class %q has non-positive duration", r.No, class)
			}
		}
		byNo[r.No] = r
	}
	return &Routes{byNo: byNo}, nil
}

// Lookup finds a route by number
func (r *Routes) Lookup(no string) (Route, bool) {
	route, ok := r.byNo[no]
	return route, ok
}

// List returns routes sorted by number
func (r *Routes) List() []Route {
	out := make([]Route, 0, len(r.byNo))
	for _, route := range r.byNo {
		out = append(out, route)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].No < out[j].No })
	return out
}

// Len returns the number of routes
func (r *Routes) Len() int {
	return len(r.byNo)
}

// Indicators is one year of macroeconomic data
type Indicators struct {
	Year               int
	InflationPct       float64
	LendingRatePct     float64
	USDLKR             float64
	GDPGrowthPct       float64
	PolicyRatePct      float64
	PropertyPriceIndex float64
}

// IndicatorTable is keyed by year. Years outside the table are never extrapolated.
type IndicatorTable struct {
	byYear map[int]Indicators
}

// NewIndicatorTable rejects duplicate years
func NewIndicatorTable(rows []Indicators) (*IndicatorTable, error) {
	byYear := make(map[int]Indicators, len(rows))
	for _, r := range rows {
		if _, dup := byYear[r.Year]; dup {
			return nil, errors.Newf("duplicate indicator year %d", r.Year)
		}
		byYear[r.Year] = r
	}
	return &IndicatorTable{byYear: byYear}, nil
}

// Year returns the indicator row of year or an InvalidInput error
func (t *IndicatorTable) Year(year int) (Indicators, error) {
	row, ok := t.byYear[year]
	if !ok {
		return Indicators{}, errors.NewValidationError("years", "year outside supported indicator range", year)
	}
	return row, nil
}

// Years returns the covered years in order
func (t *IndicatorTable) Years() []int {
	out := make([]int, 0, len(t.byYear))
	for y := range t.byYear {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
