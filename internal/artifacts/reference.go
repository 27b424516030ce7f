package artifacts

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"estimator/internal/domain/forecast"
	"estimator/internal/features"
	"estimator/pkg/errors"
)

// Catalog is static metadata served by the catalog endpoint
type Catalog struct {
	DatasetSize map[string]int                `json:"dataset_size"`
	Metrics     map[string]map[string]float64 `json:"metrics"`
}

type routesFile struct {
	Routes []features.Route `json:"routes"`
}

type calendarFile struct {
	PublicHolidays []string `json:"public_holidays"`
	PoyaDays       []string `json:"poya_days"`
	Festivals      []struct {
		Name  string `json:"name"`
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"festivals"`
}

type cachedSegment struct {
	Prices    map[string]float64 `json:"prices"`
	GrowthPct float64            `json:"growth_4yr_pct"`
}

func readJSON(path string, dest interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if err := dec.Decode(dest); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

func loadRoutes(path string) (*features.Routes, error) {
	var file routesFile
	if err := readJSON(path, &file); err != nil {
		return nil, err
	}
	return features.NewRoutes(file.Routes)
}

func loadCalendar(path string) (*features.Calendar, error) {
	var file calendarFile
	if err := readJSON(path, &file); err != nil {
		return nil, err
	}

	festivals := make([]features.Festival, 0, len(file.Festivals))
	for _, f := range file.Festivals {
		start, err := time.Parse(features.DateLayout, f.Start)
		if err != nil {
			return nil, errors.Wrapf(err, "festival %q start", f.Name)
		}
		end, err := time.Parse(features.DateLayout, f.End)
		if err != nil {
			return nil, errors.Wrapf(err, "festival %q end", f.Name)
		}
		festivals = append(festivals, features.Festival{Name: f.Name, Start: start, End: end})
	}

	return features.NewCalendar(file.PublicHolidays, file.PoyaDays, festivals)
}

var indicatorColumns = []string{
	"year", "inflation_pct", "lending_rate_pct", "usd_lkr", "gdp_growth_pct", "policy_rate_pct", "property_price_index",
}

func loadIndicators(path string) (*features.IndicatorTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "read header of %s", path)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}
	for _, c := range indicatorColumns {
		if _, ok := pos[c]; !ok {
			return nil, errors.Newf("%s: missing column %q", path, c)
		}
	}

	var rows []features.Indicators
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", path, line)
		}

		vals := make([]float64, len(indicatorColumns))
		for i, c := range indicatorColumns {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[pos[c]]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s line %d column %s", path, line, c)
			}
			vals[i] = v
		}
		rows = append(rows, features.Indicators{
			Year:               int(vals[0]),
			InflationPct:       vals[1],
			LendingRatePct:     vals[2],
			USDLKR:             vals[3],
			GDPGrowthPct:       vals[4],
			PolicyRatePct:      vals[5],
			PropertyPriceIndex: vals[6],
		})
	}
	if len(rows) == 0 {
		return nil, errors.Newf("%s: no indicator rows", path)
	}

	return features.NewIndicatorTable(rows)
}

func loadForecastCache(path string) (*forecast.Cache, error) {
	var file map[string]map[string]cachedSegment
	if err := readJSON(path, &file); err != nil {
		return nil, err
	}

	segments := make(map[string]map[string]forecast.Segment, len(file))
	for location, byType := range file {
		segments[location] = make(map[string]forecast.Segment, len(byType))
		for ptype, seg := range byType {
			prices := make(map[int]float64, len(seg.Prices))
			for y, v := range seg.Prices {
				year, err := strconv.Atoi(y)
				if err != nil {
					return nil, errors.Wrapf(err, "forecast cache %s/%s year %q", location, ptype, y)
				}
				prices[year] = v
			}
			segments[location][ptype] = forecast.Segment{Prices: prices, GrowthPct: seg.GrowthPct}
		}
	}
	return forecast.NewCache(segments), nil
}

func loadCatalog(path string) (*Catalog, error) {
	var c Catalog
	if err := readJSON(path, &c); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Catalog{}, nil
		}
		return nil, err
	}
	return &c, nil
}
