// Package forecast composes multi-year price paths from the precomputed cache or live inference.
package forecast

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"estimator/internal/adapters/config"
	"estimator/internal/domain/forecast"
	"estimator/internal/features"
	"estimator/internal/metrics"
	"estimator/internal/services/inference"
	"estimator/pkg/errors"
	"estimator/pkg/logger"
)

// SegmentResolver maps request strings to encoder codes under the fallback policy
type SegmentResolver interface {
	Resolve(location, propertyType string) (features.SegmentCodes, error)
}

// RowEncoder builds the model row for one year
type RowEncoder interface {
	Row(seg features.SegmentCodes, year, month int, in features.LiveInputs, ind features.Indicators) ([]float64, error)
}

// IndicatorSource returns a year's macroeconomic row. Unknown years are InvalidInput.
type IndicatorSource interface {
	Year(year int) (features.Indicators, error)
}

// CacheLookup finds a precomputed segment by exact request strings
type CacheLookup interface {
	Lookup(location, propertyType string) (forecast.Segment, bool)
}

// Predictor runs the forecast model
type Predictor interface {
	Predict(row []float64) (inference.Prediction, error)
}

// Memo shares live results across replicas. Optional.
type Memo interface {
	Get(ctx context.Context, key string) (*forecast.Result, bool, error)
	Set(ctx context.Context, key string, res *forecast.Result) error
}

// Composer chooses between the cache and live paths and normalizes both into one Result
type Composer struct {
	cfg        config.ForecastConfig
	resolver   SegmentResolver
	encoder    RowEncoder
	indicators IndicatorSource
	cache      CacheLookup
	predictor  Predictor
	memo       Memo
	log        *logger.Logger
}

// Deps groups the composer collaborators
type Deps struct {
	Resolver   SegmentResolver
	Encoder    RowEncoder
	Indicators IndicatorSource
	Cache      CacheLookup
	Predictor  Predictor
	Memo       Memo // nil disables memoization
}

// NewComposer validates the configuration and wires collaborators
func NewComposer(cfg config.ForecastConfig, deps Deps) (*Composer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Resolver == nil || deps.Encoder == nil || deps.Indicators == nil || deps.Cache == nil || deps.Predictor == nil {
		return nil, errors.New("forecast composer: missing collaborator")
	}
	cfg.Years = append([]int(nil), cfg.Years...)
	sort.Ints(cfg.Years)
	return &Composer{
		cfg:        cfg,
		resolver:   deps.Resolver,
		encoder:    deps.Encoder,
		indicators: deps.Indicators,
		cache:      deps.Cache,
		predictor:  deps.Predictor,
		memo:       deps.Memo,
		log:        logger.Get().With("component", "forecast"),
	}, nil
}

// Forecast returns the segment's price path, growth and signal
func (c *Composer) Forecast(ctx context.Context, req forecast.Request) (res *forecast.Result, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordPrediction("forecast", time.Since(start), errors.KindOf(err).String())
	}()

	if seg, ok := c.cache.Lookup(req.Location, req.PropertyType); ok {
		metrics.RecordForecastSource(forecast.SourceCache.String())
		return c.fromCache(req, seg), nil
	}

	return c.live(ctx, req)
}

func (c *Composer) fromCache(req forecast.Request, seg forecast.Segment) *forecast.Result {
	years := seg.Years()
	base := seg.Prices[c.cfg.BaseYear]

	series := make([]forecast.Point, len(years))
	for i, y := range years {
		series[i] = forecast.Point{
			Year:              y,
			Value:             seg.Prices[y],
			RelativeGrowthPct: Round1(Growth(base, seg.Prices[y])),
		}
	}

	return &forecast.Result{
		Location:     strings.TrimSpace(req.Location),
		PropertyType: strings.TrimSpace(req.PropertyType),
		Series:       series,
		GrowthPct:    seg.GrowthPct,
		Signal:       c.Signal(seg.GrowthPct),
		Source:       forecast.SourceCache,
		BaseYear:     c.cfg.BaseYear,
		HorizonYear:  c.cfg.HorizonYear,
	}
}

func (c *Composer) live(ctx context.Context, req forecast.Request) (*forecast.Result, error) {
	seg, err := c.resolver.Resolve(req.Location, req.PropertyType)
	if err != nil {
		return nil, err
	}
	if seg.LocationFallback {
		metrics.RecordFallbacks([]string{"location"})
	}

	years, custom := c.years(req.Years)

	key := MemoKey(seg, req.Bedrooms, req.LandSize)
	if c.memo != nil && !custom {
		if cached, ok, err := c.memo.Get(ctx, key); err != nil {
			c.log.Warnw("Forecast memo read failed", "key", key, "error", err)
		} else if ok {
			metrics.RecordForecastSource("memo")
			return cached, nil
		}
	}

	in := features.LiveInputs{Bedrooms: req.Bedrooms, LandSize: req.LandSize}
	values := make(map[int]float64, len(years))
	for _, y := range years {
		ind, err := c.indicators.Year(y)
		if err != nil {
			return nil, err
		}
		row, err := c.encoder.Row(seg, y, c.cfg.Month, in, ind)
		if err != nil {
			return nil, err
		}
		pred, err := c.predictor.Predict(row)
		if err != nil {
			return nil, errors.Wrapf(err, "forecast year %d", y)
		}
		values[y] = math.RoundToEven(pred.Value)
	}

	base, horizon := values[c.cfg.BaseYear], values[c.cfg.HorizonYear]
	if _, ok := values[c.cfg.HorizonYear]; !ok {
		horizon = base
	}
	growth := Round1(Growth(base, horizon))

	series := make([]forecast.Point, len(years))
	for i, y := range years {
		series[i] = forecast.Point{Year: y, Value: values[y], RelativeGrowthPct: Round1(Growth(base, values[y]))}
	}

	res := &forecast.Result{
		Location:         seg.Location,
		PropertyType:     seg.PropertyType,
		LocationFallback: seg.LocationFallback,
		Series:           series,
		GrowthPct:        growth,
		Signal:           c.Signal(growth),
		Source:           forecast.SourceLive,
		BaseYear:         c.cfg.BaseYear,
		HorizonYear:      c.cfg.HorizonYear,
	}
	metrics.RecordForecastSource(forecast.SourceLive.String())

	if c.memo != nil && !custom {
		if err := c.memo.Set(ctx, key, res); err != nil {
			c.log.Warnw("Forecast memo write failed", "key", key, "error", err)
		}
	}
	return res, nil
}

// years returns the sorted, de-duplicated years to compute and whether they differ from the default set
func (c *Composer) years(requested []int) ([]int, bool) {
	if len(requested) == 0 {
		return c.cfg.Years, false
	}

	seen := make(map[int]bool, len(requested))
	out := make([]int, 0, len(requested))
	for _, y := range requested {
		if seen[y] {
			continue
		}
		seen[y] = true
		out = append(out, y)
	}
	sort.Ints(out)
	return out, true
}

// Signal maps a growth percentage onto its qualitative band
func (c *Composer) Signal(growth float64) forecast.Signal {
	switch {
	case growth >= c.cfg.StrongGrowthPct:
		return forecast.SignalStrong
	case growth >= c.cfg.ModerateGrowthPct:
		return forecast.SignalModerate
	}
	return forecast.SignalStable
}

// Growth is (value-base)/base*100; a zero or missing base yields 0
func Growth(base, value float64) float64 {
	if base == 0 || math.IsNaN(base) || math.IsNaN(value) {
		return 0
	}
	return (value - base) / base * 100
}

// Round1 rounds half to even to one decimal place, matching how the cached growth was produced
func Round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).RoundBank(1).Float64()
	return f
}

// MemoKey identifies a live result: forecast:live:<location>:<type>:<bedrooms>:<land>.
// A location that fell back to the hub is keyed as <hub>~fallback so the stored flag stays true.
func MemoKey(seg features.SegmentCodes, bedrooms, land *float64) string {
	location := seg.Location
	if seg.LocationFallback {
		location += "~fallback"
	}
	return strings.Join([]string{
		"forecast", "live", location, seg.PropertyType, optional(bedrooms), optional(land),
	}, ":")
}

func optional(v *float64) string {
	if v == nil {
		return "_"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
