package forecast

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estimator/internal/adapters/config"
	"estimator/internal/artifacts"
	"estimator/internal/domain/forecast"
	"estimator/internal/features"
	"estimator/internal/services/inference"
	"estimator/internal/testsupport"
	"estimator/pkg/errors"
)

func defaultConfig() config.ForecastConfig {
	return config.ForecastConfig{
		BaseYear:          2026,
		HorizonYear:       2030,
		Years:             []int{2030, 2026, 2027, 2028, 2029},
		Month:             6,
		StrongGrowthPct:   20,
		ModerateGrowthPct: 10,
	}
}

type mockMemo struct {
	mock.Mock
}

func (m *mockMemo) Get(ctx context.Context, key string) (*forecast.Result, bool, error) {
	args := m.Called(ctx, key)
	res, _ := args.Get(0).(*forecast.Result)
	return res, args.Bool(1), args.Error(2)
}

func (m *mockMemo) Set(ctx context.Context, key string, res *forecast.Result) error {
	return m.Called(ctx, key, res).Error(0)
}

// mapMemo is an in-process memo keyed exactly like the Redis one
type mapMemo map[string]*forecast.Result

func (m mapMemo) Get(_ context.Context, key string) (*forecast.Result, bool, error) {
	res, ok := m[key]
	return res, ok, nil
}

func (m mapMemo) Set(_ context.Context, key string, res *forecast.Result) error {
	m[key] = res
	return nil
}

// predictorFunc lets tests script the model by year (row[0])
type predictorFunc func(row []float64) (inference.Prediction, error)

func (f predictorFunc) Predict(row []float64) (inference.Prediction, error) { return f(row) }

type fixture struct {
	store     *artifacts.Store
	encoder   *features.ForecastEncoder
	predictor *inference.Engine
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store, err := artifacts.Load(context.Background(), testsupport.WriteArtifacts(t), nil)
	require.NoError(t, err)
	m, err := store.Model("forecast")
	require.NoError(t, err)
	enc, err := features.NewForecastEncoder(m.Schema)
	require.NoError(t, err)
	engine, err := inference.NewEngine(m)
	require.NoError(t, err)
	return fixture{store: store, encoder: enc, predictor: engine}
}

func (f fixture) composer(t *testing.T, p Predictor, memo Memo) *Composer {
	t.Helper()

	if p == nil {
		p = f.predictor
	}
	c, err := NewComposer(defaultConfig(), Deps{
		Resolver:   f.encoder,
		Encoder:    f.encoder,
		Indicators: f.store.Indicators(),
		Cache:      f.store.ForecastCache(),
		Predictor:  p,
		Memo:       memo,
	})
	require.NoError(t, err)
	return c
}

func TestComposer_CacheHit(t *testing.T) {
	f := newFixture(t)
	called := false
	c := f.composer(t, predictorFunc(func([]float64) (inference.Prediction, error) {
		called = true
		return inference.Prediction{}, nil
	}), nil)

	land := 50.0
	res, err := c.Forecast(context.Background(), forecast.Request{
		Location: " Colombo ", PropertyType: "House", LandSize: &land,
	})
	require.NoError(t, err)

	assert.False(t, called, "cache path must not invoke the model")
	assert.Equal(t, forecast.SourceCache, res.Source)
	assert.Equal(t, 28.9, res.GrowthPct)
	assert.Equal(t, forecast.SignalStrong, res.Signal)
	assert.Equal(t, "Colombo", res.Location)
	require.Len(t, res.Series, 5)
	assert.Equal(t, 2026, res.Series[0].Year)
	assert.Equal(t, 0.0, res.Series[0].RelativeGrowthPct)
	assert.Equal(t, 28.9, res.Series[4].RelativeGrowthPct)
}

func TestComposer_CacheKeepsStoredGrowth(t *testing.T) {
	f := newFixture(t)
	res, err := f.composer(t, nil, nil).Forecast(context.Background(), forecast.Request{
		Location: "Kandy", PropertyType: "Land",
	})
	require.NoError(t, err)

	// (9657000-9000000)/9000000 is 7.3 after rounding; the stored value is returned as-is either way
	assert.Equal(t, 7.3, res.GrowthPct)
	assert.Equal(t, forecast.SignalStable, res.Signal)
}

func TestComposer_Live(t *testing.T) {
	f := newFixture(t)
	res, err := f.composer(t, nil, nil).Forecast(context.Background(), forecast.Request{
		Location: "Kandy", PropertyType: "House",
	})
	require.NoError(t, err)

	assert.Equal(t, forecast.SourceLive, res.Source)
	assert.False(t, res.LocationFallback)
	require.Len(t, res.Series, 5)

	raw := []float64{16.05, 16.15, 16.15, 16.25, 16.25}
	for i, p := range res.Series {
		assert.Equal(t, 2026+i, p.Year)
		assert.InDelta(t, math.RoundToEven(math.Expm1(raw[i])), p.Value, 1)
	}
	assert.Equal(t, 22.1, res.GrowthPct)
	assert.Equal(t, forecast.SignalStrong, res.Signal)
	assert.Equal(t, 2026, res.BaseYear)
	assert.Equal(t, 2030, res.HorizonYear)
}

func TestComposer_LiveLocationFallback(t *testing.T) {
	f := newFixture(t)
	res, err := f.composer(t, nil, nil).Forecast(context.Background(), forecast.Request{
		Location: "Nonexistent Town", PropertyType: "Apartment",
	})
	require.NoError(t, err)

	assert.True(t, res.LocationFallback)
	assert.Equal(t, "Colombo", res.Location)
	assert.Equal(t, forecast.SourceLive, res.Source)
}

func TestComposer_UnknownSegment(t *testing.T) {
	f := newFixture(t)
	_, err := f.composer(t, nil, nil).Forecast(context.Background(), forecast.Request{
		Location: "Kandy", PropertyType: "Castle",
	})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "unknown segment")
}

func TestComposer_YearOutOfRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.composer(t, nil, nil).Forecast(context.Background(), forecast.Request{
		Location: "Kandy", PropertyType: "House", Years: []int{2026, 2035},
	})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Equal(t, "years", errors.FieldOf(err))
}

func TestComposer_ZeroBase(t *testing.T) {
	f := newFixture(t)
	c := f.composer(t, predictorFunc(func(row []float64) (inference.Prediction, error) {
		if row[0] == 2026 {
			return inference.Prediction{}, nil
		}
		return inference.Prediction{Value: 1000}, nil
	}), nil)

	res, err := c.Forecast(context.Background(), forecast.Request{Location: "Galle", PropertyType: "Land"})
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.GrowthPct)
	assert.Equal(t, forecast.SignalStable, res.Signal)
	for _, p := range res.Series {
		assert.Equal(t, 0.0, p.RelativeGrowthPct)
	}
}

func TestComposer_CustomYearsWithoutHorizon(t *testing.T) {
	f := newFixture(t)
	res, err := f.composer(t, nil, nil).Forecast(context.Background(), forecast.Request{
		Location: "Kandy", PropertyType: "House", Years: []int{2028, 2026, 2028},
	})
	require.NoError(t, err)

	require.Len(t, res.Series, 2)
	assert.Equal(t, 2026, res.Series[0].Year)
	assert.Equal(t, 2028, res.Series[1].Year)
	assert.Equal(t, 0.0, res.GrowthPct)
}

func TestComposer_PredictorError(t *testing.T) {
	f := newFixture(t)
	c := f.composer(t, predictorFunc(func([]float64) (inference.Prediction, error) {
		return inference.Prediction{}, errors.ErrSchemaMismatch
	}), nil)

	_, err := c.Forecast(context.Background(), forecast.Request{Location: "Kandy", PropertyType: "House"})
	assert.True(t, errors.Is(err, errors.ErrSchemaMismatch))
}

func TestComposer_MemoHit(t *testing.T) {
	f := newFixture(t)
	memo := &mockMemo{}
	stored := &forecast.Result{Location: "Kandy", PropertyType: "House", GrowthPct: 12.3, Source: forecast.SourceLive}
	memo.On("Get", mock.Anything, "forecast:live:Kandy:House:3:_").Return(stored, true, nil)

	bed := 3.0
	res, err := f.composer(t, nil, memo).Forecast(context.Background(), forecast.Request{
		Location: "Kandy", PropertyType: "House", Bedrooms: &bed,
	})
	require.NoError(t, err)

	assert.Same(t, stored, res)
	memo.AssertExpectations(t)
	memo.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestComposer_MemoErrorsAreIgnored(t *testing.T) {
	f := newFixture(t)
	memo := &mockMemo{}
	key := "forecast:live:Kandy:House:_:12.5"
	memo.On("Get", mock.Anything, key).Return(nil, false, errors.ErrUnavailable)
	memo.On("Set", mock.Anything, key, mock.AnythingOfType("*forecast.Result")).Return(errors.ErrUnavailable)

	land := 12.5
	res, err := f.composer(t, nil, memo).Forecast(context.Background(), forecast.Request{
		Location: "Kandy", PropertyType: "House", LandSize: &land,
	})
	require.NoError(t, err)

	assert.Equal(t, forecast.SourceLive, res.Source)
	memo.AssertExpectations(t)
}

func TestComposer_MemoSeparatesHubFallback(t *testing.T) {
	f := newFixture(t)
	memo := mapMemo{}
	c := f.composer(t, nil, memo)

	exact, err := c.Forecast(context.Background(), forecast.Request{Location: "Colombo", PropertyType: "Apartment"})
	require.NoError(t, err)
	assert.False(t, exact.LocationFallback)

	fallback, err := c.Forecast(context.Background(), forecast.Request{Location: "Nonexistent Town", PropertyType: "Apartment"})
	require.NoError(t, err)
	assert.True(t, fallback.LocationFallback)
	assert.Equal(t, "Colombo", fallback.Location)
	assert.Len(t, memo, 2)

	again, err := c.Forecast(context.Background(), forecast.Request{Location: "Colombo", PropertyType: "Apartment"})
	require.NoError(t, err)
	assert.Same(t, exact, again)
	assert.False(t, again.LocationFallback)
}

func TestComposer_CustomYearsSkipMemo(t *testing.T) {
	f := newFixture(t)
	memo := &mockMemo{}

	_, err := f.composer(t, nil, memo).Forecast(context.Background(), forecast.Request{
		Location: "Kandy", PropertyType: "House", Years: []int{2026, 2030},
	})
	require.NoError(t, err)
	memo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestNewComposer_Validation(t *testing.T) {
	cfg := defaultConfig()
	cfg.HorizonYear = 2025
	_, err := NewComposer(cfg, Deps{})
	assert.Error(t, err)

	_, err = NewComposer(defaultConfig(), Deps{})
	assert.Error(t, err)
}

func TestSignal(t *testing.T) {
	c := &Composer{cfg: defaultConfig()}

	tests := []struct {
		growth float64
		want   forecast.Signal
	}{
		{25, forecast.SignalStrong},
		{20, forecast.SignalStrong},
		{19.9, forecast.SignalModerate},
		{10, forecast.SignalModerate},
		{9.99, forecast.SignalStable},
		{-4, forecast.SignalStable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Signal(tt.growth), "growth %v", tt.growth)
	}
}

func TestGrowthAndRounding(t *testing.T) {
	assert.Equal(t, 0.0, Growth(0, 100))
	assert.Equal(t, 0.0, Growth(math.NaN(), 100))
	assert.InDelta(t, 25.0, Growth(80, 100), 1e-12)

	assert.Equal(t, 0.2, Round1(0.25))
	assert.Equal(t, -0.2, Round1(-0.25))
	assert.Equal(t, 0.4, Round1(0.35))
	assert.Equal(t, 0.4, Round1(0.36))
	assert.Equal(t, 22.1, Round1(22.14))
	assert.Equal(t, 28.9, Round1(28.8888))
}

func TestMemoKey(t *testing.T) {
	seg := features.SegmentCodes{Location: "Colombo", PropertyType: "Apartment"}
	bed := 2.0

	assert.Equal(t, "forecast:live:Colombo:Apartment:2:_", MemoKey(seg, &bed, nil))
	assert.Equal(t, "forecast:live:Colombo:Apartment:_:_", MemoKey(seg, nil, nil))

	seg.LocationFallback = true
	assert.Equal(t, "forecast:live:Colombo~fallback:Apartment:_:_", MemoKey(seg, nil, nil))
}
