package inference

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estimator/internal/artifacts"
	"estimator/internal/testsupport"
	"estimator/pkg/errors"
)

func loadEngine(t *testing.T, name string) *Engine {
	t.Helper()

	store, err := artifacts.Load(context.Background(), testsupport.WriteArtifacts(t), nil)
	require.NoError(t, err)
	m, err := store.Model(name)
	require.NoError(t, err)
	e, err := NewEngine(m)
	require.NoError(t, err)
	return e
}

func tripRow() []float64 {
	row := make([]float64, 16)
	row[4] = 7   // dep_hour
	row[9] = 1   // crowding Low
	row[13] = 0  // not a festival
	row[6] = 0   // on-time departure
	row[3] = 210 // scheduled duration
	return row
}

func TestEngine_Predict(t *testing.T) {
	e := loadEngine(t, "property")
	nan := math.NaN()

	// Land in Colombo, 20 perches, not for rent
	pred, err := e.Predict([]float64{1, 3, nan, nan, 20, 0, 0, 0})
	require.NoError(t, err)

	assert.InDelta(t, 16.35, pred.Raw, 1e-9)
	assert.InDelta(t, math.Expm1(16.35), pred.Value, 1e-3)
	assert.Equal(t, "property", e.Name())
}

func TestEngine_PredictIdentity(t *testing.T) {
	e := loadEngine(t, "tea_yield")
	nan := math.NaN()

	// High elevation, rainfall unknown, Combo fertilizer
	pred, err := e.Predict([]float64{0, 0, nan, 20, 50, 30, 40, 5, 1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 2.1-0.2+0.3, pred.Value, 1e-9)
	assert.Equal(t, pred.Raw, pred.Value)
}

func TestEngine_Classify(t *testing.T) {
	e := loadEngine(t, "trip_delay")

	c, err := e.Classify(tripRow())
	require.NoError(t, err)

	assert.Equal(t, []float64{0.9, 0.1, -0.35}, roundAll(c.Raw))
	assert.Equal(t, 0, c.Index)
	assert.Equal(t, "On Time", c.Label)
	require.Len(t, c.Probabilities, 3)
	assert.InDelta(t, 1.0, c.Probabilities[0]+c.Probabilities[1]+c.Probabilities[2], 1e-12)
	assert.Greater(t, c.Probabilities[0], c.Probabilities[1])
}

func TestEngine_WrongKind(t *testing.T) {
	trip := loadEngine(t, "trip_delay")
	_, err := trip.Predict(tripRow())
	assert.True(t, errors.Is(err, errors.ErrSchemaMismatch))

	property := loadEngine(t, "property")
	_, err = property.Classify(make([]float64, 8))
	assert.True(t, errors.Is(err, errors.ErrSchemaMismatch))
}

func TestEngine_RowWidth(t *testing.T) {
	e := loadEngine(t, "property")

	_, err := e.Predict([]float64{1, 3})
	assert.True(t, errors.Is(err, errors.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "model property")
}

func TestNewEngine_NilModel(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)
}

func TestArgMax(t *testing.T) {
	assert.Equal(t, 1, ArgMax([]float64{0.2, 0.4, 0.4}))
	assert.Equal(t, 0, ArgMax([]float64{0.5, 0.5}))
	assert.Equal(t, 2, ArgMax([]float64{-3, -2, -1}))
}

func roundAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = math.Round(v*1e9) / 1e9
	}
	return out
}
