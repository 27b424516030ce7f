package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estimator/pkg/errors"
)

func TestSchema_Row(t *testing.T) {
	s, err := NewSchema([]string{"b", "a"}, map[string]string{"a": "Alpha"}, nil)
	require.NoError(t, err)

	row, err := s.Row(map[string]float64{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1}, row)
	assert.Equal(t, "b", s.Label(0))
	assert.Equal(t, "Alpha", s.Label(1))

	_, err = s.Row(map[string]float64{"a": 1})
	assert.True(t, errors.Is(err, errors.ErrSchemaMismatch))

	_, err = s.Row(map[string]float64{"a": 1, "b": 2, "c": 3})
	assert.True(t, errors.Is(err, errors.ErrSchemaMismatch))

	_, err = s.Row(map[string]float64{"a": 1, "c": 3})
	assert.True(t, errors.Is(err, errors.ErrSchemaMismatch))
}

func TestNewSchema_Validation(t *testing.T) {
	_, err := NewSchema([]string{"a", "a"}, nil, nil)
	assert.Error(t, err)

	_, err = NewSchema([]string{"a"}, map[string]string{"z": "Zed"}, nil)
	assert.Error(t, err)

	_, err = NewSchema([]string{"a"}, nil, map[string]*Table{"z": nil})
	assert.Error(t, err)

	s, err := NewSchema([]string{"a"}, nil, nil)
	require.NoError(t, err)
	_, err = s.Table("a")
	assert.True(t, errors.Is(err, errors.ErrSchemaMismatch))
}
