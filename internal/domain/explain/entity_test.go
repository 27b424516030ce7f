package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estimator/pkg/errors"
)

func sample() *Attribution {
	return &Attribution{
		Baseline: 10,
		Output:   12,
		Contributions: []Contribution{
			{Feature: "a", Index: 0, Value: 0.5},
			{Feature: "b", Index: 1, Value: -1.5},
			{Feature: "c", Index: 2, Value: 1.5},
			{Feature: "d", Index: 3, Value: 1.5},
		},
	}
}

func TestAttribution_SortByMagnitudeThenIndex(t *testing.T) {
	a := sample()
	a.Sort()

	got := make([]string, 0, 4)
	for _, c := range a.Contributions {
		got = append(got, c.Feature)
	}
	assert.Equal(t, []string{"b", "c", "d", "a"}, got)
}

func TestAttribution_Reconcile(t *testing.T) {
	a := sample()
	require.NoError(t, a.Reconcile(1e-3))

	a.Output = 12.5
	err := a.Reconcile(1e-3)
	assert.True(t, errors.Is(err, errors.ErrAttributionInconsistency))
}

func TestAttribution_TopNKeepsFullList(t *testing.T) {
	a := sample()
	a.Sort()

	top := a.TopN(2)
	assert.Len(t, top.Contributions, 2)
	assert.Len(t, a.Contributions, 4)
	assert.Equal(t, a.Baseline, top.Baseline)

	assert.Len(t, a.TopN(0).Contributions, 4)
	assert.Len(t, a.TopN(10).Contributions, 4)
}
