package explain

import (
	"math"
	"sort"

	"estimator/pkg/errors"
)

// Contribution is the signed effect of one feature on the explained output
type Contribution struct {
	Feature string  `json:"feature"`
	Label   string  `json:"label"`
	Index   int     `json:"index"`
	Value   float64 `json:"value"`
}

// Attribution decomposes one raw model output: Baseline + sum(Contributions) == Output
type Attribution struct {
	Baseline      float64        `json:"baseline"`
	Output        float64        `json:"output"`
	Class         int            `json:"class,omitempty"`
	Contributions []Contribution `json:"contributions"`
}

// Sort orders contributions by descending magnitude, ties by schema index
func (a *Attribution) Sort() {
	sort.SliceStable(a.Contributions, func(i, j int) bool {
		ai, aj := math.Abs(a.Contributions[i].Value), math.Abs(a.Contributions[j].Value)
		if ai != aj {
			return ai > aj
		}
		return a.Contributions[i].Index < a.Contributions[j].Index
	})
}

// Sum adds every contribution
func (a *Attribution) Sum() float64 {
	total := 0.0
	for _, c := range a.Contributions {
		total += c.Value
	}
	return total
}

// Reconcile checks |baseline + sum - output| <= tol * max(1, |output|)
func (a *Attribution) Reconcile(tol float64) error {
	diff := math.Abs(a.Baseline + a.Sum() - a.Output)
	if diff > tol*math.Max(1, math.Abs(a.Output)) {
		return errors.Wrapf(errors.ErrAttributionInconsistency,
			"baseline %.6f + contributions %.6f != output %.6f", a.Baseline, a.Sum(), a.Output)
	}
	return nil
}

// TopN returns a copy holding the n largest contributions. n <= 0 keeps all.
func (a *Attribution) TopN(n int) *Attribution {
	out := *a
	if n > 0 && n < len(a.Contributions) {
		out.Contributions = append([]Contribution(nil), a.Contributions[:n]...)
	} else {
		out.Contributions = append([]Contribution(nil), a.Contributions...)
	}
	return &out
}
