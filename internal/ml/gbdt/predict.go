package gbdt

import (
	"math"

	"estimator/pkg/errors"
)

const zeroThreshold = 1e-35

// GoesLeft applies the split decision to a feature value
func (n *Node) GoesLeft(v float64) bool {
	if n.Categorical {
		if math.IsNaN(v) {
			if n.Missing == MissingNaN {
				return false
			}
			v = 0
		}
		code := int(v)
		if code < 0 {
			return false
		}
		_, ok := n.Categories[code]
		return ok
	}

	if math.IsNaN(v) && n.Missing != MissingNaN {
		v = 0
	}
	switch n.Missing {
	case MissingZero:
		if v >= -zeroThreshold && v <= zeroThreshold {
			return n.DefaultLeft
		}
	case MissingNaN:
		if math.IsNaN(v) {
			return n.DefaultLeft
		}
	}
	return v <= n.Threshold
}

// LeafFor walks the tree for row and returns the index of the reached leaf
func (t *Tree) LeafFor(row []float64) int {
	i := 0
	for !t.Nodes[i].Leaf {
		n := &t.Nodes[i]
		if n.GoesLeft(row[n.Feature]) {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return i
}

// Raw returns the untransformed score of every output column
func (m *Model) Raw(row []float64) ([]float64, error) {
	if len(row) != m.NumFeatures() {
		return nil, errors.Wrapf(errors.ErrSchemaMismatch, "row has %d values, model expects %d", len(row), m.NumFeatures())
	}

	out := make([]float64, m.NumOutputs)
	for i := range m.Trees {
		t := &m.Trees[i]
		out[t.Output] += t.Nodes[t.LeafFor(row)].Value
	}
	return out, nil
}

// Probabilities applies the model's link to raw scores: softmax for multi-class,
// sigmoid for binary as [P(0), P(1)]. Regression models have no probabilities.
func (m *Model) Probabilities(raw []float64) ([]float64, error) {
	switch m.Kind {
	case KindMulticlass:
		return Softmax(raw), nil
	case KindBinary:
		p := 1 / (1 + math.Exp(-m.Sigmoid*raw[0]))
		return []float64{1 - p, p}, nil
	}
	return nil, errors.Wrap(errors.ErrSchemaMismatch, "regression model has no class probabilities")
}

// Softmax is numerically stable for large raw scores
func Softmax(raw []float64) []float64 {
	maxV := math.Inf(-1)
	for _, v := range raw {
		if v > maxV {
			maxV = v
		}
	}

	out := make([]float64, len(raw))
	sum := 0.0
	for i, v := range raw {
		out[i] = math.Exp(v - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
