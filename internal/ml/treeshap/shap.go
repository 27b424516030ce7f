// Package treeshap computes exact path-dependent Shapley values for gbdt ensembles
// (Lundberg, Erion, Lee: "Consistent Individualized Feature Attribution for Tree Ensembles", algorithm 2).
package treeshap

import (
	"estimator/internal/ml/gbdt"
	"estimator/pkg/errors"
)

// Explainer holds the per-output expected values of a model. It is immutable and safe for concurrent use.
type Explainer struct {
	model    *gbdt.Model
	expected []float64
}

// New precomputes the cover-weighted expected raw output of every output column
func New(m *gbdt.Model) *Explainer {
	expected := make([]float64, m.NumOutputs)
	for i := range m.Trees {
		t := &m.Trees[i]
		expected[t.Output] += expectedValue(t, 0)
	}
	return &Explainer{model: m, expected: expected}
}

// Expected is the model output with every feature marginalized out
func (e *Explainer) Expected(output int) float64 {
	return e.expected[output]
}

// Values returns one Shapley value per feature for the given output column.
// Expected(output) + sum(values) equals the raw model output for row.
func (e *Explainer) Values(row []float64, output int) ([]float64, error) {
	if len(row) != e.model.NumFeatures() {
		return nil, errors.Wrapf(errors.ErrSchemaMismatch, "row has %d values, model expects %d", len(row), e.model.NumFeatures())
	}
	if output < 0 || output >= e.model.NumOutputs {
		return nil, errors.Wrapf(errors.ErrSchemaMismatch, "output %d out of range [0,%d)", output, e.model.NumOutputs)
	}

	phi := make([]float64, e.model.NumFeatures())
	for i := range e.model.Trees {
		t := &e.model.Trees[i]
		if t.Output != output {
			continue
		}
		recurse(t, row, phi, 0, nil, 0, 1, 1, -1)
	}
	return phi, nil
}

func expectedValue(t *gbdt.Tree, i int) float64 {
	n := &t.Nodes[i]
	if n.Leaf {
		return n.Value
	}
	l, r := &t.Nodes[n.Left], &t.Nodes[n.Right]
	return (l.Cover*expectedValue(t, n.Left) + r.Cover*expectedValue(t, n.Right)) / n.Cover
}

type pathElement struct {
	feature int
	zero    float64 // fraction of paths flowing through when the feature is unknown
	one     float64 // 1 when the row follows this branch, else 0
	weight  float64
}

func recurse(t *gbdt.Tree, row, phi []float64, node int, parent []pathElement, depth int, zero, one float64, feature int) {
	path := make([]pathElement, depth+1)
	copy(path, parent[:depth])
	extendPath(path, depth, zero, one, feature)

	n := &t.Nodes[node]
	if n.Leaf {
		for i := 1; i <= depth; i++ {
			w := unwoundPathSum(path, depth, i)
			el := path[i]
			phi[el.feature] += w * (el.one - el.zero) * n.Value
		}
		return
	}

	hot, cold := n.Right, n.Left
	if n.GoesLeft(row[n.Feature]) {
		hot, cold = n.Left, n.Right
	}
	hotZero := t.Nodes[hot].Cover / n.Cover
	coldZero := t.Nodes[cold].Cover / n.Cover
	incomingZero, incomingOne := 1.0, 1.0

	// a feature already split on higher up is unwound and re-extended here
	k := 0
	for ; k <= depth; k++ {
		if path[k].feature == n.Feature {
			break
		}
	}
	if k != depth+1 {
		incomingZero = path[k].zero
		incomingOne = path[k].one
		unwindPath(path, depth, k)
		depth--
	}

	recurse(t, row, phi, hot, path, depth+1, hotZero*incomingZero, incomingOne, n.Feature)
	recurse(t, row, phi, cold, path, depth+1, coldZero*incomingZero, 0, n.Feature)
}

func extendPath(path []pathElement, depth int, zero, one float64, feature int) {
	path[depth] = pathElement{feature: feature, zero: zero, one: one}
	if depth == 0 {
		path[depth].weight = 1
	}
	d := float64(depth + 1)
	for i := depth - 1; i >= 0; i-- {
		path[i+1].weight += one * path[i].weight * float64(i+1) / d
		path[i].weight = zero * path[i].weight * float64(depth-i) / d
	}
}

func unwindPath(path []pathElement, depth, index int) {
	one, zero := path[index].one, path[index].zero
	next := path[depth].weight
	d := float64(depth + 1)

	for i := depth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := path[i].weight
			path[i].weight = next * d / (float64(i+1) * one)
			next = tmp - path[i].weight*zero*float64(depth-i)/d
		} else {
			path[i].weight = path[i].weight * d / (zero * float64(depth-i))
		}
	}

	for i := index; i < depth; i++ {
		path[i].feature = path[i+1].feature
		path[i].zero = path[i+1].zero
		path[i].one = path[i+1].one
	}
}

func unwoundPathSum(path []pathElement, depth, index int) float64 {
	one, zero := path[index].one, path[index].zero
	next := path[depth].weight
	total := 0.0

	if one != 0 {
		for i := depth - 1; i >= 0; i-- {
			tmp := next / (float64(i+1) * one)
			total += tmp
			next = path[i].weight - tmp*zero*float64(depth-i)
		}
	} else {
		for i := depth - 1; i >= 0; i-- {
			total += path[i].weight / (zero * float64(depth-i))
		}
	}
	return total * float64(depth+1)
}
