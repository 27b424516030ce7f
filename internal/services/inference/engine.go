// Package inference runs encoded rows through a loaded tree ensemble.
package inference

import (
	"estimator/internal/artifacts"
	"estimator/internal/ml/gbdt"
	"estimator/pkg/errors"
)

// Engine evaluates one model. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	model *artifacts.Model
}

// Prediction is a regression output on both scales
type Prediction struct {
	Raw   float64 // Model scale, what attribution explains
	Value float64 // Target scale after the inverse transform
}

// Classification is a multi-class output
type Classification struct {
	Raw           []float64 // Per-class margins
	Probabilities []float64 // In class name order
	Index         int       // Arg-max, lowest index wins ties
	Label         string
}

// NewEngine wraps a loaded model
func NewEngine(model *artifacts.Model) (*Engine, error) {
	if model == nil || model.Trees == nil {
		return nil, errors.New("inference engine needs a loaded model")
	}
	return &Engine{model: model}, nil
}

// Model returns the wrapped model
func (e *Engine) Model() *artifacts.Model {
	return e.model
}

// Name returns the model name
func (e *Engine) Name() string {
	return e.model.Name
}

// Predict evaluates a regression model
func (e *Engine) Predict(row []float64) (Prediction, error) {
	if e.model.Kind() != gbdt.KindRegression {
		return Prediction{}, errors.Wrapf(errors.ErrSchemaMismatch, "model %s is %s, not regression",
			e.model.Name, e.model.Kind())
	}

	raw, err := e.model.Trees.Raw(row)
	if err != nil {
		return Prediction{}, errors.Wrapf(err, "model %s", e.model.Name)
	}

	return Prediction{
		Raw:   raw[0],
		Value: e.model.Transform.Inverse(raw[0]),
	}, nil
}

// Classify evaluates a binary or multi-class model
func (e *Engine) Classify(row []float64) (Classification, error) {
	if e.model.Kind() == gbdt.KindRegression {
		return Classification{}, errors.Wrapf(errors.ErrSchemaMismatch, "model %s is regression, not a classifier",
			e.model.Name)
	}

	raw, err := e.model.Trees.Raw(row)
	if err != nil {
		return Classification{}, errors.Wrapf(err, "model %s", e.model.Name)
	}
	probs, err := e.model.Trees.Probabilities(raw)
	if err != nil {
		return Classification{}, errors.Wrapf(err, "model %s", e.model.Name)
	}

	idx := ArgMax(probs)
	return Classification{
		Raw:           raw,
		Probabilities: probs,
		Index:         idx,
		Label:         e.model.ClassNames[idx],
	}, nil
}

// ArgMax returns the index of the largest value; the first one wins ties
func ArgMax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
