// Package attribution turns TreeSHAP values into labelled, reconciled attributions.
package attribution

import (
	"estimator/internal/artifacts"
	"estimator/internal/domain/explain"
	"estimator/internal/ml/gbdt"
	"estimator/internal/ml/treeshap"
	"estimator/pkg/errors"
)

// DefaultTolerance is the relative reconciliation tolerance
const DefaultTolerance = 1e-3

// Explainer attributes outputs of one model
type Explainer struct {
	model     *artifacts.Model
	shap      *treeshap.Explainer
	tolerance float64
}

// NewExplainer precomputes baselines for every output column of model
func NewExplainer(model *artifacts.Model, tolerance float64) (*Explainer, error) {
	if model == nil || model.Trees == nil {
		return nil, errors.New("attribution explainer needs a loaded model")
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Explainer{
		model:     model,
		shap:      treeshap.New(model.Trees),
		tolerance: tolerance,
	}, nil
}

// Baseline returns the expected raw output for a class (0 for regression)
func (e *Explainer) Baseline(class int) float64 {
	return e.sign(class) * e.shap.Expected(e.column(class))
}

// Explain attributes the raw output of class. output is the raw value the engine produced
// for that column; the attribution must add up to it. For binary models class 0 is
// explained as the negated margin, so output is negated as well.
func (e *Explainer) Explain(row []float64, class int, output float64) (*explain.Attribution, error) {
	col, sign := e.column(class), e.sign(class)
	phi, err := e.shap.Values(row, col)
	if err != nil {
		return nil, errors.Wrapf(err, "explain %s", e.model.Name)
	}

	a := &explain.Attribution{
		Baseline:      sign * e.shap.Expected(col),
		Output:        sign * output,
		Contributions: make([]explain.Contribution, len(phi)),
	}
	if e.model.Kind() != gbdt.KindRegression {
		a.Class = class
	}
	names := e.model.Schema.Names()
	for i, v := range phi {
		a.Contributions[i] = explain.Contribution{
			Feature: names[i],
			Label:   e.model.Schema.Label(i),
			Index:   i,
			Value:   sign * v,
		}
	}
	a.Sort()

	if err := a.Reconcile(e.tolerance); err != nil {
		return nil, errors.Wrapf(err, "explain %s", e.model.Name)
	}
	return a, nil
}

// column maps a class index onto a raw output column. Binary models have a single margin.
func (e *Explainer) column(class int) int {
	if e.model.Kind() == gbdt.KindMulticlass {
		return class
	}
	return 0
}

// sign is -1 for class 0 of a binary model, whose log-odds are the negated margin
func (e *Explainer) sign(class int) float64 {
	if e.model.Kind() == gbdt.KindBinary && class == 0 {
		return -1
	}
	return 1
}
