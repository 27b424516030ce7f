package artifacts

import (
	"math"

	"estimator/internal/features"
	"estimator/internal/ml/gbdt"
	"estimator/pkg/errors"
)

// Transform is the target transform applied at training time
type Transform string

const (
	TransformIdentity Transform = "identity"
	TransformLog1p    Transform = "log1p"
)

// Valid checks if transform is valid
func (t Transform) Valid() bool {
	switch t {
	case TransformIdentity, TransformLog1p:
		return true
	}
	return false
}

// Inverse maps a raw model output back to the target scale
func (t Transform) Inverse(raw float64) float64 {
	if t == TransformLog1p {
		return math.Expm1(raw)
	}
	return raw
}

// String returns string representation
func (t Transform) String() string {
	return string(t)
}

// Model is a trained ensemble bound to its feature schema
type Model struct {
	Name       string
	Trees      *gbdt.Model
	Schema     features.Schema
	Transform  Transform
	ClassNames []string
}

// Kind returns the model kind decided at load time
func (m *Model) Kind() gbdt.Kind {
	return m.Trees.Kind
}

type manifestFile struct {
	Models map[string]manifestModel `json:"models"`
}

type manifestModel struct {
	File            string            `json:"file"`
	Features        []string          `json:"features"`
	DisplayNames    map[string]string `json:"display_names"`
	TargetTransform Transform         `json:"target_transform"`
	ClassNames      []string          `json:"class_names"`
	Encoders        map[string]string `json:"encoders"`
}

func (m manifestModel) validate(name string) error {
	if m.File == "" {
		return errors.Newf("model %s: file is required", name)
	}
	if len(m.Features) == 0 {
		return errors.Newf("model %s: features are required", name)
	}
	if m.TargetTransform != "" && !m.TargetTransform.Valid() {
		return errors.Newf("model %s: unknown target_transform %q", name, m.TargetTransform)
	}
	return nil
}

// bind checks the parsed trees agree with the manifest entry
func (m manifestModel) bind(name string, trees *gbdt.Model, tables map[string]*features.Table) (*Model, error) {
	if trees.NumFeatures() != len(m.Features) {
		return nil, errors.Wrapf(errors.ErrSchemaMismatch, "model %s: manifest lists %d features, trees use %d",
			name, len(m.Features), trees.NumFeatures())
	}

	switch trees.Kind {
	case gbdt.KindMulticlass:
		if len(m.ClassNames) != trees.NumOutputs {
			return nil, errors.Newf("model %s: %d class names for %d classes", name, len(m.ClassNames), trees.NumOutputs)
		}
	case gbdt.KindBinary:
		if len(m.ClassNames) != 0 && len(m.ClassNames) != 2 {
			return nil, errors.Newf("model %s: binary model needs 2 class names", name)
		}
	}

	bound := make(map[string]*features.Table, len(m.Encoders))
	for col, table := range m.Encoders {
		t, ok := tables[table]
		if !ok {
			return nil, errors.Newf("model %s: column %s uses unknown encoder %q", name, col, table)
		}
		bound[col] = t
	}

	schema, err := features.NewSchema(m.Features, m.DisplayNames, bound)
	if err != nil {
		return nil, errors.Wrapf(err, "model %s", name)
	}

	transform := m.TargetTransform
	if transform == "" {
		transform = TransformIdentity
	}
	classes := m.ClassNames
	if trees.Kind == gbdt.KindBinary && len(classes) == 0 {
		classes = []string{"0", "1"}
	}

	return &Model{
		Name:       name,
		Trees:      trees,
		Schema:     schema,
		Transform:  transform,
		ClassNames: classes,
	}, nil
}
