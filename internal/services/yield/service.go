// Package yield estimates tea yield per hectare and explains the estimate.
package yield

import (
	"context"
	"time"

	"estimator/internal/artifacts"
	"estimator/internal/domain/yield"
	"estimator/internal/features"
	"estimator/internal/metrics"
	"estimator/internal/services/attribution"
	"estimator/internal/services/inference"
	"estimator/pkg/errors"
	"estimator/pkg/format"
	"estimator/pkg/logger"
)

const decimals = 3

// Service runs encode, infer and attribute for tea yield
type Service struct {
	encoder   *features.TeaEncoder
	engine    *inference.Engine
	explainer *attribution.Explainer
	topN      int
	log       *logger.Logger
}

// NewService binds the tea yield model
func NewService(model *artifacts.Model, tolerance float64, topN int, log *logger.Logger) (*Service, error) {
	encoder, err := features.NewTeaEncoder(model.Schema)
	if err != nil {
		return nil, errors.Wrap(err, "tea encoder")
	}
	engine, err := inference.NewEngine(model)
	if err != nil {
		return nil, err
	}
	explainer, err := attribution.NewExplainer(model, tolerance)
	if err != nil {
		return nil, err
	}

	return &Service{
		encoder:   encoder,
		engine:    engine,
		explainer: explainer,
		topN:      topN,
		log:       log.With("component", "yield"),
	}, nil
}

// Predict estimates one plantation's yield
func (s *Service) Predict(ctx context.Context, req yield.Request) (res *yield.Estimate, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordPrediction("tea", time.Since(start), errors.KindOf(err).String())
	}()

	enc, err := s.encoder.Encode(req)
	if err != nil {
		return nil, err
	}
	metrics.RecordFallbacks(enc.Fallbacks)

	pred, err := s.engine.Predict(enc.Row)
	if err != nil {
		return nil, err
	}
	attr, err := s.explainer.Explain(enc.Row, 0, pred.Raw)
	if err != nil {
		return nil, err
	}

	s.log.Debugw("Tea yield estimated", "district", req.District, "yield", pred.Value)

	return &yield.Estimate{
		Yield:       format.Fixed(pred.Value, decimals),
		Formatted:   format.FixedString(pred.Value, decimals) + " MT/ha",
		Attribution: attr.TopN(s.topN),
	}, nil
}
