// Package valuation prices a property listing and explains the price.
package valuation

import (
	"context"
	"strings"
	"time"

	"estimator/internal/artifacts"
	"estimator/internal/domain/property"
	"estimator/internal/features"
	"estimator/internal/metrics"
	"estimator/internal/services/attribution"
	"estimator/internal/services/inference"
	"estimator/pkg/errors"
	"estimator/pkg/format"
	"estimator/pkg/logger"
)

// RangeBand is the relative width of the displayed price range
const RangeBand = 0.15

// Service runs encode, infer and attribute for property valuation
type Service struct {
	encoder   *features.PropertyEncoder
	engine    *inference.Engine
	explainer *attribution.Explainer
	topN      int
	log       *logger.Logger
}

// NewService binds the property model
func NewService(model *artifacts.Model, tolerance float64, topN int, log *logger.Logger) (*Service, error) {
	encoder, err := features.NewPropertyEncoder(model.Schema)
	if err != nil {
		return nil, errors.Wrap(err, "property encoder")
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
		log:       log.With("component", "valuation"),
	}, nil
}

// Predict values one listing
func (s *Service) Predict(ctx context.Context, req property.Request) (res *property.Valuation, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordPrediction("property", time.Since(start), errors.KindOf(err).String())
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

	price := format.Fixed(pred.Value, 0)
	s.log.Debugw("Property valued",
		"location", enc.Location,
		"location_fallback", enc.LocationFallback,
		"price", price,
	)

	return &property.Valuation{
		Price:     price,
		Formatted: format.Rupees(price),
		Range: property.PriceRange{
			Low:  format.Fixed(price*(1-RangeBand), 0),
			High: format.Fixed(price*(1+RangeBand), 0),
		},
		PropertyType:     strings.TrimSpace(req.PropertyType),
		Location:         enc.Location,
		LocationFallback: enc.LocationFallback,
		IsForRent:        bool(req.IsForRent),
		Attribution:      attr.TopN(s.topN),
	}, nil
}
