// Package trip classifies the delay band of an intercity bus departure.
package trip

import (
	"context"
	"time"

	"estimator/internal/artifacts"
	"estimator/internal/domain/trip"
	"estimator/internal/features"
	"estimator/internal/metrics"
	"estimator/internal/services/attribution"
	"estimator/internal/services/inference"
	"estimator/pkg/errors"
	"estimator/pkg/logger"
)

// Service runs encode, classify and attribute for trip delay
type Service struct {
	encoder   *features.TripEncoder
	engine    *inference.Engine
	explainer *attribution.Explainer
	topN      int
	log       *logger.Logger
}

// NewService binds the trip delay model to the route and calendar tables
func NewService(model *artifacts.Model, routes *features.Routes, calendar *features.Calendar,
	tolerance float64, topN int, log *logger.Logger) (*Service, error) {
	for _, name := range model.ClassNames {
		if !trip.DelayClass(name).Valid() {
			return nil, errors.Wrapf(errors.ErrSchemaMismatch, "trip model class %q", name)
		}
	}

	encoder, err := features.NewTripEncoder(model.Schema, routes, calendar)
	if err != nil {
		return nil, errors.Wrap(err, "trip encoder")
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
		log:       log.With("component", "trip"),
	}, nil
}

// Predict classifies one departure and explains the predicted class
func (s *Service) Predict(ctx context.Context, req trip.Request) (res *trip.Prediction, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordPrediction("trip", time.Since(start), errors.KindOf(err).String())
	}()

	enc, err := s.encoder.Encode(req)
	if err != nil {
		return nil, err
	}
	metrics.RecordFallbacks(enc.Fallbacks)

	c, err := s.engine.Classify(enc.Row)
	if err != nil {
		return nil, err
	}
	attr, err := s.explainer.Explain(enc.Row, c.Index, c.Raw[min(c.Index, len(c.Raw)-1)])
	if err != nil {
		return nil, err
	}

	s.log.Debugw("Trip classified",
		"route_no", req.RouteNo,
		"class", c.Label,
		"festival", enc.Flags.FestivalName,
	)

	return &trip.Prediction{
		Prediction:    c.Label,
		ClassIndex:    c.Index,
		Probabilities: c.Probabilities,
		ClassNames:    s.engine.Model().ClassNames,
		Attribution:   attr.TopN(s.topN),
		Meta: trip.Meta{
			IsWeekend:            enc.Flags.Weekend,
			IsPoya:               enc.Flags.PoyaDay,
			IsHoliday:            enc.Flags.PublicHoliday,
			IsFestival:           enc.Flags.Festival,
			FestivalName:         enc.Flags.FestivalName,
			TimeSlot:             enc.TimeSlot,
			ScheduledDurationMin: enc.ScheduledDuration,
		},
	}, nil
}
