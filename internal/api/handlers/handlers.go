package handlers

import (
	"context"
	"net/http"

	"estimator/internal/domain/forecast"
	"estimator/internal/domain/property"
	"estimator/internal/domain/trip"
	"estimator/internal/domain/yield"
)

// PropertyPredictor values one listing
type PropertyPredictor interface {
	Predict(ctx context.Context, req property.Request) (*property.Valuation, error)
}

// Forecaster produces a multi-year price path
type Forecaster interface {
	Forecast(ctx context.Context, req forecast.Request) (*forecast.Result, error)
}

// TripPredictor classifies a departure's delay
type TripPredictor interface {
	Predict(ctx context.Context, req trip.Request) (*trip.Prediction, error)
}

// TeaPredictor estimates plantation yield
type TeaPredictor interface {
	Predict(ctx context.Context, req yield.Request) (*yield.Estimate, error)
}

// Services groups the vertical services behind the API
type Services struct {
	Property PropertyPredictor
	Forecast Forecaster
	Trip     TripPredictor
	Tea      TeaPredictor
}

// Handler serves the prediction endpoints
type Handler struct {
	services Services
	catalog  *Catalog
	respond  *Responder
}

// New creates the prediction handler. catalog may be nil.
func New(services Services, catalog *Catalog, respond *Responder) *Handler {
	return &Handler{services: services, catalog: catalog, respond: respond}
}

// Register mounts every endpoint on mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/property/predict", h.HandlePropertyPredict)
	mux.HandleFunc("POST /v1/property/forecast", h.HandlePropertyForecast)
	mux.HandleFunc("POST /v1/trip/predict", h.HandleTripPredict)
	mux.HandleFunc("POST /v1/tea/predict", h.HandleTeaPredict)
	mux.HandleFunc("GET /v1/catalog", h.HandleCatalog)
}

// HandlePropertyPredict values a listing
func (h *Handler) HandlePropertyPredict(w http.ResponseWriter, r *http.Request) {
	var req property.Request
	serve(h.respond, w, r, &req, func(ctx context.Context) (interface{}, error) {
		return h.services.Property.Predict(ctx, req)
	})
}

// HandlePropertyForecast returns the price path of a segment
func (h *Handler) HandlePropertyForecast(w http.ResponseWriter, r *http.Request) {
	var req forecast.Request
	serve(h.respond, w, r, &req, func(ctx context.Context) (interface{}, error) {
		return h.services.Forecast.Forecast(ctx, req)
	})
}

// HandleTripPredict classifies a departure
func (h *Handler) HandleTripPredict(w http.ResponseWriter, r *http.Request) {
	var req trip.Request
	serve(h.respond, w, r, &req, func(ctx context.Context) (interface{}, error) {
		return h.services.Trip.Predict(ctx, req)
	})
}

// HandleTeaPredict estimates yield
func (h *Handler) HandleTeaPredict(w http.ResponseWriter, r *http.Request) {
	var req yield.Request
	serve(h.respond, w, r, &req, func(ctx context.Context) (interface{}, error) {
		return h.services.Tea.Predict(ctx, req)
	})
}

// HandleCatalog lists known categories, routes and model metadata
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		h.respond.JSON(w, http.StatusOK, &Catalog{})
		return
	}
	h.respond.JSON(w, http.StatusOK, h.catalog)
}

// serve decodes into req, runs the call and writes either its result or the error envelope
func serve(rs *Responder, w http.ResponseWriter, r *http.Request, req interface{}, call func(context.Context) (interface{}, error)) {
	if err := rs.Decode(w, r, req); err != nil {
		rs.Error(w, r, err)
		return
	}

	out, err := call(r.Context())
	if err != nil {
		rs.Error(w, r, err)
		return
	}
	rs.JSON(w, http.StatusOK, out)
}
