package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estimator/internal/api/middleware"
	"estimator/internal/artifacts"
	"estimator/internal/domain/forecast"
	"estimator/internal/domain/property"
	"estimator/internal/domain/trip"
	"estimator/internal/domain/yield"
	"estimator/internal/testsupport"
	"estimator/pkg/errors"
	"estimator/pkg/logger"
)

type mockProperty struct{ mock.Mock }

func (m *mockProperty) Predict(ctx context.Context, req property.Request) (*property.Valuation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Valuation), args.Error(1)
}

type mockForecaster struct{ mock.Mock }

func (m *mockForecaster) Forecast(ctx context.Context, req forecast.Request) (*forecast.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*forecast.Result), args.Error(1)
}

type mockTrip struct{ mock.Mock }

func (m *mockTrip) Predict(ctx context.Context, req trip.Request) (*trip.Prediction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trip.Prediction), args.Error(1)
}

type mockTea struct{ mock.Mock }

func (m *mockTea) Predict(ctx context.Context, req yield.Request) (*yield.Estimate, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*yield.Estimate), args.Error(1)
}

type fixture struct {
	property *mockProperty
	forecast *mockForecaster
	trip     *mockTrip
	tea      *mockTea
	handler  http.Handler
}

func newFixture(t *testing.T, catalog *Catalog) *fixture {
	t.Helper()
	f := &fixture{
		property: new(mockProperty),
		forecast: new(mockForecaster),
		trip:     new(mockTrip),
		tea:      new(mockTea),
	}
	h := New(Services{Property: f.property, Forecast: f.forecast, Trip: f.trip, Tea: f.tea},
		catalog, NewResponder(logger.Nop(), 1<<16))

	mux := http.NewServeMux()
	h.Register(mux)
	f.handler = middleware.RequestID()(mux)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHandlePropertyPredict(t *testing.T) {
	f := newFixture(t, nil)
	f.property.On("Predict", mock.Anything, mock.MatchedBy(func(r property.Request) bool {
		return r.Location == "Colombo" && r.LandSize != nil && *r.LandSize == 20
	})).Return(&property.Valuation{Price: 12500000, Formatted: "Rs 12,500,000", Location: "Colombo"}, nil)

	rec := f.do(http.MethodPost, "/v1/property/predict",
		`{"property_type":"Land","location":"Colombo","land_size":20,"is_for_rent":0}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got property.Valuation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Rs 12,500,000", got.Formatted)
	f.property.AssertExpectations(t)
}

func TestHandlePropertyForecast(t *testing.T) {
	f := newFixture(t, nil)
	f.forecast.On("Forecast", mock.Anything, forecast.Request{Location: "Kandy", PropertyType: "Land"}).
		Return(&forecast.Result{Location: "Kandy", GrowthPct: 7.3, Source: forecast.SourceCache}, nil)

	rec := f.do(http.MethodPost, "/v1/property/forecast", `{"location":"Kandy","property_type":"Land"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"cache"`)
}

func TestHandleTripAndTea(t *testing.T) {
	f := newFixture(t, nil)
	f.trip.On("Predict", mock.Anything, mock.Anything).
		Return(&trip.Prediction{Prediction: "On Time", ClassNames: []string{"On Time", "Slightly Delayed", "Heavily Delayed"}}, nil)
	f.tea.On("Predict", mock.Anything, mock.Anything).
		Return(&yield.Estimate{Yield: 2.65, Formatted: "2.650 MT/ha"}, nil)

	rec := f.do(http.MethodPost, "/v1/trip/predict", `{"route_no":"01","bus_type":"Normal"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"prediction":"On Time"`)

	rec = f.do(http.MethodPost, "/v1/tea/predict", `{"district":"Kandy"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"formatted":"2.650 MT/ha"`)
}

func TestHandle_DecodeFailures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"empty body", ``, "body"},
		{"malformed", `{"location":`, "body"},
		{"unknown field", `{"location":"Colombo","garage":true}`, "body"},
		{"trailing data", `{"location":"Colombo"} {}`, "body"},
		{"wrong type", `{"location":"Colombo","land_size":"big"}`, "land_size"},
		{"bad flag", `{"location":"Colombo","is_for_rent":"yes"}`, "is_for_rent"},
		{"too large", `{"location":"` + strings.Repeat("a", 1<<16) + `"}`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			rec := f.do(http.MethodPost, "/v1/property/predict", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, "invalid_input", env.Error.Kind)
			assert.Equal(t, tt.field, env.Error.Field)
			assert.Equal(t, "req-1", env.RequestID)
			f.property.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
		})
	}
}

func TestHandle_ServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{"invalid input", errors.NewValidationError("location", "unknown category", "Atlantis"), http.StatusBadRequest, "invalid_input", "unknown category"},
		{"not found", errors.Wrap(errors.ErrNotFound, "segment"), http.StatusNotFound, "not_found", "segment"},
		{"schema mismatch", errors.Wrap(errors.ErrSchemaMismatch, "row width 7"), http.StatusInternalServerError, "schema_mismatch", "could not be completed"},
		{"attribution", errors.ErrAttributionInconsistency, http.StatusInternalServerError, "attribution_inconsistency", "could not be completed"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal", "could not be completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.tea.On("Predict", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := f.do(http.MethodPost, "/v1/tea/predict", `{"district":"Kandy"}`)

			assert.Equal(t, tt.status, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, tt.kind, env.Error.Kind)
			assert.Contains(t, env.Error.Message, tt.message)
		})
	}
}

func TestHandle_MethodNotAllowed(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/v1/tea/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleCatalog(t *testing.T) {
	store, err := artifacts.Load(context.Background(), testsupport.WriteArtifacts(t), nil)
	require.NoError(t, err)

	f := newFixture(t, BuildCatalog(store))
	rec := f.do(http.MethodGet, "/v1/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got Catalog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"Colombo", "Dehiwala", "Galle", "Kandy", "Nugegoda"}, got.Locations)
	assert.Equal(t, []string{"Apartment", "House", "Land"}, got.PropertyTypes)
	assert.Len(t, got.Districts, 5)
	assert.Equal(t, []string{"Good", "Moderate", "Poor"}, got.Categories["drainage_quality"])
	assert.Equal(t, "Colombo", got.DefaultHub)
	require.Len(t, got.Routes, 5)
	assert.Equal(t, "01", got.Routes[0].RouteNo)
	assert.NotEmpty(t, got.Routes[0].Classes)
	assert.Equal(t, 17226, got.DatasetSize["property"])
	assert.Len(t, got.Models, 4)
}

func TestHandleCatalog_Empty(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/v1/catalog", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, StatusFor(errors.KindRateLimited))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(errors.KindUnavailable))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.KindArtifactLoadFailure))
}
