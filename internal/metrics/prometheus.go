package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Prediction metrics
	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimator_predictions_total",
			Help: "Total number of predictions per vertical",
		},
		[]string{"vertical", "status"}, // status: success|<error kind>
	)

	PredictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estimator_prediction_duration_seconds",
			Help:    "Encode, infer and attribute duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
		},
		[]string{"vertical"},
	)

	ForecastSource = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimator_forecast_source_total",
			Help: "Forecasts served per source",
		},
		[]string{"source"}, // source: cache|live|memo
	)

	Fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimator_fallback_total",
			Help: "Categorical values encoded through a fallback policy",
		},
		[]string{"table"},
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimator_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estimator_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

var initOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(Predictions)
		prometheus.MustRegister(PredictionDuration)
		prometheus.MustRegister(ForecastSource)
		prometheus.MustRegister(Fallbacks)

		prometheus.MustRegister(HTTPRequests)
		prometheus.MustRegister(HTTPDuration)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPrediction records one vertical request. kind is empty on success.
func RecordPrediction(vertical string, duration time.Duration, kind string) {
	status := "success"
	if kind != "" {
		status = kind
	}

	Predictions.WithLabelValues(vertical, status).Inc()
	PredictionDuration.WithLabelValues(vertical).Observe(duration.Seconds())
}

// RecordForecastSource counts where a forecast came from
func RecordForecastSource(source string) {
	ForecastSource.WithLabelValues(source).Inc()
}

// RecordFallbacks counts every fallback table hit by one request
func RecordFallbacks(tables []string) {
	for _, t := range tables {
		Fallbacks.WithLabelValues(t).Inc()
	}
}

// RecordHTTPRequest records a served request
func RecordHTTPRequest(route string, code int, duration time.Duration) {
	HTTPRequests.WithLabelValues(route, statusText(code)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	}
	return "2xx"
}
