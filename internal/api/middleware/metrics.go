package middleware

import (
	"net/http"
	"time"

	"estimator/internal/metrics"
)

// Metrics records request counts and latency labelled by the matched route pattern
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrap(w)

			next.ServeHTTP(sw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordHTTPRequest(route, sw.code(), time.Since(start))
		})
	}
}
