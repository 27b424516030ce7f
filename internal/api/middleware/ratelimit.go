package middleware

import (
	"net"
	"net/http"

	"estimator/internal/adapters/ratelimit"
	"estimator/pkg/errors"
)

// RateLimit rejects callers that exhaust their per-address bucket. A nil limiter disables it.
func RateLimit(limiter *ratelimit.KeyedLimiter, onLimited func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientAddr(r)) {
				onLimited(w, r, errors.Wrapf(errors.ErrRateLimited, "too many requests from %s", clientAddr(r)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
