package middleware

import (
	"net/http"
	"runtime/debug"

	"estimator/pkg/errors"
	"estimator/pkg/logger"
)

// Recovery turns a handler panic into an internal error response
func Recovery(log *logger.Logger, onPanic func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := errors.Newf("%w: panic: %v", errors.ErrInternal, rec)
					log.Errorw("Handler panicked",
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", RequestIDFrom(r.Context()),
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					onPanic(w, r, err)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
