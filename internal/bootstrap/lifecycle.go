package bootstrap

import (
	"context"
	"time"

	redisclient "estimator/internal/adapters/redis"
	"estimator/internal/api"
	"estimator/pkg/errors"
	"estimator/pkg/logger"
)

// Lifecycle manages graceful startup and shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 30 * time.Second,
	}
}

// Shutdown performs coordinated cleanup of all components in order:
// 1. Stop accepting requests and drain in-flight ones
// 2. Flush the error tracker
// 3. Sync logs
// 4. Close Redis last, draining requests may still hit the memo
func (l *Lifecycle) Shutdown(
	httpServer *api.Server,
	redisClient *redisclient.Client,
	errorTracker errors.Tracker,
	httpTimeout time.Duration,
	log *logger.Logger,
) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	log.Info("[1/4] Stopping HTTP server...")
	if httpServer != nil {
		if httpTimeout <= 0 {
			httpTimeout = 10 * time.Second
		}
		httpCtx, httpCancel := context.WithTimeout(shutdownCtx, httpTimeout)
		if err := httpServer.Shutdown(httpCtx); err != nil {
			log.Errorw("HTTP server shutdown failed", "error", err)
		}
		httpCancel()
	}

	log.Info("[2/4] Flushing error tracker...")
	l.flushErrorTracker(shutdownCtx, errorTracker, log)

	log.Info("[3/4] Syncing logs...")
	// stderr sync returns EINVAL on some platforms
	_ = logger.Sync()

	log.Info("[4/4] Closing Redis...")
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Errorw("Redis close failed", "error", err)
		}
	}

	log.Info("Graceful shutdown complete")
}

// flushErrorTracker flushes the error tracker (Sentry, etc.)
func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Warnw("Error tracker flush failed", "error", err)
	}
}
