package api

import (
	"context"
	"fmt"
	"net/http"

	"estimator/internal/adapters/config"
	"estimator/internal/adapters/ratelimit"
	"estimator/internal/api/handlers"
	"estimator/internal/api/health"
	"estimator/internal/api/middleware"
	"estimator/internal/metrics"
	"estimator/pkg/errors"
	"estimator/pkg/logger"
)

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	HTTP        config.HTTPConfig
	ServiceName string
	Version     string
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures HTTP server with all routes
func NewServer(cfg ServerConfig, api *handlers.Handler, healthHandler *health.Handler, respond *handlers.Responder, log *logger.Logger) *Server {
	port := 8080
	if cfg.HTTP.Port > 0 {
		port = cfg.HTTP.Port
	}

	log.Infof("HTTP server configured on port %d", port)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      NewRouter(cfg, api, healthHandler, respond, log),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		},
		log: log,
	}
}

// Handler returns the routed middleware stack
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// NewRouter mounts every route behind the middleware stack
func NewRouter(cfg ServerConfig, api *handlers.Handler, healthHandler *health.Handler, respond *handlers.Responder, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints (Kubernetes probes)
	mux.HandleFunc("GET /health", healthHandler.HandleHealth)
	mux.HandleFunc("GET /ready", healthHandler.HandleReadiness)
	mux.HandleFunc("GET /live", healthHandler.HandleLiveness)

	// Prometheus metrics endpoint
	mux.Handle("GET /metrics", metrics.Handler())

	api.Register(mux)

	// Root endpoint (service info)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{
			"service": cfg.ServiceName,
			"version": cfg.Version,
			"status":  "running",
		})
	})

	var limiter *ratelimit.KeyedLimiter
	if cfg.HTTP.RateLimitPerMinute > 0 {
		limiter = ratelimit.NewKeyedLimiter("http", cfg.HTTP.RateLimitPerMinute)
	}

	stack := middleware.New()
	stack.Use(middleware.RequestID())
	stack.Use(middleware.Recovery(log, respond.Error))
	stack.Use(middleware.Logger(log))
	stack.Use(middleware.Metrics())
	stack.Use(middleware.CORS(cfg.HTTP.CORSOrigins))
	stack.Use(middleware.RateLimit(limiter, respond.Error))

	return stack.Apply(mux)
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("HTTP server stopped")
	return nil
}
