package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"estimator/internal/artifacts"
	"estimator/pkg/logger"
)

// ArtifactSource reports what the artifact store loaded
type ArtifactSource interface {
	Summary() artifacts.Summary
	Models() []artifacts.ModelInfo
}

// Pinger checks an optional dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	store       ArtifactSource
	redis       Pinger
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler. redis may be nil when the forecast memo is disabled.
func New(log *logger.Logger, store ArtifactSource, redis Pinger, serviceName, version string) *Handler {
	return &Handler{
		log:         log,
		store:       store,
		redis:       redis,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "ok", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Models    []ModelHealth              `json:"models"`
	Artifacts *artifacts.Summary         `json:"artifacts,omitempty"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ModelHealth names one loaded model and its feature count
type ModelHealth struct {
	Name     string `json:"name"`
	Features int    `json:"features"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
// Used by Kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReadiness reports whether artifacts are loaded and Redis, when enabled, answers.
// Used by Kubernetes readiness probe
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := h.checks(ctx)
	summary := h.store.Summary()
	status := h.status(checks)
	status.Artifacts = &summary

	statusCode := http.StatusOK
	for _, c := range checks {
		if c.Status != "healthy" {
			status.Status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
			h.log.Warnw("Readiness check failed", "checks", checks)
			break
		}
	}

	writeJSON(w, statusCode, status)
}

// HandleHealth returns the loaded models and dependency checks. A failing optional
// dependency only degrades the service, since the memo is a cache.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks := h.checks(ctx)
	status := h.status(checks)

	statusCode := http.StatusOK
	if checks["artifacts"].Status != "healthy" {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else if len(checks) > 1 && checks["redis"].Status != "healthy" {
		status.Status = "degraded"
	}

	writeJSON(w, statusCode, status)
}

func (h *Handler) status(checks map[string]ComponentHealth) HealthStatus {
	models := h.store.Models()
	out := make([]ModelHealth, 0, len(models))
	for _, m := range models {
		out = append(out, ModelHealth{Name: m.Name, Features: m.Features})
	}

	return HealthStatus{
		Status:    "ok",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Models:    out,
		Checks:    checks,
	}
}

func (h *Handler) checks(ctx context.Context) map[string]ComponentHealth {
	checks := map[string]ComponentHealth{"artifacts": h.checkArtifacts()}
	if h.redis != nil {
		checks["redis"] = h.checkRedis(ctx)
	}
	return checks
}

// checkArtifacts verifies at least one model is loaded
func (h *Handler) checkArtifacts() ComponentHealth {
	if h.store.Summary().Models == 0 {
		return ComponentHealth{Status: "unhealthy", Error: "no models loaded"}
	}
	return ComponentHealth{Status: "healthy"}
}

// checkRedis verifies Redis connectivity
func (h *Handler) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()
	err := h.redis.Ping(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Warnw("Redis health check failed", "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}

	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
