package bootstrap

import (
	"context"
	"time"

	"estimator/internal/adapters/config"
	redisclient "estimator/internal/adapters/redis"
	"estimator/internal/api"
	"estimator/internal/artifacts"
	"estimator/internal/services/forecast"
	"estimator/internal/services/trip"
	"estimator/internal/services/valuation"
	"estimator/internal/services/yield"
	"estimator/pkg/errors"
	"estimator/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (artifacts and the optional forecast memo)
	Store    *artifacts.Store
	LoadedAt time.Time
	Redis    *redisclient.Client // set whenever REDIS_ENABLED, reachable or not
	MemoOn   bool                // Redis answered at startup

	// Domain Layer - Services
	Services *Services

	// Application Layer
	HTTPServer *api.Server

	// Lifecycle management
	Lifecycle *Lifecycle
	Context   context.Context
	Cancel    context.CancelFunc
}

// Services groups the four prediction verticals
type Services struct {
	Valuation *valuation.Service
	Forecast  *forecast.Composer
	Trip      *trip.Service
	Tea       *yield.Service
}

// NewContainer creates an empty container with a cancellable root context
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		Lifecycle: NewLifecycle(),
		Context:   ctx,
		Cancel:    cancel,
	}
}

// MustInit runs every initialization phase in order. Any failure is fatal.
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitServices()
	c.MustInitApplication()
}

// Start launches the HTTP server in the background. Server failures cancel the root context.
func (c *Container) Start() {
	go func() {
		if err := c.HTTPServer.Start(); err != nil {
			c.Log.Errorw("HTTP server failed", "error", err)
			c.Cancel()
		}
	}()
	c.Log.Infow("Estimator ready",
		"port", c.Config.HTTP.Port,
		"models", c.Store.Summary().Models,
		"redis", c.Redis != nil,
		"memo", c.MemoOn,
	)
}

// Shutdown stops every component in reverse dependency order
func (c *Container) Shutdown() {
	c.Cancel()
	c.Lifecycle.Shutdown(c.HTTPServer, c.Redis, c.ErrorTracker, c.Config.HTTP.ShutdownTimeout, c.Log)
}
