package bootstrap

import (
	"context"
	"time"

	"estimator/internal/adapters/config"
	errnoop "estimator/internal/adapters/errors/noop"
	"estimator/internal/adapters/errors/sentry"
	redisclient "estimator/internal/adapters/redis"
	"estimator/internal/api"
	"estimator/internal/api/handlers"
	"estimator/internal/api/health"
	"estimator/internal/artifacts"
	"estimator/internal/features"
	"estimator/internal/metrics"
	"estimator/internal/services/forecast"
	"estimator/internal/services/inference"
	"estimator/internal/services/trip"
	"estimator/internal/services/valuation"
	"estimator/internal/services/yield"
	"estimator/pkg/errors"
	"estimator/pkg/logger"
)

// Model names expected in the manifest
const (
	ModelProperty = "property"
	ModelForecast = "forecast"
	ModelTrip     = "trip_delay"
	ModelTea      = "tea_yield"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure loads artifacts and connects the optional Redis memo
func (c *Container) MustInitInfrastructure() {
	var err error

	c.Log.Infow("Loading artifacts...", "dir", c.Config.Artifacts.Dir)
	c.Store, err = artifacts.Load(c.Context, c.Config.Artifacts.Dir, c.Config.Artifacts.RequiredModels)
	if err != nil {
		c.Log.Fatalf("failed to load artifacts: %v", err)
	}
	c.LoadedAt = time.Now()

	sum := c.Store.Summary()
	c.ErrorTracker.AddBreadcrumb(c.Context, "artifacts loaded", "startup", errors.LevelInfo, map[string]interface{}{
		"dir":      c.Config.Artifacts.Dir,
		"models":   sum.Models,
		"encoders": sum.Encoders,
	})

	c.Redis, c.MemoOn = provideRedis(c.Context, c.Config.Redis, c.ErrorTracker, c.Log)
}

// ========================================
// Phase 3: Services
// ========================================

// MustInitServices binds every vertical to its model
func (c *Container) MustInitServices() {
	var memo forecast.Memo
	if c.MemoOn {
		memo = redisclient.NewForecastMemo(c.Redis, c.Config.Redis.ForecastTTL)
	}

	services, err := NewServices(c.Config, c.Store, memo, c.Log)
	if err != nil {
		c.Log.Fatalf("failed to init services: %v", err)
	}
	c.Services = services
	c.Log.Info("Services initialized")
}

// ========================================
// Phase 4: Application Layer
// ========================================

// MustInitApplication registers metrics and builds the HTTP server
func (c *Container) MustInitApplication() {
	metrics.Init()

	var pinger metrics.Pinger
	if c.Redis != nil {
		pinger = c.Redis
	}
	collector := metrics.NewArtifactCollector(c.Log, c.Store, pinger, c.LoadedAt)
	if err := metrics.RegisterArtifactCollector(collector); err != nil {
		c.Log.Warnw("Artifact collector not registered", "error", err)
	}

	c.HTTPServer = provideHTTPServer(c.Config, c.Store, c.Services, c.Redis, c.Log)
}

// NewServices builds the four verticals from a loaded store. memo may be nil.
func NewServices(cfg *config.Config, store *artifacts.Store, memo forecast.Memo, log *logger.Logger) (*Services, error) {
	model := func(name string) (*artifacts.Model, error) {
		m, err := store.Model(name)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrArtifactLoad, "model %s: %v", name, err)
		}
		return m, nil
	}
	tol, topN := cfg.Attribution.Tolerance, cfg.Attribution.TopN

	propertyModel, err := model(ModelProperty)
	if err != nil {
		return nil, err
	}
	valuationSvc, err := valuation.NewService(propertyModel, tol, topN, log)
	if err != nil {
		return nil, errors.Wrap(err, "valuation service")
	}

	forecastModel, err := model(ModelForecast)
	if err != nil {
		return nil, err
	}
	composer, err := provideComposer(cfg.Forecast, store, forecastModel, memo)
	if err != nil {
		return nil, errors.Wrap(err, "forecast composer")
	}

	tripModel, err := model(ModelTrip)
	if err != nil {
		return nil, err
	}
	tripSvc, err := trip.NewService(tripModel, store.Routes(), store.Calendar(), tol, topN, log)
	if err != nil {
		return nil, errors.Wrap(err, "trip service")
	}

	teaModel, err := model(ModelTea)
	if err != nil {
		return nil, err
	}
	teaSvc, err := yield.NewService(teaModel, tol, topN, log)
	if err != nil {
		return nil, errors.Wrap(err, "tea service")
	}

	return &Services{
		Valuation: valuationSvc,
		Forecast:  composer,
		Trip:      tripSvc,
		Tea:       teaSvc,
	}, nil
}

func provideComposer(cfg config.ForecastConfig, store *artifacts.Store, model *artifacts.Model, memo forecast.Memo) (*forecast.Composer, error) {
	encoder, err := features.NewForecastEncoder(model.Schema)
	if err != nil {
		return nil, err
	}
	engine, err := inference.NewEngine(model)
	if err != nil {
		return nil, err
	}
	return forecast.NewComposer(cfg, forecast.Deps{
		Resolver:   encoder,
		Encoder:    encoder,
		Indicators: store.Indicators(),
		Cache:      store.ForecastCache(),
		Predictor:  engine,
		Memo:       memo,
	})
}

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// provideRedis connects when enabled. An unreachable Redis only disables the memo; the
// client is still returned so health checks keep reporting it.
func provideRedis(ctx context.Context, cfg config.RedisConfig, tracker errors.Tracker, log *logger.Logger) (*redisclient.Client, bool) {
	if !cfg.Enabled {
		log.Info("Redis forecast memo disabled")
		return nil, false
	}

	client, err := redisclient.NewClient(ctx, cfg)
	if err != nil {
		log.Warnw("Redis unavailable, forecast memo disabled", "addr", cfg.Addr(), "error", err)
		_ = tracker.CaptureMessage(ctx, "redis unavailable at startup", errors.LevelWarning, map[string]string{
			"component": "redis",
			"addr":      cfg.Addr(),
		})
		return redisclient.New(cfg), false
	}

	log.Infow("Redis connected", "addr", cfg.Addr(), "ttl", cfg.ForecastTTL)
	return client, true
}

func provideHTTPServer(cfg *config.Config, store *artifacts.Store, services *Services, redis *redisclient.Client, log *logger.Logger) *api.Server {
	respond := handlers.NewResponder(log, cfg.HTTP.MaxBodyBytes)
	apiHandler := handlers.New(handlers.Services{
		Property: services.Valuation,
		Forecast: services.Forecast,
		Trip:     services.Trip,
		Tea:      services.Tea,
	}, handlers.BuildCatalog(store), respond)

	var pinger health.Pinger
	if redis != nil {
		pinger = redis
	}
	healthHandler := health.New(log, store, pinger, cfg.App.Name, cfg.App.Version)

	return api.NewServer(api.ServerConfig{
		HTTP:        cfg.HTTP,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	}, apiHandler, healthHandler, respond, log)
}
