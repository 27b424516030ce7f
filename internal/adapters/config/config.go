package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"estimator/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Artifacts     ArtifactsConfig
	Forecast      ForecastConfig
	Attribution   AttributionConfig
	Redis         RedisConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"estimator"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

type HTTPConfig struct {
	Port               int           `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout        time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout       time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout        time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout    time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxBodyBytes       int64         `envconfig:"HTTP_MAX_BODY_BYTES" default:"65536"`
	CORSOrigins        []string      `envconfig:"CORS_ORIGINS" default:"*"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"0"` // 0 disables
}

type ArtifactsConfig struct {
	Dir            string   `envconfig:"ARTIFACTS_DIR" default:"./artifacts"`
	RequiredModels []string `envconfig:"ARTIFACTS_REQUIRED_MODELS" default:"property,forecast,trip_delay,tea_yield"`
}

type ForecastConfig struct {
	BaseYear          int     `envconfig:"FORECAST_BASE_YEAR" default:"2026"`
	HorizonYear       int     `envconfig:"FORECAST_HORIZON_YEAR" default:"2030"`
	Years             []int   `envconfig:"FORECAST_YEARS" default:"2026,2027,2028,2029,2030"`
	Month             int     `envconfig:"FORECAST_MONTH" default:"6"`
	StrongGrowthPct   float64 `envconfig:"FORECAST_STRONG_GROWTH_PCT" default:"20"`
	ModerateGrowthPct float64 `envconfig:"FORECAST_MODERATE_GROWTH_PCT" default:"10"`
}

// Validate checks cross-field constraints envconfig cannot express
func (c ForecastConfig) Validate() error {
	if c.HorizonYear <= c.BaseYear {
		return errors.Newf("forecast horizon %d must be after base year %d", c.HorizonYear, c.BaseYear)
	}
	if c.Month < 1 || c.Month > 12 {
		return errors.Newf("forecast month %d out of range", c.Month)
	}
	if c.StrongGrowthPct < c.ModerateGrowthPct {
		return errors.New("strong growth threshold below moderate threshold")
	}
	seen := map[int]bool{}
	for _, y := range c.Years {
		seen[y] = true
	}
	if !seen[c.BaseYear] || !seen[c.HorizonYear] {
		return errors.New("forecast years must include base and horizon year")
	}
	return nil
}

type AttributionConfig struct {
	TopN      int     `envconfig:"ATTRIBUTION_TOP_N" default:"0"` // 0 returns every feature
	Tolerance float64 `envconfig:"ATTRIBUTION_TOLERANCE" default:"0.001"`
}

type RedisConfig struct {
	Enabled     bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host        string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port        int           `envconfig:"REDIS_PORT" default:"6379"`
	Password    string        `envconfig:"REDIS_PASSWORD"`
	DB          int           `envconfig:"REDIS_DB" default:"0"`
	ForecastTTL time.Duration `envconfig:"REDIS_FORECAST_TTL" default:"1h"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}
	if err := cfg.Forecast.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid forecast config")
	}

	return &cfg, nil
}
