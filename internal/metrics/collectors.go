package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"estimator/internal/artifacts"
	"estimator/pkg/logger"
)

// ArtifactSource is what the collector reads on every scrape
type ArtifactSource interface {
	Summary() artifacts.Summary
	Models() []artifacts.ModelInfo
}

// Pinger reports whether an optional dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// ArtifactCollector exports the loaded artifact store (and redis reachability) as gauges
type ArtifactCollector struct {
	log    *logger.Logger
	store  ArtifactSource
	redis  Pinger
	loaded time.Time

	// Descriptors
	artifacts   *prometheus.Desc
	modelTrees  *prometheus.Desc
	modelInputs *prometheus.Desc
	loadedAt    *prometheus.Desc
	redisUp     *prometheus.Desc
}

// NewArtifactCollector creates a collector. redis may be nil when the memo is disabled.
func NewArtifactCollector(log *logger.Logger, store ArtifactSource, redis Pinger, loaded time.Time) *ArtifactCollector {
	return &ArtifactCollector{
		log:    log,
		store:  store,
		redis:  redis,
		loaded: loaded,

		artifacts: prometheus.NewDesc(
			"estimator_artifacts",
			"Loaded artifacts by type",
			[]string{"type"}, // type: models|encoders|routes|indicator_years|cached_segments
			nil,
		),
		modelTrees: prometheus.NewDesc(
			"estimator_model_trees",
			"Trees in each loaded model",
			[]string{"model", "kind"}, nil,
		),
		modelInputs: prometheus.NewDesc(
			"estimator_model_features",
			"Feature schema width of each loaded model",
			[]string{"model"}, nil,
		),
		loadedAt: prometheus.NewDesc(
			"estimator_artifacts_loaded_timestamp",
			"Unix timestamp of the artifact load",
			nil, nil,
		),
		redisUp: prometheus.NewDesc(
			"estimator_redis_up",
			"Forecast memo reachability (1=up)",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *ArtifactCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.artifacts
	ch <- c.modelTrees
	ch <- c.modelInputs
	ch <- c.loadedAt
	ch <- c.redisUp
}

// Collect implements prometheus.Collector
func (c *ArtifactCollector) Collect(ch chan<- prometheus.Metric) {
	sum := c.store.Summary()
	for typ, n := range map[string]int{
		"models":          sum.Models,
		"encoders":        sum.Encoders,
		"routes":          sum.Routes,
		"indicator_years": sum.IndicatorYears,
		"cached_segments": sum.CachedSegments,
	} {
		ch <- prometheus.MustNewConstMetric(c.artifacts, prometheus.GaugeValue, float64(n), typ)
	}

	for _, m := range c.store.Models() {
		ch <- prometheus.MustNewConstMetric(c.modelTrees, prometheus.GaugeValue, float64(m.Trees), m.Name, m.Kind)
		ch <- prometheus.MustNewConstMetric(c.modelInputs, prometheus.GaugeValue, float64(m.Features), m.Name)
	}

	ch <- prometheus.MustNewConstMetric(c.loadedAt, prometheus.GaugeValue, float64(c.loaded.Unix()))

	if c.redis != nil {
		c.collectRedis(ch)
	}
}

func (c *ArtifactCollector) collectRedis(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	up := 1.0
	if err := c.redis.Ping(ctx); err != nil {
		c.log.Warnw("Redis ping failed during scrape", "error", err)
		up = 0
	}
	ch <- prometheus.MustNewConstMetric(c.redisUp, prometheus.GaugeValue, up)
}

// RegisterArtifactCollector registers the collector with the default registry
func RegisterArtifactCollector(collector *ArtifactCollector) error {
	return prometheus.Register(collector)
}
