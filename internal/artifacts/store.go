// Package artifacts loads trained models and reference tables once at startup.
// A Store is immutable after Load and safe for concurrent readers.
package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"estimator/internal/domain/forecast"
	"estimator/internal/features"
	"estimator/internal/ml/gbdt"
	"estimator/pkg/errors"
	"estimator/pkg/logger"
)

// Artifact file layout relative to the artifacts directory
const (
	ManifestFile   = "manifest.json"
	EncodersFile   = "encoders.json"
	RoutesFile     = "reference/routes.json"
	CalendarFile   = "reference/calendar.json"
	IndicatorsFile = "reference/economic_indicators.csv"
	ForecastFile   = "reference/district_forecasts.json"
	CatalogFile    = "reference/catalog.json"
)

// Store holds every artifact for the process lifetime
type Store struct {
	dir        string
	models     map[string]*Model
	encoders   map[string]*features.Table
	routes     *features.Routes
	calendar   *features.Calendar
	indicators *features.IndicatorTable
	cache      *forecast.Cache
	catalog    *Catalog
}

// Summary counts what was loaded
type Summary struct {
	Models         int `json:"models"`
	Encoders       int `json:"encoders"`
	Routes         int `json:"routes"`
	IndicatorYears int `json:"indicator_years"`
	CachedSegments int `json:"cached_segments"`
}

// ModelInfo describes one loaded model
type ModelInfo struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Features  int    `json:"features"`
	Trees     int    `json:"trees"`
	Transform string `json:"target_transform"`
}

// Load parses every artifact under dir. Any missing or malformed file fails the whole load.
func Load(ctx context.Context, dir string, required []string) (*Store, error) {
	log := logger.Get().With("component", "artifacts", "dir", dir)

	s, err := load(ctx, dir, required, log)
	if err != nil {
		return nil, errors.Newf("%w: %w", errors.ErrArtifactLoad, err)
	}

	sum := s.Summary()
	log.Infow("Artifacts loaded",
		"models", sum.Models,
		"encoders", sum.Encoders,
		"routes", sum.Routes,
		"indicator_years", sum.IndicatorYears,
		"cached_segments", sum.CachedSegments,
	)
	return s, nil
}

func load(ctx context.Context, dir string, required []string, log *logger.Logger) (*Store, error) {
	path := func(rel string) string { return filepath.Join(dir, filepath.FromSlash(rel)) }

	var manifest manifestFile
	if err := readJSON(path(ManifestFile), &manifest); err != nil {
		return nil, errors.Wrap(err, "manifest")
	}
	names := make([]string, 0, len(manifest.Models))
	for name := range manifest.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	// Manifest and encoder problems are reported together so one load shows every broken entry
	var problems errors.MultiError
	for _, name := range required {
		if _, ok := manifest.Models[name]; !ok {
			problems.Add(errors.Newf("required model %q not in manifest", name))
		}
	}
	for _, name := range names {
		problems.Add(manifest.Models[name].validate(name))
	}

	var rawEncoders map[string]map[string]int
	if err := readJSON(path(EncodersFile), &rawEncoders); err != nil {
		problems.Add(errors.Wrap(err, "encoders"))
	}
	encoders := make(map[string]*features.Table, len(rawEncoders))
	for name, codes := range rawEncoders {
		t, err := features.NewTable(name, codes)
		if err != nil {
			problems.Add(err)
			continue
		}
		encoders[name] = t
	}
	if err := problems.ToError(); err != nil {
		return nil, err
	}

	s := &Store{dir: dir, encoders: encoders, models: make(map[string]*Model, len(manifest.Models))}

	trees := make([]*gbdt.Model, len(names))

	g, gctx := errgroup.WithContext(ctx)

	for i, name := range names {
		file := path(manifest.Models[name].File)
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			m, err := gbdt.Load(file)
			if err != nil {
				return err
			}
			trees[i] = m
			logFile(log, file, "model", name)
			return nil
		})
	}

	g.Go(func() (err error) {
		s.routes, err = loadRoutes(path(RoutesFile))
		return errors.Wrap(err, "routes")
	})
	g.Go(func() (err error) {
		s.calendar, err = loadCalendar(path(CalendarFile))
		return errors.Wrap(err, "calendar")
	})
	g.Go(func() (err error) {
		s.indicators, err = loadIndicators(path(IndicatorsFile))
		return errors.Wrap(err, "economic indicators")
	})
	g.Go(func() (err error) {
		s.cache, err = loadForecastCache(path(ForecastFile))
		return errors.Wrap(err, "forecast cache")
	})
	g.Go(func() (err error) {
		s.catalog, err = loadCatalog(path(CatalogFile))
		return errors.Wrap(err, "catalog")
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, name := range names {
		m, err := manifest.Models[name].bind(name, trees[i], encoders)
		if err != nil {
			problems.Add(err)
			continue
		}
		s.models[name] = m
	}
	if err := problems.ToError(); err != nil {
		return nil, err
	}

	return s, nil
}

func logFile(log *logger.Logger, file, kind, name string) {
	info, err := os.Stat(file)
	if err != nil {
		return
	}
	log.Debugw("Artifact parsed", "kind", kind, "name", name, "size", humanize.Bytes(uint64(info.Size())))
}

// Dir returns the directory the store was loaded from
func (s *Store) Dir() string {
	return s.dir
}

// Model returns a loaded model by name
func (s *Store) Model(name string) (*Model, error) {
	m, ok := s.models[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "model %q", name)
	}
	return m, nil
}

// Encoder returns an encoder table by name
func (s *Store) Encoder(name string) (*features.Table, error) {
	t, ok := s.encoders[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "encoder %q", name)
	}
	return t, nil
}

// Encoders returns every encoder table name, sorted
func (s *Store) Encoders() []string {
	out := make([]string, 0, len(s.encoders))
	for name := range s.encoders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Schema returns the feature schema of a model
func (s *Store) Schema(model string) (features.Schema, error) {
	m, err := s.Model(model)
	if err != nil {
		return features.Schema{}, err
	}
	return m.Schema, nil
}

// Routes returns the route reference table
func (s *Store) Routes() *features.Routes {
	return s.routes
}

// Calendar returns holiday, poya and festival data
func (s *Store) Calendar() *features.Calendar {
	return s.calendar
}

// Indicators returns the yearly macroeconomic table
func (s *Store) Indicators() *features.IndicatorTable {
	return s.indicators
}

// ForecastCache returns the precomputed segment forecasts
func (s *Store) ForecastCache() *forecast.Cache {
	return s.cache
}

// Catalog returns static metadata. Empty when catalog.json is absent.
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Models describes every loaded model, sorted by name
func (s *Store) Models() []ModelInfo {
	out := make([]ModelInfo, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, ModelInfo{
			Name:      m.Name,
			Kind:      m.Kind().String(),
			Features:  m.Schema.Len(),
			Trees:     len(m.Trees.Trees),
			Transform: m.Transform.String(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Summary counts loaded artifacts
func (s *Store) Summary() Summary {
	return Summary{
		Models:         len(s.models),
		Encoders:       len(s.encoders),
		Routes:         s.routes.Len(),
		IndicatorYears: len(s.indicators.Years()),
		CachedSegments: s.cache.Len(),
	}
}
