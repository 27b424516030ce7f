// estimate runs single requests through the prediction services without the HTTP server.
//
// Usage:
//
//	estimate validate --artifacts ./artifacts
//	estimate property --request listing.json
//	echo '{"district":"Kandy",...}' | estimate tea
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"estimator/internal/adapters/config"
	"estimator/internal/artifacts"
	"estimator/internal/bootstrap"
	"estimator/internal/domain/forecast"
	"estimator/internal/domain/property"
	"estimator/internal/domain/trip"
	"estimator/internal/domain/yield"
	"estimator/pkg/errors"
	"estimator/pkg/logger"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if kind := errors.KindOf(err); kind != errors.KindInternal {
			fmt.Fprintf(os.Stderr, "Kind: %s\n", kind)
		}
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "estimate",
		Usage:   "Run property, forecast, trip and tea predictions from the command line",
		Version: version,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "artifacts",
				Aliases: []string{"a"},
				Value:   "./artifacts",
				Usage:   "Artifacts directory",
				EnvVars: []string{"ARTIFACTS_DIR"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "Print JSON on a single line",
			},
		},

		Before: func(c *cli.Context) error {
			return logger.Init(c.String("log-level"), "development")
		},

		Commands: []*cli.Command{
			validateCommand(),
			predictCommand("property", "Value one property listing", runProperty),
			predictCommand("forecast", "Forecast a segment's price path", runForecast),
			predictCommand("trip", "Classify the delay of one bus departure", runTrip),
			predictCommand("tea", "Estimate tea yield for one plantation", runTea),
		},
	}
}

// =============================================================================
// VALIDATE COMMAND
// =============================================================================

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Load every artifact and print what was found",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			store, err := artifacts.Load(c.Context, cfg.Artifacts.Dir, cfg.Artifacts.RequiredModels)
			if err != nil {
				return err
			}
			if _, err := bootstrap.NewServices(cfg, store, nil, logger.Get()); err != nil {
				return err
			}

			sum := store.Summary()
			fmt.Fprintf(c.App.Writer, "Artifacts OK: %s\n", store.Dir())
			fmt.Fprintf(c.App.Writer, "  %d models, %d encoders, %d routes, %d indicator years, %d cached segments\n",
				sum.Models, sum.Encoders, sum.Routes, sum.IndicatorYears, sum.CachedSegments)
			for _, m := range store.Models() {
				fmt.Fprintf(c.App.Writer, "  %-12s %-10s %3d features %s trees (%s)\n",
					m.Name, m.Kind, m.Features, humanize.Comma(int64(m.Trees)), m.Transform)
			}
			return nil
		},
	}
}

// =============================================================================
// PREDICTION COMMANDS
// =============================================================================

type runner func(ctx context.Context, s *bootstrap.Services, body []byte) (interface{}, error)

func predictCommand(name, usage string, run runner) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "[request.json]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "request",
				Aliases: []string{"r"},
				Usage:   "Path to the JSON request; reads stdin when omitted or \"-\"",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.String("request")
			if path == "" {
				path = c.Args().First()
			}
			body, err := readRequest(path, c.App.Reader)
			if err != nil {
				return err
			}

			services, err := loadServices(c)
			if err != nil {
				return err
			}

			out, err := run(c.Context, services, body)
			if err != nil {
				return err
			}
			return printJSON(c, out)
		},
	}
}

func runProperty(ctx context.Context, s *bootstrap.Services, body []byte) (interface{}, error) {
	var req property.Request
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	return s.Valuation.Predict(ctx, req)
}

func runForecast(ctx context.Context, s *bootstrap.Services, body []byte) (interface{}, error) {
	var req forecast.Request
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	return s.Forecast.Forecast(ctx, req)
}

func runTrip(ctx context.Context, s *bootstrap.Services, body []byte) (interface{}, error) {
	var req trip.Request
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	return s.Trip.Predict(ctx, req)
}

func runTea(ctx context.Context, s *bootstrap.Services, body []byte) (interface{}, error) {
	var req yield.Request
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	return s.Tea.Predict(ctx, req)
}

// =============================================================================
// HELPERS
// =============================================================================

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Artifacts.Dir = c.String("artifacts")
	return cfg, nil
}

func loadServices(c *cli.Context) (*bootstrap.Services, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	store, err := artifacts.Load(c.Context, cfg.Artifacts.Dir, cfg.Artifacts.RequiredModels)
	if err != nil {
		return nil, err
	}
	return bootstrap.NewServices(cfg, store, nil, logger.Get())
}

func readRequest(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read request %s", path)
	}
	return body, nil
}

func decode(body []byte, dst interface{}) error {
	if err := json.Unmarshal(body, dst); err != nil {
		var ve *errors.ValidationError
		if errors.As(err, &ve) {
			return err
		}
		return errors.NewValidationError("body", err.Error(), nil)
	}
	return nil
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	if !c.Bool("compact") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
