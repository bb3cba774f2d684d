package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/okian/takedown/internal/adapters/export"
	"github.com/okian/takedown/internal/adapters/http/api"
	"github.com/okian/takedown/internal/adapters/http/swagger"
	"github.com/okian/takedown/internal/adapters/report"
	"github.com/okian/takedown/internal/adapters/source"
	"github.com/okian/takedown/internal/adapters/sqlstore"
	app "github.com/okian/takedown/internal/app"
	"github.com/okian/takedown/internal/config"
	"github.com/okian/takedown/internal/simulate"
	"github.com/okian/takedown/pkg/logger"
	"github.com/okian/takedown/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

const configKey = "config"

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		os.Stderr.WriteString("takedown: " + err.Error() + "\n")
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "takedown",
		Usage: "score a wrestling fantasy draft from tournament results",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"TAKEDOWN_CONFIG"}},
			&cli.StringSliceFlag{Name: "env-file", Usage: "dotenv files loaded before the environment"},
		},
		Before: setup,
		After: func(*cli.Context) error {
			return logger.Sync()
		},
		Commands: []*cli.Command{
			runCommand(),
			reportCommand(),
			findCommand(),
			serveCommand(),
			generateCommand(),
			configCommand(),
		},
	}
}

// setup loads configuration and initialises the global logger.
func setup(c *cli.Context) error {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithFile(path))
	}
	if files := c.StringSlice("env-file"); len(files) > 0 {
		opts = append(opts, config.WithDotenv(files...))
	}
	cfg, err := config.Load(c.Context, opts...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(c.Context, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Configure(
		metrics.WithMetricsEnabled(cfg.Metrics.Enabled),
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithHistogramBuckets(cfg.Metrics.Buckets),
		metrics.WithConstLabels(cfg.Metrics.Labels),
	)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.New()
}

// inputFlags are the flags shared by every command that runs the pipeline.
func inputFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra,
		&cli.StringFlag{Name: "roster", Usage: "draft roster (.csv or .xlsx)"},
		&cli.StringFlag{Name: "results", Usage: "tournament results text"},
		&cli.StringFlag{Name: "sqlite", Usage: "snapshot database DSN"},
	)
}

// applyInputFlags lets command flags override the loaded config.
func applyInputFlags(c *cli.Context, cfg *config.Config) {
	if v := c.String("roster"); v != "" {
		cfg.RosterPath = v
	}
	if v := c.String("results"); v != "" {
		cfg.ResultsPath = v
	}
	if v := c.String("sqlite"); v != "" {
		cfg.SQLiteDSN = v
	}
}

// newService wires a Service for cfg. The returned close func releases the snapshot store.
func newService(ctx context.Context, cfg *config.Config) (*app.Service, func(), error) {
	log := logger.Get()
	opts := []app.Option{
		app.WithLogger(log),
		app.WithSource(source.Files{RosterPath: cfg.RosterPath, ResultsPath: cfg.ResultsPath}),
		app.WithWorkerCount(cfg.ParseWorkers),
		app.WithTopCacheSize(cfg.TopCacheSize),
		app.WithRefreshInterval(cfg.RefreshInterval),
		app.WithScoringRules(cfg.ScoringRules()),
		app.WithMatchingConfig(cfg.MatchingConfig()),
	}

	closer := func() {}
	if cfg.SQLiteDSN != "" {
		store, err := sqlstore.Open(ctx, cfg.SQLiteDSN, sqlstore.WithLogger(log.Named("sqlstore")))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, app.WithSnapshotter(store))
		closer = func() {
			if err := store.Close(); err != nil {
				log.Warn(ctx, "closing snapshot store", logger.Error(err))
			}
		}
	}
	return app.New(opts...), closer, nil
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run the pipeline once, export the tables and print the standings",
		Flags: inputFlags(
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output directory"},
			&cli.StringSliceFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, xlsx or json"},
		),
		Action: func(c *cli.Context) error {
			cfg := configFrom(c)
			applyInputFlags(c, cfg)
			if v := c.String("out"); v != "" {
				cfg.OutputDir = v
			}
			if v := c.StringSlice("format"); len(v) > 0 {
				cfg.OutputFormats = v
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			svc, closeStore, err := newService(c.Context, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			out, err := svc.Refresh(c.Context)
			if err != nil {
				return err
			}
			files, err := export.Write(c.Context, cfg.OutputDir, cfg.OutputFormats, export.Bundle{Tables: out.Tables, Diagnostics: out.Diagnostics})
			if err != nil {
				return err
			}
			logger.Get().Info(c.Context, "run complete",
				logger.Int("teams", len(out.Tables.Teams)),
				logger.Int("wrestlers", len(out.Tables.Results)),
				logger.Int("diagnostics", len(out.Diagnostics)),
				logger.Any("files", files),
			)
			return report.Summary(c.App.Writer, out.Tables)
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "write the detailed text report",
		Flags: inputFlags(
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "report file; stdout when empty"},
			&cli.BoolFlag{Name: "snapshot", Usage: "render the last saved run instead of running"},
		),
		Action: func(c *cli.Context) error {
			cfg := configFrom(c)
			applyInputFlags(c, cfg)

			snap, meta, err := loadOrRun(c, cfg)
			if err != nil {
				return err
			}

			w := c.App.Writer
			if path := c.String("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return report.Detailed(w, snap.Tables, snap.Diagnostics, meta)
		},
	}
}

// loadOrRun returns the last saved snapshot with --snapshot, otherwise a fresh run.
func loadOrRun(c *cli.Context, cfg *config.Config) (sqlstore.Snapshot, report.Meta, error) {
	if c.Bool("snapshot") {
		if cfg.SQLiteDSN == "" {
			return sqlstore.Snapshot{}, report.Meta{}, errors.New("--snapshot needs a sqlite DSN")
		}
		store, err := sqlstore.Open(c.Context, cfg.SQLiteDSN, sqlstore.WithLogger(logger.Named("sqlstore")))
		if err != nil {
			return sqlstore.Snapshot{}, report.Meta{}, err
		}
		defer store.Close()
		snap, err := store.Load(c.Context)
		if err != nil {
			return sqlstore.Snapshot{}, report.Meta{}, err
		}
		return snap, report.Meta{Source: "run " + snap.Run.ID, Generated: snap.Run.CreatedAt}, nil
	}

	svc, closeStore, err := newService(c.Context, cfg)
	if err != nil {
		return sqlstore.Snapshot{}, report.Meta{}, err
	}
	defer closeStore()
	out, err := svc.Refresh(c.Context)
	if err != nil {
		return sqlstore.Snapshot{}, report.Meta{}, err
	}
	meta := report.Meta{Source: filepath.Base(cfg.ResultsPath), Generated: time.Now()}
	return sqlstore.Snapshot{Tables: out.Tables, Diagnostics: out.Diagnostics}, meta, nil
}

func findCommand() *cli.Command {
	return &cli.Command{
		Name:      "find",
		Usage:     "show the matches of wrestlers whose name contains QUERY",
		ArgsUsage: "QUERY",
		Flags:     inputFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("missing QUERY")
			}
			cfg := configFrom(c)
			applyInputFlags(c, cfg)

			svc, closeStore, err := newService(c.Context, cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			out, err := svc.Refresh(c.Context)
			if err != nil {
				return err
			}

			found := report.FindWrestlers(out.Tables, c.Args().First())
			if len(found) == 0 {
				fmt.Fprintf(c.App.Writer, "no wrestlers match %q\n", c.Args().First())
				return nil
			}
			for _, wr := range found {
				r := wr.Result
				fmt.Fprintf(c.App.Writer, "%s - %s (%s) %s: %g points\n", r.Weight, r.Wrestler, r.School, r.Owner, r.Total)
				for _, rd := range wr.Rounds {
					fmt.Fprintf(c.App.Writer, "  %-22s %-6s %-24s %g\n", rd.Round, rd.Outcome, rd.Opponent, rd.Advancement+rd.Bonus)
				}
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the latest run over HTTP, refreshing on demand",
		Flags: inputFlags(
			&cli.StringFlag{Name: "addr", Usage: "listen address"},
		),
		Action: func(c *cli.Context) error {
			cfg := configFrom(c)
			applyInputFlags(c, cfg)
			if v := c.String("addr"); v != "" {
				cfg.Addr = v
			}
			return serve(c.Context, cfg)
		},
	}
}

// newRouter mounts the API and the API docs on one chi router.
func newRouter(ctx context.Context, svc api.Dependencies, cfg *config.Config) chi.Router {
	r := api.NewServer(svc,
		api.WithMaxLimit(cfg.MaxStandingsLimit),
		api.WithRefreshLimit(cfg.RefreshRate, cfg.RefreshBurst),
		api.WithLogger(logger.Named("api")),
	).Router(ctx)
	swagger.Register(ctx, r)
	return r
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	svc, closeStore, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "write a synthetic roster and results file",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "seed", Value: 1},
			&cli.IntFlag{Name: "owners", Value: 8},
			&cli.IntFlag{Name: "per-weight", Value: 8, Usage: "drafted wrestlers per weight"},
			&cli.StringFlag{Name: "roster", Usage: "roster CSV path"},
			&cli.StringFlag{Name: "results", Usage: "results text path"},
		},
		Action: func(c *cli.Context) error {
			cfg := configFrom(c)
			applyInputFlags(c, cfg)

			t := simulate.Generate(
				simulate.WithSeed(c.Int64("seed")),
				simulate.WithOwners(c.Int("owners")),
				simulate.WithDraftPerWeight(c.Int("per-weight")),
			)

			f, err := os.Create(cfg.RosterPath)
			if err != nil {
				return err
			}
			if err := simulate.WriteRosterCSV(f, t.Roster); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			if err := os.WriteFile(cfg.ResultsPath, []byte(t.Text), 0o644); err != nil { //nolint:gosec // plain data file
				return err
			}

			logger.Get().Info(c.Context, "generated tournament",
				logger.String("roster", cfg.RosterPath),
				logger.String("results", cfg.ResultsPath),
				logger.Int("wrestlers", len(t.Roster)),
			)
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "print the effective configuration as YAML",
		Action: func(c *cli.Context) error {
			cfg := configFrom(c).Resolved()
			enc := yaml.NewEncoder(c.App.Writer)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
