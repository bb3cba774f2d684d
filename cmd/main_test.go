package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	app "github.com/okian/takedown/internal/app"
	"github.com/okian/takedown/internal/config"
	"github.com/okian/takedown/pkg/logger"
	"github.com/okian/takedown/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

// runApp executes the CLI with args and returns what it wrote to stdout.
func runApp(args ...string) (string, error) {
	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = &out
	err := a.RunContext(context.Background(), append([]string{"takedown"}, args...))
	return out.String(), err
}

func TestCommands(t *testing.T) {
	convey.Convey("Given a generated tournament on disk", t, func() {
		dir := t.TempDir()
		roster := filepath.Join(dir, "roster.csv")
		results := filepath.Join(dir, "results.txt")

		_, err := runApp("generate", "--seed", "7", "--owners", "4", "--per-weight", "2", "--roster", roster, "--results", results)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then both input files exist", func() {
			for _, p := range []string{roster, results} {
				info, err := os.Stat(p)
				convey.So(err, convey.ShouldBeNil)
				convey.So(info.Size(), convey.ShouldBeGreaterThan, 0)
			}
		})

		convey.Convey("When the pipeline runs with csv and json export", func() {
			outDir := filepath.Join(dir, "out")
			stdout, err := runApp("run", "--roster", roster, "--results", results, "--out", outDir, "--format", "csv", "--format", "json")

			convey.Convey("Then the standings are printed and the files written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stdout, convey.ShouldContainSubstring, "RANK")
				for _, name := range []string{"results.csv", "rounds.csv", "placements.csv", "teams.csv", "diagnostics.csv", "takedown.json"} {
					_, err := os.Stat(filepath.Join(outDir, name))
					convey.So(err, convey.ShouldBeNil)
				}
			})
		})

		convey.Convey("When an unknown export format is requested", func() {
			_, err := runApp("run", "--roster", roster, "--results", results, "--out", filepath.Join(dir, "out"), "--format", "pdf")

			convey.Convey("Then the command fails validation", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "pdf")
			})
		})

		convey.Convey("When a run is saved and the report renders the snapshot", func() {
			dsn := filepath.Join(dir, "takedown.db")
			_, err := runApp("run", "--roster", roster, "--results", results, "--out", filepath.Join(dir, "out"), "--sqlite", dsn)
			convey.So(err, convey.ShouldBeNil)

			stdout, err := runApp("report", "--snapshot", "--sqlite", dsn)

			convey.Convey("Then the detailed report is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stdout, convey.ShouldContainSubstring, "NCAA WRESTLING TOURNAMENT DRAFT RESULTS")
				convey.So(stdout, convey.ShouldContainSubstring, "TEAM STANDINGS")
			})
		})

		convey.Convey("When the report is written to a file", func() {
			path := filepath.Join(dir, "report.txt")
			_, err := runApp("report", "--roster", roster, "--results", results, "--output", path)

			convey.Convey("Then the file holds the report", func() {
				convey.So(err, convey.ShouldBeNil)
				b, err := os.ReadFile(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldContainSubstring, "Source File: results.txt")
			})
		})

		convey.Convey("When searching for a name nobody has", func() {
			stdout, err := runApp("find", "--roster", roster, "--results", results, "zzzzqqq")

			convey.Convey("Then it says so", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stdout, convey.ShouldContainSubstring, `no wrestlers match "zzzzqqq"`)
			})
		})
	})

	convey.Convey("Given no arguments for commands that need them", t, func() {
		convey.Convey("Then find without a query fails", func() {
			_, err := runApp("find")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Then a snapshot report without a DSN fails", func() {
			_, err := runApp("report", "--snapshot")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "sqlite")
		})
	})
}

func TestConfigCommand(t *testing.T) {
	convey.Convey("Given the config command", t, func() {
		stdout, err := runApp("config")

		convey.Convey("Then the effective configuration is printed as YAML", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(stdout, convey.ShouldContainSubstring, "addr:")
			convey.So(stdout, convey.ShouldContainSubstring, "log_level: info")
			convey.So(stdout, convey.ShouldContainSubstring, "rules:")
		})
	})
}

func TestRouter(t *testing.T) {
	convey.Convey("Given the combined router", t, func() {
		_ = logger.Init()
		svc := app.New(app.WithLogger(logger.Nop()))
		r := newRouter(context.Background(), svc, config.New())

		convey.Convey("Then health, API and docs routes are mounted", func() {
			cases := map[string]int{
				"/healthz":        http.StatusOK,
				"/openapi.yaml":   http.StatusOK,
				"/api-docs":       http.StatusOK,
				"/api/rules":      http.StatusOK,
				"/api/results":    http.StatusServiceUnavailable,
				"/api/not-a-path": http.StatusNotFound,
			}
			for path, want := range cases {
				rec := httptest.NewRecorder()
				r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(rec.Code, convey.ShouldEqual, want)
			}
		})
	})
}

func TestMetricsConfig(t *testing.T) {
	convey.Convey("Given a config file with a metrics namespace", t, func() {
		path := filepath.Join(t.TempDir(), "takedown.yaml")
		convey.So(os.WriteFile(path, []byte("metrics:\n  namespace: ncaa\n  labels:\n    event: nationals\n"), 0o600), convey.ShouldBeNil)
		convey.Reset(func() { metrics.Configure() })

		stdout, err := runApp("--config", path, "config")
		convey.So(err, convey.ShouldBeNil)
		convey.So(stdout, convey.ShouldContainSubstring, "namespace: ncaa")

		convey.Convey("Then /healthz exposes collectors under that namespace", func() {
			svc := app.New(app.WithLogger(logger.Nop()))
			rec := httptest.NewRecorder()
			newRouter(context.Background(), svc, config.New()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `ncaa_pipeline_queue_rejected_total{event="nationals"}`)
		})
	})
}
