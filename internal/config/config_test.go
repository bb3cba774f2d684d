package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/takedown/internal/config"
	"github.com/okian/takedown/internal/domain/model"
	"github.com/okian/takedown/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			convey.So(cfg.OutputFormats, convey.ShouldResemble, []string{"csv"})
			convey.So(cfg.ParseWorkers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.RefreshInterval, convey.ShouldEqual, 0)
			convey.So(cfg.Metrics, convey.ShouldResemble, config.Metrics{Enabled: true, Namespace: "takedown"})
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then unset rules resolve to the NCAA defaults", func() {
			convey.So(cfg.ScoringRules(), convey.ShouldResemble, scoring.DefaultRules())
			convey.So(cfg.MatchingConfig().Collisions, convey.ShouldContain, "johnson")
		})

		convey.Convey("When only placement points are configured", func() {
			cfg.Rules.Placement = map[int]float64{1: 20}
			rules := cfg.ScoringRules()

			convey.Convey("Then the other rule tables keep their defaults", func() {
				convey.So(rules.Placement, convey.ShouldResemble, map[int]float64{1: 20})
				convey.So(rules.Rounds, convey.ShouldResemble, scoring.DefaultRounds())
			})
		})

		convey.Convey("When an empty collision list is configured", func() {
			cfg.Matching.Collisions = []string{}

			convey.Convey("Then it is kept rather than defaulted", func() {
				convey.So(cfg.MatchingConfig().Collisions, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty addr", func(c *config.Config) { c.Addr = "" }},
		{"unknown log format", func(c *config.Config) { c.LogFormat = "xml" }},
		{"unknown output format", func(c *config.Config) { c.OutputFormats = []string{"csv", "pdf"} }},
		{"negative workers", func(c *config.Config) { c.ParseWorkers = -1 }},
		{"negative interval", func(c *config.Config) { c.RefreshInterval = -1 }},
		{"zero standings limit", func(c *config.Config) { c.MaxStandingsLimit = 0 }},
		{"unsorted metrics buckets", func(c *config.Config) { c.Metrics.Buckets = []float64{10, 5} }},
		{"placement rank zero", func(c *config.Config) { c.Rules.Placement = map[int]float64{0: 1} }},
		{"duplicate round tag", func(c *config.Config) {
			c.Rules.Rounds = model.Rounds{{Tag: "R32"}, {Tag: "R32"}}
		}},
	}

	convey.Convey("Given invalid configs", t, func() {
		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		}
	})
}
