// Package api serves the run tables, standings and refresh control over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	repository "github.com/okian/takedown/internal/adapters/repository"
	service "github.com/okian/takedown/internal/app"
	"github.com/okian/takedown/internal/domain/scoring"
	"github.com/okian/takedown/internal/domain/types"
	"github.com/okian/takedown/pkg/logger"
)

const (
	defaultMaxLimit     = 100
	defaultRefreshRate  = 1
	defaultRefreshBurst = 3
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	Latest(ctx context.Context) (*service.Output, error)
	Refresh(ctx context.Context) (*service.Output, error)
	TopN(ctx context.Context, n int) ([]types.Entry, error)
	Rank(ctx context.Context, owner string) (types.Entry, error)
	Rules() scoring.Rules
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the results API.
type Server struct {
	deps     Dependencies
	maxLimit int
	limiter  *IPRateLimiter
	logger   logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxLimit caps GET /api/standings?limit.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithRefreshLimit throttles POST /api/refresh per client IP.
func WithRefreshLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond > 0 && burst > 0 {
			s.limiter = NewIPRateLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates an API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		maxLimit: defaultMaxLimit,
		limiter:  NewIPRateLimiter(defaultRefreshRate, defaultRefreshBurst),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns a chi router with every route registered.
func (s *Server) Router(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	s.Register(ctx, r)
	return r
}

// Register attaches all routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(HandleHealth, "healthz"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/results", MetricsMiddleware(s.handleResults, "results"))
		r.Get("/rounds", MetricsMiddleware(s.handleRounds, "rounds"))
		r.Get("/placements", MetricsMiddleware(s.handlePlacements, "placements"))
		r.Get("/teams", MetricsMiddleware(s.handleTeams, "teams"))
		r.Get("/diagnostics", MetricsMiddleware(s.handleDiagnostics, "diagnostics"))
		r.Get("/wrestlers", MetricsMiddleware(s.handleWrestlers, "wrestlers"))
		r.Get("/analytics", MetricsMiddleware(s.handleAnalytics, "analytics"))
		r.Get("/rules", MetricsMiddleware(s.handleRules, "rules"))
		r.Get("/standings", MetricsMiddleware(s.handleStandings, "standings"))
		r.Get("/standings/{owner}", MetricsMiddleware(s.handleRank, "rank"))
		r.Get("/stats", MetricsMiddleware(s.handleStats, "stats"))
		r.With(RateLimitMiddleware(s.limiter)).
			Post("/refresh", MetricsMiddleware(s.handleRefresh, "refresh"))
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeUpstreamError maps service and store errors onto status codes.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, "not_ready", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
