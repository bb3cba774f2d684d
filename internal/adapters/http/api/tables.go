package api

import (
	"net/http"
	"strings"

	"github.com/okian/takedown/internal/adapters/report"
	service "github.com/okian/takedown/internal/app"
	"github.com/okian/takedown/internal/domain/model"
	"github.com/okian/takedown/internal/domain/types"
)

// latest writes the error itself and returns nil when no output is available.
func (s *Server) latest(w http.ResponseWriter, r *http.Request) *service.Output {
	out, err := s.deps.Latest(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return nil
	}
	return out
}

func filter[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func match(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}

// handleResults serves GET /api/results?owner=.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	out := s.latest(w, r)
	if out == nil {
		return
	}
	owner := r.URL.Query().Get("owner")
	writeJSON(w, http.StatusOK, filter(out.Tables.Results, func(row types.ResultRow) bool {
		return match(owner, row.Owner)
	}))
}

// handleRounds serves GET /api/rounds?owner=&wrestler_id=.
func (s *Server) handleRounds(w http.ResponseWriter, r *http.Request) {
	out := s.latest(w, r)
	if out == nil {
		return
	}
	q := r.URL.Query()
	owner, id := q.Get("owner"), q.Get("wrestler_id")
	writeJSON(w, http.StatusOK, filter(out.Tables.Rounds, func(row types.RoundRow) bool {
		return match(owner, row.Owner) && (id == "" || id == row.WrestlerID)
	}))
}

// handlePlacements serves GET /api/placements?weight=.
func (s *Server) handlePlacements(w http.ResponseWriter, r *http.Request) {
	out := s.latest(w, r)
	if out == nil {
		return
	}
	weight := r.URL.Query().Get("weight")
	writeJSON(w, http.StatusOK, filter(out.Tables.Placements, func(row types.PlacementRow) bool {
		return match(weight, row.Weight)
	}))
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	if out := s.latest(w, r); out != nil {
		writeJSON(w, http.StatusOK, out.Tables.Teams)
	}
}

// handleDiagnostics serves GET /api/diagnostics?kind=&severity=.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	out := s.latest(w, r)
	if out == nil {
		return
	}
	q := r.URL.Query()
	kind, severity := q.Get("kind"), q.Get("severity")
	writeJSON(w, http.StatusOK, filter(out.Diagnostics, func(d model.Diagnostic) bool {
		return match(kind, string(d.Kind)) && match(severity, d.Severity)
	}))
}

// handleWrestlers serves GET /api/wrestlers?q=.
func (s *Server) handleWrestlers(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	out := s.latest(w, r)
	if out == nil {
		return
	}
	found := report.FindWrestlers(out.Tables, q)
	if found == nil {
		found = []report.Wrestler{}
	}
	writeJSON(w, http.StatusOK, found)
}

type analyticsResponse struct {
	WinMix  []report.WinMix `json:"win_mix"`
	Podiums []report.Podium `json:"podiums"`
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	out := s.latest(w, r)
	if out == nil {
		return
	}
	writeJSON(w, http.StatusOK, analyticsResponse{
		WinMix:  report.WinMixes(out.Tables),
		Podiums: report.Podiums(out.Tables),
	})
}

func (s *Server) handleRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Rules())
}
