package api

import (
	"errors"
	"net/http"

	service "github.com/okian/takedown/internal/app"
	"github.com/okian/takedown/internal/domain/model"
	"github.com/okian/takedown/internal/domain/parser"
	"github.com/okian/takedown/pkg/logger"
)

// handleStats serves GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.GetStats())
}

type refreshResponse struct {
	Status      string        `json:"status"`
	Teams       int           `json:"teams"`
	Wrestlers   int           `json:"wrestlers"`
	Diagnostics int           `json:"diagnostics"`
	Stats       service.Stats `json:"stats"`
}

// handleRefresh serves POST /api/refresh by running the pipeline synchronously.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Refresh(r.Context())
	if err != nil {
		s.logger.Warn(r.Context(), "refresh failed", logger.Error(err))
		if isInputError(err) {
			writeError(w, http.StatusUnprocessableEntity, "run_failed", err)
			return
		}
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Status:      "ok",
		Teams:       len(out.Tables.Teams),
		Wrestlers:   len(out.Tables.Results),
		Diagnostics: len(out.Diagnostics),
		Stats:       out.Stats,
	})
}

// isInputError reports failures caused by the roster or results text rather than the server.
func isInputError(err error) bool {
	return errors.Is(err, service.ErrEmptyRoster) ||
		errors.Is(err, model.ErrInvalidRoster) ||
		errors.Is(err, parser.ErrEmptyInput)
}
