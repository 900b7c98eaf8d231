package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleScore handles GET /v1/players/{playerID}/score?season=&week=&force=.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	id := strings.TrimSpace(chi.URLParam(r, "playerID"))
	if id == "" {
		s.writeError(w, r, op, fmt.Errorf("%w: player id is required", ErrBadRequest))
		return
	}
	p, err := periodFromQuery(r)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	force, err := boolQuery(r, "force")
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}

	res, err := s.deps.ScoreOne(r.Context(), id, p, force)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
