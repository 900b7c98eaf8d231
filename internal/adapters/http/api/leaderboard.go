package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/types"
)

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

type leaderboardResponse struct {
	Period   string  `json:"period"`
	Position string  `json:"position,omitempty"`
	Entries  []Entry `json:"entries"`
}

// handleLeaderboard handles GET /v1/leaderboard?season=&week=&position=&limit=.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard"
	p, err := periodFromQuery(r)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	pos, err := positionFromQuery(r, false)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, r, op, fmt.Errorf("%w: invalid limit %q", ErrBadRequest, raw))
			return
		}
		limit = n
	}

	entries, err := s.deps.Leaderboard(r.Context(), p, pos, limit)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Period: p.Key(), Position: string(pos), Entries: entries})
}
