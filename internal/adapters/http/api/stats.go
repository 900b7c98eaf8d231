package api

import (
	"net/http"
)

// handleStats handles GET /stats requests.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.GetStats(r.Context()))
}
