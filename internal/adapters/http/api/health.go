package api

import (
	"net/http"
)

type healthResponse struct {
	Status string `json:"status"`
}

// handleHealth handles GET /healthz requests.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
