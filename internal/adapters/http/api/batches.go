package api

import (
	"net/http"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/types"
	"github.com/go-chi/chi/v5"
)

// handleTriggerBatch handles POST /v1/batches. The batch runs
// asynchronously; the response carries its id.
func (s *Server) handleTriggerBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.trigger_batch"
	var req types.PeriodRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, op, err)
		return
	}
	p, err := req.Period()
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}

	acc, err := s.deps.TriggerBatch(r.Context(), p)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	w.Header().Set("Location", "/v1/batches/"+acc.BatchID)
	writeJSON(w, http.StatusAccepted, acc)
}

// handleBatchStatus handles GET /v1/batches/{batchID}.
func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.BatchStatus(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		s.writeError(w, r, "api.batch_status", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
