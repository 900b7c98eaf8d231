package api

import (
	"net/http"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/statsource"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

type ingestRequest struct {
	Rows      []model.RawStatRow  `json:"rows"`
	TeamWeeks []model.TeamWeekRow `json:"team_weeks"`
}

type ingestResponse struct {
	Rows      int `json:"rows"`
	TeamWeeks int `json:"team_weeks"`
}

// handleImportBenchmarks handles POST /v1/benchmarks?season=&week= with a
// CSV body. The period's benchmark rows are replaced.
func (s *Server) handleImportBenchmarks(w http.ResponseWriter, r *http.Request) {
	const op = "api.import_benchmarks"
	p, err := periodFromQuery(r)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	rows, err := statsource.ReadBenchmarks(http.MaxBytesReader(w, r.Body, s.maxBodyBytes), p)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	res, err := s.deps.ImportBenchmarks(r.Context(), p, rows)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleIngestStats handles POST /v1/stats. Rows already recorded with the
// same values are accepted again; changed values are a conflict.
func (s *Server) handleIngestStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.ingest_stats"
	var req ingestRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, op, err)
		return
	}
	if err := s.deps.IngestStats(r.Context(), req.Rows, req.TeamWeeks); err != nil {
		s.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{Rows: len(req.Rows), TeamWeeks: len(req.TeamWeeks)})
}
