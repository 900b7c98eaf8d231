package api

import (
	"net/http"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/types"
)

// handleFitCalibration handles POST /v1/calibration/fit. Too few reference
// rows is 422 and leaves the position uncalibrated.
func (s *Server) handleFitCalibration(w http.ResponseWriter, r *http.Request) {
	const op = "api.fit_calibration"
	var req types.FitRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, op, err)
		return
	}
	p, err := req.Period()
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	pos, err := model.ParsePosition(req.Position)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}

	m, err := s.deps.FitCalibration(r.Context(), p, pos)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleCalibrationModel handles GET /v1/calibration?season=&week=&position=.
func (s *Server) handleCalibrationModel(w http.ResponseWriter, r *http.Request) {
	const op = "api.calibration_model"
	p, err := periodFromQuery(r)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	pos, err := positionFromQuery(r, true)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	m, err := s.deps.CalibrationModel(r.Context(), p, pos)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
