package api

import (
	"errors"
	"net/http"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/repository"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/statsource"
	service "github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/app"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limited")
)

// Error codes carried in response bodies.
const (
	codeBadRequest   = "bad_request"
	codeNoData       = "no_data"
	codeNotFound     = "not_found"
	codeInsufficient = "insufficient_reference_data"
	codeDegenerate   = "degenerate_fit"
	codeInFlight     = "batch_in_flight"
	codeConflict     = "conflict"
	codeBackpressure = "backpressure"
	codeRateLimited  = "rate_limited"
	codeUnavailable  = "unavailable"
	codeComputation  = "computation_error"
	codeInternal     = "internal_error"
)

// classify maps an error to a status and code. Unknown errors are 500.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, model.ErrInvalidPeriod),
		errors.Is(err, model.ErrUnknownPosition),
		errors.Is(err, statsource.ErrInvalidCSV),
		errors.Is(err, statsource.ErrInvalidRow),
		errors.Is(err, repository.ErrInvalidResult),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, calibration.ErrInvalidStrategy):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, scoring.ErrNoData):
		return http.StatusNotFound, codeNoData
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrBatchNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, calibration.ErrInsufficientReferenceData):
		return http.StatusUnprocessableEntity, codeInsufficient
	case errors.Is(err, calibration.ErrDegenerateFit):
		return http.StatusUnprocessableEntity, codeDegenerate
	case errors.Is(err, service.ErrBatchInFlight):
		return http.StatusConflict, codeInFlight
	case errors.Is(err, statsource.ErrRowConflict):
		return http.StatusConflict, codeConflict
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, codeBackpressure
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, codeRateLimited
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeUnavailable
	case errors.Is(err, scoring.ErrComputation):
		return http.StatusInternalServerError, codeComputation
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
