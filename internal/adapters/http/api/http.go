// Package api exposes the scoring service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/http/swagger"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/types"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	ScoreOne(ctx context.Context, playerID string, p model.Period, force bool) (model.ScoreResult, error)
	TriggerBatch(ctx context.Context, p model.Period) (types.BatchAccepted, error)
	BatchStatus(ctx context.Context, id string) (types.Batch, error)
	Leaderboard(ctx context.Context, p model.Period, pos model.Position, limit int) ([]types.Entry, error)
	FitCalibration(ctx context.Context, p model.Period, pos model.Position) (*calibration.Model, error)
	CalibrationModel(ctx context.Context, p model.Period, pos model.Position) (*calibration.Model, error)
	ImportBenchmarks(ctx context.Context, p model.Period, rows []model.ReferenceBenchmarkRow) (types.ImportResult, error)
	IngestStats(ctx context.Context, rows []model.RawStatRow, teams []model.TeamWeekRow) error
	GetStats(ctx context.Context) map[string]any
}

const (
	defaultLeaderboardLimit = 50
	defaultMaxBodyBytes     = 8 << 20
	corsMaxAge              = 300
)

// Server wires HTTP routes for the scoring API.
type Server struct {
	deps         Dependencies
	batchLimiter *rate.Limiter
	corsOrigins  []string
	maxBodyBytes int64
	logger       logger.Logger
}

// NewServer creates a new API server over deps.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:         deps,
		corsOrigins:  []string{"*"},
		maxBodyBytes: defaultMaxBodyBytes,
		logger:       logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route tree.
func (s *Server) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         corsMaxAge,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	r.Get("/stats", s.handleStats)
	swagger.Register(ctx, r)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/players/{playerID}/score", s.handleScore)
		r.With(s.rateLimit).Post("/batches", s.handleTriggerBatch)
		r.Get("/batches/{batchID}", s.handleBatchStatus)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Post("/calibration/fit", s.handleFitCalibration)
		r.Get("/calibration", s.handleCalibrationModel)
		r.Post("/benchmarks", s.handleImportBenchmarks)
		r.Post("/stats", s.handleIngestStats)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err with its mapped status. Server-side failures are
// logged; their details stay out of the body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err))
		if code == codeInternal {
			msg = http.StatusText(status)
		}
	}
	if status == http.StatusTooManyRequests && w.Header().Get("Retry-After") == "" {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, types.ErrorResponse{Error: types.ErrorDetail{Code: code, Message: msg}})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// periodFromQuery reads season and the optional through-week.
func periodFromQuery(r *http.Request) (model.Period, error) {
	q := r.URL.Query()
	season, err := strconv.Atoi(q.Get("season"))
	if err != nil {
		return model.Period{}, fmt.Errorf("%w: season is required", ErrBadRequest)
	}
	req := types.PeriodRequest{Season: season}
	if w := q.Get("week"); w != "" {
		if req.Week, err = strconv.Atoi(w); err != nil {
			return model.Period{}, fmt.Errorf("%w: invalid week %q", ErrBadRequest, w)
		}
	}
	return req.Period()
}

// positionFromQuery returns the empty position when absent.
func positionFromQuery(r *http.Request, required bool) (model.Position, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("position"))
	if raw == "" {
		if required {
			return "", fmt.Errorf("%w: position is required", ErrBadRequest)
		}
		return "", nil
	}
	return model.ParsePosition(raw)
}

func boolQuery(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: invalid %s %q", ErrBadRequest, key, raw)
	}
	return v, nil
}

// retryAfter renders a limiter delay in whole seconds, at least one.
func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
