// Package service wires the scoring engine to its stores and exposes the
// operations behind the HTTP, CLI and tool surfaces: cache-first single
// scoring, asynchronous period batches, calibration fitting and benchmark
// import.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/mq/queue"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/mq/worker"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/repository"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/statsource"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/aggregate"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/dedupe"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/enrich"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/profile"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/scoring"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/types"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/metrics"
	"github.com/rotisserie/eris"
)

// Score sources recorded on metrics.
const (
	sourceSingle = "single"
	sourceBatch  = "batch"
)

// Service implements the API dependencies for the scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	results repository.Store
	stats   statsource.Store
	engine  *scoring.Engine
	deduper dedupe.Deduper
	queue   queue.Queue
	pool    *worker.Pool
	batches *batchRegistry

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	dedupeTTL        time.Duration
	batchConcurrency int
	maxLeaderboard   int
	retry            RetryConfig
	now              func() time.Time

	// State
	started bool

	logger logger.Logger
}

// New constructs a Service over its stores and scoring profile.
func New(results repository.Store, stats statsource.Store, prof *profile.Profile, opts ...Option) *Service {
	s := &Service{
		results:          results,
		stats:            stats,
		batches:          newBatchRegistry(256),
		workerCount:      2,
		queueSize:        64,
		dedupeSize:       1024,
		dedupeTTL:        30 * time.Minute,
		batchConcurrency: runtime.NumCPU() * 2,
		maxLeaderboard:   500,
		retry:            DefaultRetryConfig(),
		now:              time.Now,
		logger:           logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = scoring.NewEngine(prof, scoring.WithLogger(s.logger.Named("scoring")))
	return s
}

// Start creates the batch queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting scoring service...")

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
		dedupe.WithTTL(s.dedupeTTL),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s, worker.WithLogger(s.logger.Named("worker")))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("batch_concurrency", s.batchConcurrency),
		logger.String("profile_version", s.engine.Profile().Version),
	)
	return nil
}

// Stop drains queued batches and stops the workers. Stores stay open; their
// owner closes them.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// Profile returns the active scoring profile.
func (s *Service) Profile() *profile.Profile { return s.engine.Profile() }

// ScoreOne returns the score of one player for one period. A cached result
// is returned unless force is set, in which case the score is recomputed and
// the cache overwritten. Missing rows are scoring.ErrNoData.
func (s *Service) ScoreOne(ctx context.Context, playerID string, p model.Period, force bool) (model.ScoreResult, error) {
	if playerID == "" {
		return model.ScoreResult{}, fmt.Errorf("%w: player id is required", ErrInvalidRequest)
	}
	if err := p.Validate(); err != nil {
		return model.ScoreResult{}, err
	}

	if force {
		metrics.RecordCache("bypass")
	} else {
		cached, err := s.results.Get(ctx, model.ResultKey{PlayerID: playerID, Period: p})
		switch {
		case err == nil:
			metrics.RecordCache("hit")
			return cached, nil
		case !errors.Is(err, repository.ErrNotFound):
			return model.ScoreResult{}, eris.Wrapf(err, "read cached score %s %s", playerID, p.Key())
		}
		metrics.RecordCache("miss")
	}

	models, err := s.results.Models(ctx, p)
	if err != nil {
		return model.ScoreResult{}, eris.Wrap(err, "load calibration models")
	}
	league, err := statsource.LoadLeague(ctx, s.stats, p)
	if err != nil {
		return model.ScoreResult{}, eris.Wrap(err, "load league context")
	}

	r, err := s.compute(ctx, s.engine.With(scoring.Models(models)), playerID, p, league, sourceSingle)
	if err != nil {
		return model.ScoreResult{}, err
	}
	if err := s.results.Put(ctx, r); err != nil {
		return model.ScoreResult{}, eris.Wrapf(err, "store score %s %s", playerID, p.Key())
	}
	return r, nil
}

// compute scores one player. ErrNoData means the player has no rows in the
// period; any other failure is ErrComputation.
func (s *Service) compute(ctx context.Context, eng *scoring.Engine, playerID string, p model.Period, league enrich.League, source string) (model.ScoreResult, error) {
	rows, err := s.stats.PlayerRows(ctx, playerID, p.Season)
	if err != nil {
		return model.ScoreResult{}, eris.Wrapf(err, "load rows for %s", playerID)
	}
	if len(rows) == 0 {
		return model.ScoreResult{}, fmt.Errorf("%w: %s %s", scoring.ErrNoData, playerID, p.Key())
	}

	agg, err := aggregate.ForPeriod(refFromRows(playerID, rows), rows, p, eng.Profile().Priors)
	switch {
	case errors.Is(err, aggregate.ErrNoRows):
		return model.ScoreResult{}, fmt.Errorf("%w: %s %s", scoring.ErrNoData, playerID, p.Key())
	case err != nil:
		return model.ScoreResult{}, fmt.Errorf("%w: %w", scoring.ErrComputation, err)
	}

	start := time.Now()
	in, err := eng.Prepare(agg, league)
	if err != nil {
		return model.ScoreResult{}, err
	}
	r, err := eng.Score(ctx, in)
	if err != nil {
		return model.ScoreResult{}, err
	}
	metrics.RecordScoreComputed(string(r.Position), source, time.Since(start))
	return r, nil
}

func refFromRows(playerID string, rows []model.RawStatRow) model.PlayerRef {
	last := rows[len(rows)-1]
	return model.PlayerRef{PlayerID: playerID, Name: last.Name, Team: last.Team, Position: last.Position}
}

// Leaderboard returns the period's ranked results, optionally for one
// position. Limits above the configured maximum are capped.
func (s *Service) Leaderboard(ctx context.Context, p model.Period, pos model.Position, limit int) ([]types.Entry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if limit > s.maxLeaderboard {
		limit = s.maxLeaderboard
	}
	entries, err := s.results.Leaderboard(ctx, p, pos, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.NewEntry(e.Rank, e.Result)
	}
	return out, nil
}

// IngestStats records raw player rows and team rows.
func (s *Service) IngestStats(ctx context.Context, rows []model.RawStatRow, teams []model.TeamWeekRow) error {
	if len(teams) > 0 {
		if err := s.stats.PutTeamWeeks(ctx, teams); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		if err := s.stats.PutRows(ctx, rows); err != nil {
			return err
		}
	}
	s.logger.Debug(ctx, "stats ingested", logger.Int("rows", len(rows)), logger.Int("team_rows", len(teams)))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"batchConcurrency": s.batchConcurrency,
		"profileVersion":   s.engine.Profile().Version,
		"batches":          s.batches.counts(),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["batchesInFlight"] = s.deduper.Size()
	}
	if n, err := s.results.Count(ctx); err == nil {
		stats["storedResults"] = n
		metrics.UpdateStoreRows(n)
	} else {
		s.logger.Warn(ctx, "count stored results", logger.Error(err))
	}
	metrics.UpdateSystem()
	return stats
}
