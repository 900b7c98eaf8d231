package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/mq/queue"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/statsource"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/scoring"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/types"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Summary counts the outcome of one batch run.
type Summary struct {
	Processed int64 `json:"processed"`
	Skipped   int64 `json:"skipped"`
	Errors    int64 `json:"errors"`
}

// TriggerBatch queues a recomputation of every player for the period and
// returns immediately. A batch already queued or running for the same
// period is ErrBatchInFlight; a full queue is ErrBackpressure.
func (s *Service) TriggerBatch(ctx context.Context, p model.Period) (types.BatchAccepted, error) {
	if err := p.Validate(); err != nil {
		return types.BatchAccepted{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.BatchAccepted{}, ErrNotStarted
	}

	key := p.Key()
	if s.deduper.SeenAndRecord(ctx, key) {
		return types.BatchAccepted{}, fmt.Errorf("%w: %s", ErrBatchInFlight, key)
	}

	id := uuid.NewString()
	now := s.now()
	s.batches.add(types.Batch{ID: id, Period: key, Status: types.BatchQueued, EnqueuedAt: now})

	if err := s.queue.Enqueue(ctx, queue.Job{BatchID: id, Period: p, EnqueuedAt: now}); err != nil {
		s.deduper.Unrecord(ctx, key)
		s.batches.remove(id)
		switch {
		case errors.Is(err, queue.ErrFull):
			return types.BatchAccepted{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		case errors.Is(err, queue.ErrClosed):
			return types.BatchAccepted{}, fmt.Errorf("%w: %w", ErrNotStarted, err)
		default:
			return types.BatchAccepted{}, eris.Wrap(err, "enqueue batch")
		}
	}

	s.logger.Info(ctx, "batch queued", logger.String("batch_id", id), logger.String("period", key))
	return types.BatchAccepted{BatchID: id, Status: types.BatchQueued, Period: key}, nil
}

// BatchStatus reports a batch's progress.
func (s *Service) BatchStatus(_ context.Context, id string) (types.Batch, error) {
	b, ok := s.batches.get(id)
	if !ok {
		return types.Batch{}, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	return b, nil
}

// RunJob implements worker.Runner: it runs a queued batch, records its
// outcome and releases the period for new triggers.
func (s *Service) RunJob(ctx context.Context, j queue.Job) error {
	defer s.deduper.Unrecord(ctx, j.Period.Key())

	started := s.now()
	s.batches.update(j.BatchID, func(b *types.Batch) {
		b.Status = types.BatchRunning
		b.StartedAt = &started
	})
	metrics.AddBatchesRunning(1)
	defer metrics.AddBatchesRunning(-1)

	sum, err := s.RunBatch(ctx, j.Period)

	finished := s.now()
	status := types.BatchCompleted
	if err != nil {
		status = types.BatchFailed
	}
	s.batches.update(j.BatchID, func(b *types.Batch) {
		b.Status = status
		b.Processed, b.Skipped, b.Errors = sum.Processed, sum.Skipped, sum.Errors
		b.FinishedAt = &finished
		if err != nil {
			b.Error = err.Error()
		}
	})
	metrics.RecordBatch(status, sum.Processed, sum.Skipped, sum.Errors, finished.Sub(started))
	return err
}

// RunBatch scores every player of the period's season with bounded
// parallelism, then atomically replaces the period's stored results.
// Players without rows in the period are skipped; per-player failures are
// logged and counted without aborting the batch. A stale replace is retried
// as a whole.
func (s *Service) RunBatch(ctx context.Context, p model.Period) (Summary, error) {
	var sum Summary
	if err := p.Validate(); err != nil {
		return sum, err
	}
	ctx = logger.WithFields(ctx, logger.String("period", p.Key()))

	players, err := s.stats.Players(ctx, p.Season)
	if err != nil {
		return sum, eris.Wrap(err, "list players")
	}
	models, err := s.results.Models(ctx, p)
	if err != nil {
		return sum, eris.Wrap(err, "load calibration models")
	}
	league, err := statsource.LoadLeague(ctx, s.stats, p)
	if err != nil {
		return sum, eris.Wrap(err, "load league context")
	}
	s.warnUncalibrated(ctx, models)
	eng := s.engine.With(scoring.Models(models))

	var processed, skipped, failed atomic.Int64
	scored := make([]model.ScoreResult, len(players))
	ok := make([]bool, len(players))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, ref := range players {
		g.Go(func() error {
			r, err := s.compute(gctx, eng, ref.PlayerID, p, league, sourceBatch)
			switch {
			case err == nil:
				scored[i], ok[i] = r, true
				processed.Add(1)
			case errors.Is(err, scoring.ErrNoData):
				skipped.Add(1)
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				failed.Add(1)
				metrics.RecordScoringError("computation")
				s.logger.Error(gctx, "player scoring failed",
					logger.String("player_id", ref.PlayerID),
					logger.Error(err))
			}
			return nil
		})
	}
	err = g.Wait()
	sum = Summary{Processed: processed.Load(), Skipped: skipped.Load(), Errors: failed.Load()}
	if err != nil {
		return sum, eris.Wrap(err, "batch interrupted")
	}

	results := make([]model.ScoreResult, 0, sum.Processed)
	for i := range scored {
		if ok[i] {
			results = append(results, scored[i])
		}
	}

	cfg := s.retry
	cfg.OnRetry = func(attempt int, err error) {
		s.logger.Warn(ctx, "retrying period replace", logger.Int("attempt", attempt), logger.Error(err))
	}
	err = retry(ctx, cfg, func(ctx context.Context) error {
		gen, err := s.results.Generation(ctx, p)
		if err != nil {
			return err
		}
		return s.results.ReplacePeriod(ctx, p, gen, results)
	})
	if err != nil {
		return sum, eris.Wrapf(err, "replace period %s", p.Key())
	}

	s.logger.Info(ctx, "batch scored",
		logger.Int64("processed", sum.Processed),
		logger.Int64("skipped", sum.Skipped),
		logger.Int64("errors", sum.Errors))
	return sum, nil
}

// warnUncalibrated logs each position that will fall back to raw
// composites because no usable model is stored.
func (s *Service) warnUncalibrated(ctx context.Context, models scoring.Models) {
	prof := s.engine.Profile()
	for _, pos := range prof.PositionList() {
		if m, ok := models.Model(pos); ok && m.Calibrates() {
			continue
		}
		cfg, _ := prof.For(pos)
		if cfg.Calibration.Strategy == "" || cfg.Calibration.Strategy == calibration.StrategyNone {
			continue
		}
		s.logger.Warn(ctx, "no calibration model, scoring raw composites",
			logger.String("position", string(pos)))
	}
}

// batchRegistry keeps batch states. Beyond limit, the oldest finished
// batches are forgotten.
type batchRegistry struct {
	mu    sync.RWMutex
	byID  map[string]*types.Batch
	order []string
	limit int
}

func newBatchRegistry(limit int) *batchRegistry {
	return &batchRegistry{byID: make(map[string]*types.Batch), limit: limit}
}

func (r *batchRegistry) add(b types.Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[b.ID] = &b
	r.order = append(r.order, b.ID)
	r.trimLocked()
}

func (r *batchRegistry) trimLocked() {
	excess := len(r.order) - r.limit
	if excess <= 0 {
		return
	}
	kept := r.order[:0]
	for _, id := range r.order {
		if excess > 0 && r.byID[id].Done() {
			delete(r.byID, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

func (r *batchRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *batchRegistry) update(id string, fn func(*types.Batch)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.byID[id]; ok {
		fn(b)
	}
	r.trimLocked()
}

func (r *batchRegistry) get(id string) (types.Batch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return types.Batch{}, false
	}
	return *b, true
}

func (r *batchRegistry) counts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[string]int{}
	for _, b := range r.byID {
		out[b.Status]++
	}
	return out
}
