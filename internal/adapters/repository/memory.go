package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/metrics"
)

type modelKey struct {
	period   model.Period
	position model.Position
}

// MemoryStore is an in-process Store. Each period has its own treap index
// which ReplacePeriod swaps under the write lock, so readers see either the
// old or the new result set.
type MemoryStore struct {
	mu         sync.RWMutex
	periods    map[model.Period]*periodIndex
	models     map[modelKey]*calibration.Model
	benchmarks map[model.Period][]model.ReferenceBenchmarkRow
	logger     logger.Logger
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := applyOptions(opts)
	return &MemoryStore{
		periods:    make(map[model.Period]*periodIndex),
		models:     make(map[modelKey]*calibration.Model),
		benchmarks: make(map[model.Period][]model.ReferenceBenchmarkRow),
		logger:     o.logger,
	}
}

// Get implements ResultStore.
func (s *MemoryStore) Get(_ context.Context, key model.ResultKey) (model.ScoreResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ix, ok := s.periods[key.Period]
	if !ok {
		return model.ScoreResult{}, fmt.Errorf("%w: %s %s", ErrNotFound, key.PlayerID, key.Period.Key())
	}
	r, ok := ix.byID[key.PlayerID]
	if !ok {
		return model.ScoreResult{}, fmt.Errorf("%w: %s %s", ErrNotFound, key.PlayerID, key.Period.Key())
	}
	return r, nil
}

// Put implements ResultStore.
func (s *MemoryStore) Put(_ context.Context, r model.ScoreResult) error {
	if r.PlayerID == "" {
		return fmt.Errorf("%w: empty player id", ErrInvalidResult)
	}
	if err := r.Period().Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	ix, ok := s.periods[r.Period()]
	if !ok {
		ix = newPeriodIndex(0, nil)
		s.periods[r.Period()] = ix
	}
	ix.put(r)
	rows := s.countLocked()
	s.mu.Unlock()

	metrics.UpdateStoreRows(rows)
	return nil
}

// Generation implements ResultStore.
func (s *MemoryStore) Generation(_ context.Context, p model.Period) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ix, ok := s.periods[p]; ok {
		return ix.generation, nil
	}
	return 0, nil
}

// ReplacePeriod implements ResultStore.
func (s *MemoryStore) ReplacePeriod(ctx context.Context, p model.Period, generation int64, results []model.ScoreResult) error {
	start := time.Now()
	if err := validateReplace(p, results); err != nil {
		return err
	}
	// Build outside the lock; the swap itself is a pointer store.
	next := newPeriodIndex(generation+1, results)

	s.mu.Lock()
	var current int64
	if ix, ok := s.periods[p]; ok {
		current = ix.generation
	}
	if current != generation {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s at generation %d, expected %d", ErrStaleState, p.Key(), current, generation)
	}
	s.periods[p] = next
	rows := s.countLocked()
	s.mu.Unlock()

	metrics.RecordStoreReplace(DriverMemory, time.Since(start))
	metrics.UpdateStoreRows(rows)
	s.logger.Debug(ctx, "period replaced",
		logger.String("period", p.Key()),
		logger.Int("results", len(results)),
		logger.Int64("generation", generation+1))
	return nil
}

// Leaderboard implements ResultStore.
func (s *MemoryStore) Leaderboard(_ context.Context, p model.Period, pos model.Position, limit int) ([]Entry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ix, ok := s.periods[p]
	if !ok {
		return []Entry{}, nil
	}
	return ix.top(pos, limit), nil
}

// Count implements ResultStore.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(), nil
}

func (s *MemoryStore) countLocked() int {
	n := 0
	for _, ix := range s.periods {
		n += ix.len()
	}
	return n
}

// SaveModel implements CalibrationStore.
func (s *MemoryStore) SaveModel(_ context.Context, m *calibration.Model) error {
	if m == nil {
		return fmt.Errorf("%w: nil calibration model", ErrInvalidResult)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[modelKey{period: m.Period, position: m.Position}] = m.Clone()
	return nil
}

// Model implements CalibrationStore.
func (s *MemoryStore) Model(_ context.Context, p model.Period, pos model.Position) (*calibration.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[modelKey{period: p, position: pos}]
	if !ok {
		return nil, fmt.Errorf("%w: calibration %s %s", ErrNotFound, pos, p.Key())
	}
	return m.Clone(), nil
}

// Models implements CalibrationStore.
func (s *MemoryStore) Models(_ context.Context, p model.Period) (map[model.Position]*calibration.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.Position]*calibration.Model)
	for k, m := range s.models {
		if k.period == p {
			out[k.position] = m.Clone()
		}
	}
	return out, nil
}

// DeleteModel implements CalibrationStore.
func (s *MemoryStore) DeleteModel(_ context.Context, p model.Period, pos model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.models, modelKey{period: p, position: pos})
	return nil
}

// ReplaceBenchmarks implements BenchmarkStore.
func (s *MemoryStore) ReplaceBenchmarks(_ context.Context, p model.Period, rows []model.ReferenceBenchmarkRow) error {
	if err := validateBenchmarks(p, rows); err != nil {
		return err
	}
	next := append([]model.ReferenceBenchmarkRow(nil), rows...)
	sort.Slice(next, func(i, j int) bool { return next[i].PlayerID < next[j].PlayerID })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.benchmarks[p] = next
	return nil
}

// Benchmarks implements BenchmarkStore.
func (s *MemoryStore) Benchmarks(_ context.Context, p model.Period, pos model.Position) ([]model.ReferenceBenchmarkRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ReferenceBenchmarkRow, 0, len(s.benchmarks[p]))
	for _, r := range s.benchmarks[p] {
		if pos == "" || r.Position == pos {
			out = append(out, r)
		}
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
