// Package repository persists score results, calibration models and
// reference benchmarks. Memory, SQLite and PostgreSQL stores share one
// interface and the same period-replace semantics.
package repository

import (
	"context"
	"fmt"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Entry is one leaderboard row.
type Entry struct {
	Rank   int               `json:"rank"`
	Result model.ScoreResult `json:"result"`
}

// ResultStore holds ScoreResults keyed by (player, period).
type ResultStore interface {
	// Get returns a stored result or ErrNotFound.
	Get(ctx context.Context, key model.ResultKey) (model.ScoreResult, error)

	// Put upserts a single result.
	Put(ctx context.Context, r model.ScoreResult) error

	// Generation returns the number of completed replaces for a period.
	Generation(ctx context.Context, p model.Period) (int64, error)

	// ReplacePeriod swaps every result of a period for results in one step.
	// It fails with ErrStaleState, applying nothing, when the period's
	// generation is no longer generation.
	ReplacePeriod(ctx context.Context, p model.Period, generation int64, results []model.ScoreResult) error

	// Leaderboard returns up to limit results of a period ordered by
	// calibrated score desc then player id. An empty position means all.
	Leaderboard(ctx context.Context, p model.Period, pos model.Position, limit int) ([]Entry, error)

	// Count returns the number of stored results.
	Count(ctx context.Context) (int, error)
}

// CalibrationStore holds fitted calibration models per (period, position).
type CalibrationStore interface {
	SaveModel(ctx context.Context, m *calibration.Model) error
	Model(ctx context.Context, p model.Period, pos model.Position) (*calibration.Model, error)
	Models(ctx context.Context, p model.Period) (map[model.Position]*calibration.Model, error)
	// DeleteModel removes a stored model. Deleting a missing model is not
	// an error.
	DeleteModel(ctx context.Context, p model.Period, pos model.Position) error
}

// BenchmarkStore holds reference benchmark rows per period.
type BenchmarkStore interface {
	// ReplaceBenchmarks atomically swaps a period's benchmark rows.
	ReplaceBenchmarks(ctx context.Context, p model.Period, rows []model.ReferenceBenchmarkRow) error
	// Benchmarks lists a period's rows ordered by player id. An empty
	// position means all.
	Benchmarks(ctx context.Context, p model.Period, pos model.Position) ([]model.ReferenceBenchmarkRow, error)
}

// Store is the full persistence surface.
type Store interface {
	ResultStore
	CalibrationStore
	BenchmarkStore
	Close() error
}

// validateReplace checks that every result belongs to the period and that
// no player appears twice.
func validateReplace(p model.Period, results []model.ScoreResult) error {
	if err := p.Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r.PlayerID == "" {
			return fmt.Errorf("%w: empty player id", ErrInvalidResult)
		}
		if r.Period() != p {
			return fmt.Errorf("%w: %s belongs to %s, not %s", ErrInvalidResult, r.PlayerID, r.Period().Key(), p.Key())
		}
		if _, dup := seen[r.PlayerID]; dup {
			return fmt.Errorf("%w: duplicate player %s", ErrInvalidResult, r.PlayerID)
		}
		seen[r.PlayerID] = struct{}{}
	}
	return nil
}

func validateBenchmarks(p model.Period, rows []model.ReferenceBenchmarkRow) error {
	if err := p.Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r.PlayerID == "" {
			return fmt.Errorf("%w: benchmark without player id", ErrInvalidResult)
		}
		if r.Season != p.Season || r.ThroughWeek != p.ThroughWeek {
			return fmt.Errorf("%w: benchmark %s outside %s", ErrInvalidResult, r.PlayerID, p.Key())
		}
		if _, dup := seen[r.PlayerID]; dup {
			return fmt.Errorf("%w: duplicate benchmark %s", ErrInvalidResult, r.PlayerID)
		}
		seen[r.PlayerID] = struct{}{}
	}
	return nil
}

// assignRanks applies competition ranking: tied calibrated scores share a
// rank and the next distinct score skips past them (1, 1, 3).
func assignRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Result.Calibrated == entries[i-1].Result.Calibrated {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
