package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/statsource"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/aggregate"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/scoring"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/types"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/metrics"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Calibration fit outcomes recorded on metrics.
const (
	fitOK           = "ok"
	fitInsufficient = "insufficient"
	fitError        = "error"
)

// ImportBenchmarks replaces the period's reference benchmark rows.
func (s *Service) ImportBenchmarks(ctx context.Context, p model.Period, rows []model.ReferenceBenchmarkRow) (types.ImportResult, error) {
	if err := p.Validate(); err != nil {
		return types.ImportResult{}, err
	}
	if err := s.results.ReplaceBenchmarks(ctx, p, rows); err != nil {
		return types.ImportResult{}, eris.Wrapf(err, "import benchmarks %s", p.Key())
	}
	s.logger.Info(ctx, "benchmarks imported", logger.String("period", p.Key()), logger.Int("rows", len(rows)))
	return types.ImportResult{Period: p.Key(), Imported: len(rows)}, nil
}

// FitCalibration derives and stores the calibration model of one position
// for the period from its reference benchmark rows. Each row is paired with
// the player's context metrics for the same period. Too few usable rows is
// calibration.ErrInsufficientReferenceData and an ill-conditioned fit is
// calibration.ErrDegenerateFit; either way any model stored earlier for the
// period and position is removed, so scoring falls back to raw composites.
// Cached scores of the position for the period are recomputed against the
// outcome before FitCalibration returns.
func (s *Service) FitCalibration(ctx context.Context, p model.Period, pos model.Position) (*calibration.Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	prof := s.engine.Profile()
	cfg, err := prof.For(pos)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	ctx = logger.WithFields(ctx, logger.String("period", p.Key()), logger.String("position", string(pos)))

	obs, err := s.observations(ctx, p, pos)
	if err != nil {
		metrics.RecordCalibrationFit(string(pos), fitError, 0, 0)
		return nil, err
	}

	m, err := calibration.Build(pos, p, cfg.Calibration, obs, prof.Priors.MinReferenceRows)
	switch {
	case errors.Is(err, calibration.ErrInsufficientReferenceData):
		metrics.RecordCalibrationFit(string(pos), fitInsufficient, 0, 0)
		s.logger.Warn(ctx, "insufficient reference data, position stays uncalibrated",
			logger.Int("observations", len(obs)),
			logger.Int("min_rows", prof.Priors.MinReferenceRows))
		return nil, s.dropModel(ctx, p, pos, err)
	case errors.Is(err, calibration.ErrDegenerateFit):
		metrics.RecordCalibrationFit(string(pos), fitError, 0, 0)
		s.logger.Warn(ctx, "degenerate calibration fit, position stays uncalibrated", logger.Error(err))
		return nil, s.dropModel(ctx, p, pos, eris.Wrapf(err, "fit calibration %s %s", pos, p.Key()))
	case err != nil:
		metrics.RecordCalibrationFit(string(pos), fitError, 0, 0)
		return nil, eris.Wrapf(err, "fit calibration %s %s", pos, p.Key())
	}

	if err := s.results.SaveModel(ctx, m); err != nil {
		return nil, eris.Wrap(err, "save calibration model")
	}

	var r2, rmse float64
	if m.Report != nil {
		r2, rmse = m.Report.R2, m.Report.RMSE
	}
	metrics.RecordCalibrationFit(string(pos), fitOK, r2, rmse)
	s.logger.Info(ctx, "calibration fitted",
		logger.String("strategy", string(m.Strategy)),
		logger.Int("reference_rows", m.ReferenceRows),
		logger.Float64("r2", r2),
		logger.Float64("rmse", rmse))

	if err := s.refreshCached(ctx, p, pos); err != nil {
		return nil, err
	}
	return m, nil
}

// dropModel removes the stored model after a failed fit and refreshes the
// cached scores it produced. fitErr is returned unless cleanup fails.
func (s *Service) dropModel(ctx context.Context, p model.Period, pos model.Position, fitErr error) error {
	if err := s.results.DeleteModel(ctx, p, pos); err != nil {
		return eris.Wrap(err, "delete calibration model")
	}
	if err := s.refreshCached(ctx, p, pos); err != nil {
		return err
	}
	return fitErr
}

// refreshCached rescores every stored result of the position for the
// period with the models now stored and writes them back. Players that no
// longer score are logged and left as they were.
func (s *Service) refreshCached(ctx context.Context, p model.Period, pos model.Position) error {
	n, err := s.results.Count(ctx)
	if err != nil {
		return eris.Wrap(err, "count stored results")
	}
	if n == 0 {
		return nil
	}
	cached, err := s.results.Leaderboard(ctx, p, pos, n)
	if err != nil {
		return eris.Wrap(err, "list cached scores")
	}
	if len(cached) == 0 {
		return nil
	}

	models, err := s.results.Models(ctx, p)
	if err != nil {
		return eris.Wrap(err, "load calibration models")
	}
	league, err := statsource.LoadLeague(ctx, s.stats, p)
	if err != nil {
		return eris.Wrap(err, "load league context")
	}
	eng := s.engine.With(scoring.Models(models))

	var refreshed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for _, e := range cached {
		id := e.Result.PlayerID
		g.Go(func() error {
			r, err := s.compute(gctx, eng, id, p, league, sourceSingle)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn(gctx, "cached score not refreshed",
					logger.String("player_id", id), logger.Error(err))
				return nil
			}
			if err := s.results.Put(gctx, r); err != nil {
				return eris.Wrapf(err, "store score %s", id)
			}
			refreshed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info(ctx, "cached scores refreshed", logger.Int64("refreshed", refreshed.Load()))
	return nil
}

// observations joins the period's benchmark rows with each player's
// context metrics. Rows for players without stats in the period are
// dropped.
func (s *Service) observations(ctx context.Context, p model.Period, pos model.Position) ([]calibration.Observation, error) {
	rows, err := s.results.Benchmarks(ctx, p, pos)
	if err != nil {
		return nil, eris.Wrap(err, "load benchmarks")
	}
	league, err := statsource.LoadLeague(ctx, s.stats, p)
	if err != nil {
		return nil, eris.Wrap(err, "load league context")
	}

	priors := s.engine.Profile().Priors
	obs := make([]calibration.Observation, 0, len(rows))
	for _, row := range rows {
		stats, err := s.stats.PlayerRows(ctx, row.PlayerID, p.Season)
		if err != nil {
			return nil, eris.Wrapf(err, "load rows for %s", row.PlayerID)
		}
		if len(stats) == 0 {
			continue
		}
		ref := refFromRows(row.PlayerID, stats)
		ref.Position = pos
		agg, err := aggregate.ForPeriod(ref, stats, p, priors)
		if errors.Is(err, aggregate.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate %s", row.PlayerID)
		}
		in, err := s.engine.Prepare(agg, league)
		if err != nil {
			return nil, err
		}
		obs = append(obs, calibration.Observation{
			PlayerID:   row.PlayerID,
			SampleSize: row.SampleSize,
			Raw:        row.RawValue,
			Adjusted:   row.AdjustedValue,
			Context:    in.Lookup(),
		})
	}
	return obs, nil
}

// CalibrationModel returns the stored model for the period and position,
// or repository.ErrNotFound.
func (s *Service) CalibrationModel(ctx context.Context, p model.Period, pos model.Position) (*calibration.Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.results.Model(ctx, p, pos)
}
