// Package scoring runs the per-entity pipeline: metric lookup, pillars,
// weighted composite, calibration, tier and confidence.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/aggregate"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/composite"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/enrich"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/metric"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/pillar"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/profile"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
)

// Input is everything needed to score one player for one period.
type Input struct {
	Aggregate  aggregate.Aggregate
	Enrichment metric.Values
}

// Lookup layers enrichment metrics over the aggregate's own metrics.
func (in Input) Lookup() metric.Lookup {
	return metric.Merge(in.Aggregate.Metrics(), in.Enrichment)
}

// Scorer computes a ScoreResult from an input.
type Scorer interface {
	Score(ctx context.Context, in Input) (model.ScoreResult, error)
}

// ModelSource supplies the calibration model for a position, if any.
type ModelSource interface {
	Model(pos model.Position) (*calibration.Model, bool)
}

// Models is a map-backed ModelSource.
type Models map[model.Position]*calibration.Model

// Model implements ModelSource.
func (m Models) Model(pos model.Position) (*calibration.Model, bool) {
	cm, ok := m[pos]
	return cm, ok && cm != nil
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithModels sets the calibration models applied after combination.
func WithModels(src ModelSource) Option {
	return func(e *Engine) {
		if src != nil {
			e.models = src
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine implements Scorer against a scoring profile. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	profile *profile.Profile
	models  ModelSource
	logger  logger.Logger
}

// NewEngine creates an engine for the given profile.
func NewEngine(p *profile.Profile, opts ...Option) *Engine {
	e := &Engine{
		profile: p,
		models:  Models{},
		logger:  logger.Get().Named("scoring"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Profile returns the engine's profile.
func (e *Engine) Profile() *profile.Profile { return e.profile }

// With returns a copy of the engine using different calibration models.
func (e *Engine) With(src ModelSource) *Engine {
	c := *e
	if src != nil {
		c.models = src
	}
	return &c
}

// Prepare computes the context enrichment for an aggregate.
func (e *Engine) Prepare(agg aggregate.Aggregate, league enrich.League) (Input, error) {
	cfg, err := e.profile.For(agg.Position)
	if err != nil {
		return Input{}, fmt.Errorf("%w: %w", ErrComputation, err)
	}
	return Input{
		Aggregate:  agg,
		Enrichment: enrich.Compute(agg, league, cfg.Stability, e.profile.Priors),
	}, nil
}

// Score implements Scorer.
func (e *Engine) Score(ctx context.Context, in Input) (model.ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ScoreResult{}, fmt.Errorf("score %s: %w", in.Aggregate.PlayerID, err)
	}
	agg := in.Aggregate
	cfg, err := e.profile.For(agg.Position)
	if err != nil {
		return model.ScoreResult{}, fmt.Errorf("%w: %w", ErrComputation, err)
	}

	lookup := in.Lookup()
	pillars := pillar.ScoreAll(cfg.Pillars, lookup)
	raw := composite.Combine(cfg.Weights, pillars)

	calibrated, isCalibrated := raw, false
	if m, ok := e.models.Model(agg.Position); ok && m.Calibrates() {
		calibrated = m.Apply(raw, lookup)
		isCalibrated = true
	}
	label, rank := cfg.Tiers.Map(calibrated)

	res := model.ScoreResult{
		PlayerID:       agg.PlayerID,
		Name:           agg.Name,
		Team:           agg.Team,
		Position:       agg.Position,
		Season:         agg.Period.Season,
		ThroughWeek:    agg.Period.ThroughWeek,
		Pillars:        pillars,
		Composite:      raw,
		Calibrated:     calibrated,
		IsCalibrated:   isCalibrated,
		Tier:           label,
		TierRank:       rank,
		SampleSize:     agg.SampleSize(),
		ActiveWeeks:    agg.ActiveWeeks,
		ProfileVersion: e.profile.Version,
	}
	res.Confidence = Grade(isCalibrated, agg.ActiveWeeks, res.SampleSize, e.profile.Priors.MinActiveWeeks, e.profile.Priors.HighConfidenceSample)

	if err := checkFinite(res); err != nil {
		e.logger.Error(ctx, "non-finite score",
			logger.String("player_id", agg.PlayerID),
			logger.String("period", agg.Period.Key()),
			logger.Error(err))
		return model.ScoreResult{}, err
	}
	return res, nil
}

// Grade assigns a confidence level. Uncalibrated results and results with
// too few active weeks are low confidence.
func Grade(calibrated bool, activeWeeks int, sample float64, minWeeks int, highSample float64) model.Confidence {
	switch {
	case !calibrated || activeWeeks < minWeeks:
		return model.ConfidenceLow
	case sample >= highSample:
		return model.ConfidenceHigh
	default:
		return model.ConfidenceMedium
	}
}

func checkFinite(r model.ScoreResult) error {
	bad := func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }
	for _, p := range r.Pillars {
		if bad(p.Score) {
			return fmt.Errorf("%w: pillar %s", ErrComputation, p.Name)
		}
	}
	if bad(r.Composite) || bad(r.Calibrated) || bad(r.SampleSize) {
		return fmt.Errorf("%w: composite=%v calibrated=%v", ErrComputation, r.Composite, r.Calibrated)
	}
	return nil
}
