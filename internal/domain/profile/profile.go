// Package profile holds the versioned scoring configuration: per position
// pillars, weights, tier cutoffs, calibration strategy and stability inputs,
// plus the league priors.
package profile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/composite"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/enrich"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/pillar"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/prior"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/tier"
)

// Sentinel errors.
var (
	ErrInvalidProfile  = errors.New("invalid scoring profile")
	ErrUnknownPosition = errors.New("position not in profile")
)

// Position is the scoring configuration for one roster position.
type Position struct {
	Pillars     []pillar.Config            `yaml:"pillars" json:"pillars"`
	Weights     composite.WeightProfile    `yaml:"weights" json:"weights"`
	Tiers       tier.Ladder                `yaml:"tiers" json:"tiers"`
	Calibration calibration.StrategyConfig `yaml:"calibration" json:"calibration"`
	Stability   enrich.StabilityConfig     `yaml:"stability" json:"stability"`
}

// Profile is a complete, versioned scoring configuration.
type Profile struct {
	Version   string                      `yaml:"version" json:"version"`
	Priors    prior.Config                `yaml:"priors" json:"priors"`
	Positions map[model.Position]Position `yaml:"positions" json:"positions"`
}

// For returns the configuration of one position.
func (p *Profile) For(pos model.Position) (Position, error) {
	cfg, ok := p.Positions[pos]
	if !ok {
		return Position{}, fmt.Errorf("%w: %s", ErrUnknownPosition, pos)
	}
	return cfg, nil
}

// PositionList returns configured positions in sorted order.
func (p *Profile) PositionList() []model.Position {
	out := make([]model.Position, 0, len(p.Positions))
	for pos := range p.Positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks every section. The first problem found is returned.
func (p *Profile) Validate() error {
	if p.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidProfile)
	}
	if err := p.Priors.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if len(p.Positions) == 0 {
		return fmt.Errorf("%w: no positions", ErrInvalidProfile)
	}
	for _, pos := range p.PositionList() {
		if _, err := model.ParsePosition(string(pos)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
		if err := p.Positions[pos].validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidProfile, pos, err)
		}
	}
	return nil
}

func (c Position) validate() error {
	if len(c.Pillars) == 0 {
		return errors.New("no pillars")
	}
	names := make(map[string]struct{}, len(c.Pillars))
	for _, pc := range c.Pillars {
		if err := pc.Validate(); err != nil {
			return err
		}
		if _, dup := names[pc.Name]; dup {
			return fmt.Errorf("duplicate pillar %s", pc.Name)
		}
		names[pc.Name] = struct{}{}
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	for name := range c.Weights {
		if _, ok := names[name]; !ok {
			return fmt.Errorf("weight for unknown pillar %s", name)
		}
	}
	if err := c.Tiers.Validate(); err != nil {
		return err
	}
	if err := c.Calibration.Validate(); err != nil {
		return err
	}
	for _, m := range c.Stability.Metrics {
		if m.Numerator == "" {
			return errors.New("stability metric without numerator")
		}
	}
	if c.Stability.ExpectedCV < 0 {
		return errors.New("stability expected_cv must be non-negative")
	}
	return nil
}
