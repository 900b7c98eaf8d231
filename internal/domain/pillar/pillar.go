// Package pillar turns raw metrics into bounded 0..100 pillar scores.
package pillar

import (
	"fmt"
	"math"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/metric"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

// Score bounds.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// MetricSpec declares how one metric feeds a pillar. Floor is expressed in
// the metric's raw space and passes through the same transform, so a missing
// metric scores exactly like its floor.
type MetricSpec struct {
	Key         string    `yaml:"key" json:"key"`
	Transform   Transform `yaml:"transform" json:"transform"`
	Denominator string    `yaml:"denominator,omitempty" json:"denominator,omitempty"`
	Scale       float64   `yaml:"scale,omitempty" json:"scale,omitempty"`
	Min         float64   `yaml:"min,omitempty" json:"min,omitempty"`
	Max         float64   `yaml:"max,omitempty" json:"max,omitempty"`
	Floor       float64   `yaml:"floor" json:"floor"`
	Weight      float64   `yaml:"weight" json:"weight"`
}

// Config is one pillar: an ordered set of weighted metrics.
type Config struct {
	Name    string       `yaml:"name" json:"name"`
	Metrics []MetricSpec `yaml:"metrics" json:"metrics"`
}

// Validate rejects configurations that could leave [0,100] or divide by zero.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: pillar without name", ErrInvalidConfig)
	}
	if len(c.Metrics) == 0 {
		return fmt.Errorf("%w: pillar %s has no metrics", ErrInvalidConfig, c.Name)
	}
	for _, m := range c.Metrics {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("pillar %s: %w", c.Name, err)
		}
	}
	return nil
}

// Validate checks a single metric definition.
func (m MetricSpec) Validate() error {
	if m.Key == "" {
		return fmt.Errorf("%w: metric without key", ErrInvalidConfig)
	}
	if m.Weight < 0 || math.IsNaN(m.Weight) {
		return fmt.Errorf("%w: metric %s has negative weight", ErrInvalidConfig, m.Key)
	}
	switch m.Transform {
	case TransformPercentile:
	case TransformRate:
		if m.Scale <= 0 {
			return fmt.Errorf("%w: metric %s needs a positive scale", ErrInvalidConfig, m.Key)
		}
	case TransformRatio:
		if m.Denominator == "" {
			return fmt.Errorf("%w: ratio metric %s needs a denominator", ErrInvalidConfig, m.Key)
		}
		if m.Scale <= 0 {
			return fmt.Errorf("%w: metric %s needs a positive scale", ErrInvalidConfig, m.Key)
		}
	case TransformScaled:
		if m.Max <= m.Min {
			return fmt.Errorf("%w: metric %s needs max > min", ErrInvalidConfig, m.Key)
		}
	default:
		return fmt.Errorf("%w: metric %s has transform %q", ErrUnknownTransform, m.Key, m.Transform)
	}
	return nil
}

// Value returns the metric's transformed 0..100 contribution before weighting.
func (m MetricSpec) Value(lookup metric.Lookup) float64 {
	if m.Transform == TransformRatio {
		return m.ratio(lookup)
	}
	raw, ok := lookup.Get(m.Key)
	if !ok {
		raw = m.Floor
	}
	return m.apply(raw)
}

// Score computes one pillar: Σ transformed·weight, clamped to [0,100].
func Score(cfg Config, lookup metric.Lookup) float64 {
	if lookup == nil {
		lookup = metric.Unavailable
	}
	total := 0.0
	for _, m := range cfg.Metrics {
		total += m.Value(lookup) * m.Weight
	}
	return Clamp(total)
}

// ScoreAll scores every pillar in configuration order.
func ScoreAll(cfgs []Config, lookup metric.Lookup) []model.PillarScore {
	out := make([]model.PillarScore, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, model.PillarScore{Name: c.Name, Score: Score(c, lookup)})
	}
	return out
}

// Clamp bounds v to [0,100]. NaN resolves to the lower bound.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return MinScore
	case v < MinScore:
		return MinScore
	case v > MaxScore:
		return MaxScore
	}
	return v
}
