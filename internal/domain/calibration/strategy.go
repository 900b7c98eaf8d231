// Package calibration maps raw composite values onto an externally validated
// scale. Fitting (reference rows to coefficients) and application
// (deviations and coefficients to an adjustment) are separate pure steps.
package calibration

import (
	"fmt"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/metric"
)

// Strategy selects how a position is calibrated.
type Strategy string

// Strategies.
const (
	// StrategyDeviation applies configured coefficients to deviations from
	// reference-population baselines.
	StrategyDeviation Strategy = "deviation"
	// StrategyRegression fits the coefficients by least squares first.
	StrategyRegression Strategy = "regression"
	// StrategyNone leaves composites uncalibrated.
	StrategyNone Strategy = "none"
)

// Term is one named adjustment: Coefficient × (Metric − baseline).
type Term struct {
	Name        string  `yaml:"name" json:"name"`
	Metric      string  `yaml:"metric" json:"metric"`
	Coefficient float64 `yaml:"coefficient" json:"coefficient"`
}

// StrategyConfig is the per-position calibration section of a profile.
type StrategyConfig struct {
	Strategy Strategy `yaml:"strategy" json:"strategy"`
	Terms    []Term   `yaml:"terms" json:"terms"`
}

// Validate checks the strategy name and terms.
func (c StrategyConfig) Validate() error {
	switch c.Strategy {
	case StrategyNone:
		return nil
	case StrategyDeviation, StrategyRegression:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStrategy, c.Strategy)
	}
	if len(c.Terms) == 0 {
		return fmt.Errorf("%w: %s needs at least one term", ErrInvalidStrategy, c.Strategy)
	}
	seen := make(map[string]struct{}, len(c.Terms))
	for _, t := range c.Terms {
		if t.Metric == "" {
			return fmt.Errorf("%w: term %q without metric", ErrInvalidStrategy, t.Name)
		}
		if _, dup := seen[t.Metric]; dup {
			return fmt.Errorf("%w: metric %s used twice", ErrInvalidStrategy, t.Metric)
		}
		seen[t.Metric] = struct{}{}
	}
	return nil
}

// Metrics lists term metrics in order.
func (c StrategyConfig) Metrics() []string {
	out := make([]string, len(c.Terms))
	for i, t := range c.Terms {
		out[i] = t.Metric
	}
	return out
}

// Observation pairs one reference row with the subject's context metrics.
type Observation struct {
	PlayerID   string
	SampleSize float64
	Raw        float64
	Adjusted   float64
	Context    metric.Lookup
}

// Population keeps the observations usable for every metric: positive sample
// size and every term metric available. Baselines and fits both run over
// exactly this set.
func Population(obs []Observation, metrics []string) []Observation {
	out := make([]Observation, 0, len(obs))
next:
	for _, o := range obs {
		if o.SampleSize <= 0 || o.Context == nil {
			continue
		}
		for _, m := range metrics {
			if _, ok := o.Context.Get(m); !ok {
				continue next
			}
		}
		out = append(out, o)
	}
	return out
}

// Baselines are sample-size-weighted population means per metric.
type Baselines map[string]float64

// ComputeBaselines weights each observation by its sample size.
func ComputeBaselines(pop []Observation, metrics []string) (Baselines, error) {
	total := 0.0
	for _, o := range pop {
		total += o.SampleSize
	}
	if len(pop) == 0 || total <= 0 {
		return nil, fmt.Errorf("%w: empty reference population", ErrInsufficientReferenceData)
	}
	out := make(Baselines, len(metrics))
	for _, m := range metrics {
		sum := 0.0
		for _, o := range pop {
			v, _ := o.Context.Get(m)
			sum += v * o.SampleSize
		}
		out[m] = sum / total
	}
	return out, nil
}
