package enrich

import (
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/pillar"
	"gonum.org/v1/gonum/stat"
)

// RateMetric is a weekly rate: Numerator/Denominator, or the raw numerator
// when Denominator is empty.
type RateMetric struct {
	Numerator   string `yaml:"numerator" json:"numerator"`
	Denominator string `yaml:"denominator,omitempty" json:"denominator,omitempty"`
}

// StabilityConfig selects the rate metrics whose week-to-week variation
// defines stability for a position, and the variation considered typical.
type StabilityConfig struct {
	Metrics    []RateMetric `yaml:"metrics" json:"metrics"`
	ExpectedCV float64      `yaml:"expected_cv" json:"expected_cv"`
}

func (m RateMetric) weekly(row model.RawStatRow) (float64, bool) {
	num, ok := row.Stats[m.Numerator]
	if !ok {
		return 0, false
	}
	if m.Denominator == "" {
		return num, true
	}
	den := row.Stats[m.Denominator]
	if den <= 0 {
		return 0, false
	}
	return num / den, true
}

// CoefficientOfVariation returns sd/mean of xs and false when it is undefined.
func CoefficientOfVariation(xs []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	mean, sd := stat.MeanStdDev(xs, nil)
	if mean <= 0 {
		return 0, false
	}
	return sd / mean, true
}

// Stability maps relative variability onto 0..100: 100/(1 + cv/expected), so
// typical variability scores 50 and steadier players score higher. Fewer than
// minWeeks active weeks, or no usable metric, is neutral.
func Stability(weekly []model.RawStatRow, cfg StabilityConfig, minWeeks int) float64 {
	if cfg.ExpectedCV <= 0 || len(cfg.Metrics) == 0 {
		return Neutral
	}
	active := make([]model.RawStatRow, 0, len(weekly))
	for _, w := range weekly {
		if w.Active() {
			active = append(active, w)
		}
	}
	if len(active) < minWeeks {
		return Neutral
	}

	sum, n := 0.0, 0
	for _, m := range cfg.Metrics {
		xs := make([]float64, 0, len(active))
		for _, w := range active {
			if v, ok := m.weekly(w); ok {
				xs = append(xs, v)
			}
		}
		if len(xs) < minWeeks {
			continue
		}
		cv, ok := CoefficientOfVariation(xs)
		if !ok {
			continue
		}
		sum += cv
		n++
	}
	if n == 0 {
		return Neutral
	}
	relative := (sum / float64(n)) / cfg.ExpectedCV
	return pillar.Clamp(100 / (1 + relative))
}
