// Package composite combines pillar scores with position weight profiles.
package composite

import (
	"errors"
	"fmt"
	"math"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/pillar"
)

// Neutral is the composite used when no pillar carries weight.
const Neutral = 50.0

// ErrInvalidWeights reports a negative or non-finite weight.
var ErrInvalidWeights = errors.New("invalid weight profile")

// WeightProfile maps pillar names to weights. Weights need not sum to any
// fixed total; they are normalized when combining.
type WeightProfile map[string]float64

// Validate rejects negative and non-finite weights.
func (w WeightProfile) Validate() error {
	for name, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeights, name, v)
		}
	}
	return nil
}

// Total returns the sum of weights.
func (w WeightProfile) Total() float64 {
	t := 0.0
	for _, v := range w {
		t += v
	}
	return t
}

// Combine returns Σ(score·weight)/Σ(weight) over the given pillars, in their
// order. Pillars without a weight contribute nothing; a zero total yields
// Neutral.
func Combine(w WeightProfile, pillars []model.PillarScore) float64 {
	num, den := 0.0, 0.0
	for _, p := range pillars {
		weight := w[p.Name]
		if weight <= 0 {
			continue
		}
		num += p.Score * weight
		den += weight
	}
	if den <= 0 {
		return Neutral
	}
	return pillar.Clamp(num / den)
}
