package pillar

import "github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/metric"

// Transform names how a raw metric maps onto 0..100.
type Transform string

// Supported transforms.
const (
	// TransformPercentile treats the value as already bounded to 0..100.
	TransformPercentile Transform = "percentile"
	// TransformRate multiplies a rate by Scale.
	TransformRate Transform = "rate"
	// TransformRatio divides the metric by Denominator and multiplies by Scale.
	TransformRatio Transform = "ratio"
	// TransformScaled maps [Min, Max] linearly onto [0, 100].
	TransformScaled Transform = "scaled"
)

// apply maps a raw-space value through the transform. Ratio values arrive
// here already divided.
func (m MetricSpec) apply(raw float64) float64 {
	switch m.Transform {
	case TransformRate, TransformRatio:
		return Clamp(raw * m.Scale)
	case TransformScaled:
		span := m.Max - m.Min
		if span <= 0 {
			return Clamp(m.Floor)
		}
		return Clamp((raw - m.Min) / span * MaxScore)
	default:
		return Clamp(raw)
	}
}

// ratio guards every division: a missing numerator, a missing denominator or
// a non-positive denominator all fall back to the floor ratio.
func (m MetricSpec) ratio(lookup metric.Lookup) float64 {
	num, okNum := lookup.Get(m.Key)
	den, okDen := lookup.Get(m.Denominator)
	if !okNum || !okDen || den <= 0 {
		return m.apply(m.Floor)
	}
	return m.apply(num / den)
}
