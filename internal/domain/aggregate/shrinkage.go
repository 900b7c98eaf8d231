package aggregate

import (
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/metric"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/prior"
)

// Shrink blends an observed rate with a prior:
// (events + priorRate·priorSample) / (sample + priorSample).
// With no observations and no prior weight it returns priorRate.
func Shrink(events, sample, priorRate, priorSample float64) float64 {
	den := sample + priorSample
	if den <= 0 {
		return priorRate
	}
	return (events + priorRate*priorSample) / den
}

// SmoothedRates computes every configured rate from summed totals.
func SmoothedRates(totals metric.Values, priors prior.Config) metric.Values {
	out := make(metric.Values, len(priors.Rates))
	for _, r := range priors.Rates {
		events, _ := totals.Get(r.Events)
		sample, _ := totals.Get(r.Sample)
		out[r.Name] = Shrink(events, sample, r.Rate, r.SampleSize)
	}
	return out
}
