package synthetic

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/statsource"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/aggregate"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/scoring"
)

// Truth is a known linear relation between context metrics and the
// benchmark adjustment: adjusted − raw = Intercept + Σ c·metric + ε, with ε
// drawn from N(0, Noise²).
type Truth struct {
	Intercept    float64
	Coefficients map[string]float64
	Noise        float64
}

func (t Truth) metrics() []string {
	out := make([]string, 0, len(t.Coefficients))
	for m := range t.Coefficients {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Benchmarks scores every player at pos through eng, uncalibrated, and
// emits reference rows whose adjustment follows truth. Players without rows
// in the period are skipped.
func (l *League) Benchmarks(ctx context.Context, src statsource.Source, eng *scoring.Engine, p model.Period, pos model.Position, truth Truth) ([]model.ReferenceBenchmarkRow, error) {
	league, err := statsource.LoadLeague(ctx, src, p)
	if err != nil {
		return nil, err
	}
	uncalibrated := eng.With(scoring.Models{})
	priors := eng.Profile().Priors
	metrics := truth.metrics()
	rng := rand.New(rand.NewPCG(l.Config.Seed, uint64(p.Season)<<8|uint64(p.ThroughWeek)))

	var out []model.ReferenceBenchmarkRow
	for _, ref := range l.PlayersAt(pos) {
		rows, err := src.PlayerRows(ctx, ref.PlayerID, p.Season)
		if err != nil {
			return nil, err
		}
		agg, err := aggregate.ForPeriod(ref, rows, p, priors)
		if errors.Is(err, aggregate.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("aggregate %s: %w", ref.PlayerID, err)
		}
		in, err := uncalibrated.Prepare(agg, league)
		if err != nil {
			return nil, err
		}
		res, err := uncalibrated.Score(ctx, in)
		if err != nil {
			return nil, err
		}

		lookup := in.Lookup()
		adj := truth.Intercept
		for _, m := range metrics {
			if v, ok := lookup.Get(m); ok {
				adj += truth.Coefficients[m] * v
			}
		}
		adj += rng.NormFloat64() * truth.Noise

		out = append(out, model.ReferenceBenchmarkRow{
			PlayerID:      ref.PlayerID,
			Team:          res.Team,
			Position:      pos,
			Season:        p.Season,
			ThroughWeek:   p.ThroughWeek,
			RawValue:      res.Composite,
			AdjustedValue: res.Composite + adj,
			SampleSize:    res.SampleSize,
		})
	}
	return out, nil
}
