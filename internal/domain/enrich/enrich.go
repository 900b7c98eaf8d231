// Package enrich derives context metrics (usage share, scheme fit, opponent
// quality, stability) from player, team and league aggregates.
package enrich

import (
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/aggregate"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/metric"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/pillar"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/prior"
)

// Neutral is the midpoint every enricher falls back to.
const Neutral = 50.0

// Output metric keys.
const (
	KeySnapShare       = "snap_share"
	KeySchemeFit       = "scheme_fit"
	KeyOpponentQuality = "opponent_quality"
	KeyStability       = "stability"
)

// League carries the team-level inputs for one season and period.
type League struct {
	// TeamWeeks maps team code to that team's weekly rows.
	TeamWeeks map[string][]model.TeamWeekRow
	// DefenseRatings maps team code to a 0..100 defensive strength.
	DefenseRatings map[string]float64
}

// Compute returns every context metric for one player aggregate.
func Compute(agg aggregate.Aggregate, league League, stability StabilityConfig, priors prior.Config) metric.Values {
	teamRows := periodRows(league.TeamWeeks[agg.Team], agg.Period)
	opp := OpponentQuality(agg.Opponents, league.DefenseRatings)
	return metric.Values{
		KeySnapShare:       SnapShare(agg, teamRows),
		KeySchemeFit:       SchemeFit(agg.Position, teamRows, opp, priors),
		KeyOpponentQuality: opp,
		KeyStability:       Stability(agg.Weekly, stability, priors.MinActiveWeeks),
	}
}

func periodRows(rows []model.TeamWeekRow, p model.Period) []model.TeamWeekRow {
	out := make([]model.TeamWeekRow, 0, len(rows))
	for _, r := range rows {
		if r.Season == p.Season && p.Includes(r.Week) {
			out = append(out, r)
		}
	}
	return out
}

// SnapShare averages the player's weekly share of team snaps over weeks with
// nonzero usage and a known team total. Season aggregates without weekly rows
// use the season totals.
func SnapShare(agg aggregate.Aggregate, teamRows []model.TeamWeekRow) float64 {
	teamByWeek := make(map[int]float64, len(teamRows))
	teamTotal := 0.0
	for _, r := range teamRows {
		teamByWeek[r.Week] = r.Stats[model.StatTeamSnaps]
		teamTotal += r.Stats[model.StatTeamSnaps]
	}

	if len(agg.Weekly) == 0 {
		usage := agg.Totals[model.StatSnaps]
		if usage <= 0 || teamTotal <= 0 {
			return Neutral
		}
		return pillar.Clamp(usage / teamTotal * 100)
	}

	sum, n := 0.0, 0
	for _, w := range agg.Weekly {
		usage := w.Stats[model.StatSnaps]
		team := teamByWeek[w.Week]
		if usage <= 0 || team <= 0 {
			continue
		}
		sum += usage / team
		n++
	}
	if n == 0 {
		return Neutral
	}
	return pillar.Clamp(sum / float64(n) * 100)
}

// OpponentQuality averages the defensive ratings of opponents faced. Unknown
// opponents are skipped.
func OpponentQuality(opponents []string, ratings map[string]float64) float64 {
	sum, n := 0.0, 0
	for _, o := range opponents {
		r, ok := ratings[o]
		if !ok {
			continue
		}
		sum += r
		n++
	}
	if n == 0 {
		return Neutral
	}
	return pillar.Clamp(sum / float64(n))
}
