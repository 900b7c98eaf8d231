// Package aggregate folds weekly stat rows into season-shaped aggregates,
// either for a full season or for a through-week prefix.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/metric"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/prior"
)

// StatGames is the games-played key on season total rows.
const StatGames = "games"

// Aggregate is one player's statistics over a period.
type Aggregate struct {
	PlayerID    string
	Name        string
	Team        string
	Position    model.Position
	Period      model.Period
	ActiveWeeks int
	Totals      metric.Values
	Rates       metric.Values
	// Weekly holds the folded rows in week order; empty for season totals.
	Weekly    []model.RawStatRow
	Opponents []string
}

// Metrics exposes totals and smoothed rates through one lookup map.
func (a Aggregate) Metrics() metric.Values {
	out := make(metric.Values, len(a.Totals)+len(a.Rates)+1)
	for k, v := range a.Totals {
		out[k] = v
	}
	for k, v := range a.Rates {
		out[k] = v
	}
	out[StatGames] = float64(a.ActiveWeeks)
	return out
}

// SampleSize returns the snap total used for confidence grading.
func (a Aggregate) SampleSize() float64 {
	return a.Totals[model.StatSnaps]
}

// Accumulator builds an aggregate one week at a time.
type Accumulator struct {
	priors   prior.Config
	agg      Aggregate
	lastWeek int
}

// NewAccumulator starts an empty aggregate for a player and season.
func NewAccumulator(ref model.PlayerRef, season int, priors prior.Config) *Accumulator {
	return &Accumulator{
		priors: priors,
		agg: Aggregate{
			PlayerID: ref.PlayerID,
			Name:     ref.Name,
			Team:     ref.Team,
			Position: ref.Position,
			Period:   model.SeasonPeriod(season),
			Totals:   metric.Values{},
		},
	}
}

// Add folds one weekly row. Weeks must arrive strictly increasing.
func (a *Accumulator) Add(row model.RawStatRow) error {
	if row.IsSeasonTotal() {
		return fmt.Errorf("%w: player %s", ErrSeasonRow, row.PlayerID)
	}
	if row.PlayerID != a.agg.PlayerID {
		return fmt.Errorf("%w: %s != %s", ErrPlayerMismatch, row.PlayerID, a.agg.PlayerID)
	}
	if row.Season != a.agg.Period.Season {
		return fmt.Errorf("%w: season %d != %d", ErrPlayerMismatch, row.Season, a.agg.Period.Season)
	}
	if row.Week <= a.lastWeek {
		return fmt.Errorf("%w: week %d after %d", ErrOutOfOrder, row.Week, a.lastWeek)
	}
	a.lastWeek = row.Week

	for k, v := range row.Stats {
		a.agg.Totals[k] += v
	}
	if row.Active() {
		a.agg.ActiveWeeks++
	}
	if row.Team != "" {
		a.agg.Team = row.Team
	}
	if row.Name != "" {
		a.agg.Name = row.Name
	}
	if row.Position != "" {
		a.agg.Position = row.Position
	}
	if row.Opponent != "" {
		a.agg.Opponents = append(a.agg.Opponents, row.Opponent)
	}
	a.agg.Weekly = append(a.agg.Weekly, row)
	return nil
}

// LastWeek returns the most recent week folded in.
func (a *Accumulator) LastWeek() int { return a.lastWeek }

// Snapshot returns an independent aggregate labelled with the given period.
func (a *Accumulator) Snapshot(period model.Period) Aggregate {
	out := a.agg
	out.Period = period
	out.Totals = a.agg.Totals.Clone()
	out.Rates = SmoothedRates(out.Totals, a.priors)
	out.Weekly = append([]model.RawStatRow(nil), a.agg.Weekly...)
	out.Opponents = append([]string(nil), a.agg.Opponents...)
	return out
}

// Build aggregates the weekly rows that fall inside period. Rows may arrive
// in any order; duplicate weeks are rejected.
func Build(ref model.PlayerRef, rows []model.RawStatRow, period model.Period, priors prior.Config) (Aggregate, error) {
	selected := make([]model.RawStatRow, 0, len(rows))
	for _, r := range rows {
		if r.Season == period.Season && period.Includes(r.Week) {
			selected = append(selected, r)
		}
	}
	if len(selected) == 0 {
		return Aggregate{}, fmt.Errorf("%w: player %s period %s", ErrNoRows, ref.PlayerID, period)
	}
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Week < selected[j].Week })

	acc := NewAccumulator(ref, period.Season, priors)
	for _, r := range selected {
		if err := acc.Add(r); err != nil {
			return Aggregate{}, err
		}
	}
	return acc.Snapshot(period), nil
}

// FromSeason wraps a stored season total row.
func FromSeason(row model.RawStatRow, priors prior.Config) (Aggregate, error) {
	if !row.IsSeasonTotal() {
		return Aggregate{}, fmt.Errorf("%w: week %d", ErrNotSeasonRow, row.Week)
	}
	games := row.Stats[StatGames]
	if games < 0 || games > model.MaxWeek || games != math.Trunc(games) {
		return Aggregate{}, fmt.Errorf("%w: %v", ErrInvalidGames, games)
	}
	totals := make(metric.Values, len(row.Stats))
	for k, v := range row.Stats {
		totals[k] = v
	}
	return Aggregate{
		PlayerID:    row.PlayerID,
		Name:        row.Name,
		Team:        row.Team,
		Position:    row.Position,
		Period:      model.SeasonPeriod(row.Season),
		ActiveWeeks: int(games),
		Totals:      totals,
		Rates:       SmoothedRates(totals, priors),
	}, nil
}

// ForPeriod prefers weekly rows and falls back to a recorded season total
// when a full-season period has no weekly rows. ErrNoRows means neither
// exists.
func ForPeriod(ref model.PlayerRef, rows []model.RawStatRow, period model.Period, priors prior.Config) (Aggregate, error) {
	agg, err := Build(ref, rows, period, priors)
	if err == nil || !errors.Is(err, ErrNoRows) || !period.IsSeason() {
		return agg, err
	}
	for _, r := range rows {
		if r.IsSeasonTotal() && r.Season == period.Season {
			return FromSeason(r, priors)
		}
	}
	return Aggregate{}, err
}
