// Package statsource reads raw weekly statistics and team context. Rows are
// immutable once recorded: rewriting an identical row is a no-op and a
// differing rewrite is ErrRowConflict.
package statsource

import (
	"context"
	"fmt"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/enrich"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

// Source provides read access to recorded statistics.
type Source interface {
	// Players lists every player with at least one row in the season,
	// ordered by player id.
	Players(ctx context.Context, season int) ([]model.PlayerRef, error)

	// PlayerRows returns a player's rows for a season ordered by week. A
	// season total row, if recorded, has week 0 and sorts first.
	PlayerRows(ctx context.Context, playerID string, season int) ([]model.RawStatRow, error)

	// TeamWeeks returns every team's weekly rows for a season.
	TeamWeeks(ctx context.Context, season int) ([]model.TeamWeekRow, error)
}

// Writer records statistics.
type Writer interface {
	PutRows(ctx context.Context, rows []model.RawStatRow) error
	PutTeamWeeks(ctx context.Context, rows []model.TeamWeekRow) error
}

// Store is a readable and writable source.
type Store interface {
	Source
	Writer
}

// LoadLeague builds the enrichment context for a period: team rows grouped
// by team and each team's mean defense rating over the period's weeks.
func LoadLeague(ctx context.Context, src Source, p model.Period) (enrich.League, error) {
	rows, err := src.TeamWeeks(ctx, p.Season)
	if err != nil {
		return enrich.League{}, err
	}
	league := enrich.League{
		TeamWeeks:      make(map[string][]model.TeamWeekRow),
		DefenseRatings: make(map[string]float64),
	}
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, r := range rows {
		league.TeamWeeks[r.Team] = append(league.TeamWeeks[r.Team], r)
		if !p.Includes(r.Week) {
			continue
		}
		if v, ok := r.Stats[model.StatDefenseRating]; ok {
			sums[r.Team] += v
			counts[r.Team]++
		}
	}
	for team, n := range counts {
		league.DefenseRatings[team] = sums[team] / float64(n)
	}
	return league, nil
}

func validateRow(r model.RawStatRow) error {
	if r.PlayerID == "" {
		return fmt.Errorf("%w: empty player id", ErrInvalidRow)
	}
	if _, err := model.ParsePosition(string(r.Position)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidRow, r.PlayerID, err)
	}
	if r.Week < 0 || r.Week > model.MaxWeek {
		return fmt.Errorf("%w: %s week %d", ErrInvalidRow, r.PlayerID, r.Week)
	}
	return nil
}

func validateTeamWeek(r model.TeamWeekRow) error {
	if r.Team == "" || r.Week < 1 || r.Week > model.MaxWeek {
		return fmt.Errorf("%w: team %q week %d", ErrInvalidRow, r.Team, r.Week)
	}
	return nil
}

func sameRow(a, b model.RawStatRow) bool {
	return a.Team == b.Team && a.Opponent == b.Opponent && a.Position == b.Position &&
		a.Name == b.Name && statsEqual(a.Stats, b.Stats)
}

func statsEqual(a, b map[string]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
