// Package synthetic generates deterministic leagues of weekly statistics for
// seeding, smoke runs and end-to-end tests. The same Config always yields
// the same league.
package synthetic

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/statsource"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/aggregate"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
	"github.com/google/uuid"
)

// Stat keys emitted on player rows.
const (
	StatTouches           = "touches"
	StatTargets           = "targets"
	StatReceptions        = "receptions"
	StatReceivingYards    = "receiving_yards"
	StatRushAttempts      = "rush_attempts"
	StatRushingYards      = "rushing_yards"
	StatTouchdowns        = "touchdowns"
	StatDrops             = "drops"
	StatPassAttempts      = "pass_attempts"
	StatCompletions       = "completions"
	StatPassingYards      = "passing_yards"
	StatPassingTouchdowns = "passing_touchdowns"
	StatInterceptions     = "interceptions"
)

var playerStats = []string{
	model.StatSnaps, StatTouches, StatTargets, StatReceptions, StatReceivingYards,
	StatRushAttempts, StatRushingYards, StatTouchdowns, StatDrops, StatPassAttempts,
	StatCompletions, StatPassingYards, StatPassingTouchdowns, StatInterceptions,
}

// Config controls league size and randomness.
type Config struct {
	Season int
	Weeks  int
	Teams  int
	Seed   uint64
	// SeasonTotals also emits a week-0 total row per player.
	SeasonTotals bool
}

func (c Config) withDefaults() Config {
	if c.Season == 0 {
		c.Season = 2024
	}
	if c.Weeks <= 0 {
		c.Weeks = 10
	}
	if c.Weeks > model.MaxWeek {
		c.Weeks = model.MaxWeek
	}
	if c.Teams < 2 {
		c.Teams = 12
	}
	if c.Seed == 0 {
		c.Seed = 7
	}
	return c
}

// League is a generated season.
type League struct {
	Config    Config
	Teams     []string
	Players   []model.PlayerRef
	Rows      []model.RawStatRow
	TeamWeeks []model.TeamWeekRow
}

type player struct {
	ref    model.PlayerRef
	talent float64
	role   role
}

// Generate builds a league. Iteration order is fixed, so the output depends
// only on cfg.
func Generate(cfg Config) *League {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	l := &League{Config: cfg, Teams: teamCodes(cfg.Teams)}
	defense := make(map[string]float64, len(l.Teams))
	rosters := make(map[string][]*player, len(l.Teams))
	for _, team := range l.Teams {
		defense[team] = defenseRatingMin + rng.Float64()*defenseRatingRange
		for _, pos := range model.Positions {
			for i, rl := range roles[string(pos)] {
				p := &player{
					ref: model.PlayerRef{
						PlayerID: playerID(cfg.Season, team, pos, i),
						Name:     firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))],
						Team:     team,
						Position: pos,
					},
					talent: drawTalent(rng),
					role:   rl,
				}
				rosters[team] = append(rosters[team], p)
				l.Players = append(l.Players, p.ref)
			}
		}
	}

	for week := 1; week <= cfg.Weeks; week++ {
		for ti, team := range l.Teams {
			opp := opponent(l.Teams, ti, week)
			teamSnaps := math.Round(teamSnapsMin + rng.Float64()*teamSnapsRange)
			passAtt, rushAtt := 0.0, 0.0
			for _, p := range rosters[team] {
				stats := p.week(rng, teamSnaps)
				passAtt += stats[StatPassAttempts]
				rushAtt += stats[StatRushAttempts]
				l.Rows = append(l.Rows, model.RawStatRow{
					PlayerID: p.ref.PlayerID,
					Name:     p.ref.Name,
					Team:     team,
					Opponent: opp,
					Position: p.ref.Position,
					Season:   cfg.Season,
					Week:     week,
					Stats:    stats,
				})
			}
			l.TeamWeeks = append(l.TeamWeeks, model.TeamWeekRow{
				Team:   team,
				Season: cfg.Season,
				Week:   week,
				Stats: map[string]float64{
					model.StatTeamSnaps:        teamSnaps,
					model.StatTeamPassAttempts: passAtt,
					model.StatTeamRushAttempts: rushAtt,
					model.StatDefenseRating:    clamp(defense[team]+(rng.Float64()*2-1)*defenseRatingJitter, 0, 100),
				},
			})
		}
	}

	if cfg.SeasonTotals {
		l.Rows = append(l.Rows, l.seasonTotals()...)
	}
	return l
}

// Load writes the league into a statistics store.
func (l *League) Load(ctx context.Context, w statsource.Writer) error {
	if err := w.PutTeamWeeks(ctx, l.TeamWeeks); err != nil {
		return fmt.Errorf("load team weeks: %w", err)
	}
	if err := w.PutRows(ctx, l.Rows); err != nil {
		return fmt.Errorf("load player rows: %w", err)
	}
	logger.Get().Info(ctx, "synthetic league loaded",
		logger.Int("season", l.Config.Season),
		logger.Int("players", len(l.Players)),
		logger.Int("rows", len(l.Rows)))
	return nil
}

// PlayersAt returns the league's players at one position.
func (l *League) PlayersAt(pos model.Position) []model.PlayerRef {
	out := make([]model.PlayerRef, 0, len(l.Players))
	for _, p := range l.Players {
		if p.Position == pos {
			out = append(out, p)
		}
	}
	return out
}

// RowsFor returns one player's weekly rows in week order.
func (l *League) RowsFor(playerID string) []model.RawStatRow {
	var out []model.RawStatRow
	for _, r := range l.Rows {
		if r.PlayerID == playerID && !r.IsSeasonTotal() {
			out = append(out, r)
		}
	}
	return out
}

func (l *League) seasonTotals() []model.RawStatRow {
	totals := make(map[string]*model.RawStatRow, len(l.Players))
	for _, ref := range l.Players {
		totals[ref.PlayerID] = &model.RawStatRow{
			PlayerID: ref.PlayerID,
			Name:     ref.Name,
			Team:     ref.Team,
			Position: ref.Position,
			Season:   l.Config.Season,
			Stats:    map[string]float64{aggregate.StatGames: 0},
		}
	}
	for _, r := range l.Rows {
		t := totals[r.PlayerID]
		for k, v := range r.Stats {
			t.Stats[k] += v
		}
		if r.Active() {
			t.Stats[aggregate.StatGames]++
		}
	}
	out := make([]model.RawStatRow, 0, len(l.Players))
	for _, ref := range l.Players {
		out = append(out, *totals[ref.PlayerID])
	}
	return out
}

// week draws one week of stats. Injured weeks are all zeros.
func (p *player) week(rng *rand.Rand, teamSnaps float64) map[string]float64 {
	stats := make(map[string]float64, len(playerStats))
	for _, k := range playerStats {
		stats[k] = 0
	}
	if rng.Float64() < injuryProbability {
		return stats
	}

	snaps := math.Round(teamSnaps * clamp(p.role.snapShare*jitter(rng), 0, 1))
	stats[model.StatSnaps] = snaps

	switch p.ref.Position {
	case model.QB:
		att := math.Round(snaps * 0.55 * jitter(rng))
		comp := binomial(rng, att, clamp(0.62*math.Sqrt(p.talent), 0, 0.8))
		stats[StatPassAttempts] = att
		stats[StatCompletions] = comp
		stats[StatPassingYards] = math.Round(comp * 11 * p.talent * jitter(rng))
		stats[StatPassingTouchdowns] = binomial(rng, att, 0.045*p.talent)
		stats[StatInterceptions] = binomial(rng, att, 0.023/p.talent)
		rush := math.Round(snaps * p.role.rushRate * jitter(rng))
		stats[StatRushAttempts] = rush
		stats[StatRushingYards] = math.Round(rush * 4 * jitter(rng))
		stats[StatTouches] = rush
		stats[StatTouchdowns] = binomial(rng, rush, 0.03)
	case model.RB:
		rush := math.Round(snaps * p.role.rushRate * p.talent * jitter(rng))
		targets := math.Round(snaps * p.role.targetRate * jitter(rng))
		rec := binomial(rng, targets, 0.75)
		stats[StatRushAttempts] = rush
		stats[StatRushingYards] = math.Round(rush * 4.3 * p.talent * jitter(rng))
		stats[StatTargets] = targets
		stats[StatReceptions] = rec
		stats[StatReceivingYards] = math.Round(rec * 7 * jitter(rng))
		stats[StatTouches] = rush + rec
		stats[StatTouchdowns] = binomial(rng, rush+rec, 0.025*p.talent)
		stats[StatDrops] = binomial(rng, targets, 0.05)
	default:
		ypr := 13.0
		if p.ref.Position == model.TE {
			ypr = 10.5
		}
		targets := math.Round(snaps * p.role.targetRate * p.talent * jitter(rng))
		rec := binomial(rng, targets, clamp(0.6+0.1*(p.talent-1), 0.4, 0.85))
		stats[StatTargets] = targets
		stats[StatReceptions] = rec
		stats[StatReceivingYards] = math.Round(rec * ypr * p.talent * jitter(rng))
		stats[StatTouches] = rec
		stats[StatTouchdowns] = binomial(rng, rec, 0.06*p.talent)
		stats[StatDrops] = binomial(rng, targets, 0.05)
	}
	return stats
}

func drawTalent(rng *rand.Rand) float64 {
	x := rng.Float64()
	tier := tierLow
	for i, w := range tierWeights {
		if x < w {
			tier = i
			break
		}
	}
	r := talentRange[tier]
	return r[0] + rng.Float64()*(r[1]-r[0])
}

func jitter(rng *rand.Rand) float64 { return 0.85 + 0.3*rng.Float64() }

func binomial(rng *rand.Rand, n, p float64) float64 {
	hits := 0.0
	for i := 0; i < int(n); i++ {
		if rng.Float64() < p {
			hits++
		}
	}
	return hits
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func teamCodes(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("T%02d", i+1)
	}
	return out
}

// opponent rotates each team through the others week by week.
func opponent(teams []string, i, week int) string {
	n := len(teams)
	return teams[(i+week%(n-1)+1)%n]
}

// playerID derives a stable UUID from the player's slot.
func playerID(season int, team string, pos model.Position, slot int) string {
	name := fmt.Sprintf("%d/%s/%s%d", season, team, pos, slot+1)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
