package statsource_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/statsource"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

func row(player string, week int, stats map[string]float64) model.RawStatRow {
	return model.RawStatRow{
		PlayerID: player,
		Name:     strings.ToUpper(player),
		Team:     "SF",
		Opponent: "SEA",
		Position: model.RB,
		Season:   2024,
		Week:     week,
		Stats:    stats,
	}
}

func teamWeek(team string, week int, rating float64) model.TeamWeekRow {
	return model.TeamWeekRow{
		Team:   team,
		Season: 2024,
		Week:   week,
		Stats: map[string]float64{
			model.StatTeamSnaps:        65,
			model.StatTeamPassAttempts: 34,
			model.StatTeamRushAttempts: 26,
			model.StatDefenseRating:    rating,
		},
	}
}

func runSourceContract(t *testing.T, newStore func(t *testing.T) statsource.Store) {
	ctx := context.Background()

	t.Run("rows come back ordered by week", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.PutRows(ctx, []model.RawStatRow{
			row("rb1", 3, map[string]float64{"rush_yards": 40}),
			row("rb1", 1, map[string]float64{"rush_yards": 88}),
			row("rb2", 1, map[string]float64{"rush_yards": 12}),
		}))

		got, err := s.PlayerRows(ctx, "rb1", 2024)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 1, got[0].Week)
		assert.Equal(t, 88.0, got[0].Stats["rush_yards"])
		assert.Equal(t, "SEA", got[1].Opponent)

		none, err := s.PlayerRows(ctx, "rb1", 2023)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("rows are immutable", func(t *testing.T) {
		s := newStore(t)
		first := row("rb1", 2, map[string]float64{"rush_yards": 40})
		require.NoError(t, s.PutRows(ctx, []model.RawStatRow{first}))
		require.NoError(t, s.PutRows(ctx, []model.RawStatRow{first}))

		changed := row("rb1", 2, map[string]float64{"rush_yards": 41})
		err := s.PutRows(ctx, []model.RawStatRow{row("rb9", 1, nil), changed})
		assert.True(t, errors.Is(err, statsource.ErrRowConflict))

		got, err := s.PlayerRows(ctx, "rb9", 2024)
		require.NoError(t, err)
		assert.Empty(t, got, "a rejected batch records nothing")
	})

	t.Run("conflicting rows in one call are rejected", func(t *testing.T) {
		s := newStore(t)
		err := s.PutRows(ctx, []model.RawStatRow{
			row("rb1", 2, map[string]float64{"rush_yards": 40}),
			row("rb1", 2, map[string]float64{"rush_yards": 41}),
		})
		assert.True(t, errors.Is(err, statsource.ErrRowConflict))
		got, err := s.PlayerRows(ctx, "rb1", 2024)
		require.NoError(t, err)
		assert.Empty(t, got)

		dup := row("rb2", 1, map[string]float64{"rush_yards": 7})
		require.NoError(t, s.PutRows(ctx, []model.RawStatRow{dup, dup}))
		got, err = s.PlayerRows(ctx, "rb2", 2024)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		err = s.PutTeamWeeks(ctx, []model.TeamWeekRow{teamWeek("SF", 1, 50), teamWeek("SF", 1, 51)})
		assert.True(t, errors.Is(err, statsource.ErrRowConflict))
	})

	t.Run("invalid rows are rejected", func(t *testing.T) {
		s := newStore(t)
		bad := row("x", 1, nil)
		bad.Position = "K"
		assert.True(t, errors.Is(s.PutRows(ctx, []model.RawStatRow{bad}), statsource.ErrInvalidRow))
	})

	t.Run("players use their latest row", func(t *testing.T) {
		s := newStore(t)
		moved := row("rb1", 5, map[string]float64{"rush_yards": 10})
		moved.Team = "LV"
		require.NoError(t, s.PutRows(ctx, []model.RawStatRow{
			row("rb1", 1, map[string]float64{"rush_yards": 10}),
			moved,
			row("rb0", 2, map[string]float64{"rush_yards": 3}),
		}))

		players, err := s.Players(ctx, 2024)
		require.NoError(t, err)
		require.Len(t, players, 2)
		assert.Equal(t, "rb0", players[0].PlayerID)
		assert.Equal(t, "LV", players[1].Team)
		assert.Equal(t, model.RB, players[1].Position)
	})

	t.Run("league averages defense ratings inside the period", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.PutTeamWeeks(ctx, []model.TeamWeekRow{
			teamWeek("SEA", 1, 60),
			teamWeek("SEA", 2, 80),
			teamWeek("SEA", 3, 10),
			teamWeek("SF", 1, 50),
		}))

		league, err := statsource.LoadLeague(ctx, s, model.ThroughWeekPeriod(2024, 2))
		require.NoError(t, err)
		assert.Equal(t, 70.0, league.DefenseRatings["SEA"])
		assert.Equal(t, 50.0, league.DefenseRatings["SF"])
		assert.Len(t, league.TeamWeeks["SEA"], 3)

		err = s.PutTeamWeeks(ctx, []model.TeamWeekRow{teamWeek("SEA", 1, 61)})
		assert.True(t, errors.Is(err, statsource.ErrRowConflict))
	})
}

func TestMemorySource(t *testing.T) {
	runSourceContract(t, func(t *testing.T) statsource.Store { return statsource.NewMemorySource() })
}

func TestSQLiteSource(t *testing.T) {
	runSourceContract(t, func(t *testing.T) statsource.Store {
		db, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)
		db.SetMaxOpenConns(1)
		t.Cleanup(func() { db.Close() }) //nolint:errcheck

		s := statsource.NewSQLite(db)
		require.NoError(t, s.Migrate(context.Background()))
		return s
	})
}

func TestReadBenchmarks(t *testing.T) {
	p := model.ThroughWeekPeriod(2024, 10)

	t.Run("parses rows in any column order", func(t *testing.T) {
		in := "# exported 2024-11-12\n" +
			"position,player_id,team,raw_value,adjusted_value,sample_size\n" +
			"wr,wr1,kc,61.5,64.25,310\n" +
			"\n" +
			"TE,te1,BUF,48,47.5,190\n"
		rows, err := statsource.ReadBenchmarks(strings.NewReader(in), p)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, model.ReferenceBenchmarkRow{
			PlayerID: "wr1", Team: "KC", Position: model.WR, Season: 2024, ThroughWeek: 10,
			RawValue: 61.5, AdjustedValue: 64.25, SampleSize: 310,
		}, rows[0])
		assert.Equal(t, model.TE, rows[1].Position)
	})

	t.Run("round trips through WriteBenchmarks", func(t *testing.T) {
		want := []model.ReferenceBenchmarkRow{{
			PlayerID: "qb1", Team: "CIN", Position: model.QB, Season: 2024, ThroughWeek: 10,
			RawValue: 70.125, AdjustedValue: 72, SampleSize: 512,
		}}
		var buf strings.Builder
		require.NoError(t, statsource.WriteBenchmarks(&buf, want))
		got, err := statsource.ReadBenchmarks(strings.NewReader(buf.String()), p)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	for name, in := range map[string]string{
		"empty":          "",
		"missing column": "player_id,team,position,raw_value,adjusted_value\nwr1,KC,WR,1,2\n",
		"bad number":     "player_id,team,position,raw_value,adjusted_value,sample_size\nwr1,KC,WR,abc,2,3\n",
		"bad position":   "player_id,team,position,raw_value,adjusted_value,sample_size\nk1,KC,K,1,2,3\n",
		"short record":   "player_id,team,position,raw_value,adjusted_value,sample_size\nwr1,KC\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := statsource.ReadBenchmarks(strings.NewReader(in), p)
			assert.True(t, errors.Is(err, statsource.ErrInvalidCSV), "got %v", err)
		})
	}
}
