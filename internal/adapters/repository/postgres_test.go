package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresWithPool(mock), mock
}

func deviationModelFixture() *calibration.Model {
	return &calibration.Model{
		Position:      model.WR,
		Period:        week7,
		Strategy:      calibration.StrategyDeviation,
		Terms:         []calibration.Term{{Name: "usage", Metric: "snap_share", Coefficient: 0.4}},
		Baselines:     calibration.Baselines{"snap_share": 61.5},
		ReferenceRows: 24,
	}
}

func resultRows(results ...model.ScoreResult) *pgxmock.Rows {
	rows := pgxmock.NewRows(pgResultColumns)
	for _, r := range results {
		args, _ := resultArgs(r)
		rows.AddRow(args...)
	}
	return rows
}

func expectReplaceStart(mock pgxmock.PgxPoolIface, current int64) {
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO alpha_period_generations`).
		WithArgs(2024, 7).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT generation FROM alpha_period_generations .* FOR UPDATE`).
		WithArgs(2024, 7).
		WillReturnRows(pgxmock.NewRows([]string{"generation"}).AddRow(current))
}

func TestPostgresStore_ReplacePeriod(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	expectReplaceStart(mock, 3)
	mock.ExpectExec(`DELETE FROM alpha_score_results`).
		WithArgs(2024, 7).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCopyFrom(pgx.Identifier{"alpha_score_results"}, pgResultColumns).WillReturnResult(2)
	mock.ExpectExec(`UPDATE alpha_period_generations SET generation`).
		WithArgs(2024, 7, int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := s.ReplacePeriod(context.Background(), week7, 3, []model.ScoreResult{
		result("wr1", model.WR, 70, week7),
		result("wr2", model.WR, 60, week7),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplacePeriod_Stale(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	expectReplaceStart(mock, 5)
	mock.ExpectRollback()

	err := s.ReplacePeriod(context.Background(), week7, 4, []model.ScoreResult{result("wr1", model.WR, 70, week7)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStaleState))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplacePeriod_SerializationFailure(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	expectReplaceStart(mock, 0)
	mock.ExpectExec(`DELETE FROM alpha_score_results`).
		WithArgs(2024, 7).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"alpha_score_results"}, pgResultColumns).
		WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	mock.ExpectRollback()

	err := s.ReplacePeriod(context.Background(), week7, 0, []model.ScoreResult{result("wr1", model.WR, 70, week7)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStaleState))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplacePeriod_InvalidRowsSkipDatabase(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	err := s.ReplacePeriod(context.Background(), week7, 0, []model.ScoreResult{result("wr1", model.WR, 70, model.SeasonPeriod(2024))})
	assert.True(t, errors.Is(err, ErrInvalidResult))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	want := result("wr1", model.WR, 70, week7)

	mock.ExpectQuery(`SELECT .* FROM alpha_score_results WHERE player_id = \$1`).
		WithArgs("wr1", 2024, 7).
		WillReturnRows(resultRows(want))
	mock.ExpectQuery(`SELECT .* FROM alpha_score_results WHERE player_id = \$1`).
		WithArgs("ghost", 2024, 7).
		WillReturnError(pgx.ErrNoRows)

	got, err := s.Get(context.Background(), want.Key())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = s.Get(context.Background(), model.ResultKey{PlayerID: "ghost", Period: week7})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Leaderboard(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM alpha_score_results WHERE season = \$1 AND through_week = \$2 AND position = \$3`).
		WithArgs(2024, 7, "WR", 3).
		WillReturnRows(resultRows(
			result("a", model.WR, 88, week7),
			result("b", model.WR, 88, week7),
			result("c", model.WR, 51, week7),
		))

	entries, err := s.Leaderboard(context.Background(), week7, model.WR, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int{1, 1, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Generation(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT generation FROM alpha_period_generations`).
		WithArgs(2024, 7).
		WillReturnError(pgx.ErrNoRows)

	gen, err := s.Generation(context.Background(), week7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAndLoadModel(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	m := deviationModelFixture()

	mock.ExpectExec(`INSERT INTO alpha_calibration_models`).
		WithArgs(2024, 7, "WR", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT model::text FROM alpha_calibration_models`).
		WithArgs(2024, 7, "WR").
		WillReturnRows(pgxmock.NewRows([]string{"model"}).AddRow(
			`{"position":"WR","period":{"season":2024,"through_week":7},"strategy":"deviation",` +
				`"terms":[{"name":"usage","metric":"snap_share","coefficient":0.4}],` +
				`"baselines":{"snap_share":61.5},"intercept":0,"reference_rows":24}`))

	require.NoError(t, s.SaveModel(context.Background(), m))
	got, err := s.Model(context.Background(), week7, model.WR)
	require.NoError(t, err)
	assert.Equal(t, calibration.StrategyDeviation, got.Strategy)
	assert.Equal(t, 61.5, got.Baselines["snap_share"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteModel(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM alpha_calibration_models`).
		WithArgs(2024, 7, "WR").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.DeleteModel(context.Background(), week7, model.WR))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceBenchmarks(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM alpha_reference_benchmarks`).
		WithArgs(2024, 7).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCopyFrom(pgx.Identifier{"alpha_reference_benchmarks"}, benchmarkColumns).WillReturnResult(1)
	mock.ExpectCommit()

	err := s.ReplaceBenchmarks(context.Background(), week7, []model.ReferenceBenchmarkRow{{
		PlayerID: "wr1", Team: "KC", Position: model.WR, Season: 2024, ThroughWeek: 7,
		RawValue: 60, AdjustedValue: 63, SampleSize: 240,
	}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
