package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/metrics"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, opts ...Option) (*SQLiteStore, error) {
	o := applyOptions(opts)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, logger: o.logger}, nil
}

// DB exposes the handle so the statistics source can share the file.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS score_results (
	player_id       TEXT    NOT NULL,
	season          INTEGER NOT NULL,
	through_week    INTEGER NOT NULL,
	name            TEXT    NOT NULL DEFAULT '',
	team            TEXT    NOT NULL,
	position        TEXT    NOT NULL,
	pillars         TEXT    NOT NULL,
	composite       REAL    NOT NULL,
	calibrated      REAL    NOT NULL,
	is_calibrated   INTEGER NOT NULL,
	tier            TEXT    NOT NULL,
	tier_rank       INTEGER NOT NULL,
	confidence      TEXT    NOT NULL,
	sample_size     REAL    NOT NULL,
	active_weeks    INTEGER NOT NULL,
	profile_version TEXT    NOT NULL,
	PRIMARY KEY (player_id, season, through_week)
);

CREATE INDEX IF NOT EXISTS idx_score_results_rank
	ON score_results(season, through_week, calibrated DESC, player_id);

CREATE TABLE IF NOT EXISTS period_generations (
	season       INTEGER NOT NULL,
	through_week INTEGER NOT NULL,
	generation   INTEGER NOT NULL,
	PRIMARY KEY (season, through_week)
);

CREATE TABLE IF NOT EXISTS calibration_models (
	season       INTEGER NOT NULL,
	through_week INTEGER NOT NULL,
	position     TEXT    NOT NULL,
	model        TEXT    NOT NULL,
	PRIMARY KEY (season, through_week, position)
);

CREATE TABLE IF NOT EXISTS reference_benchmarks (
	player_id      TEXT    NOT NULL,
	season         INTEGER NOT NULL,
	through_week   INTEGER NOT NULL,
	team           TEXT    NOT NULL,
	position       TEXT    NOT NULL,
	raw_value      REAL    NOT NULL,
	adjusted_value REAL    NOT NULL,
	sample_size    REAL    NOT NULL,
	PRIMARY KEY (player_id, season, through_week)
);
`

// Migrate creates the store tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const resultColumns = `player_id, season, through_week, name, team, position, pillars, composite,
	calibrated, is_calibrated, tier, tier_rank, confidence, sample_size, active_weeks, profile_version`

const sqliteUpsertResult = `INSERT INTO score_results (` + resultColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (player_id, season, through_week) DO UPDATE SET
		name = excluded.name, team = excluded.team, position = excluded.position,
		pillars = excluded.pillars, composite = excluded.composite, calibrated = excluded.calibrated,
		is_calibrated = excluded.is_calibrated, tier = excluded.tier, tier_rank = excluded.tier_rank,
		confidence = excluded.confidence, sample_size = excluded.sample_size,
		active_weeks = excluded.active_weeks, profile_version = excluded.profile_version`

// Get implements ResultStore.
func (s *SQLiteStore) Get(ctx context.Context, key model.ResultKey) (model.ScoreResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM score_results WHERE player_id = ? AND season = ? AND through_week = ?`,
		key.PlayerID, key.Period.Season, key.Period.ThroughWeek,
	)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScoreResult{}, eris.Wrapf(ErrNotFound, "sqlite: result %s %s", key.PlayerID, key.Period.Key())
	}
	if err != nil {
		return model.ScoreResult{}, eris.Wrap(err, "sqlite: get result")
	}
	return r, nil
}

// Put implements ResultStore.
func (s *SQLiteStore) Put(ctx context.Context, r model.ScoreResult) error {
	if r.PlayerID == "" {
		return eris.Wrap(ErrInvalidResult, "sqlite: empty player id")
	}
	args, err := resultArgs(r)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqliteUpsertResult, args...); err != nil {
		return eris.Wrapf(err, "sqlite: upsert result %s", r.PlayerID)
	}
	return nil
}

// Generation implements ResultStore.
func (s *SQLiteStore) Generation(ctx context.Context, p model.Period) (int64, error) {
	return sqliteGeneration(ctx, s.db, p)
}

type sqlQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sqliteGeneration(ctx context.Context, q sqlQuerier, p model.Period) (int64, error) {
	var gen int64
	err := q.QueryRowContext(ctx,
		`SELECT generation FROM period_generations WHERE season = ? AND through_week = ?`,
		p.Season, p.ThroughWeek,
	).Scan(&gen)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: read generation")
	}
	return gen, nil
}

// ReplacePeriod implements ResultStore. The generation check, delete, insert
// and generation bump share one transaction.
func (s *SQLiteStore) ReplacePeriod(ctx context.Context, p model.Period, generation int64, results []model.ScoreResult) error {
	start := time.Now()
	if err := validateReplace(p, results); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.txError(err, "sqlite: begin replace")
	}
	defer tx.Rollback() //nolint:errcheck

	current, err := sqliteGeneration(ctx, tx, p)
	if err != nil {
		return err
	}
	if current != generation {
		return eris.Wrapf(ErrStaleState, "sqlite: %s at generation %d, expected %d", p.Key(), current, generation)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM score_results WHERE season = ? AND through_week = ?`,
		p.Season, p.ThroughWeek,
	); err != nil {
		return s.txError(err, "sqlite: delete period")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO score_results (`+resultColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()
	for _, r := range results {
		args, err := resultArgs(r)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return s.txError(err, "sqlite: insert result "+r.PlayerID)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO period_generations (season, through_week, generation) VALUES (?, ?, ?)
		ON CONFLICT (season, through_week) DO UPDATE SET generation = excluded.generation`,
		p.Season, p.ThroughWeek, generation+1,
	); err != nil {
		return s.txError(err, "sqlite: bump generation")
	}
	if err := tx.Commit(); err != nil {
		return s.txError(err, "sqlite: commit replace")
	}

	metrics.RecordStoreReplace(DriverSQLite, time.Since(start))
	if n, err := s.Count(ctx); err == nil {
		metrics.UpdateStoreRows(n)
	}
	s.logger.Debug(ctx, "period replaced",
		logger.String("period", p.Key()),
		logger.Int("results", len(results)),
		logger.Int64("generation", generation+1))
	return nil
}

// txError maps lock contention to ErrStaleState so the caller retries.
func (s *SQLiteStore) txError(err error, msg string) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return eris.Wrapf(ErrStaleState, "%s: %v", msg, err)
		}
	}
	return eris.Wrap(err, msg)
}

// Leaderboard implements ResultStore.
func (s *SQLiteStore) Leaderboard(ctx context.Context, p model.Period, pos model.Position, limit int) ([]Entry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	query := `SELECT ` + resultColumns + ` FROM score_results WHERE season = ? AND through_week = ?`
	args := []any{p.Season, p.ThroughWeek}
	if pos != "" {
		query += ` AND position = ?`
		args = append(args, string(pos))
	}
	query += ` ORDER BY calibrated DESC, player_id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: leaderboard")
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan leaderboard")
		}
		out = append(out, Entry{Result: r})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: leaderboard iterate")
	}
	assignRanks(out)
	return out, nil
}

// Count implements ResultStore.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM score_results`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count results")
	}
	return n, nil
}

// SaveModel implements CalibrationStore.
func (s *SQLiteStore) SaveModel(ctx context.Context, m *calibration.Model) error {
	if m == nil {
		return eris.Wrap(ErrInvalidResult, "sqlite: nil calibration model")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal model")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO calibration_models (season, through_week, position, model) VALUES (?, ?, ?, ?)
		ON CONFLICT (season, through_week, position) DO UPDATE SET model = excluded.model`,
		m.Period.Season, m.Period.ThroughWeek, string(m.Position), string(data),
	)
	return eris.Wrapf(err, "sqlite: save model %s", m.Position)
}

// Model implements CalibrationStore.
func (s *SQLiteStore) Model(ctx context.Context, p model.Period, pos model.Position) (*calibration.Model, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT model FROM calibration_models WHERE season = ? AND through_week = ? AND position = ?`,
		p.Season, p.ThroughWeek, string(pos),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: calibration %s %s", pos, p.Key())
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get model")
	}
	return decodeModel([]byte(data))
}

// DeleteModel implements CalibrationStore.
func (s *SQLiteStore) DeleteModel(ctx context.Context, p model.Period, pos model.Position) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM calibration_models WHERE season = ? AND through_week = ? AND position = ?`,
		p.Season, p.ThroughWeek, string(pos),
	)
	return eris.Wrapf(err, "sqlite: delete model %s", pos)
}

// Models implements CalibrationStore.
func (s *SQLiteStore) Models(ctx context.Context, p model.Period) (map[model.Position]*calibration.Model, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model FROM calibration_models WHERE season = ? AND through_week = ?`,
		p.Season, p.ThroughWeek,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list models")
	}
	defer rows.Close()

	out := make(map[model.Position]*calibration.Model)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan model")
		}
		m, err := decodeModel([]byte(data))
		if err != nil {
			return nil, err
		}
		out[m.Position] = m
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list models iterate")
}

// ReplaceBenchmarks implements BenchmarkStore.
func (s *SQLiteStore) ReplaceBenchmarks(ctx context.Context, p model.Period, rows []model.ReferenceBenchmarkRow) error {
	if err := validateBenchmarks(p, rows); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin benchmarks")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM reference_benchmarks WHERE season = ? AND through_week = ?`,
		p.Season, p.ThroughWeek,
	); err != nil {
		return eris.Wrap(err, "sqlite: delete benchmarks")
	}
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reference_benchmarks
				(player_id, season, through_week, team, position, raw_value, adjusted_value, sample_size)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.PlayerID, r.Season, r.ThroughWeek, r.Team, string(r.Position), r.RawValue, r.AdjustedValue, r.SampleSize,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert benchmark %s", r.PlayerID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit benchmarks")
}

// Benchmarks implements BenchmarkStore.
func (s *SQLiteStore) Benchmarks(ctx context.Context, p model.Period, pos model.Position) ([]model.ReferenceBenchmarkRow, error) {
	query := `SELECT player_id, season, through_week, team, position, raw_value, adjusted_value, sample_size
		FROM reference_benchmarks WHERE season = ? AND through_week = ?`
	args := []any{p.Season, p.ThroughWeek}
	if pos != "" {
		query += ` AND position = ?`
		args = append(args, string(pos))
	}
	query += ` ORDER BY player_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list benchmarks")
	}
	defer rows.Close()

	out := []model.ReferenceBenchmarkRow{}
	for rows.Next() {
		var (
			r      model.ReferenceBenchmarkRow
			rowPos string
		)
		if err := rows.Scan(&r.PlayerID, &r.Season, &r.ThroughWeek, &r.Team, &rowPos, &r.RawValue, &r.AdjustedValue, &r.SampleSize); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan benchmark")
		}
		r.Position = model.Position(rowPos)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list benchmarks iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func resultArgs(r model.ScoreResult) ([]any, error) {
	pillars, err := json.Marshal(r.Pillars)
	if err != nil {
		return nil, eris.Wrapf(err, "marshal pillars %s", r.PlayerID)
	}
	return []any{
		r.PlayerID, r.Season, r.ThroughWeek, r.Name, r.Team, string(r.Position), string(pillars),
		r.Composite, r.Calibrated, r.IsCalibrated, r.Tier, r.TierRank, string(r.Confidence),
		r.SampleSize, r.ActiveWeeks, r.ProfileVersion,
	}, nil
}

func scanResult(row scannable) (model.ScoreResult, error) {
	var (
		r          model.ScoreResult
		pos        string
		pillars    string
		confidence string
	)
	if err := row.Scan(
		&r.PlayerID, &r.Season, &r.ThroughWeek, &r.Name, &r.Team, &pos, &pillars, &r.Composite,
		&r.Calibrated, &r.IsCalibrated, &r.Tier, &r.TierRank, &confidence, &r.SampleSize,
		&r.ActiveWeeks, &r.ProfileVersion,
	); err != nil {
		return model.ScoreResult{}, err
	}
	r.Position = model.Position(pos)
	r.Confidence = model.Confidence(confidence)
	if err := json.Unmarshal([]byte(pillars), &r.Pillars); err != nil {
		return model.ScoreResult{}, eris.Wrapf(err, "decode pillars %s", r.PlayerID)
	}
	return r, nil
}

func decodeModel(data []byte) (*calibration.Model, error) {
	var m calibration.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "decode calibration model")
	}
	return &m, nil
}
