package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/metrics"
)

// Pool is the subset of *pgxpool.Pool the store needs. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	pool   Pool
	logger logger.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, opts ...Option) (*PostgresStore, error) {
	o := applyOptions(opts)
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = o.maxConns
	cfg.MinConns = o.minConns
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return NewPostgresWithPool(pool, opts...), nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool, opts ...Option) *PostgresStore {
	o := applyOptions(opts)
	return &PostgresStore{pool: pool, logger: o.logger}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS alpha_score_results (
	player_id       TEXT             NOT NULL,
	season          INTEGER          NOT NULL,
	through_week    INTEGER          NOT NULL,
	name            TEXT             NOT NULL DEFAULT '',
	team            TEXT             NOT NULL,
	position        TEXT             NOT NULL,
	pillars         JSONB            NOT NULL,
	composite       DOUBLE PRECISION NOT NULL,
	calibrated      DOUBLE PRECISION NOT NULL,
	is_calibrated   BOOLEAN          NOT NULL,
	tier            TEXT             NOT NULL,
	tier_rank       INTEGER          NOT NULL,
	confidence      TEXT             NOT NULL,
	sample_size     DOUBLE PRECISION NOT NULL,
	active_weeks    INTEGER          NOT NULL,
	profile_version TEXT             NOT NULL,
	PRIMARY KEY (player_id, season, through_week)
);

CREATE INDEX IF NOT EXISTS idx_alpha_score_results_rank
	ON alpha_score_results(season, through_week, calibrated DESC, player_id);

CREATE TABLE IF NOT EXISTS alpha_period_generations (
	season       INTEGER NOT NULL,
	through_week INTEGER NOT NULL,
	generation   BIGINT  NOT NULL,
	PRIMARY KEY (season, through_week)
);

CREATE TABLE IF NOT EXISTS alpha_calibration_models (
	season       INTEGER NOT NULL,
	through_week INTEGER NOT NULL,
	position     TEXT    NOT NULL,
	model        JSONB   NOT NULL,
	PRIMARY KEY (season, through_week, position)
);

CREATE TABLE IF NOT EXISTS alpha_reference_benchmarks (
	player_id      TEXT             NOT NULL,
	season         INTEGER          NOT NULL,
	through_week   INTEGER          NOT NULL,
	team           TEXT             NOT NULL,
	position       TEXT             NOT NULL,
	raw_value      DOUBLE PRECISION NOT NULL,
	adjusted_value DOUBLE PRECISION NOT NULL,
	sample_size    DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (player_id, season, through_week)
);
`

// Migrate creates the store tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var pgResultColumns = []string{
	"player_id", "season", "through_week", "name", "team", "position", "pillars", "composite",
	"calibrated", "is_calibrated", "tier", "tier_rank", "confidence", "sample_size", "active_weeks", "profile_version",
}

var benchmarkColumns = []string{
	"player_id", "season", "through_week", "team", "position", "raw_value", "adjusted_value", "sample_size",
}

// Get implements ResultStore.
func (s *PostgresStore) Get(ctx context.Context, key model.ResultKey) (model.ScoreResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM alpha_score_results WHERE player_id = $1 AND season = $2 AND through_week = $3`,
		key.PlayerID, key.Period.Season, key.Period.ThroughWeek,
	)
	r, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ScoreResult{}, eris.Wrapf(ErrNotFound, "postgres: result %s %s", key.PlayerID, key.Period.Key())
	}
	if err != nil {
		return model.ScoreResult{}, eris.Wrap(err, "postgres: get result")
	}
	return r, nil
}

// Put implements ResultStore.
func (s *PostgresStore) Put(ctx context.Context, r model.ScoreResult) error {
	if r.PlayerID == "" {
		return eris.Wrap(ErrInvalidResult, "postgres: empty player id")
	}
	args, err := resultArgs(r)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO alpha_score_results (`+resultColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (player_id, season, through_week) DO UPDATE SET
			name = EXCLUDED.name, team = EXCLUDED.team, position = EXCLUDED.position,
			pillars = EXCLUDED.pillars, composite = EXCLUDED.composite, calibrated = EXCLUDED.calibrated,
			is_calibrated = EXCLUDED.is_calibrated, tier = EXCLUDED.tier, tier_rank = EXCLUDED.tier_rank,
			confidence = EXCLUDED.confidence, sample_size = EXCLUDED.sample_size,
			active_weeks = EXCLUDED.active_weeks, profile_version = EXCLUDED.profile_version`,
		args...,
	)
	return eris.Wrapf(err, "postgres: upsert result %s", r.PlayerID)
}

// Generation implements ResultStore.
func (s *PostgresStore) Generation(ctx context.Context, p model.Period) (int64, error) {
	var gen int64
	err := s.pool.QueryRow(ctx,
		`SELECT generation FROM alpha_period_generations WHERE season = $1 AND through_week = $2`,
		p.Season, p.ThroughWeek,
	).Scan(&gen)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrap(err, "postgres: read generation")
	}
	return gen, nil
}

// ReplacePeriod implements ResultStore. The generation row is locked for the
// duration of the transaction and results are loaded with COPY.
func (s *PostgresStore) ReplacePeriod(ctx context.Context, p model.Period, generation int64, results []model.ScoreResult) error {
	start := time.Now()
	if err := validateReplace(p, results); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`INSERT INTO alpha_period_generations (season, through_week, generation) VALUES ($1, $2, 0)
		ON CONFLICT (season, through_week) DO NOTHING`,
		p.Season, p.ThroughWeek,
	); err != nil {
		return pgTxError(err, "postgres: ensure generation")
	}

	var current int64
	if err := tx.QueryRow(ctx,
		`SELECT generation FROM alpha_period_generations WHERE season = $1 AND through_week = $2 FOR UPDATE`,
		p.Season, p.ThroughWeek,
	).Scan(&current); err != nil {
		return pgTxError(err, "postgres: lock generation")
	}
	if current != generation {
		return eris.Wrapf(ErrStaleState, "postgres: %s at generation %d, expected %d", p.Key(), current, generation)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM alpha_score_results WHERE season = $1 AND through_week = $2`,
		p.Season, p.ThroughWeek,
	); err != nil {
		return pgTxError(err, "postgres: delete period")
	}

	if len(results) > 0 {
		rows := make([][]any, 0, len(results))
		for _, r := range results {
			args, err := resultArgs(r)
			if err != nil {
				return err
			}
			rows = append(rows, args)
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"alpha_score_results"}, pgResultColumns, pgx.CopyFromRows(rows)); err != nil {
			return pgTxError(err, "postgres: copy results")
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE alpha_period_generations SET generation = $3 WHERE season = $1 AND through_week = $2`,
		p.Season, p.ThroughWeek, generation+1,
	); err != nil {
		return pgTxError(err, "postgres: bump generation")
	}
	if err := tx.Commit(ctx); err != nil {
		return pgTxError(err, "postgres: commit replace")
	}

	metrics.RecordStoreReplace(DriverPostgres, time.Since(start))
	s.logger.Debug(ctx, "period replaced",
		logger.String("period", p.Key()),
		logger.Int("results", len(results)),
		logger.Int64("generation", generation+1))
	return nil
}

// pgTxError maps serialization failures and deadlocks to ErrStaleState.
func pgTxError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return eris.Wrapf(ErrStaleState, "%s: %v", msg, err)
		}
	}
	return eris.Wrap(err, msg)
}

// Leaderboard implements ResultStore.
func (s *PostgresStore) Leaderboard(ctx context.Context, p model.Period, pos model.Position, limit int) ([]Entry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	query := `SELECT ` + resultColumns + ` FROM alpha_score_results WHERE season = $1 AND through_week = $2`
	args := []any{p.Season, p.ThroughWeek}
	if pos != "" {
		query += ` AND position = $3 ORDER BY calibrated DESC, player_id ASC LIMIT $4`
		args = append(args, string(pos), limit)
	} else {
		query += ` ORDER BY calibrated DESC, player_id ASC LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: leaderboard")
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan leaderboard")
		}
		out = append(out, Entry{Result: r})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: leaderboard iterate")
	}
	assignRanks(out)
	return out, nil
}

// Count implements ResultStore.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alpha_score_results`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count results")
	}
	return n, nil
}

// SaveModel implements CalibrationStore.
func (s *PostgresStore) SaveModel(ctx context.Context, m *calibration.Model) error {
	if m == nil {
		return eris.Wrap(ErrInvalidResult, "postgres: nil calibration model")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal model")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO alpha_calibration_models (season, through_week, position, model) VALUES ($1, $2, $3, $4)
		ON CONFLICT (season, through_week, position) DO UPDATE SET model = EXCLUDED.model`,
		m.Period.Season, m.Period.ThroughWeek, string(m.Position), string(data),
	)
	return eris.Wrapf(err, "postgres: save model %s", m.Position)
}

// Model implements CalibrationStore.
func (s *PostgresStore) Model(ctx context.Context, p model.Period, pos model.Position) (*calibration.Model, error) {
	var data string
	err := s.pool.QueryRow(ctx,
		`SELECT model::text FROM alpha_calibration_models WHERE season = $1 AND through_week = $2 AND position = $3`,
		p.Season, p.ThroughWeek, string(pos),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: calibration %s %s", pos, p.Key())
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get model")
	}
	return decodeModel([]byte(data))
}

// DeleteModel implements CalibrationStore.
func (s *PostgresStore) DeleteModel(ctx context.Context, p model.Period, pos model.Position) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM alpha_calibration_models WHERE season = $1 AND through_week = $2 AND position = $3`,
		p.Season, p.ThroughWeek, string(pos),
	)
	return eris.Wrapf(err, "postgres: delete model %s", pos)
}

// Models implements CalibrationStore.
func (s *PostgresStore) Models(ctx context.Context, p model.Period) (map[model.Position]*calibration.Model, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT model::text FROM alpha_calibration_models WHERE season = $1 AND through_week = $2`,
		p.Season, p.ThroughWeek,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list models")
	}
	defer rows.Close()

	out := make(map[model.Position]*calibration.Model)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan model")
		}
		m, err := decodeModel([]byte(data))
		if err != nil {
			return nil, err
		}
		out[m.Position] = m
	}
	return out, eris.Wrap(rows.Err(), "postgres: list models iterate")
}

// ReplaceBenchmarks implements BenchmarkStore.
func (s *PostgresStore) ReplaceBenchmarks(ctx context.Context, p model.Period, rows []model.ReferenceBenchmarkRow) error {
	if err := validateBenchmarks(p, rows); err != nil {
		return err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin benchmarks")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM alpha_reference_benchmarks WHERE season = $1 AND through_week = $2`,
		p.Season, p.ThroughWeek,
	); err != nil {
		return eris.Wrap(err, "postgres: delete benchmarks")
	}
	if len(rows) > 0 {
		src := make([][]any, len(rows))
		for i, r := range rows {
			src[i] = []any{r.PlayerID, r.Season, r.ThroughWeek, r.Team, string(r.Position), r.RawValue, r.AdjustedValue, r.SampleSize}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"alpha_reference_benchmarks"}, benchmarkColumns, pgx.CopyFromRows(src)); err != nil {
			return eris.Wrap(err, "postgres: copy benchmarks")
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit benchmarks")
}

// Benchmarks implements BenchmarkStore.
func (s *PostgresStore) Benchmarks(ctx context.Context, p model.Period, pos model.Position) ([]model.ReferenceBenchmarkRow, error) {
	query := `SELECT player_id, season, through_week, team, position, raw_value, adjusted_value, sample_size
		FROM alpha_reference_benchmarks WHERE season = $1 AND through_week = $2`
	args := []any{p.Season, p.ThroughWeek}
	if pos != "" {
		query += ` AND position = $3`
		args = append(args, string(pos))
	}
	query += ` ORDER BY player_id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list benchmarks")
	}
	defer rows.Close()

	out := []model.ReferenceBenchmarkRow{}
	for rows.Next() {
		var (
			r      model.ReferenceBenchmarkRow
			rowPos string
		)
		if err := rows.Scan(&r.PlayerID, &r.Season, &r.ThroughWeek, &r.Team, &rowPos, &r.RawValue, &r.AdjustedValue, &r.SampleSize); err != nil {
			return nil, eris.Wrap(err, "postgres: scan benchmark")
		}
		r.Position = model.Position(rowPos)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list benchmarks iterate")
}
