package statsource

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

// SQLiteSource implements Store on a SQLite database, usually the one the
// result store already opened.
type SQLiteSource struct {
	db *sql.DB
}

var _ Store = (*SQLiteSource)(nil)

// NewSQLite wraps an open database handle.
func NewSQLite(db *sql.DB) *SQLiteSource {
	return &SQLiteSource{db: db}
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS raw_stat_rows (
	player_id TEXT    NOT NULL,
	season    INTEGER NOT NULL,
	week      INTEGER NOT NULL,
	name      TEXT    NOT NULL DEFAULT '',
	team      TEXT    NOT NULL,
	opponent  TEXT    NOT NULL DEFAULT '',
	position  TEXT    NOT NULL,
	stats     TEXT    NOT NULL,
	PRIMARY KEY (player_id, season, week)
);

CREATE INDEX IF NOT EXISTS idx_raw_stat_rows_season ON raw_stat_rows(season, player_id);

CREATE TABLE IF NOT EXISTS team_week_rows (
	team   TEXT    NOT NULL,
	season INTEGER NOT NULL,
	week   INTEGER NOT NULL,
	stats  TEXT    NOT NULL,
	PRIMARY KEY (team, season, week)
);
`

// Migrate creates the statistics tables.
func (s *SQLiteSource) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "statsource: migrate")
}

// PutRows implements Writer. The batch commits as a whole.
func (s *SQLiteSource) PutRows(ctx context.Context, rows []model.RawStatRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "statsource: begin rows")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range rows {
		if err := validateRow(r); err != nil {
			return err
		}
		var (
			existing model.RawStatRow
			stats    string
			pos      string
		)
		err := tx.QueryRowContext(ctx,
			`SELECT name, team, opponent, position, stats FROM raw_stat_rows WHERE player_id = ? AND season = ? AND week = ?`,
			r.PlayerID, r.Season, r.Week,
		).Scan(&existing.Name, &existing.Team, &existing.Opponent, &pos, &stats)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return eris.Wrapf(err, "statsource: read row %s", r.PlayerID)
		default:
			existing.Position = model.Position(pos)
			if err := json.Unmarshal([]byte(stats), &existing.Stats); err != nil {
				return eris.Wrapf(err, "statsource: decode row %s", r.PlayerID)
			}
			if !sameRow(existing, r) {
				return eris.Wrapf(ErrRowConflict, "statsource: %s %d week %d", r.PlayerID, r.Season, r.Week)
			}
			continue
		}

		data, err := json.Marshal(r.Stats)
		if err != nil {
			return eris.Wrap(err, "statsource: marshal stats")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO raw_stat_rows (player_id, season, week, name, team, opponent, position, stats)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.PlayerID, r.Season, r.Week, r.Name, r.Team, r.Opponent, string(r.Position), string(data),
		); err != nil {
			return eris.Wrapf(err, "statsource: insert row %s", r.PlayerID)
		}
	}
	return eris.Wrap(tx.Commit(), "statsource: commit rows")
}

// PutTeamWeeks implements Writer.
func (s *SQLiteSource) PutTeamWeeks(ctx context.Context, rows []model.TeamWeekRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "statsource: begin team weeks")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range rows {
		if err := validateTeamWeek(r); err != nil {
			return err
		}
		var stats string
		err := tx.QueryRowContext(ctx,
			`SELECT stats FROM team_week_rows WHERE team = ? AND season = ? AND week = ?`,
			r.Team, r.Season, r.Week,
		).Scan(&stats)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return eris.Wrapf(err, "statsource: read team %s", r.Team)
		default:
			var existing map[string]float64
			if err := json.Unmarshal([]byte(stats), &existing); err != nil {
				return eris.Wrapf(err, "statsource: decode team %s", r.Team)
			}
			if !statsEqual(existing, r.Stats) {
				return eris.Wrapf(ErrRowConflict, "statsource: team %s %d week %d", r.Team, r.Season, r.Week)
			}
			continue
		}

		data, err := json.Marshal(r.Stats)
		if err != nil {
			return eris.Wrap(err, "statsource: marshal team stats")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO team_week_rows (team, season, week, stats) VALUES (?, ?, ?, ?)`,
			r.Team, r.Season, r.Week, string(data),
		); err != nil {
			return eris.Wrapf(err, "statsource: insert team %s", r.Team)
		}
	}
	return eris.Wrap(tx.Commit(), "statsource: commit team weeks")
}

// Players implements Source.
func (s *SQLiteSource) Players(ctx context.Context, season int) ([]model.PlayerRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.player_id, r.name, r.team, r.position
		FROM raw_stat_rows r
		JOIN (
			SELECT player_id, MAX(week) AS week FROM raw_stat_rows WHERE season = ? GROUP BY player_id
		) latest ON latest.player_id = r.player_id AND latest.week = r.week
		WHERE r.season = ?
		ORDER BY r.player_id`,
		season, season,
	)
	if err != nil {
		return nil, eris.Wrap(err, "statsource: list players")
	}
	defer rows.Close()

	out := []model.PlayerRef{}
	for rows.Next() {
		var (
			ref model.PlayerRef
			pos string
		)
		if err := rows.Scan(&ref.PlayerID, &ref.Name, &ref.Team, &pos); err != nil {
			return nil, eris.Wrap(err, "statsource: scan player")
		}
		ref.Position = model.Position(pos)
		out = append(out, ref)
	}
	return out, eris.Wrap(rows.Err(), "statsource: list players iterate")
}

// PlayerRows implements Source.
func (s *SQLiteSource) PlayerRows(ctx context.Context, playerID string, season int) ([]model.RawStatRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, season, week, name, team, opponent, position, stats
		FROM raw_stat_rows WHERE player_id = ? AND season = ? ORDER BY week`,
		playerID, season,
	)
	if err != nil {
		return nil, eris.Wrap(err, "statsource: player rows")
	}
	defer rows.Close()

	var out []model.RawStatRow
	for rows.Next() {
		var (
			r     model.RawStatRow
			pos   string
			stats string
		)
		if err := rows.Scan(&r.PlayerID, &r.Season, &r.Week, &r.Name, &r.Team, &r.Opponent, &pos, &stats); err != nil {
			return nil, eris.Wrap(err, "statsource: scan row")
		}
		r.Position = model.Position(pos)
		if err := json.Unmarshal([]byte(stats), &r.Stats); err != nil {
			return nil, eris.Wrapf(err, "statsource: decode row %s", r.PlayerID)
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "statsource: player rows iterate")
}

// TeamWeeks implements Source.
func (s *SQLiteSource) TeamWeeks(ctx context.Context, season int) ([]model.TeamWeekRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT team, season, week, stats FROM team_week_rows WHERE season = ? ORDER BY team, week`,
		season,
	)
	if err != nil {
		return nil, eris.Wrap(err, "statsource: team weeks")
	}
	defer rows.Close()

	var out []model.TeamWeekRow
	for rows.Next() {
		var (
			r     model.TeamWeekRow
			stats string
		)
		if err := rows.Scan(&r.Team, &r.Season, &r.Week, &stats); err != nil {
			return nil, eris.Wrap(err, "statsource: scan team week")
		}
		if err := json.Unmarshal([]byte(stats), &r.Stats); err != nil {
			return nil, eris.Wrapf(err, "statsource: decode team %s", r.Team)
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "statsource: team weeks iterate")
}
