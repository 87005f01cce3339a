package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/resplan/internal/domain/model"
	"github.com/okian/resplan/pkg/metrics"
)

// SQLiteStore persists teams and periods as JSON documents in SQLite.
type SQLiteStore struct {
	DBPath string
	opts   options
	db     *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path. The special path
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dsn := path
	if path != ":memory:" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve store db path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("ensure store db dir: %w", err)
		}
		dsn = absPath
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{DBPath: dsn, opts: o, db: db}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS teams (
	id TEXT PRIMARY KEY,
	body TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS periods (
	team_id TEXT NOT NULL REFERENCES teams(id),
	id TEXT NOT NULL,
	last_update_uuid TEXT NOT NULL,
	body TEXT NOT NULL,
	PRIMARY KEY (team_id, id)
);

CREATE TABLE IF NOT EXISTS period_backups (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	team_id TEXT NOT NULL,
	period_id TEXT NOT NULL,
	taken_at TEXT NOT NULL,
	body TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_backups_period ON period_backups(team_id, period_id, seq);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create store schema: %w", err)
	}
	return nil
}

// GetAllTeams implements Store.GetAllTeams.
func (s *SQLiteStore) GetAllTeams(ctx context.Context) ([]model.Team, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(sinceMs(start)) }()

	rows, err := s.db.QueryContext(ctx, "SELECT body FROM teams ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	out := []model.Team{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		var team model.Team
		if err := json.Unmarshal([]byte(body), &team); err != nil {
			return nil, fmt.Errorf("decode team: %w", err)
		}
		out = append(out, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return out, nil
}

// GetTeam implements Store.GetTeam.
func (s *SQLiteStore) GetTeam(ctx context.Context, teamID string) (model.Team, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(sinceMs(start)) }()

	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM teams WHERE id = ?", teamID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("store", "not_found")
		return model.Team{}, fmt.Errorf("team %q: %w", teamID, ErrNotFound)
	}
	if err != nil {
		return model.Team{}, fmt.Errorf("query team %q: %w", teamID, err)
	}
	var team model.Team
	if err := json.Unmarshal([]byte(body), &team); err != nil {
		return model.Team{}, fmt.Errorf("decode team %q: %w", teamID, err)
	}
	return team, nil
}

// CreateTeam implements Store.CreateTeam.
func (s *SQLiteStore) CreateTeam(ctx context.Context, team model.Team) error {
	if err := validateTeam(team); err != nil {
		return err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreUpdateLatency(sinceMs(start)) }()

	body, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("encode team: %w", err)
	}
	res, err := s.db.ExecContext(ctx, "INSERT INTO teams (id, body) VALUES (?, ?) ON CONFLICT(id) DO NOTHING", team.ID, string(body))
	if err != nil {
		return fmt.Errorf("insert team %q: %w", team.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("team %q: %w", team.ID, ErrAlreadyExists)
	}
	s.refreshCounts(ctx)
	return nil
}

// UpdateTeam implements Store.UpdateTeam.
func (s *SQLiteStore) UpdateTeam(ctx context.Context, team model.Team) error {
	if err := validateTeam(team); err != nil {
		return err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreUpdateLatency(sinceMs(start)) }()

	body, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("encode team: %w", err)
	}
	res, err := s.db.ExecContext(ctx, "UPDATE teams SET body = ? WHERE id = ?", string(body), team.ID)
	if err != nil {
		return fmt.Errorf("update team %q: %w", team.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("team %q: %w", team.ID, ErrNotFound)
	}
	return nil
}

// GetAllPeriods implements Store.GetAllPeriods.
func (s *SQLiteStore) GetAllPeriods(ctx context.Context, teamID string) ([]model.Period, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(sinceMs(start)) }()

	if err := s.teamExists(ctx, s.db, teamID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT body FROM periods WHERE team_id = ? ORDER BY id", teamID)
	if err != nil {
		return nil, fmt.Errorf("query periods for team %q: %w", teamID, err)
	}
	defer rows.Close()

	out := []model.Period{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		var p model.Period
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			return nil, fmt.Errorf("decode period: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate periods: %w", err)
	}
	return out, nil
}

// GetPeriod implements Store.GetPeriod.
func (s *SQLiteStore) GetPeriod(ctx context.Context, teamID, periodID string) (model.Period, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(sinceMs(start)) }()

	p, err := s.getPeriod(ctx, s.db, teamID, periodID)
	if errors.Is(err, ErrNotFound) {
		metrics.RecordErrorByComponent("store", "not_found")
	}
	return p, err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) teamExists(ctx context.Context, q queryer, teamID string) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM teams WHERE id = ?", teamID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("team %q: %w", teamID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("query team %q: %w", teamID, err)
	}
	return nil
}

func (s *SQLiteStore) getPeriod(ctx context.Context, q queryer, teamID, periodID string) (model.Period, error) {
	if err := s.teamExists(ctx, q, teamID); err != nil {
		return model.Period{}, err
	}
	var body string
	err := q.QueryRowContext(ctx, "SELECT body FROM periods WHERE team_id = ? AND id = ?", teamID, periodID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Period{}, fmt.Errorf("period %q for team %q: %w", periodID, teamID, ErrNotFound)
	}
	if err != nil {
		return model.Period{}, fmt.Errorf("query period %q: %w", periodID, err)
	}
	var p model.Period
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return model.Period{}, fmt.Errorf("decode period %q: %w", periodID, err)
	}
	return p, nil
}

// CreatePeriod implements Store.CreatePeriod.
func (s *SQLiteStore) CreatePeriod(ctx context.Context, teamID string, period model.Period) (model.ObjectUpdateResponse, error) {
	if err := validatePeriod(teamID, period); err != nil {
		return model.ObjectUpdateResponse{}, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreUpdateLatency(sinceMs(start)) }()

	if err := s.teamExists(ctx, s.db, teamID); err != nil {
		return model.ObjectUpdateResponse{}, err
	}
	period.LastUpdateUUID = newUpdateUUID()
	body, err := json.Marshal(period)
	if err != nil {
		return model.ObjectUpdateResponse{}, fmt.Errorf("encode period: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO periods (team_id, id, last_update_uuid, body) VALUES (?, ?, ?, ?) ON CONFLICT(team_id, id) DO NOTHING",
		teamID, period.ID, period.LastUpdateUUID, string(body))
	if err != nil {
		return model.ObjectUpdateResponse{}, fmt.Errorf("insert period %q: %w", period.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ObjectUpdateResponse{}, fmt.Errorf("period %q for team %q: %w", period.ID, teamID, ErrAlreadyExists)
	}
	s.refreshCounts(ctx)
	return model.ObjectUpdateResponse{LastUpdateUUID: period.LastUpdateUUID}, nil
}

// UpdatePeriod implements Store.UpdatePeriod.
func (s *SQLiteStore) UpdatePeriod(ctx context.Context, teamID string, period model.Period) (model.ObjectUpdateResponse, error) {
	if err := validatePeriod(teamID, period); err != nil {
		return model.ObjectUpdateResponse{}, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreUpdateLatency(sinceMs(start)) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ObjectUpdateResponse{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	saved, err := s.getPeriod(ctx, tx, teamID, period.ID)
	if err != nil {
		return model.ObjectUpdateResponse{}, err
	}
	if err := checkConcurrentModification(saved, period); err != nil {
		metrics.RecordErrorByComponent("store", "conflict")
		return model.ObjectUpdateResponse{}, err
	}

	period.LastUpdateUUID = newUpdateUUID()
	body, err := json.Marshal(period)
	if err != nil {
		return model.ObjectUpdateResponse{}, fmt.Errorf("encode period: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE periods SET body = ?, last_update_uuid = ? WHERE team_id = ? AND id = ?",
		string(body), period.LastUpdateUUID, teamID, period.ID); err != nil {
		return model.ObjectUpdateResponse{}, fmt.Errorf("update period %q: %w", period.ID, err)
	}
	if err := s.backupPeriod(ctx, tx, teamID, saved); err != nil {
		return model.ObjectUpdateResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.ObjectUpdateResponse{}, fmt.Errorf("commit update: %w", err)
	}
	metrics.RecordPeriodBackup()
	return model.ObjectUpdateResponse{LastUpdateUUID: period.LastUpdateUUID}, nil
}

func (s *SQLiteStore) backupPeriod(ctx context.Context, tx *sql.Tx, teamID string, saved model.Period) error {
	body, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	takenAt := s.opts.now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO period_backups (team_id, period_id, taken_at, body) VALUES (?, ?, ?, ?)",
		teamID, saved.ID, takenAt, string(body)); err != nil {
		return fmt.Errorf("insert backup: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
DELETE FROM period_backups
WHERE team_id = ? AND period_id = ? AND seq NOT IN (
	SELECT seq FROM period_backups WHERE team_id = ? AND period_id = ? ORDER BY seq DESC LIMIT ?
)`, teamID, saved.ID, teamID, saved.ID, s.opts.backupsToKeep); err != nil {
		return fmt.Errorf("purge backups: %w", err)
	}
	return nil
}

// GetPeriodBackups implements Store.GetPeriodBackups.
func (s *SQLiteStore) GetPeriodBackups(ctx context.Context, teamID, periodID string) ([]model.PeriodBackup, error) {
	if _, err := s.getPeriod(ctx, s.db, teamID, periodID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT taken_at, body FROM period_backups WHERE team_id = ? AND period_id = ? ORDER BY seq",
		teamID, periodID)
	if err != nil {
		return nil, fmt.Errorf("query backups: %w", err)
	}
	defer rows.Close()

	out := []model.PeriodBackup{}
	for rows.Next() {
		var takenAt, body string
		if err := rows.Scan(&takenAt, &body); err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, takenAt)
		if err != nil {
			return nil, fmt.Errorf("parse backup time: %w", err)
		}
		b := model.PeriodBackup{Timestamp: ts}
		if err := json.Unmarshal([]byte(body), &b.Period); err != nil {
			return nil, fmt.Errorf("decode backup: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) refreshCounts(ctx context.Context) {
	var teams, periods int
	if err := s.db.QueryRowContext(ctx, "SELECT (SELECT COUNT(*) FROM teams), (SELECT COUNT(*) FROM periods)").Scan(&teams, &periods); err != nil {
		metrics.RecordErrorByComponent("store", "count")
		return
	}
	metrics.UpdateStoreTeamsTotal(teams)
	metrics.UpdateStorePeriodsTotal(periods)
}
