package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/mol-insights/feestrat-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
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
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS services (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	position   INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scenarios (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS insight_cache (
	id         TEXT PRIMARY KEY,
	cache_key  TEXT NOT NULL UNIQUE,
	content    TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_services_position ON services(position);
CREATE INDEX IF NOT EXISTS idx_scenarios_created_at ON scenarios(created_at);
CREATE INDEX IF NOT EXISTS idx_insight_cache_key ON insight_cache(cache_key);
CREATE INDEX IF NOT EXISTS idx_insight_cache_expires_at ON insight_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceServices(ctx context.Context, records []model.ServiceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace services")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM services`); err != nil {
		return eris.Wrap(err, "sqlite: clear services")
	}

	now := time.Now().UTC()
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal service %s", rec.Name)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO services (id, name, position, payload, updated_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), rec.Name, i, string(payload), now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert service %s", rec.Name)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace services")
}

func (s *SQLiteStore) ListServices(ctx context.Context) ([]model.ServiceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM services ORDER BY position`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list services")
	}
	defer rows.Close()

	var records []model.ServiceRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan service")
		}
		var rec model.ServiceRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal service")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list services iterate")
}

func (s *SQLiteStore) SaveScenario(ctx context.Context, sc model.Scenario) error {
	payload, err := json.Marshal(sc)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal scenario %s", sc.Name)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scenarios (id, name, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		uuid.New().String(), sc.Name, string(payload), now, now,
	)
	return eris.Wrapf(err, "sqlite: save scenario %s", sc.Name)
}

func (s *SQLiteStore) GetScenario(ctx context.Context, name string) (*model.Scenario, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM scenarios WHERE name = ?`,
		name,
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get scenario %s", name)
	}

	var sc model.Scenario
	if err := json.Unmarshal([]byte(payload), &sc); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal scenario %s", name)
	}
	return &sc, nil
}

func (s *SQLiteStore) ListScenarios(ctx context.Context) ([]model.Scenario, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM scenarios ORDER BY created_at, rowid`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scenarios")
	}
	defer rows.Close()

	var scenarios []model.Scenario
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scenario")
		}
		var sc model.Scenario
		if err := json.Unmarshal([]byte(payload), &sc); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal scenario")
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, eris.Wrap(rows.Err(), "sqlite: list scenarios iterate")
}

func (s *SQLiteStore) GetCachedInsight(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT content FROM insight_cache WHERE cache_key = ? AND expires_at > datetime('now')`,
		key,
	)

	var content string
	err := row.Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrap(err, "sqlite: get cached insight")
	}
	return content, nil
}

func (s *SQLiteStore) SetCachedInsight(ctx context.Context, key, content string, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO insight_cache (id, cache_key, content, cached_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET content = excluded.content, cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		uuid.New().String(), key, content, now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached insight")
}

func (s *SQLiteStore) DeleteExpiredInsights(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM insight_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired insights")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
