package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/mol-insights/feestrat-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"list_services":      `SELECT payload FROM services ORDER BY position`,
	"get_scenario":       `SELECT payload FROM scenarios WHERE name = $1`,
	"list_scenarios":     `SELECT payload FROM scenarios ORDER BY created_at, id`,
	"get_cached_insight": `SELECT content FROM insight_cache WHERE cache_key = $1 AND expires_at > now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS services (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL UNIQUE,
	position   INTEGER NOT NULL,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scenarios (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL UNIQUE,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS insight_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	cache_key  TEXT NOT NULL UNIQUE,
	content    TEXT NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_services_position ON services(position);
CREATE INDEX IF NOT EXISTS idx_scenarios_created_at ON scenarios(created_at);
CREATE INDEX IF NOT EXISTS idx_insight_cache_key ON insight_cache(cache_key);
CREATE INDEX IF NOT EXISTS idx_insight_cache_expires_at ON insight_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ReplaceServices(ctx context.Context, records []model.ServiceRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace services")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM services`); err != nil {
		return eris.Wrap(err, "postgres: clear services")
	}

	now := time.Now().UTC()
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal service %s", rec.Name)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO services (id, name, position, payload, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), rec.Name, i, payload, now,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert service %s", rec.Name)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace services")
}

func (s *PostgresStore) ListServices(ctx context.Context) ([]model.ServiceRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM services ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list services")
	}
	defer rows.Close()

	var records []model.ServiceRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan service")
		}
		var rec model.ServiceRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal service")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list services iterate")
}

func (s *PostgresStore) SaveScenario(ctx context.Context, sc model.Scenario) error {
	payload, err := json.Marshal(sc)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal scenario %s", sc.Name)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scenarios (id, name, payload, created_at, updated_at) VALUES ($1, $2, $3, now(), now())
		 ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		uuid.New().String(), sc.Name, payload,
	)
	return eris.Wrapf(err, "postgres: save scenario %s", sc.Name)
}

func (s *PostgresStore) GetScenario(ctx context.Context, name string) (*model.Scenario, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM scenarios WHERE name = $1`,
		name,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get scenario %s", name)
	}

	var sc model.Scenario
	if err := json.Unmarshal(payload, &sc); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal scenario %s", name)
	}
	return &sc, nil
}

func (s *PostgresStore) ListScenarios(ctx context.Context) ([]model.Scenario, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM scenarios ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scenarios")
	}
	defer rows.Close()

	var scenarios []model.Scenario
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan scenario")
		}
		var sc model.Scenario
		if err := json.Unmarshal(payload, &sc); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal scenario")
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, eris.Wrap(rows.Err(), "postgres: list scenarios iterate")
}

func (s *PostgresStore) GetCachedInsight(ctx context.Context, key string) (string, error) {
	var content string
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM insight_cache WHERE cache_key = $1 AND expires_at > now()`,
		key,
	).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrap(err, "postgres: get cached insight")
	}
	return content, nil
}

func (s *PostgresStore) SetCachedInsight(ctx context.Context, key, content string, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO insight_cache (id, cache_key, content, cached_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (cache_key) DO UPDATE SET content = EXCLUDED.content, cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`,
		uuid.New().String(), key, content, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached insight")
}

func (s *PostgresStore) DeleteExpiredInsights(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM insight_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired insights")
	}
	return int(tag.RowsAffected()), nil
}
