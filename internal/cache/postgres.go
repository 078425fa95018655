package cache

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Pool is the subset of pgxpool.Pool the cache uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresCache implements Cache on a shared Postgres pool. Suits multi-node
// deployments where instances share one cache.
type PostgresCache struct {
	pool Pool

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewPostgres connects a pool and migrates the cache table.
func NewPostgres(ctx context.Context, dsn string) (*PostgresCache, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: connect postgres")
	}
	c := NewPostgresWithPool(pool)
	if err := c.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

// NewPostgresWithPool wraps an existing pool without migrating.
func NewPostgresWithPool(pool Pool) *PostgresCache {
	return &PostgresCache{pool: pool, nowFunc: time.Now}
}

func (c *PostgresCache) migrate(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS response_cache (
			key        TEXT PRIMARY KEY,
			payload    BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_response_cache_expires_at ON response_cache(expires_at)`)
	return eris.Wrap(err, "cache: migrate postgres")
}

func (c *PostgresCache) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	var expiresAt time.Time

	row := c.pool.QueryRow(ctx,
		"SELECT payload, expires_at FROM response_cache WHERE key = $1", key)
	if err := row.Scan(&payload, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(ErrCacheUnavailable, err.Error())
	}

	if !c.nowFunc().Before(expiresAt) {
		if _, err := c.pool.Exec(ctx, "DELETE FROM response_cache WHERE key = $1", key); err != nil {
			zap.L().Warn("cache: delete expired row", zap.Error(err))
		}
		return nil, ErrNotFound
	}
	return payload, nil
}

func (c *PostgresCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	now := c.nowFunc().UTC()
	_, err := c.pool.Exec(ctx, `
		INSERT INTO response_cache (key, payload, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`,
		key, payload, now, now.Add(ttl),
	)
	if err != nil {
		return eris.Wrap(ErrCacheUnavailable, err.Error())
	}
	return nil
}

func (c *PostgresCache) Delete(ctx context.Context, key string) error {
	if _, err := c.pool.Exec(ctx, "DELETE FROM response_cache WHERE key = $1", key); err != nil {
		return eris.Wrap(ErrCacheUnavailable, err.Error())
	}
	return nil
}

func (c *PostgresCache) SweepExpired(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx,
		"DELETE FROM response_cache WHERE expires_at <= $1", c.nowFunc().UTC())
	if err != nil {
		return 0, eris.Wrap(ErrCacheUnavailable, err.Error())
	}
	return tag.RowsAffected(), nil
}

func (c *PostgresCache) Close() error {
	c.pool.Close()
	return nil
}
