package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteCache implements Cache on a local SQLite file. Suits single-node
// deployments and the CLI.
type SQLiteCache struct {
	db *sql.DB

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewSQLite opens (and migrates) a SQLite cache at the given path.
func NewSQLite(dsn string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}

	c := &SQLiteCache{db: db, nowFunc: time.Now}
	if err := c.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS response_cache (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_response_cache_expires_at ON response_cache(expires_at);
`

func (c *SQLiteCache) migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "cache: migrate sqlite")
}

func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	var expiresAt time.Time

	row := c.db.QueryRowContext(ctx,
		"SELECT payload, expires_at FROM response_cache WHERE key = ?", key)
	if err := row.Scan(&payload, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(ErrCacheUnavailable, err.Error())
	}

	if !c.nowFunc().Before(expiresAt) {
		// Lazy expiry: reclaim the row on read.
		if _, err := c.db.ExecContext(ctx, "DELETE FROM response_cache WHERE key = ?", key); err != nil {
			zap.L().Warn("cache: delete expired row", zap.Error(err))
		}
		return nil, ErrNotFound
	}
	return payload, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	now := c.nowFunc().UTC()
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO response_cache (key, payload, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		key, payload, now, now.Add(ttl),
	)
	if err != nil {
		return eris.Wrap(ErrCacheUnavailable, err.Error())
	}
	return nil
}

func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM response_cache WHERE key = ?", key); err != nil {
		return eris.Wrap(ErrCacheUnavailable, err.Error())
	}
	return nil
}

func (c *SQLiteCache) SweepExpired(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM response_cache WHERE expires_at <= ?", c.nowFunc().UTC())
	if err != nil {
		return 0, eris.Wrap(ErrCacheUnavailable, err.Error())
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "cache: rows affected")
	}
	return n, nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
