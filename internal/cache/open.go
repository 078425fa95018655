package cache

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/answers/internal/config"
)

// Open constructs the cache backend named by the configuration.
func Open(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DSN)
	case "postgres":
		return NewPostgres(ctx, cfg.DSN)
	default:
		return nil, eris.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}
