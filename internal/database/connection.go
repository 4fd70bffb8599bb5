package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The runner works one statement at a time; a second connection is only
// needed when the advisory lock pins one.
const defaultMaxConns = 2

// Options describes how to reach the target database.
type Options struct {
	URL      string
	Password string // overrides any password embedded in URL when set
}

// NewPool parses the connection string, injects the credential, and pings
// the database before returning.
func NewPool(ctx context.Context, opts Options) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDatabaseURL, err)
	}

	if opts.Password != "" {
		poolCfg.ConnConfig.Password = opts.Password
	}

	poolCfg.MaxConns = defaultMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return pool, nil
}
