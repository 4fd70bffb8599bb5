package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aqasim81/migrate-ledger/internal/logging"
	"github.com/aqasim81/migrate-ledger/internal/parser"
)

// Pool is the subset of *pgxpool.Pool PoolExecutor needs.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PoolExecutor runs migration SQL on a connection pool. Each block runs in
// its own transaction unless it contains a statement PostgreSQL refuses to
// run inside one, in which case its statements run one by one.
type PoolExecutor struct {
	pool             Pool
	lockTimeout      time.Duration
	statementTimeout time.Duration
}

// ExecutorOption configures a PoolExecutor.
type ExecutorOption func(*PoolExecutor)

// WithLockTimeout sets lock_timeout for each migration transaction.
func WithLockTimeout(d time.Duration) ExecutorOption {
	return func(e *PoolExecutor) { e.lockTimeout = d }
}

// WithStatementTimeout sets statement_timeout for each migration transaction.
func WithStatementTimeout(d time.Duration) ExecutorOption {
	return func(e *PoolExecutor) { e.statementTimeout = d }
}

// NewPoolExecutor creates a PoolExecutor. Zero timeouts leave the server
// defaults in place.
func NewPoolExecutor(pool Pool, opts ...ExecutorOption) *PoolExecutor {
	e := &PoolExecutor{pool: pool}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Exec runs sql, choosing transactional or statement-by-statement execution.
func (e *PoolExecutor) Exec(ctx context.Context, sql string) error {
	result, err := parser.Parse(sql)
	if err != nil {
		// Unparseable SQL still runs; the server reports the error.
		logging.FromContext(ctx).Debug("could not pre-parse migration SQL", "error", err)

		return e.execInTransaction(ctx, sql)
	}

	if result.NeedsNoTransaction() {
		return e.execStatements(ctx, result.Statements())
	}

	return e.execInTransaction(ctx, sql)
}

// execInTransaction runs sql after the SET LOCAL timeouts in one
// transaction. Any error rolls the whole block back.
func (e *PoolExecutor) execInTransaction(ctx context.Context, sql string) error {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns ErrTxClosed

	for _, stmt := range timeoutStatements(e.lockTimeout, e.statementTimeout) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying timeout %q: %w", stmt, err)
		}
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// execStatements runs each statement on its own, outside any transaction.
func (e *PoolExecutor) execStatements(ctx context.Context, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := e.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing statement %d outside transaction: %w", i+1, err)
		}
	}

	return nil
}

// timeoutStatements returns the SET LOCAL statements for non-zero timeouts.
func timeoutStatements(lockTimeout, statementTimeout time.Duration) []string {
	var stmts []string

	if lockTimeout > 0 {
		stmts = append(stmts, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeout.Milliseconds()))
	}

	if statementTimeout > 0 {
		stmts = append(stmts, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", statementTimeout.Milliseconds()))
	}

	return stmts
}
