package database

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LockID derives the advisory lock key from the ledger table name, so two
// ledgers in one database never block each other.
func LockID(table string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("migrate-ledger:" + table))

	return int64(h.Sum64()) //nolint:gosec // wraparound is fine for a lock key
}

// LockHandle wraps a dedicated pooled connection that holds a session-level
// advisory lock. Call Release to unlock and return the connection.
type LockHandle struct {
	conn *pgxpool.Conn
	id   int64
}

// TryAcquireLock takes the advisory lock for id without waiting. It returns
// ErrLockNotAcquired when another session holds it.
func TryAcquireLock(ctx context.Context, pool *pgxpool.Pool, id int64) (*LockHandle, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for advisory lock: %w", err)
	}

	var acquired bool

	err = conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", id).Scan(&acquired)
	if err != nil {
		conn.Release()

		return nil, fmt.Errorf("executing pg_try_advisory_lock: %w", err)
	}

	if !acquired {
		conn.Release()

		return nil, ErrLockNotAcquired
	}

	return &LockHandle{conn: conn, id: id}, nil
}

// Release unlocks and returns the connection to the pool. Safe to call
// more than once and on a nil handle.
func (h *LockHandle) Release(ctx context.Context) error {
	if h == nil || h.conn == nil {
		return nil
	}

	_, err := h.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", h.id)
	h.conn.Release()
	h.conn = nil

	if err != nil {
		return fmt.Errorf("releasing advisory lock: %w", err)
	}

	return nil
}
