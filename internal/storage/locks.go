package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Session advisory locks belong to one backend connection, so the connection
// that took a lock is pinned until the lock is released.

// TryAcquireAdvisoryLock takes lockID without waiting. Taking a lock this
// instance already holds reports true.
func (db *DB) TryAcquireAdvisoryLock(ctx context.Context, lockID int64) (bool, error) {
	db.lockMu.Lock()
	defer db.lockMu.Unlock()

	if _, held := db.lockConns[lockID]; held {
		return true, nil
	}

	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire lock connection: %w", err)
	}

	var acquired bool

	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		conn.Release()
		return false, fmt.Errorf("try acquire advisory lock: %w", err)
	}

	if !acquired {
		conn.Release()
		return false, nil
	}

	if db.lockConns == nil {
		db.lockConns = make(map[int64]*pgxpool.Conn)
	}

	db.lockConns[lockID] = conn

	return true, nil
}

// ReleaseAdvisoryLock unlocks lockID and returns its connection to the pool.
// Releasing a lock that is not held is a no-op.
func (db *DB) ReleaseAdvisoryLock(ctx context.Context, lockID int64) error {
	db.lockMu.Lock()
	conn, held := db.lockConns[lockID]
	delete(db.lockConns, lockID)
	db.lockMu.Unlock()

	if !held {
		return nil
	}

	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", lockID); err != nil {
		// A connection that failed to unlock must not be reused with the lock still held.
		_ = conn.Conn().Close(ctx)
		return fmt.Errorf("release advisory lock: %w", err)
	}

	return nil
}
