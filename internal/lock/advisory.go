// Package lock serializes history table migrations across processes with
// MySQL named locks.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dbsmedya/historytracker/internal/logger"
)

// ErrLockTimeout is returned when another session holds the lock for
// longer than the acquisition timeout.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// DefaultTimeout bounds how long a migration waits for a concurrent one.
const DefaultTimeout = 10 * time.Second

// maxNameLength is MySQL's limit on GET_LOCK names.
const maxNameLength = 64

// AdvisoryLock is a MySQL GET_LOCK() lock. Named locks belong to a server
// session, so the lock pins one connection from the pool between Acquire
// and Release.
type AdvisoryLock struct {
	db     *sql.DB
	name   string
	conn   *sql.Conn
	logger *logger.Logger
}

// NewAdvisoryLock creates a lock named name. Nothing is acquired until
// Acquire is called.
func NewAdvisoryLock(db *sql.DB, name string, log *logger.Logger) *AdvisoryLock {
	if log == nil {
		log = logger.NewDefault()
	}
	return &AdvisoryLock{db: db, name: name, logger: log}
}

// MigrationLockName returns the lock name guarding creation of table.
func MigrationLockName(table string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, table)

	name := "historytracker:migrate:" + sanitized
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return name
}

// Name returns the lock name.
func (a *AdvisoryLock) Name() string {
	return a.name
}

// IsHeld reports whether this instance holds the lock.
func (a *AdvisoryLock) IsHeld() bool {
	return a.conn != nil
}

// Acquire waits up to timeout for the lock. A negative timeout waits
// indefinitely. It returns ErrLockTimeout when the lock stays held
// elsewhere.
//
// GET_LOCK() returns 1 on success, 0 on timeout and NULL on error.
func (a *AdvisoryLock) Acquire(ctx context.Context, timeout time.Duration) error {
	if a.conn != nil {
		return nil
	}

	conn, err := a.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to reserve connection for lock %q: %w", a.name, err)
	}

	seconds := -1
	if timeout >= 0 {
		seconds = int(timeout / time.Second)
	}

	var result sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", a.name, seconds).Scan(&result); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}

	if !result.Valid {
		_ = conn.Close()
		return fmt.Errorf("GET_LOCK returned NULL for lock %q", a.name)
	}

	switch result.Int64 {
	case 1:
		a.conn = conn
		a.logger.Debugf("Acquired lock %s", a.name)
		return nil
	case 0:
		_ = conn.Close()
		return fmt.Errorf("%w: lock %q is held by another session", ErrLockTimeout, a.name)
	default:
		_ = conn.Close()
		return fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

// Release frees the lock and returns its connection to the pool. Releasing
// a lock that is not held is a no-op.
//
// RELEASE_LOCK() returns 1 when released, 0 when another session owns the
// lock and NULL when no such lock exists.
func (a *AdvisoryLock) Release(ctx context.Context) error {
	if a.conn == nil {
		return nil
	}
	conn := a.conn
	a.conn = nil
	defer func() { _ = conn.Close() }()

	var result sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", a.name).Scan(&result); err != nil {
		return fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}
	if !result.Valid || result.Int64 != 1 {
		return fmt.Errorf("lock %q was not held by this session", a.name)
	}

	a.logger.Debugf("Released lock %s", a.name)
	return nil
}

// WithLock runs fn while holding the lock named name. The lock is released
// even if fn panics; a failed release is logged, since closing the
// connection frees the lock anyway.
func WithLock(ctx context.Context, db *sql.DB, name string, timeout time.Duration, log *logger.Logger, fn func(ctx context.Context) error) error {
	l := NewAdvisoryLock(db, name, log)
	if err := l.Acquire(ctx, timeout); err != nil {
		return err
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.Release(releaseCtx); err != nil {
			l.logger.Warnf("Failed to release lock %s: %v", name, err)
		}
	}()

	return fn(ctx)
}
