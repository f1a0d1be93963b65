package postgres

import (
	"context"
	"database/sql"
	"time"
)

// LockRepo implements the dispatch lease as a singleton row. Acquire is
// a single conditional upsert, so two racing acquirers cannot both
// succeed: the insert wins when no row exists, the update wins only when
// the existing lease has expired.
type LockRepo struct {
	db *sql.DB
}

func NewLockRepo(db *sql.DB) *LockRepo {
	return &LockRepo{db: db}
}

// Acquire returns true iff the lease was taken. expires_at is set to
// now+ttl on success.
func (r *LockRepo) Acquire(ctx context.Context, key string, ttl time.Duration, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, acquireLockSQL, key, now.UTC().Add(ttl), now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release deletes the row. Releasing a lock that is not held is a no-op.
func (r *LockRepo) Release(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, releaseLockSQL, key)
	return err
}
