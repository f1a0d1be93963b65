package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/artfolio/engagement-service/internal/domain"
)

// CartRepo owns the durable per-user cart/wishlist rows, unique per
// (user_id, artwork_id, kind).
type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{db: db}
}

func (r *CartRepo) ListActiveArtworkIDs(ctx context.Context, userID string, kind domain.ListKind) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listActiveIDsSQL, userID, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertActiveBatch inserts the given artwork ids as active rows in one
// transaction. A row that already exists is re-activated in place; a
// removed->active transition resets the notification counter (a re-add
// is fresh purchase intent, the reminder cap applies per intent).
func (r *CartRepo) UpsertActiveBatch(ctx context.Context, userID string, kind domain.ListKind, artworkIDs []string, now time.Time) (int, error) {
	if len(artworkIDs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range artworkIDs {
		if _, err := tx.ExecContext(ctx, upsertActiveItemSQL, userID, id, string(kind), now.UTC()); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(artworkIDs), nil
}

// ListEligibleForReminder returns active items still under the
// notification cap and outside the cooldown window, oldest first.
func (r *CartRepo) ListEligibleForReminder(ctx context.Context, kind domain.ListKind, maxCount int, notifiedBefore time.Time, limit int) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, listEligibleSQL, string(kind), maxCount, notifiedBefore.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		var lastNotified sql.NullTime
		if err := rows.Scan(&it.UserID, &it.ArtworkID, &it.Kind, &it.Status,
			&it.NotificationCount, &lastNotified, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		if lastNotified.Valid {
			t := lastNotified.Time
			it.LastNotifiedAt = &t
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MarkNotified increments the counter and stamps last_notified_at. The
// WHERE guard keeps the counter under the cap even if two runs overlap.
func (r *CartRepo) MarkNotified(ctx context.Context, userID, artworkID string, kind domain.ListKind, now time.Time, maxCount int) error {
	res, err := r.db.ExecContext(ctx, markNotifiedSQL, userID, artworkID, string(kind), now.UTC(), maxCount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrInvalidState("item no longer eligible")
	}
	return nil
}
