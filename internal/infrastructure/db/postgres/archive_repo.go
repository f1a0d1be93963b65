package postgres

import (
	"context"
	"database/sql"

	"github.com/artfolio/engagement-service/internal/domain"
)

// ArchiveRepo persists drained engagement records. Inserts are
// conflict-tolerant so a crashed archiver run can safely replay a batch.
type ArchiveRepo struct {
	db *sql.DB
}

func NewArchiveRepo(db *sql.DB) *ArchiveRepo {
	return &ArchiveRepo{db: db}
}

func (r *ArchiveRepo) InsertBatch(ctx context.Context, records []*domain.Engagement) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, e := range records {
		var lastInteraction sql.NullTime
		if e.LastInteraction != nil {
			lastInteraction = sql.NullTime{Time: e.LastInteraction.UTC(), Valid: true}
		}
		res, err := tx.ExecContext(ctx, insertArchiveSQL,
			e.DeviceID, e.ArtworkID, e.UserID, e.IPAddress, e.UserAgent, e.Referrer, e.SessionID,
			e.ViewStartTime.UTC(), e.ViewDuration, lastInteraction, e.CreatedAt.UTC(),
		)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}
