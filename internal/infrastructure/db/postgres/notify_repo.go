package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/artfolio/engagement-service/internal/domain"
)

// NotifyRepo resolves the read-only collaborator records the dispatcher
// needs: push subscriptions and artwork summaries. Missing records are
// normal empty results, never errors.
type NotifyRepo struct {
	db *sql.DB
}

func NewNotifyRepo(db *sql.DB) *NotifyRepo {
	return &NotifyRepo{db: db}
}

// LatestSubscription returns the user's most recently active push
// subscription, or nil when the user has none.
func (r *NotifyRepo) LatestSubscription(ctx context.Context, userID string) (*domain.PushSubscription, error) {
	var s domain.PushSubscription
	err := r.db.QueryRowContext(ctx, latestSubscriptionSQL, userID).
		Scan(&s.UserID, &s.Endpoint, &s.Auth, &s.P256dh, &s.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ArtworkSummary returns display data for a notification payload, or
// nil when the artwork record is missing.
func (r *NotifyRepo) ArtworkSummary(ctx context.Context, artworkID string) (*domain.ArtworkSummary, error) {
	var a domain.ArtworkSummary
	err := r.db.QueryRowContext(ctx, getArtworkSummarySQL, artworkID).
		Scan(&a.ID, &a.Title, &a.ImageURL, &a.PageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
