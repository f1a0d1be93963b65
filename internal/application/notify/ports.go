package notify

import (
	"context"
	"time"

	"github.com/artfolio/engagement-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// Locker is the lease serializing dispatch runs.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration, now time.Time) (bool, error)
	Release(ctx context.Context, key string) error
}

// ItemSource selects and stamps the durable cart items.
type ItemSource interface {
	ListEligibleForReminder(ctx context.Context, kind domain.ListKind, maxCount int, notifiedBefore time.Time, limit int) ([]domain.CartItem, error)
	MarkNotified(ctx context.Context, userID, artworkID string, kind domain.ListKind, now time.Time, maxCount int) error
}

// Resolver looks up the external collaborator records a payload needs.
type Resolver interface {
	LatestSubscription(ctx context.Context, userID string) (*domain.PushSubscription, error)
	ArtworkSummary(ctx context.Context, artworkID string) (*domain.ArtworkSummary, error)
}

// Sender is the opaque push-transport capability.
type Sender interface {
	Send(ctx context.Context, sub domain.PushSubscription, payload Payload) error
}

// EventPublisher announces sent reminders downstream.
type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	return nil
}
