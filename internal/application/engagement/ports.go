package engagement

import (
	"context"
	"time"

	"github.com/artfolio/engagement-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// DeviceStore is the ephemeral device-scoped state the service runs on.
type DeviceStore interface {
	CreateEngagement(ctx context.Context, e *domain.Engagement, replace bool) error
	Heartbeat(ctx context.Context, deviceID, artworkID string, elapsedSeconds int, now time.Time) (bool, error)
	GetEngagement(ctx context.Context, deviceID, artworkID string) (*domain.Engagement, error)
	ListEngagements(ctx context.Context, deviceID string) ([]*domain.Engagement, error)
	ClearDevice(ctx context.Context, deviceID string) (int64, error)
	AppendRecentView(ctx context.Context, deviceID, artworkID string) error
	RecentViews(ctx context.Context, deviceID string, limit int) ([]string, error)
}
