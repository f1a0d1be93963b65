package engagement

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/artfolio/engagement-service/internal/domain"
)

// Get returns one open session. Missing and expired look the same.
func (s *Service) Get(ctx context.Context, deviceID, artworkID string) (*domain.Engagement, error) {
	e, err := s.store.GetEngagement(ctx, deviceID, artworkID)
	if err != nil {
		// reads degrade: an unreachable store reads as "no session"
		zlog.Warn().Err(err).Str("device_id", deviceID).Msg("engagement read failed")
		return nil, domain.ErrNotFound("engagement not found")
	}
	if e == nil {
		return nil, domain.ErrNotFound("engagement not found")
	}
	return e, nil
}

// List returns the device's open sessions, oldest first.
func (s *Service) List(ctx context.Context, deviceID string) ([]*domain.Engagement, error) {
	list, err := s.store.ListEngagements(ctx, deviceID)
	if err != nil {
		zlog.Warn().Err(err).Str("device_id", deviceID).Msg("engagement list failed")
		return nil, nil
	}
	return list, nil
}

// RecentViews returns recently viewed artwork ids, most recent first.
func (s *Service) RecentViews(ctx context.Context, deviceID string, limit int) ([]string, error) {
	views, err := s.store.RecentViews(ctx, deviceID, limit)
	if err != nil {
		zlog.Warn().Err(err).Str("device_id", deviceID).Msg("recent views read failed")
		return nil, nil
	}
	return views, nil
}

// ClearDevice drops all ephemeral state the device owns.
func (s *Service) ClearDevice(ctx context.Context, deviceID string) (int64, error) {
	return s.store.ClearDevice(ctx, deviceID)
}
