package engagement

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/artfolio/engagement-service/internal/domain"
	"github.com/artfolio/engagement-service/internal/metrics"
)

type StartCmd struct {
	DeviceID  string
	ArtworkID string
	Replace   bool
	Meta      domain.EngagementMeta
}

// Start opens a viewing session for a (device, artwork) pair. At most
// one open session exists per pair: a second start without Replace is a
// conflict; with Replace the prior record is overwritten in place.
func (s *Service) Start(ctx context.Context, cmd StartCmd) (*domain.Engagement, error) {
	e, err := domain.NewEngagement(cmd.DeviceID, cmd.ArtworkID, cmd.Meta, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateEngagement(ctx, e, cmd.Replace); err != nil {
		return nil, err
	}
	metrics.RecordEngagementStarted()

	// Recent views are a side surface; a failed append never fails the start.
	if err := s.store.AppendRecentView(ctx, e.DeviceID, e.ArtworkID); err != nil {
		zlog.Warn().Err(err).Str("device_id", e.DeviceID).Msg("recent views append failed")
	}

	return e, nil
}
