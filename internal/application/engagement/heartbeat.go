package engagement

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/artfolio/engagement-service/internal/domain"
	"github.com/artfolio/engagement-service/internal/metrics"
)

// Heartbeat overwrites the session's duration with the client-reported
// value and refreshes its TTL. An already-expired session is a silent
// no-op: the session is lost and there is nothing to update.
func (s *Service) Heartbeat(ctx context.Context, deviceID, artworkID string, elapsedSeconds int) error {
	if elapsedSeconds < 0 {
		return domain.ErrValidation("view_duration must be >= 0")
	}

	ok, err := s.store.Heartbeat(ctx, deviceID, artworkID, elapsedSeconds, s.clock.Now())
	if err != nil {
		return err
	}
	metrics.RecordHeartbeat(ok)
	if !ok {
		zlog.Debug().Str("device_id", deviceID).Str("artwork_id", artworkID).Msg("heartbeat on expired engagement")
	}
	return nil
}

// End delivers the final heartbeat. The record is left in place for the
// archiver; the final beacon from the client is best-effort, so End may
// never arrive and the TTL reclaims the record instead.
func (s *Service) End(ctx context.Context, deviceID, artworkID string, finalDuration int) error {
	return s.Heartbeat(ctx, deviceID, artworkID, finalDuration)
}
