package push

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artfolio/engagement-service/internal/application/notify"
	"github.com/artfolio/engagement-service/internal/domain"
)

// FakeSender is the development sender used when no gateway is
// configured. It logs deliveries and keeps them for inspection.
type FakeSender struct {
	lg zerolog.Logger

	mu   sync.Mutex
	Sent []notify.Payload
}

func NewFakeSender(lg zerolog.Logger) *FakeSender {
	return &FakeSender{lg: lg.With().Str("component", "fake_push_sender").Logger()}
}

func (s *FakeSender) Send(ctx context.Context, sub domain.PushSubscription, payload notify.Payload) error {
	s.mu.Lock()
	s.Sent = append(s.Sent, payload)
	s.mu.Unlock()

	s.lg.Info().
		Str("user_id", sub.UserID).
		Str("title", payload.Title).
		Str("url", payload.URL).
		Msg("FAKE push delivery")
	return nil
}
