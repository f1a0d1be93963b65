package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/artfolio/engagement-service/internal/application/notify"
	"github.com/artfolio/engagement-service/internal/domain"
)

// WebhookSender delivers payloads through an HTTP push gateway that
// handles the Web Push encryption against the browser endpoint.
type WebhookSender struct {
	lg zerolog.Logger

	client     *http.Client
	gatewayURL string
	apiKey     string
}

type Config struct {
	GatewayURL string
	APIKey     string
	Timeout    time.Duration
}

func NewWebhookSender(cfg Config, lg zerolog.Logger) *WebhookSender {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &WebhookSender{
		lg:         lg.With().Str("component", "push_sender").Logger(),
		client:     &http.Client{Timeout: timeout},
		gatewayURL: cfg.GatewayURL,
		apiKey:     cfg.APIKey,
	}
}

func (s *WebhookSender) Send(ctx context.Context, sub domain.PushSubscription, payload notify.Payload) error {
	body, err := json.Marshal(map[string]any{
		"subscription": map[string]string{
			"endpoint": sub.Endpoint,
			"auth":     sub.Auth,
			"p256dh":   sub.P256dh,
		},
		"notification": payload,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		// 410 means the browser dropped the subscription
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		s.lg.Warn().
			Int("status", resp.StatusCode).
			Str("endpoint", sub.Endpoint).
			Msg("push gateway rejected delivery")
		return fmt.Errorf("push gateway status %d: %s", resp.StatusCode, snippet)
	}

	s.lg.Debug().Str("user_id", sub.UserID).Msg("push delivered")
	return nil
}
