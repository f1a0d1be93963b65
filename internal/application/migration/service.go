package migration

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/artfolio/engagement-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// GuestLists is the ephemeral side of a migration.
type GuestLists interface {
	GuestList(ctx context.Context, deviceID string, kind domain.ListKind) ([]domain.GuestItem, error)
	ClearGuestList(ctx context.Context, deviceID string, kind domain.ListKind) error
}

// DurableItems is the per-user side of a migration.
type DurableItems interface {
	ListActiveArtworkIDs(ctx context.Context, userID string, kind domain.ListKind) ([]string, error)
	UpsertActiveBatch(ctx context.Context, userID string, kind domain.ListKind, artworkIDs []string, now time.Time) (int, error)
}

// EventPublisher announces completed migrations downstream.
type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	return nil
}

type Service struct {
	guest   GuestLists
	durable DurableItems
	pub     EventPublisher
	clock   Clock
}

func New(guest GuestLists, durable DurableItems, pub EventPublisher, clock Clock) *Service {
	if pub == nil {
		pub = NoopPublisher{}
	}
	return &Service{guest: guest, durable: durable, pub: pub, clock: clock}
}

// Result reports one migration run for one list kind.
type Result struct {
	Kind         domain.ListKind `json:"kind"`
	GuestActive  int             `json:"guest_active"`
	AlreadyOwned int             `json:"already_owned"`
	Migrated     int             `json:"migrated"`
}

// Migrate reconciles the device's guest list into the user's durable
// set exactly once: only guest-active items unseen by the user are
// inserted, and the guest list is cleared only after the batch lands.
// A second call finds an empty guest list and is a no-op. An empty diff
// returns early without clearing, so still-present already-migrated
// items are re-evaluated on a future login.
func (s *Service) Migrate(ctx context.Context, deviceID, userID string, kind domain.ListKind) (Result, error) {
	deviceID = strings.TrimSpace(deviceID)
	userID = strings.TrimSpace(userID)

	res := Result{Kind: kind}
	if deviceID == "" {
		return res, domain.ErrValidation("device_id is required")
	}
	if userID == "" {
		return res, domain.ErrValidation("user_id is required")
	}
	if !kind.Valid() {
		return res, domain.ErrValidation("kind must be cart or wishlist")
	}

	guestItems, err := s.guest.GuestList(ctx, deviceID, kind)
	if err != nil {
		return res, domain.ErrUnavailable("guest state unavailable")
	}

	var guestActive []string
	for _, it := range guestItems {
		if it.Status == domain.StatusActive {
			guestActive = append(guestActive, it.ArtworkID)
		}
	}
	res.GuestActive = len(guestActive)
	if len(guestActive) == 0 {
		return res, nil
	}

	owned, err := s.durable.ListActiveArtworkIDs(ctx, userID, kind)
	if err != nil {
		return res, err
	}
	ownedSet := make(map[string]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}

	var toInsert []string
	for _, id := range guestActive {
		if _, ok := ownedSet[id]; ok {
			res.AlreadyOwned++
			continue
		}
		toInsert = append(toInsert, id)
	}
	if len(toInsert) == 0 {
		// nothing new: leave the guest list for re-evaluation
		return res, nil
	}

	n, err := s.durable.UpsertActiveBatch(ctx, userID, kind, toInsert, s.clock.Now())
	if err != nil {
		// guest list untouched so a retry can recover
		return res, err
	}
	res.Migrated = n

	if err := s.guest.ClearGuestList(ctx, deviceID, kind); err != nil {
		// rows landed; a stale guest list only costs a redundant diff later
		zlog.Warn().Err(err).Str("device_id", deviceID).Str("kind", string(kind)).Msg("guest list clear failed after migration")
	}

	s.announce(ctx, deviceID, userID, res)
	return res, nil
}

func (s *Service) announce(ctx context.Context, deviceID, userID string, res Result) {
	body, err := json.Marshal(map[string]any{
		"device_id":   deviceID,
		"user_id":     userID,
		"kind":        res.Kind,
		"migrated":    res.Migrated,
		"occurred_at": s.clock.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	routingKey := "engagement.migrated." + string(res.Kind)
	if err := s.pub.PublishEvent(ctx, routingKey, uuid.NewString(), body); err != nil {
		zlog.Warn().Err(err).Str("routing_key", routingKey).Msg("migration event publish failed")
	}
}
