package guestlist

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/artfolio/engagement-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// GuestStore is the device-scoped guest list state.
type GuestStore interface {
	ToggleGuestItem(ctx context.Context, deviceID string, kind domain.ListKind, artworkID string, now time.Time) (domain.ItemStatus, error)
	AddGuestItem(ctx context.Context, deviceID string, kind domain.ListKind, artworkID string, now time.Time) error
	GuestList(ctx context.Context, deviceID string, kind domain.ListKind) ([]domain.GuestItem, error)
	ClearGuestList(ctx context.Context, deviceID string, kind domain.ListKind) error
}

type Service struct {
	store GuestStore
	clock Clock
}

func New(store GuestStore, clock Clock) *Service {
	return &Service{store: store, clock: clock}
}

// View is the single tagged response shape for guest list reads: the
// active id list always, full records only when the caller asked for
// them (migration-context reads need the statuses).
type View struct {
	ActiveIDs []string
	Records   []domain.GuestItem // nil unless requested
}

// Toggle flips the item's status. Absent items default to removed, so
// the first toggle yields active. Toggles carry user intent: store
// failures surface instead of degrading.
func (s *Service) Toggle(ctx context.Context, deviceID string, kind domain.ListKind, artworkID string) (domain.ItemStatus, error) {
	if err := validate(deviceID, kind, artworkID); err != nil {
		return "", err
	}
	status, err := s.store.ToggleGuestItem(ctx, deviceID, kind, artworkID, s.clock.Now())
	if err != nil {
		return "", domain.ErrUnavailable("guest list temporarily unavailable")
	}
	return status, nil
}

// Add forces the item active regardless of its current status.
func (s *Service) Add(ctx context.Context, deviceID string, kind domain.ListKind, artworkID string) error {
	if err := validate(deviceID, kind, artworkID); err != nil {
		return err
	}
	if err := s.store.AddGuestItem(ctx, deviceID, kind, artworkID, s.clock.Now()); err != nil {
		return domain.ErrUnavailable("guest list temporarily unavailable")
	}
	return nil
}

// Clear empties the device's list.
func (s *Service) Clear(ctx context.Context, deviceID string, kind domain.ListKind) error {
	if !kind.Valid() {
		return domain.ErrValidation("kind must be cart or wishlist")
	}
	if err := s.store.ClearGuestList(ctx, deviceID, kind); err != nil {
		return domain.ErrUnavailable("guest list temporarily unavailable")
	}
	return nil
}

// Get reads the list. Reads degrade to an empty view when the store is
// unreachable.
func (s *Service) Get(ctx context.Context, deviceID string, kind domain.ListKind, includeRecords bool) (View, error) {
	if !kind.Valid() {
		return View{}, domain.ErrValidation("kind must be cart or wishlist")
	}

	items, err := s.store.GuestList(ctx, deviceID, kind)
	if err != nil {
		zlog.Warn().Err(err).Str("device_id", deviceID).Str("kind", string(kind)).Msg("guest list read failed")
		return View{ActiveIDs: []string{}}, nil
	}

	view := View{ActiveIDs: make([]string, 0, len(items))}
	for _, it := range items {
		if it.Status == domain.StatusActive {
			view.ActiveIDs = append(view.ActiveIDs, it.ArtworkID)
		}
	}
	if includeRecords {
		view.Records = items
	}
	return view, nil
}

func validate(deviceID string, kind domain.ListKind, artworkID string) error {
	if deviceID == "" {
		return domain.ErrValidation("device_id is required")
	}
	if !kind.Valid() {
		return domain.ErrValidation("kind must be cart or wishlist")
	}
	if artworkID == "" {
		return domain.ErrValidation("artwork_id is required")
	}
	return nil
}
