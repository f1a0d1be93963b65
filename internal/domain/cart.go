package domain

import "time"

// CartItemStatus is the durable post-migration item state.
type CartItemStatus string

const (
	CartItemActive   CartItemStatus = "active"
	CartItemInactive CartItemStatus = "inactive"
)

// CartItem is a durable per-user cart or wishlist row, unique per
// (user_id, artwork_id, kind). NotificationCount is the retry bound for
// abandoned-cart reminders; it never exceeds the configured cap.
type CartItem struct {
	UserID    string
	ArtworkID string
	Kind      ListKind
	Status    CartItemStatus

	NotificationCount int
	LastNotifiedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ArtworkSummary is the slice of the artwork record the notification
// payload needs. The full artwork catalog is owned elsewhere.
type ArtworkSummary struct {
	ID       string
	Title    string
	ImageURL string
	PageURL  string
}

// PushSubscription identifies a push-capable endpoint for a user. The
// dispatcher resolves the most recently active one per user.
type PushSubscription struct {
	UserID   string
	Endpoint string
	Auth     string
	P256dh   string
	LastSeen time.Time
}
