package domain

import "time"

// ListKind selects which per-device guest list an operation targets.
type ListKind string

const (
	ListCart     ListKind = "cart"
	ListWishlist ListKind = "wishlist"
)

func (k ListKind) Valid() bool {
	return k == ListCart || k == ListWishlist
}

// ItemStatus is the binary guest-item state. A toggle flips it in place
// rather than deleting the entry, so a re-add within the TTL window
// resurrects the same row instead of creating a duplicate.
type ItemStatus string

const (
	StatusActive  ItemStatus = "active"
	StatusRemoved ItemStatus = "removed"
)

func (s ItemStatus) Toggle() ItemStatus {
	if s == StatusActive {
		return StatusRemoved
	}
	return StatusActive
}

// GuestItem is one entry of a device's cart or wishlist. Exactly one
// entry exists per (device, artwork) pair within a list.
type GuestItem struct {
	ArtworkID string     `json:"artwork_id"`
	Status    ItemStatus `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
}
