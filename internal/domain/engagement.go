package domain

import (
	"strings"
	"time"
)

// Engagement is one (device, artwork) viewing session. It lives in the
// ephemeral store while open and is archived to durable storage by a
// background job once it ends or goes stale.
type Engagement struct {
	UserID    string // empty while anonymous
	ArtworkID string
	DeviceID  string

	IPAddress string
	UserAgent string
	Referrer  string
	SessionID string

	ViewStartTime   time.Time
	ViewDuration    int // seconds
	LastInteraction *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EngagementMeta carries the request-derived context captured at view start.
type EngagementMeta struct {
	UserID    string
	IPAddress string
	UserAgent string
	Referrer  string
	SessionID string
}

func NewEngagement(deviceID, artworkID string, meta EngagementMeta, now time.Time) (*Engagement, error) {
	deviceID = strings.TrimSpace(deviceID)
	artworkID = strings.TrimSpace(artworkID)

	if deviceID == "" {
		return nil, ErrValidation("device_id is required")
	}
	if artworkID == "" {
		return nil, ErrValidation("artwork_id is required")
	}

	return &Engagement{
		UserID:        strings.TrimSpace(meta.UserID),
		ArtworkID:     artworkID,
		DeviceID:      deviceID,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		Referrer:      meta.Referrer,
		SessionID:     meta.SessionID,
		ViewStartTime: now,
		ViewDuration:  0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ApplyHeartbeat overwrites the duration with the client-reported value.
// Out-of-order (smaller) durations are accepted: duration is a plain
// last-write-wins overwrite, the client owns the counter.
func (e *Engagement) ApplyHeartbeat(elapsedSeconds int, now time.Time) error {
	if elapsedSeconds < 0 {
		return ErrValidation("view_duration must be >= 0")
	}
	e.ViewDuration = elapsedSeconds
	e.LastInteraction = &now
	e.UpdatedAt = now
	return nil
}
