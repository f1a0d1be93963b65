package dto

import "time"

// EngagementResp is the stable API response model. Request-derived
// fields captured for analytics (ip, user agent) are not echoed back.
type EngagementResp struct {
	ArtworkID string `json:"artwork_id"`
	DeviceID  string `json:"device_id"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Referrer  string `json:"referrer,omitempty"`

	ViewStartTime   time.Time  `json:"view_start_time"`
	ViewDuration    int        `json:"view_duration"`
	LastInteraction *time.Time `json:"last_interaction,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GuestItemResp struct {
	ArtworkID string    `json:"artwork_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GuestListResp struct {
	Kind      string          `json:"kind"`
	ActiveIDs []string        `json:"active_ids"`
	Records   []GuestItemResp `json:"records,omitempty"`
}

type ToggleResp struct {
	ArtworkID string `json:"artwork_id"`
	Status    string `json:"status"`
}

type RecentViewsResp struct {
	ArtworkIDs []string `json:"artwork_ids"`
}

type ClearResp struct {
	Removed int64 `json:"removed"`
}

type DispatchResp struct {
	Skipped    bool  `json:"skipped"`
	Processed  int   `json:"processed"`
	Sent       int   `json:"sent"`
	Ineligible int   `json:"ineligible"`
	Failed     int   `json:"failed"`
	ElapsedMS  int64 `json:"elapsed_ms"`
}
