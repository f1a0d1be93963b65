package dto

const (
	ActionToggle = "TOGGLE"
	ActionAdd    = "ADD"
	ActionClear  = "CLEAR"
)

type GuestActionReq struct {
	Action    string `json:"action" validate:"required,oneof=TOGGLE ADD CLEAR"`
	ArtworkID string `json:"artwork_id" validate:"required_unless=Action CLEAR,omitempty,max=128"`
}

type StartEngagementReq struct {
	ArtworkID string `json:"artwork_id" validate:"required,max=128"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128"`
	Referrer  string `json:"referrer,omitempty" validate:"omitempty,max=2048"`
}

type HeartbeatReq struct {
	ArtworkID    string `json:"artwork_id" validate:"required,max=128"`
	ViewDuration int    `json:"view_duration" validate:"min=0"`
	Final        bool   `json:"final,omitempty"`
}

type MigrateReq struct {
	DeviceID string   `json:"device_id" validate:"required,max=128"`
	UserID   string   `json:"user_id" validate:"required,max=128"`
	Kinds    []string `json:"kinds,omitempty" validate:"omitempty,dive,oneof=cart wishlist"`
}
