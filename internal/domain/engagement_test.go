package domain

import (
	"testing"
	"time"
)

func TestNewEngagement_Validation(t *testing.T) {
	now := time.Now().UTC()

	if _, err := NewEngagement("", "art_1", EngagementMeta{}, now); !Is(err, CodeValidation) {
		t.Fatalf("expected validation error for missing device_id, got %v", err)
	}
	if _, err := NewEngagement("dev_1", "  ", EngagementMeta{}, now); !Is(err, CodeValidation) {
		t.Fatalf("expected validation error for missing artwork_id, got %v", err)
	}

	e, err := NewEngagement("dev_1", "art_1", EngagementMeta{UserAgent: "ua", IPAddress: "1.2.3.4"}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ViewDuration != 0 || !e.ViewStartTime.Equal(now) {
		t.Fatalf("fresh engagement should start at zero duration")
	}
	if e.LastInteraction != nil {
		t.Fatalf("fresh engagement should have no interaction yet")
	}
}

func TestApplyHeartbeat_LastWriteWins(t *testing.T) {
	now := time.Now().UTC()
	e, _ := NewEngagement("dev_1", "art_1", EngagementMeta{}, now)

	if err := e.ApplyHeartbeat(45, now.Add(45*time.Second)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ViewDuration != 45 {
		t.Fatalf("duration = %d, want 45", e.ViewDuration)
	}

	// A smaller, out-of-order value is still accepted as the new value.
	if err := e.ApplyHeartbeat(30, now.Add(50*time.Second)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ViewDuration != 30 {
		t.Fatalf("duration = %d, want 30 (last write wins)", e.ViewDuration)
	}

	if err := e.ApplyHeartbeat(-1, now); !Is(err, CodeValidation) {
		t.Fatalf("expected validation error for negative duration, got %v", err)
	}
}

func TestItemStatus_Toggle(t *testing.T) {
	if StatusActive.Toggle() != StatusRemoved {
		t.Fatalf("active should toggle to removed")
	}
	if StatusRemoved.Toggle() != StatusActive {
		t.Fatalf("removed should toggle to active")
	}
	// Toggling twice returns to the original status.
	if StatusActive.Toggle().Toggle() != StatusActive {
		t.Fatalf("double toggle should be identity")
	}
}

func TestListKind_Valid(t *testing.T) {
	if !ListCart.Valid() || !ListWishlist.Valid() {
		t.Fatalf("cart and wishlist must be valid kinds")
	}
	if ListKind("basket").Valid() {
		t.Fatalf("unknown kind must be invalid")
	}
}
