package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/artfolio/engagement-service/internal/domain"
)

// DeviceStore keeps all per-device ephemeral state: open engagement
// hashes, the device index set, the bounded recent-views list and the
// guest cart/wishlist hashes. TTLs are refreshed on every write.
type DeviceStore struct {
	client *Client

	engagementTTL time.Duration
	guestListTTL  time.Duration
	recentTTL     time.Duration
	maxRecent     int
}

func NewDeviceStore(client *Client, engagementTTL, guestListTTL, recentTTL time.Duration, maxRecent int) *DeviceStore {
	if maxRecent <= 0 {
		maxRecent = 20
	}
	return &DeviceStore{
		client:        client,
		engagementTTL: engagementTTL,
		guestListTTL:  guestListTTL,
		recentTTL:     recentTTL,
		maxRecent:     maxRecent,
	}
}

// ---- engagements ----

// CreateEngagement writes a fresh engagement hash and registers its key
// in the device index. With replace=false an existing open record for
// the same pair is a conflict.
func (s *DeviceStore) CreateEngagement(ctx context.Context, e *domain.Engagement, replace bool) error {
	key := engagementKey(e.DeviceID, e.ArtworkID)

	if !replace {
		exists, err := s.client.HashExists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrConflict("engagement already open for this artwork")
		}
	}

	if err := s.client.SetHash(ctx, key, encodeEngagement(e), s.engagementTTL); err != nil {
		return err
	}
	return s.client.AddToSet(ctx, deviceIndexKey(e.DeviceID), s.engagementTTL, key)
}

const heartbeatScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], "view_duration", ARGV[1], "last_interaction", ARGV[2], "updated_at", ARGV[2])
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return 1
`

// Heartbeat overwrites view_duration and last_interaction and refreshes
// the TTL. Returns false when the record has already expired; that is a
// silent "session lost", not an error.
func (s *DeviceStore) Heartbeat(ctx context.Context, deviceID, artworkID string, elapsedSeconds int, now time.Time) (bool, error) {
	res, err := s.client.Eval(ctx, heartbeatScript,
		[]string{engagementKey(deviceID, artworkID)},
		strconv.Itoa(elapsedSeconds),
		now.UTC().Format(time.RFC3339Nano),
		s.engagementTTL.Milliseconds(),
	)
	if err != nil {
		return false, err
	}
	n, _ := res.(int64)
	return n == 1, nil
}

// GetEngagement reads one record. A missing or expired record yields
// (nil, nil).
func (s *DeviceStore) GetEngagement(ctx context.Context, deviceID, artworkID string) (*domain.Engagement, error) {
	fields, err := s.client.GetHash(ctx, engagementKey(deviceID, artworkID))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeEngagement(fields)
}

// ListEngagements returns the device's open engagements via the index
// set, dropping index entries whose hash has already expired.
func (s *DeviceStore) ListEngagements(ctx context.Context, deviceID string) ([]*domain.Engagement, error) {
	keys, err := s.client.ReadSet(ctx, deviceIndexKey(deviceID))
	if err != nil {
		return nil, err
	}

	var out []*domain.Engagement
	var stale []string
	for _, key := range keys {
		fields, err := s.client.GetHash(ctx, key)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			stale = append(stale, key)
			continue
		}
		e, err := decodeEngagement(fields)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	if len(stale) > 0 {
		_ = s.client.RemoveFromSet(ctx, deviceIndexKey(deviceID), stale...)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ViewStartTime.Before(out[j].ViewStartTime)
	})
	return out, nil
}

// DeleteEngagement removes one record and drains its index entry.
func (s *DeviceStore) DeleteEngagement(ctx context.Context, deviceID, artworkID string) error {
	key := engagementKey(deviceID, artworkID)
	if _, err := s.client.DeleteKeys(ctx, key); err != nil {
		return err
	}
	return s.client.RemoveFromSet(ctx, deviceIndexKey(deviceID), key)
}

// ClearDevice removes every ephemeral key the device owns.
func (s *DeviceStore) ClearDevice(ctx context.Context, deviceID string) (int64, error) {
	keys, err := s.client.ReadSet(ctx, deviceIndexKey(deviceID))
	if err != nil {
		return 0, err
	}
	keys = append(keys,
		deviceIndexKey(deviceID),
		recentViewsKey(deviceID),
		guestListKey(deviceID, string(domain.ListCart)),
		guestListKey(deviceID, string(domain.ListWishlist)),
	)
	return s.client.DeleteKeys(ctx, keys...)
}

// ScanEngagementKeys enumerates all engagement hashes for the archiver.
func (s *DeviceStore) ScanEngagementKeys(ctx context.Context) ([]string, error) {
	return s.client.ScanKeys(ctx, engagementKeyPattern)
}

// GetEngagementByKey reads a record addressed by its raw key (archiver path).
func (s *DeviceStore) GetEngagementByKey(ctx context.Context, key string) (*domain.Engagement, error) {
	fields, err := s.client.GetHash(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeEngagement(fields)
}

// DeleteEngagementKeys removes archived records and their index entries.
func (s *DeviceStore) DeleteEngagementKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		parts := strings.SplitN(key, ":", 3)
		if len(parts) == 3 {
			_ = s.client.RemoveFromSet(ctx, deviceIndexKey(parts[1]), key)
		}
	}
	_, err := s.client.DeleteKeys(ctx, keys...)
	return err
}

// ---- recent views ----

func (s *DeviceStore) AppendRecentView(ctx context.Context, deviceID, artworkID string) error {
	return s.client.AppendToList(ctx, recentViewsKey(deviceID), artworkID, s.maxRecent, s.recentTTL)
}

func (s *DeviceStore) RecentViews(ctx context.Context, deviceID string, limit int) ([]string, error) {
	if limit <= 0 || limit > s.maxRecent {
		limit = s.maxRecent
	}
	return s.client.ReadList(ctx, recentViewsKey(deviceID), limit)
}

// ---- guest lists ----

// toggleScript flips a guest item's status in place. Running it as a
// script keeps the read-modify-write atomic on the redis side, so two
// racing toggles for the same pair serialize instead of last-write-wins.
const toggleScript = `
local v = redis.call("HGET", KEYS[1], ARGV[1])
local status = "active"
if v and string.sub(v, 1, 7) == "active:" then
  status = "removed"
end
redis.call("HSET", KEYS[1], ARGV[1], status .. ":" .. ARGV[2])
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return status
`

// ToggleGuestItem flips the item's status (absent defaults to removed,
// so a first toggle yields active) and refreshes the list TTL.
func (s *DeviceStore) ToggleGuestItem(ctx context.Context, deviceID string, kind domain.ListKind, artworkID string, now time.Time) (domain.ItemStatus, error) {
	res, err := s.client.Eval(ctx, toggleScript,
		[]string{guestListKey(deviceID, string(kind))},
		artworkID,
		strconv.FormatInt(now.UTC().Unix(), 10),
		s.guestListTTL.Milliseconds(),
	)
	if err != nil {
		return "", err
	}
	status, _ := res.(string)
	switch domain.ItemStatus(status) {
	case domain.StatusActive, domain.StatusRemoved:
		return domain.ItemStatus(status), nil
	default:
		return "", fmt.Errorf("unexpected toggle result %q", res)
	}
}

// AddGuestItem forces the item to active regardless of current status.
func (s *DeviceStore) AddGuestItem(ctx context.Context, deviceID string, kind domain.ListKind, artworkID string, now time.Time) error {
	return s.client.SetHash(ctx,
		guestListKey(deviceID, string(kind)),
		map[string]string{artworkID: formatItemVal(domain.StatusActive, now)},
		s.guestListTTL,
	)
}

// GuestList reads the full list including removed entries.
func (s *DeviceStore) GuestList(ctx context.Context, deviceID string, kind domain.ListKind) ([]domain.GuestItem, error) {
	fields, err := s.client.GetHash(ctx, guestListKey(deviceID, string(kind)))
	if err != nil {
		return nil, err
	}

	items := make([]domain.GuestItem, 0, len(fields))
	for artworkID, val := range fields {
		status, at, err := parseItemVal(val)
		if err != nil {
			// skip unparseable entries rather than failing the read
			continue
		}
		items = append(items, domain.GuestItem{ArtworkID: artworkID, Status: status, UpdatedAt: at})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ArtworkID < items[j].ArtworkID })
	return items, nil
}

// ClearGuestList deletes the whole list key. Missing key is a no-op.
func (s *DeviceStore) ClearGuestList(ctx context.Context, deviceID string, kind domain.ListKind) error {
	_, err := s.client.DeleteKeys(ctx, guestListKey(deviceID, string(kind)))
	return err
}

// ---- encoding ----

func formatItemVal(status domain.ItemStatus, at time.Time) string {
	return fmt.Sprintf("%s:%d", status, at.UTC().Unix())
}

func parseItemVal(v string) (domain.ItemStatus, time.Time, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return "", time.Time{}, fmt.Errorf("bad item value")
	}
	status := domain.ItemStatus(parts[0])
	if status != domain.StatusActive && status != domain.StatusRemoved {
		return "", time.Time{}, fmt.Errorf("bad item status")
	}
	sec, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", time.Time{}, err
	}
	return status, time.Unix(sec, 0).UTC(), nil
}

func encodeEngagement(e *domain.Engagement) map[string]string {
	fields := map[string]string{
		"user_id":         e.UserID,
		"artwork_id":      e.ArtworkID,
		"device_id":       e.DeviceID,
		"ip_address":      e.IPAddress,
		"user_agent":      e.UserAgent,
		"referrer":        e.Referrer,
		"session_id":      e.SessionID,
		"view_start_time": e.ViewStartTime.UTC().Format(time.RFC3339Nano),
		"view_duration":   strconv.Itoa(e.ViewDuration),
		"created_at":      e.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":      e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if e.LastInteraction != nil {
		fields["last_interaction"] = e.LastInteraction.UTC().Format(time.RFC3339Nano)
	}
	return fields
}

func decodeEngagement(fields map[string]string) (*domain.Engagement, error) {
	start, err := time.Parse(time.RFC3339Nano, fields["view_start_time"])
	if err != nil {
		return nil, fmt.Errorf("bad view_start_time: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("bad created_at: %w", err)
	}
	updated, err := time.Parse(time.RFC3339Nano, fields["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("bad updated_at: %w", err)
	}
	dur, err := strconv.Atoi(fields["view_duration"])
	if err != nil {
		return nil, fmt.Errorf("bad view_duration: %w", err)
	}

	e := &domain.Engagement{
		UserID:        fields["user_id"],
		ArtworkID:     fields["artwork_id"],
		DeviceID:      fields["device_id"],
		IPAddress:     fields["ip_address"],
		UserAgent:     fields["user_agent"],
		Referrer:      fields["referrer"],
		SessionID:     fields["session_id"],
		ViewStartTime: start,
		ViewDuration:  dur,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}
	if v := fields["last_interaction"]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("bad last_interaction: %w", err)
		}
		e.LastInteraction = &t
	}
	return e, nil
}
