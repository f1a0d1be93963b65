package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/artfolio/engagement-service/internal/application/engagement"
	"github.com/artfolio/engagement-service/internal/application/guestlist"
	"github.com/artfolio/engagement-service/internal/application/migration"
	"github.com/artfolio/engagement-service/internal/application/notify"
	"github.com/artfolio/engagement-service/internal/config"
	"github.com/artfolio/engagement-service/internal/domain"
	"github.com/artfolio/engagement-service/internal/transport/http/handlers"
	appmw "github.com/artfolio/engagement-service/internal/transport/http/middleware"
	"github.com/artfolio/engagement-service/internal/transport/http/router"
)

const (
	testDevice         = "dev_test"
	testInternalSecret = "internal-secret"
	testCronSecret     = "cron-secret"
)

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// memStore is an in-memory stand-in for the redis device store, backing
// both the engagement and guest list services.
type memStore struct {
	mu          sync.Mutex
	engagements map[string]*domain.Engagement
	recent      map[string][]string
	guest       map[string]map[string]domain.GuestItem
}

func newMemStore() *memStore {
	return &memStore{
		engagements: map[string]*domain.Engagement{},
		recent:      map[string][]string{},
		guest:       map[string]map[string]domain.GuestItem{},
	}
}

func ekey(deviceID, artworkID string) string { return deviceID + "|" + artworkID }
func gkey(deviceID string, kind domain.ListKind) string {
	return deviceID + "|" + string(kind)
}

func (m *memStore) CreateEngagement(ctx context.Context, e *domain.Engagement, replace bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := ekey(e.DeviceID, e.ArtworkID)
	if _, ok := m.engagements[k]; ok && !replace {
		return domain.ErrConflict("engagement already exists")
	}
	cp := *e
	m.engagements[k] = &cp
	return nil
}

func (m *memStore) Heartbeat(ctx context.Context, deviceID, artworkID string, elapsedSeconds int, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.engagements[ekey(deviceID, artworkID)]
	if !ok {
		return false, nil
	}
	e.ViewDuration = elapsedSeconds
	e.LastInteraction = &now
	e.UpdatedAt = now
	return true, nil
}

func (m *memStore) GetEngagement(ctx context.Context, deviceID, artworkID string) (*domain.Engagement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.engagements[ekey(deviceID, artworkID)]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) ListEngagements(ctx context.Context, deviceID string) ([]*domain.Engagement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Engagement
	for _, e := range m.engagements {
		if e.DeviceID == deviceID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ViewStartTime.Before(out[j].ViewStartTime) })
	return out, nil
}

func (m *memStore) ClearDevice(ctx context.Context, deviceID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for k, e := range m.engagements {
		if e.DeviceID == deviceID {
			delete(m.engagements, k)
			removed++
		}
	}
	delete(m.recent, deviceID)
	delete(m.guest, gkey(deviceID, domain.ListCart))
	delete(m.guest, gkey(deviceID, domain.ListWishlist))
	return removed, nil
}

func (m *memStore) AppendRecentView(ctx context.Context, deviceID, artworkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recent[deviceID] = append([]string{artworkID}, m.recent[deviceID]...)
	return nil
}

func (m *memStore) RecentViews(ctx context.Context, deviceID string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	views := m.recent[deviceID]
	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	out := make([]string, len(views))
	copy(out, views)
	return out, nil
}

func (m *memStore) list(deviceID string, kind domain.ListKind) map[string]domain.GuestItem {
	k := gkey(deviceID, kind)
	if m.guest[k] == nil {
		m.guest[k] = map[string]domain.GuestItem{}
	}
	return m.guest[k]
}

func (m *memStore) ToggleGuestItem(ctx context.Context, deviceID string, kind domain.ListKind, artworkID string, now time.Time) (domain.ItemStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.list(deviceID, kind)
	status := domain.StatusRemoved
	if it, ok := l[artworkID]; ok {
		status = it.Status
	}
	next := status.Toggle()
	l[artworkID] = domain.GuestItem{ArtworkID: artworkID, Status: next, UpdatedAt: now}
	return next, nil
}

func (m *memStore) AddGuestItem(ctx context.Context, deviceID string, kind domain.ListKind, artworkID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list(deviceID, kind)[artworkID] = domain.GuestItem{ArtworkID: artworkID, Status: domain.StatusActive, UpdatedAt: now}
	return nil
}

func (m *memStore) GuestList(ctx context.Context, deviceID string, kind domain.ListKind) ([]domain.GuestItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.list(deviceID, kind)
	out := make([]domain.GuestItem, 0, len(l))
	for _, it := range l {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArtworkID < out[j].ArtworkID })
	return out, nil
}

func (m *memStore) ClearGuestList(ctx context.Context, deviceID string, kind domain.ListKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.guest, gkey(deviceID, kind))
	return nil
}

// memDurable backs the migration service.
type memDurable struct {
	mu     sync.Mutex
	active map[string]map[string]struct{}
}

func newMemDurable() *memDurable { return &memDurable{active: map[string]map[string]struct{}{}} }

func (m *memDurable) set(userID string, kind domain.ListKind) map[string]struct{} {
	k := userID + "|" + string(kind)
	if m.active[k] == nil {
		m.active[k] = map[string]struct{}{}
	}
	return m.active[k]
}

func (m *memDurable) ListActiveArtworkIDs(ctx context.Context, userID string, kind domain.ListKind) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.set(userID, kind) {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memDurable) UpsertActiveBatch(ctx context.Context, userID string, kind domain.ListKind, artworkIDs []string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.set(userID, kind)
	for _, id := range artworkIDs {
		s[id] = struct{}{}
	}
	return len(artworkIDs), nil
}

// dispatch fakes
type memLock struct{ held bool }

func (l *memLock) Acquire(ctx context.Context, key string, ttl time.Duration, now time.Time) (bool, error) {
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *memLock) Release(ctx context.Context, key string) error {
	l.held = false
	return nil
}

type memItems struct {
	items  []domain.CartItem
	marked int
}

func (m *memItems) ListEligibleForReminder(ctx context.Context, kind domain.ListKind, maxCount int, notifiedBefore time.Time, limit int) ([]domain.CartItem, error) {
	return m.items, nil
}

func (m *memItems) MarkNotified(ctx context.Context, userID, artworkID string, kind domain.ListKind, now time.Time, maxCount int) error {
	m.marked++
	return nil
}

type memResolver struct {
	subs map[string]*domain.PushSubscription
	arts map[string]*domain.ArtworkSummary
}

func (m *memResolver) LatestSubscription(ctx context.Context, userID string) (*domain.PushSubscription, error) {
	return m.subs[userID], nil
}

func (m *memResolver) ArtworkSummary(ctx context.Context, artworkID string) (*domain.ArtworkSummary, error) {
	return m.arts[artworkID], nil
}

type memSender struct{ sent int }

func (m *memSender) Send(ctx context.Context, sub domain.PushSubscription, payload notify.Payload) error {
	m.sent++
	return nil
}

type testApp struct {
	handler http.Handler
	store   *memStore
	durable *memDurable
	items   *memItems
	sender  *memSender
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := newMemStore()
	durable := newMemDurable()
	items := &memItems{}
	sender := &memSender{}
	resolver := &memResolver{
		subs: map[string]*domain.PushSubscription{"user_1": {UserID: "user_1", Endpoint: "https://push/u1"}},
		arts: map[string]*domain.ArtworkSummary{"art_a": {ID: "art_a", Title: "a", PageURL: "https://x/a"}},
	}

	clock := realClock{}
	engSvc := engagement.New(store, clock)
	guestSvc := guestlist.New(store, clock)
	migSvc := migration.New(store, durable, nil, clock)
	dispatcher := notify.NewDispatcher(&memLock{}, items, resolver, sender, nil, clock, notify.Config{})

	cfg := &config.Config{
		AppEnv:             "dev",
		DeviceCookieSecret: "test-secret",
		DeviceCookieTTL:    time.Hour,
		InternalSecret:     testInternalSecret,
	}

	health := handlers.NewHealthHandler(map[string]handlers.Pinger{})
	h := router.New(
		handlers.NewEngagementsHandler(engSvc),
		handlers.NewGuestHandler(guestSvc),
		handlers.NewInternalHandler(migSvc, dispatcher, testCronSecret),
		health,
		appmw.NewAuth("", ""),
		cfg,
	)

	return &testApp{handler: h, store: store, durable: durable, items: items, sender: sender}
}

// do sends a request carrying the test device fingerprint.
func (a *testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, rd)
	r.Header.Set("X-Device-Id", testDevice)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}
