package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artfolio/engagement-service/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type fakeGuest struct {
	items       map[string][]domain.GuestItem // device/kind
	clearCalls  int
	failClear   bool
	failingRead bool
}

func (f *fakeGuest) GuestList(ctx context.Context, deviceID string, kind domain.ListKind) ([]domain.GuestItem, error) {
	if f.failingRead {
		return nil, errors.New("redis down")
	}
	return f.items[deviceID+"/"+string(kind)], nil
}

func (f *fakeGuest) ClearGuestList(ctx context.Context, deviceID string, kind domain.ListKind) error {
	if f.failClear {
		return errors.New("redis down")
	}
	f.clearCalls++
	delete(f.items, deviceID+"/"+string(kind))
	return nil
}

type fakeDurable struct {
	active     map[string]map[string]struct{} // user/kind -> set
	failInsert bool
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{active: map[string]map[string]struct{}{}}
}

func (f *fakeDurable) set(userID string, kind domain.ListKind) map[string]struct{} {
	k := userID + "/" + string(kind)
	if f.active[k] == nil {
		f.active[k] = map[string]struct{}{}
	}
	return f.active[k]
}

func (f *fakeDurable) ListActiveArtworkIDs(ctx context.Context, userID string, kind domain.ListKind) ([]string, error) {
	var ids []string
	for id := range f.set(userID, kind) {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeDurable) UpsertActiveBatch(ctx context.Context, userID string, kind domain.ListKind, artworkIDs []string, now time.Time) (int, error) {
	if f.failInsert {
		return 0, errors.New("db down")
	}
	s := f.set(userID, kind)
	for _, id := range artworkIDs {
		s[id] = struct{}{}
	}
	return len(artworkIDs), nil
}

func active(id string) domain.GuestItem {
	return domain.GuestItem{ArtworkID: id, Status: domain.StatusActive, UpdatedAt: time.Now().UTC()}
}

func removed(id string) domain.GuestItem {
	return domain.GuestItem{ArtworkID: id, Status: domain.StatusRemoved, UpdatedAt: time.Now().UTC()}
}

func newService(guest *fakeGuest, durable *fakeDurable) *Service {
	return New(guest, durable, NoopPublisher{}, fakeClock{t: time.Now().UTC()})
}

func TestMigrate_DiffInsertsOnlyUnseen(t *testing.T) {
	guest := &fakeGuest{items: map[string][]domain.GuestItem{
		"dev_1/wishlist": {active("a"), active("b"), active("c"), removed("d")},
	}}
	durable := newFakeDurable()
	durable.set("user_1", domain.ListWishlist)["b"] = struct{}{}

	svc := newService(guest, durable)

	res, err := svc.Migrate(context.Background(), "dev_1", "user_1", domain.ListWishlist)
	require.NoError(t, err)
	assert.Equal(t, 3, res.GuestActive)
	assert.Equal(t, 1, res.AlreadyOwned)
	assert.Equal(t, 2, res.Migrated)

	// durable set is exactly {a, b, c}, no duplicate of b
	ids, _ := durable.ListActiveArtworkIDs(context.Background(), "user_1", domain.ListWishlist)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)

	// guest list cleared on success
	assert.Equal(t, 1, guest.clearCalls)
	left, _ := guest.GuestList(context.Background(), "dev_1", domain.ListWishlist)
	assert.Empty(t, left)
}

func TestMigrate_Idempotent(t *testing.T) {
	guest := &fakeGuest{items: map[string][]domain.GuestItem{
		"dev_1/cart": {active("a"), active("b")},
	}}
	durable := newFakeDurable()
	svc := newService(guest, durable)
	ctx := context.Background()

	first, err := svc.Migrate(ctx, "dev_1", "user_1", domain.ListCart)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Migrated)

	// second call finds an empty guest list
	second, err := svc.Migrate(ctx, "dev_1", "user_1", domain.ListCart)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Migrated)

	ids, _ := durable.ListActiveArtworkIDs(ctx, "user_1", domain.ListCart)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestMigrate_EmptyDiffLeavesGuestList(t *testing.T) {
	guest := &fakeGuest{items: map[string][]domain.GuestItem{
		"dev_1/cart": {active("a")},
	}}
	durable := newFakeDurable()
	durable.set("user_1", domain.ListCart)["a"] = struct{}{}

	svc := newService(guest, durable)

	res, err := svc.Migrate(context.Background(), "dev_1", "user_1", domain.ListCart)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Migrated)
	assert.Equal(t, 1, res.AlreadyOwned)

	// early return: guest list untouched for future re-evaluation
	assert.Equal(t, 0, guest.clearCalls)
	left, _ := guest.GuestList(context.Background(), "dev_1", domain.ListCart)
	assert.Len(t, left, 1)
}

func TestMigrate_OnlyActiveItemsMigrate(t *testing.T) {
	guest := &fakeGuest{items: map[string][]domain.GuestItem{
		"dev_1/cart": {removed("a"), removed("b")},
	}}
	durable := newFakeDurable()
	svc := newService(guest, durable)

	res, err := svc.Migrate(context.Background(), "dev_1", "user_1", domain.ListCart)
	require.NoError(t, err)
	assert.Equal(t, 0, res.GuestActive)
	assert.Equal(t, 0, res.Migrated)
	assert.Equal(t, 0, guest.clearCalls)
}

func TestMigrate_InsertFailureKeepsGuestList(t *testing.T) {
	guest := &fakeGuest{items: map[string][]domain.GuestItem{
		"dev_1/cart": {active("a")},
	}}
	durable := newFakeDurable()
	durable.failInsert = true
	svc := newService(guest, durable)

	_, err := svc.Migrate(context.Background(), "dev_1", "user_1", domain.ListCart)
	require.Error(t, err)

	// guest list untouched so a retry can recover
	assert.Equal(t, 0, guest.clearCalls)
	left, _ := guest.GuestList(context.Background(), "dev_1", domain.ListCart)
	assert.Len(t, left, 1)
}

func TestMigrate_ClearFailureIsNotFatal(t *testing.T) {
	guest := &fakeGuest{
		items:     map[string][]domain.GuestItem{"dev_1/cart": {active("a")}},
		failClear: true,
	}
	durable := newFakeDurable()
	svc := newService(guest, durable)

	res, err := svc.Migrate(context.Background(), "dev_1", "user_1", domain.ListCart)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Migrated)
}

func TestMigrate_Validation(t *testing.T) {
	svc := newService(&fakeGuest{}, newFakeDurable())
	ctx := context.Background()

	_, err := svc.Migrate(ctx, "", "user_1", domain.ListCart)
	assert.True(t, domain.Is(err, domain.CodeValidation))

	_, err = svc.Migrate(ctx, "dev_1", " ", domain.ListCart)
	assert.True(t, domain.Is(err, domain.CodeValidation))

	_, err = svc.Migrate(ctx, "dev_1", "user_1", domain.ListKind("basket"))
	assert.True(t, domain.Is(err, domain.CodeValidation))
}

func TestMigrate_GuestReadFailure(t *testing.T) {
	guest := &fakeGuest{failingRead: true}
	svc := newService(guest, newFakeDurable())

	_, err := svc.Migrate(context.Background(), "dev_1", "user_1", domain.ListCart)
	assert.True(t, domain.Is(err, domain.CodeUnavailable))
}
