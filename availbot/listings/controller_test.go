package listings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestController(store *memStore, profiles *mapProfiles, gateway *fakeGateway, at time.Time) *Controller {
	c := NewController(store, profiles, gateway, &captureRenderer{}, 30*time.Minute)
	c.now = func() time.Time { return at }
	return c
}

func TestControllerCreate(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	gateway := newFakeGateway()
	c := newTestController(store, newMapProfiles("alice"), gateway, t0)

	listing, err := c.Create(context.Background(), "alice", 2*time.Hour)
	require.NoError(t, err)
	require.Equal(t, "alice", listing.OwnerID)
	require.Equal(t, 2, listing.DurationHours)
	require.Equal(t, t0.Add(2*time.Hour), listing.ExpiresAt)
	require.Equal(t, t0, listing.LastBumpAt)
	require.Equal(t, gateway.channelID, listing.ChannelID)
	require.NotZero(t, listing.MessageID)

	stored, err := store.GetByOwner(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, listing.MessageID, stored.MessageID)

	sent, _, _ := gateway.counts()
	require.Equal(t, 1, sent)
}

func TestControllerCreateDuplicate(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	gateway := newFakeGateway()
	c := newTestController(store, newMapProfiles("alice"), gateway, t0)

	_, err := c.Create(context.Background(), "alice", 2*time.Hour)
	require.NoError(t, err)

	_, err = c.Create(context.Background(), "alice", 4*time.Hour)
	require.ErrorIs(t, err, ErrDuplicateActive)

	sent, _, _ := gateway.counts()
	require.Equal(t, 1, sent, "a rejected create must not post anything")
}

func TestControllerCreateNoProfile(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gateway := newFakeGateway()
	c := newTestController(newMemStore(), newMapProfiles(), gateway, t0)

	_, err := c.Create(context.Background(), "ghost", 2*time.Hour)
	require.ErrorIs(t, err, ErrNoProfile)

	sent, _, _ := gateway.counts()
	require.Zero(t, sent)
}

func TestControllerCreateStoreFailureDeletesMessage(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.createErr = errors.New("insert failed")
	gateway := newFakeGateway()
	c := newTestController(store, newMapProfiles("alice"), gateway, t0)

	_, err := c.Create(context.Background(), "alice", 2*time.Hour)
	require.Error(t, err)

	// The posted message must not be left orphaned on the board.
	require.Len(t, gateway.deleted, 1)
	require.Equal(t, gateway.sent[0], gateway.deleted[0])
}

func TestControllerBumpKeepRemaining(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	gateway := newFakeGateway()
	c := newTestController(store, newMapProfiles("alice"), gateway, t0)

	created, err := c.Create(context.Background(), "alice", 2*time.Hour)
	require.NoError(t, err)
	oldMessageID := created.MessageID

	t1 := t0.Add(30 * time.Minute)
	c.now = func() time.Time { return t1 }

	bumped, err := c.Bump(context.Background(), "alice", KeepRemaining())
	require.NoError(t, err)

	// 1h30m was left at bump time, so the expiry is unchanged in absolute
	// terms.
	require.Equal(t, t0.Add(2*time.Hour), bumped.ExpiresAt)
	require.Equal(t, t1, bumped.LastBumpAt)
	require.NotEqual(t, oldMessageID, bumped.MessageID)
	require.Contains(t, gateway.deleted, oldMessageID)

	stored, _ := store.GetByOwner(context.Background(), "alice")
	require.Equal(t, bumped.MessageID, stored.MessageID)
}

func TestControllerBumpResetTo(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	gateway := newFakeGateway()
	c := newTestController(store, newMapProfiles("alice"), gateway, t0)

	_, err := c.Create(context.Background(), "alice", 2*time.Hour)
	require.NoError(t, err)

	t1 := t0.Add(45 * time.Minute)
	c.now = func() time.Time { return t1 }

	bumped, err := c.Bump(context.Background(), "alice", ResetTo(4*time.Hour))
	require.NoError(t, err)
	require.Equal(t, t1.Add(4*time.Hour), bumped.ExpiresAt)
	require.Equal(t, 4, bumped.DurationHours)
}

func TestControllerBumpCooldownRejected(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	gateway := newFakeGateway()
	c := newTestController(store, newMapProfiles("alice"), gateway, t0)

	_, err := c.Create(context.Background(), "alice", 2*time.Hour)
	require.NoError(t, err)
	sentBefore, _, deletedBefore := gateway.counts()

	t1 := t0.Add(10 * time.Minute)
	c.now = func() time.Time { return t1 }

	_, err = c.Bump(context.Background(), "alice", KeepRemaining())
	var cooldownErr *CooldownError
	require.ErrorAs(t, err, &cooldownErr)
	require.Equal(t, 20*time.Minute, cooldownErr.Wait)

	// A cooldown rejection must not touch the channel at all.
	sentAfter, _, deletedAfter := gateway.counts()
	require.Equal(t, sentBefore, sentAfter)
	require.Equal(t, deletedBefore, deletedAfter)
}

func TestControllerBumpNoListing(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := newTestController(newMemStore(), newMapProfiles("alice"), newFakeGateway(), t0)

	_, err := c.Bump(context.Background(), "alice", KeepRemaining())
	require.ErrorIs(t, err, ErrNoActiveListing)
}

func TestControllerBumpRepostFailure(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	gateway := newFakeGateway()
	c := newTestController(store, newMapProfiles("alice"), gateway, t0)

	created, err := c.Create(context.Background(), "alice", 2*time.Hour)
	require.NoError(t, err)

	t1 := t0.Add(time.Hour)
	c.now = func() time.Time { return t1 }
	gateway.sendErr = errors.New("gateway down")

	_, err = c.Bump(context.Background(), "alice", KeepRemaining())
	var repostErr *RepostError
	require.ErrorAs(t, err, &repostErr)

	// The record survives the failed repost untouched, so the listing stays
	// bumpable once the channel recovers.
	stored, _ := store.GetByOwner(context.Background(), "alice")
	require.Equal(t, created.MessageID, stored.MessageID)
	require.Equal(t, t0, stored.LastBumpAt)
}

func TestControllerExpireIdempotent(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	gateway := newFakeGateway()
	c := newTestController(store, newMapProfiles("alice"), gateway, t0)

	listing, err := c.Create(context.Background(), "alice", 2*time.Hour)
	require.NoError(t, err)

	require.NoError(t, c.Expire(context.Background(), listing))
	require.NoError(t, c.Expire(context.Background(), listing))

	stored, _ := store.GetByOwner(context.Background(), "alice")
	require.Nil(t, stored)
}

func TestControllerExpireDeleteFailureStillRemovesRecord(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	gateway := newFakeGateway()
	c := newTestController(store, newMapProfiles("alice"), gateway, t0)

	listing, err := c.Create(context.Background(), "alice", 2*time.Hour)
	require.NoError(t, err)

	gateway.deleteErr = errors.New("message service unavailable")
	require.NoError(t, c.Expire(context.Background(), listing))

	stored, _ := store.GetByOwner(context.Background(), "alice")
	require.Nil(t, stored)
}
