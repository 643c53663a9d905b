package listings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/availboard/availbot/availbot/database/models"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/require"
)

func seedListing(t *testing.T, store *memStore, owner string, lastBump time.Time) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		OwnerID:    owner,
		ChannelID:  42,
		ExpiresAt:  lastBump.Add(2 * time.Hour),
		LastBumpAt: lastBump,
		CreatedAt:  lastBump,
	}
	require.NoError(t, store.Create(context.Background(), listing))
	listing.MessageID = snowflake.ID(5000 + listing.ID)
	require.NoError(t, store.Update(context.Background(), listing))
	return listing
}

func TestSyncPinnedEditsInPlace(t *testing.T) {
	store := newMemStore()
	pointers := newMemPointers()
	gateway := newFakeGateway()
	renderer := &captureRenderer{}
	s := NewSynchronizer(store, pointers, newMapProfiles("alice"), gateway, renderer)

	seedListing(t, store, "alice", time.Now())
	require.NoError(t, pointers.Set(context.Background(), models.ListTypePinned, 42, 777))

	require.NoError(t, s.SyncPinned(context.Background()))

	require.Equal(t, []snowflake.ID{777}, gateway.edited)
	sent, _, _ := gateway.counts()
	require.Zero(t, sent, "the pinned view is edited, never reposted")

	pointer, _ := pointers.Get(context.Background(), models.ListTypePinned)
	require.Equal(t, snowflake.ID(777), pointer.MessageID)
}

func TestSyncPinnedWithoutPointerIsNoop(t *testing.T) {
	store := newMemStore()
	gateway := newFakeGateway()
	s := NewSynchronizer(store, newMemPointers(), newMapProfiles("alice"), gateway, &captureRenderer{})

	seedListing(t, store, "alice", time.Now())

	require.NoError(t, s.SyncPinned(context.Background()))

	sent, edited, deleted := gateway.counts()
	require.Zero(t, sent)
	require.Zero(t, edited)
	require.Zero(t, deleted)
}

func TestSyncPinnedEditFailureKeepsPointer(t *testing.T) {
	store := newMemStore()
	pointers := newMemPointers()
	gateway := newFakeGateway()
	gateway.editErr = errors.New("edit failed")
	s := NewSynchronizer(store, pointers, newMapProfiles("alice"), gateway, &captureRenderer{})

	require.NoError(t, pointers.Set(context.Background(), models.ListTypePinned, 42, 777))

	require.NoError(t, s.SyncPinned(context.Background()))

	pointer, _ := pointers.Get(context.Background(), models.ListTypePinned)
	require.Equal(t, snowflake.ID(777), pointer.MessageID)
}

func TestSyncPinnedExcludesOwnersWithoutProfile(t *testing.T) {
	store := newMemStore()
	pointers := newMemPointers()
	renderer := &captureRenderer{}
	profiles := newMapProfiles("alice")
	profiles.errFor["carol"] = errors.New("lookup failed")
	s := NewSynchronizer(store, pointers, profiles, newFakeGateway(), renderer)

	seedListing(t, store, "alice", time.Now())
	seedListing(t, store, "bob", time.Now())   // no profile
	seedListing(t, store, "carol", time.Now()) // lookup fails
	require.NoError(t, pointers.Set(context.Background(), models.ListTypePinned, 42, 777))

	require.NoError(t, s.SyncPinned(context.Background()))

	require.Len(t, renderer.lastAll, 3)
	require.Len(t, renderer.lastProfiles, 1)
	require.Contains(t, renderer.lastProfiles, "alice")
}

func TestRefreshChatListDeletesThenReposts(t *testing.T) {
	store := newMemStore()
	pointers := newMemPointers()
	gateway := newFakeGateway()
	s := NewSynchronizer(store, pointers, newMapProfiles("alice"), gateway, &captureRenderer{})

	seedListing(t, store, "alice", time.Now())
	require.NoError(t, pointers.Set(context.Background(), models.ListTypeChat, 42, 888))

	require.NoError(t, s.RefreshChatList(context.Background()))

	require.Equal(t, []snowflake.ID{888}, gateway.deleted)
	require.Len(t, gateway.sent, 1)

	pointer, _ := pointers.Get(context.Background(), models.ListTypeChat)
	require.Equal(t, gateway.sent[0], pointer.MessageID)
}

func TestRefreshChatListFirstRun(t *testing.T) {
	store := newMemStore()
	pointers := newMemPointers()
	gateway := newFakeGateway()
	s := NewSynchronizer(store, pointers, newMapProfiles(), gateway, &captureRenderer{})

	require.NoError(t, s.RefreshChatList(context.Background()))

	sent, _, deleted := gateway.counts()
	require.Equal(t, 1, sent)
	require.Zero(t, deleted)

	pointer, _ := pointers.Get(context.Background(), models.ListTypeChat)
	require.NotNil(t, pointer)
}

func TestBootstrapPinned(t *testing.T) {
	store := newMemStore()
	pointers := newMemPointers()
	gateway := newFakeGateway()
	s := NewSynchronizer(store, pointers, newMapProfiles("alice"), gateway, &captureRenderer{})

	seedListing(t, store, "alice", time.Now())
	require.NoError(t, pointers.Set(context.Background(), models.ListTypePinned, 42, 777))

	messageID, err := s.BootstrapPinned(context.Background())
	require.NoError(t, err)
	require.Equal(t, []snowflake.ID{messageID}, gateway.sent)
	require.Equal(t, []snowflake.ID{messageID}, gateway.pinned)
	require.Equal(t, []snowflake.ID{777}, gateway.deleted, "the superseded pinned message is removed")

	pointer, _ := pointers.Get(context.Background(), models.ListTypePinned)
	require.Equal(t, messageID, pointer.MessageID)
}
