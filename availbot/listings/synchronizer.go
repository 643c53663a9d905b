package listings

import (
	"context"
	"log/slog"
	"sync"

	"github.com/availboard/availbot/availbot/database/models"
	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/sync/errgroup"
)

const profileFetchConcurrency = 4

// Synchronizer reconciles the aggregate "who is available" summary against
// the store and pushes it to the board. The pinned view is edited in place;
// the chat view is deleted and reposted so it surfaces at the bottom of the
// channel history.
type Synchronizer struct {
	store    ListingStore
	pointers PointerStore
	profiles ProfileSource
	gateway  ChannelGateway
	renderer Renderer
}

func NewSynchronizer(store ListingStore, pointers PointerStore, profiles ProfileSource, gateway ChannelGateway, renderer Renderer) *Synchronizer {
	return &Synchronizer{
		store:    store,
		pointers: pointers,
		profiles: profiles,
		gateway:  gateway,
		renderer: renderer,
	}
}

// SyncPinned renders the current summary and edits the pinned message in
// place. When no pinned message has been bootstrapped yet it only logs;
// posting the first pinned message is an operator action (see the pinboard
// command). Edit failures are logged and the pointer is left untouched.
func (s *Synchronizer) SyncPinned(ctx context.Context) error {
	post, err := s.renderCurrent(ctx)
	if err != nil {
		return err
	}

	pointer, err := s.pointers.Get(ctx, models.ListTypePinned)
	if err != nil {
		return err
	}
	if pointer == nil {
		slog.Info("No pinned list message exists yet, skipping sync",
			slog.String("type", "sys"))
		return nil
	}

	if err := s.gateway.Edit(ctx, pointer.MessageID, post); err != nil {
		slog.Warn("Failed to edit pinned list message",
			slog.Uint64("message_id", uint64(pointer.MessageID)),
			slog.Any("error", err))
	}
	return nil
}

// RefreshChatList deletes the previous chat summary and posts a fresh one,
// then moves the chat pointer to the new message.
func (s *Synchronizer) RefreshChatList(ctx context.Context) error {
	post, err := s.renderCurrent(ctx)
	if err != nil {
		return err
	}

	pointer, err := s.pointers.Get(ctx, models.ListTypeChat)
	if err != nil {
		return err
	}
	if pointer != nil {
		if err := s.gateway.Delete(ctx, pointer.MessageID); err != nil {
			slog.Warn("Failed to delete old chat list message",
				slog.Uint64("message_id", uint64(pointer.MessageID)),
				slog.Any("error", err))
		}
	}

	messageID, err := s.gateway.Send(ctx, post)
	if err != nil {
		return err
	}

	return s.pointers.Set(ctx, models.ListTypeChat, s.gateway.ChannelID(), messageID)
}

// MessagePinner is implemented by gateways that can pin messages. Pinning is
// optional; BootstrapPinned skips it when the gateway can't.
type MessagePinner interface {
	Pin(ctx context.Context, messageID snowflake.ID) error
}

// BootstrapPinned posts a fresh summary, pins it, and points the pinned
// pointer at it. Any previous pinned message is deleted afterwards so the
// board never shows two summaries at once.
func (s *Synchronizer) BootstrapPinned(ctx context.Context) (snowflake.ID, error) {
	post, err := s.renderCurrent(ctx)
	if err != nil {
		return 0, err
	}

	old, err := s.pointers.Get(ctx, models.ListTypePinned)
	if err != nil {
		return 0, err
	}

	messageID, err := s.gateway.Send(ctx, post)
	if err != nil {
		return 0, err
	}

	if pinner, ok := s.gateway.(MessagePinner); ok {
		if err := pinner.Pin(ctx, messageID); err != nil {
			slog.Warn("Failed to pin new list message",
				slog.Uint64("message_id", uint64(messageID)),
				slog.Any("error", err))
		}
	}

	if err := s.pointers.Set(ctx, models.ListTypePinned, s.gateway.ChannelID(), messageID); err != nil {
		return 0, err
	}

	if old != nil && old.MessageID != messageID {
		if err := s.gateway.Delete(ctx, old.MessageID); err != nil {
			slog.Warn("Failed to delete old pinned list message",
				slog.Uint64("message_id", uint64(old.MessageID)),
				slog.Any("error", err))
		}
	}

	return messageID, nil
}

func (s *Synchronizer) renderCurrent(ctx context.Context) (Post, error) {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		return Post{}, err
	}

	profiles := s.collectProfiles(ctx, all)
	return s.renderer.RenderSummary(all, profiles), nil
}

// collectProfiles joins each listing to its owner's profile. Owners without
// a profile are left out of the map; the renderer skips them. Lookup
// failures degrade the same way rather than aborting the sync.
func (s *Synchronizer) collectProfiles(ctx context.Context, all []*models.Listing) map[string]*models.Profile {
	profiles := make(map[string]*models.Profile, len(all))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(profileFetchConcurrency)

	for _, listing := range all {
		ownerID := listing.OwnerID
		g.Go(func() error {
			profile, err := s.profiles.GetProfile(gctx, ownerID)
			if err != nil {
				slog.Warn("Failed to fetch profile for summary",
					slog.String("owner_id", ownerID),
					slog.Any("error", err))
				return nil
			}
			if profile == nil {
				slog.Debug("Listing owner has no profile, excluding from summary",
					slog.String("owner_id", ownerID))
				return nil
			}
			mu.Lock()
			profiles[ownerID] = profile
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return profiles
}
