package listings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/availboard/availbot/availbot/database/models"
)

// BumpMode selects how a bump recomputes the expiry.
type BumpMode struct {
	keepRemaining bool
	resetTo       time.Duration
}

// KeepRemaining reposts the listing without changing the time left on it.
func KeepRemaining() BumpMode {
	return BumpMode{keepRemaining: true}
}

// ResetTo reposts the listing with a fresh duration.
func ResetTo(d time.Duration) BumpMode {
	return BumpMode{resetTo: d}
}

// Controller owns the state transitions of a single listing:
// Absent -> Active (Create), Active -> Active (Bump), Active -> Absent
// (Expire). A per-owner mutex serializes read-modify-write sequences so a
// user-triggered bump cannot interleave with a replace on the same owner.
type Controller struct {
	store    ListingStore
	profiles ProfileSource
	gateway  ChannelGateway
	renderer Renderer
	cooldown time.Duration

	ownerLocks sync.Map
	now        func() time.Time
}

func NewController(store ListingStore, profiles ProfileSource, gateway ChannelGateway, renderer Renderer, cooldown time.Duration) *Controller {
	return &Controller{
		store:    store,
		profiles: profiles,
		gateway:  gateway,
		renderer: renderer,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Cooldown returns the configured bump cooldown.
func (c *Controller) Cooldown() time.Duration {
	return c.cooldown
}

func (c *Controller) lockOwner(ownerID string) func() {
	v, _ := c.ownerLocks.LoadOrStore(ownerID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Create posts a new listing for the owner and persists it only after the
// post succeeds. If the owner already has a listing the caller must take it
// down first; Create never replaces silently.
func (c *Controller) Create(ctx context.Context, ownerID string, duration time.Duration) (*models.Listing, error) {
	defer c.lockOwner(ownerID)()

	existing, err := c.store.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateActive
	}

	profile, err := c.profiles.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNoProfile
	}

	now := c.now()
	listing := &models.Listing{
		OwnerID:       ownerID,
		ChannelID:     c.gateway.ChannelID(),
		DurationHours: int(duration / time.Hour),
		ExpiresAt:     now.Add(duration),
		LastBumpAt:    now,
		CreatedAt:     now,
	}

	messageID, err := c.gateway.Send(ctx, c.renderer.RenderListing(profile, listing, now))
	if err != nil {
		return nil, fmt.Errorf("failed to post listing: %w", err)
	}
	listing.MessageID = messageID

	if err := c.store.Create(ctx, listing); err != nil {
		// No record was written, so the posted message would be orphaned.
		if delErr := c.gateway.Delete(ctx, messageID); delErr != nil {
			slog.Error("Failed to delete orphaned listing message",
				slog.String("owner_id", ownerID),
				slog.Any("error", delErr))
		}
		return nil, err
	}

	return listing, nil
}

// Bump reposts the owner's listing with a recomputed expiry. The old message
// is deleted first; the record is updated only after the new message is
// confirmed sent, so it never points at a message that was never sent.
func (c *Controller) Bump(ctx context.Context, ownerID string, mode BumpMode) (*models.Listing, error) {
	defer c.lockOwner(ownerID)()

	listing, err := c.store.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrNoActiveListing
	}

	now := c.now()
	if allowed, wait := CanBump(listing.LastBumpAt, now, c.cooldown); !allowed {
		return nil, &CooldownError{Wait: wait}
	}

	profile, err := c.profiles.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNoProfile
	}

	if mode.keepRemaining {
		remaining := listing.Remaining(now)
		listing.ExpiresAt = now.Add(remaining)
		// Informational only after a keep-remaining bump; the expiry above
		// is authoritative.
		listing.DurationHours = int(remaining / time.Hour)
	} else {
		listing.ExpiresAt = now.Add(mode.resetTo)
		listing.DurationHours = int(mode.resetTo / time.Hour)
	}
	listing.LastBumpAt = now

	// An orphaned old message is acceptable, a failed bump is not.
	if err := c.gateway.Delete(ctx, listing.MessageID); err != nil {
		slog.Warn("Failed to delete old listing message during bump",
			slog.String("owner_id", ownerID),
			slog.Uint64("message_id", uint64(listing.MessageID)),
			slog.Any("error", err))
	}

	// Zero message id marks the render as a fresh post rather than an
	// in-place refresh.
	staleMessageID := listing.MessageID
	listing.MessageID = 0

	messageID, err := c.gateway.Send(ctx, c.renderer.RenderListing(profile, listing, now))
	if err != nil {
		// The record still points at the deleted message. The next sweep
		// treats that as an edit failure and moves on.
		listing.MessageID = staleMessageID
		return nil, &RepostError{Err: err}
	}
	listing.MessageID = messageID
	listing.ChannelID = c.gateway.ChannelID()

	if err := c.store.Update(ctx, listing); err != nil {
		return nil, err
	}

	return listing, nil
}

// Expire takes a listing off the board: channel message best-effort, store
// record unconditionally. Safe to call twice for the same listing.
func (c *Controller) Expire(ctx context.Context, listing *models.Listing) error {
	if err := c.gateway.Delete(ctx, listing.MessageID); err != nil {
		slog.Warn("Failed to delete expired listing message",
			slog.String("owner_id", listing.OwnerID),
			slog.Uint64("message_id", uint64(listing.MessageID)),
			slog.Any("error", err))
	}

	return c.store.Delete(ctx, listing.ID)
}
