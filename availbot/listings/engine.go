// Package listings owns the lifecycle of availability listings on the
// board: creation, bumping under a cooldown, expiry, and keeping the
// pinned summary in step with the store.
package listings

import (
	"context"
	"time"

	"github.com/availboard/availbot/availbot/database/models"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// Post is a renderable board message: embeds plus an optional generated
// image attachment.
type Post struct {
	Embeds    []discord.Embed
	ImageName string
	ImageData []byte
}

// ListingStore is the single source of truth for listings and the two
// summary-view pointers.
type ListingStore interface {
	GetByOwner(ctx context.Context, ownerID string) (*models.Listing, error)
	GetAll(ctx context.Context) ([]*models.Listing, error)
	Create(ctx context.Context, listing *models.Listing) error
	Update(ctx context.Context, listing *models.Listing) error
	Delete(ctx context.Context, id int64) error
}

// PointerStore holds the pinned/chat view pointers.
type PointerStore interface {
	Get(ctx context.Context, listType string) (*models.ListMessage, error)
	Set(ctx context.Context, listType string, channelID, messageID snowflake.ID) error
}

// ProfileSource supplies display profiles for listing owners. A nil profile
// with nil error means the owner has none.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// ChannelGateway is the messaging surface. Every call may fail
// independently; callers decide which failures are fatal.
type ChannelGateway interface {
	Send(ctx context.Context, post Post) (snowflake.ID, error)
	Edit(ctx context.Context, messageID snowflake.ID, post Post) error
	// Delete tolerates already-missing messages.
	Delete(ctx context.Context, messageID snowflake.ID) error
	ChannelID() snowflake.ID
}

// Renderer turns listings and profiles into board messages.
type Renderer interface {
	RenderListing(profile *models.Profile, listing *models.Listing, now time.Time) Post
	RenderSummary(all []*models.Listing, profiles map[string]*models.Profile) Post
}
