package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// Listing is one user's active availability posting. ExpiresAt is always
// derived from LastBumpAt (or creation) plus a chosen duration, never set
// independently. MessageID must point at the most recently sent board
// message for the listing.
type Listing struct {
	bun.BaseModel `bun:"table:active_listings,alias:l"`

	ID            int64        `bun:"id,pk,autoincrement"`
	OwnerID       string       `bun:"owner_id,notnull,unique"`
	ChannelID     snowflake.ID `bun:"channel_id,notnull"`
	MessageID     snowflake.ID `bun:"message_id,notnull"`
	DurationHours int          `bun:"duration_hours,notnull"`
	ExpiresAt     time.Time    `bun:"expires_at,notnull"`
	LastBumpAt    time.Time    `bun:"last_bump_at,notnull"`
	CreatedAt     time.Time    `bun:"created_at,notnull"`
}

// Expired reports whether the listing is logically expired at now. An
// expired listing may still be physically present until the next sweep.
func (l *Listing) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// Remaining returns the time left until expiry, clamped at zero.
func (l *Listing) Remaining(now time.Time) time.Duration {
	remaining := l.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
