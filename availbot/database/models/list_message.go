package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// List message types. One row exists per type, overwritten on every refresh.
const (
	ListTypePinned = "pinned"
	ListTypeChat   = "chat"
)

// ListMessage maps a summary view to the channel message currently
// displaying it.
type ListMessage struct {
	bun.BaseModel `bun:"table:list_messages,alias:lm"`

	Type      string       `bun:"type,pk"`
	ChannelID snowflake.ID `bun:"channel_id,notnull"`
	MessageID snowflake.ID `bun:"message_id,notnull"`
	UpdatedAt time.Time    `bun:"updated_at,notnull"`
}
