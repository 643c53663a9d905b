package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ContactMethod values accepted by Profile.ContactMethod.
const (
	ContactDiscord  = "discord"
	ContactTextCall = "text_call"
	ContactEmail    = "email"
)

type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	UserID        string    `bun:"user_id,pk"`
	DisplayName   string    `bun:"display_name,notnull"`
	About         string    `bun:"about"`
	Services      []string  `bun:"services,array"`
	Location      string    `bun:"location"`
	Rates         string    `bun:"rates"`
	ContactMethod string    `bun:"contact_method"`
	ContactInfo   string    `bun:"contact_info"`
	SocialLinks   []string  `bun:"social_links,array"`
	Disclaimer    string    `bun:"disclaimer"`
	AllowComments bool      `bun:"allow_comments"`
	MediaURLs     []string  `bun:"media_urls,array"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}
