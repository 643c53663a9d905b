package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoProfile mirrors a document in the legacy bot's profiles collection.
type MongoProfile struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        int64              `bson:"user_id"`
	DisplayName   string             `bson:"display_name"`
	About         string             `bson:"about"`
	Services      []string           `bson:"services"`
	Location      string             `bson:"location"`
	Rates         string             `bson:"rates"`
	ContactMethod string             `bson:"contact_method"`
	ContactInfo   string             `bson:"contact_info"`
	SocialLinks   []string           `bson:"social_links"`
	Disclaimer    string             `bson:"disclaimer"`
	AllowComments bool               `bson:"allow_comments"`
	MediaURLs     []string           `bson:"media_urls"`
	CreatedAt     *time.Time         `bson:"created_at"`
	UpdatedAt     *time.Time         `bson:"updated_at"`
}

// MongoListing mirrors a document in the legacy bot's listings collection.
type MongoListing struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        int64              `bson:"user_id"`
	ChannelID     int64              `bson:"channel_id"`
	MessageID     int64              `bson:"message_id"`
	DurationHours int                `bson:"duration_hours"`
	ExpiresAt     *time.Time         `bson:"expires_at"`
	LastBumpAt    *time.Time         `bson:"last_bump_at"`
	CreatedAt     *time.Time         `bson:"created_at"`
}

// MongoListMessage mirrors a document in the legacy bot's list_messages
// collection (one per view type).
type MongoListMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Type      string             `bson:"type"`
	ChannelID int64              `bson:"channel_id"`
	MessageID int64              `bson:"message_id"`
	UpdatedAt *time.Time         `bson:"updated_at"`
}
