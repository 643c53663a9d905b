package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestConvertProfile(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p := convertProfile(MongoProfile{
		UserID:        123456789,
		DisplayName:   "Alice",
		Services:      []string{"massage"},
		ContactMethod: "text_call",
		ContactInfo:   "555-0100",
		CreatedAt:     &created,
	})

	require.Equal(t, "123456789", p.UserID)
	require.Equal(t, "Alice", p.DisplayName)
	require.Equal(t, created, p.CreatedAt)
	require.NotZero(t, p.UpdatedAt)
	require.NotNil(t, p.SocialLinks, "array columns must never be nil")
	require.NotNil(t, p.MediaURLs)
}

func TestConvertListing(t *testing.T) {
	expires := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	bumped := expires.Add(-2 * time.Hour)
	l := convertListing(MongoListing{
		UserID:        123456789,
		ChannelID:     42,
		MessageID:     999,
		DurationHours: 2,
		ExpiresAt:     &expires,
		LastBumpAt:    &bumped,
	})

	require.Equal(t, "123456789", l.OwnerID)
	require.Equal(t, snowflake.ID(42), l.ChannelID)
	require.Equal(t, snowflake.ID(999), l.MessageID)
	require.Equal(t, expires, l.ExpiresAt)
	require.Equal(t, bumped, l.LastBumpAt)
}

func TestConvertListingMissingTimestamps(t *testing.T) {
	l := convertListing(MongoListing{UserID: 1})
	require.False(t, l.ExpiresAt.IsZero())
	require.False(t, l.LastBumpAt.IsZero())
}

func TestReadBSONFile(t *testing.T) {
	docs := []MongoListMessage{
		{Type: "pinned", ChannelID: 42, MessageID: 777},
		{Type: "chat", ChannelID: 42, MessageID: 888},
	}

	path := filepath.Join(t.TempDir(), "list_messages.bson")
	var raw []byte
	for _, doc := range docs {
		b, err := bson.Marshal(doc)
		require.NoError(t, err)
		raw = append(raw, b...)
	}
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	var got []MongoListMessage
	err := readBSONFile(path, func(raw []byte) error {
		var mm MongoListMessage
		if err := bson.Unmarshal(raw, &mm); err != nil {
			return err
		}
		got = append(got, mm)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "pinned", got[0].Type)
	require.Equal(t, int64(888), got[1].MessageID)
}

func TestReadBSONFileTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bson")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xFF, 0xFF, 0x7F, 0x00}, 0o644))

	err := readBSONFile(path, func([]byte) error { return nil })
	require.Error(t, err)
}
