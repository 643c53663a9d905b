package utils

import (
	"context"
	"testing"
	"time"

	"github.com/availboard/availbot/availbot/database/models"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/require"
)

type stubCards struct {
	calls int
}

func (s *stubCards) GenerateListingCard(_ context.Context, _ *models.Profile, _ string) ([]byte, error) {
	s.calls++
	return []byte("png"), nil
}

func testProfile() *models.Profile {
	return &models.Profile{
		UserID:        "123",
		DisplayName:   "Alice",
		About:         "Hi there",
		Services:      []string{"Massage", "Companionship"},
		Location:      "Downtown",
		Rates:         "$100/h",
		ContactMethod: models.ContactTextCall,
		ContactInfo:   "555-0100",
	}
}

func testListing(messageID int64, expiresIn time.Duration, now time.Time) *models.Listing {
	return &models.Listing{
		OwnerID:    "123",
		ChannelID:  42,
		MessageID:  snowflake.ID(messageID),
		ExpiresAt:  now.Add(expiresIn),
		LastBumpAt: now,
	}
}

func TestRenderListingFields(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := NewListingFormatter(1, nil)

	post := f.RenderListing(testProfile(), testListing(999, 2*time.Hour, now), now)
	require.Len(t, post.Embeds, 1)

	embed := post.Embeds[0]
	require.Equal(t, "Alice — Available Now", embed.Title)
	require.Equal(t, "Hi there", embed.Description)

	fields := make(map[string]string, len(embed.Fields))
	for _, field := range embed.Fields {
		fields[field.Name] = field.Value
	}
	require.Equal(t, "• Massage\n• Companionship\n", fields["Services"])
	require.Equal(t, "Downtown", fields["Location"])
	require.Equal(t, "Text/Call: 555-0100", fields["Contact"])
	require.Equal(t, "2h 0m 0s", fields["Expires in"])
}

func TestRenderListingMediaGallery(t *testing.T) {
	now := time.Now()
	f := NewListingFormatter(1, nil)

	profile := testProfile()
	profile.MediaURLs = []string{"https://cdn.test/a.png", "https://cdn.test/b.png", "https://cdn.test/c.png"}

	post := f.RenderListing(profile, testListing(999, time.Hour, now), now)
	require.Len(t, post.Embeds, 3)
	for _, embed := range post.Embeds {
		require.Equal(t, "https://cdn.test/a.png", embed.URL, "gallery embeds share the first URL")
	}
	require.Equal(t, "https://cdn.test/b.png", post.Embeds[1].Image.URL)
	require.Empty(t, post.ImageData)
}

func TestRenderListingGeneratedCardOnlyOnFreshPost(t *testing.T) {
	now := time.Now()
	cards := &stubCards{}
	f := NewListingFormatter(1, cards)
	profile := testProfile()

	// Fresh post: message id is still zero.
	post := f.RenderListing(profile, testListing(0, time.Hour, now), now)
	require.Equal(t, 1, cards.calls)
	require.Equal(t, "availability-card.png", post.ImageName)
	require.NotEmpty(t, post.ImageData)

	// Countdown refresh of an existing message must not regenerate.
	post = f.RenderListing(profile, testListing(999, time.Hour, now), now)
	require.Equal(t, 1, cards.calls)
	require.Empty(t, post.ImageData)
}

func TestRenderSummary(t *testing.T) {
	now := time.Now()
	f := NewListingFormatter(1, nil)

	alice := testProfile()
	alice.AllowComments = true
	bob := &models.Profile{UserID: "456", DisplayName: "Bob"}

	all := []*models.Listing{
		testListing(999, time.Hour, now),
		{OwnerID: "456", ChannelID: 42, MessageID: 1001},
		{OwnerID: "789", ChannelID: 42, MessageID: 1002}, // no profile, excluded
	}
	profiles := map[string]*models.Profile{"123": alice, "456": bob}

	post := f.RenderSummary(all, profiles)
	require.Len(t, post.Embeds, 1)

	embed := post.Embeds[0]
	require.Equal(t, "AVAILABLE NOW (2 available)", embed.Title)
	require.Contains(t, embed.Description, "1. **Alice** 💬")
	require.Contains(t, embed.Description, "2. **Bob**")
	require.NotContains(t, embed.Description, "789")
	require.Contains(t, embed.Description, "https://discord.com/channels/1/42/999")
}

func TestRenderSummaryEmpty(t *testing.T) {
	f := NewListingFormatter(1, nil)

	post := f.RenderSummary(nil, nil)
	require.Equal(t, "AVAILABLE NOW (0 available)", post.Embeds[0].Title)
	require.Equal(t, "No one is currently available. Check back soon!", post.Embeds[0].Description)
}
