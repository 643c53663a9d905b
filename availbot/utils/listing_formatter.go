package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/availboard/availbot/availbot/config"
	"github.com/availboard/availbot/availbot/database/models"
	"github.com/availboard/availbot/availbot/listings"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

const maxMediaEmbeds = 4

// CardGenerator produces a fallback PNG card for profiles without media.
type CardGenerator interface {
	GenerateListingCard(ctx context.Context, profile *models.Profile, expiresLabel string) ([]byte, error)
}

// ListingFormatter renders listings and the availability summary as Discord
// embeds. It implements the board engine's Renderer.
type ListingFormatter struct {
	guildID snowflake.ID
	cards   CardGenerator
}

func NewListingFormatter(guildID snowflake.ID, cards CardGenerator) *ListingFormatter {
	return &ListingFormatter{guildID: guildID, cards: cards}
}

func (f *ListingFormatter) RenderListing(profile *models.Profile, listing *models.Listing, now time.Time) listings.Post {
	embed := discord.Embed{
		Title:       fmt.Sprintf("%s — Available Now", profile.DisplayName),
		Description: profile.About,
		Color:       config.ListingColor,
	}

	if len(profile.Services) > 0 {
		var sb strings.Builder
		for _, service := range profile.Services {
			sb.WriteString("• ")
			sb.WriteString(service)
			sb.WriteString("\n")
		}
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:  "Services",
			Value: sb.String(),
		})
	}

	if profile.Location != "" {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:   "Location",
			Value:  profile.Location,
			Inline: boolPtr(true),
		})
	}

	if profile.Rates != "" {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:   "Rates",
			Value:  profile.Rates,
			Inline: boolPtr(true),
		})
	}

	if contact := formatContact(profile); contact != "" {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:  "Contact",
			Value: contact,
		})
	}

	if len(profile.SocialLinks) > 0 {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:  "Social",
			Value: strings.Join(profile.SocialLinks, "\n"),
		})
	}

	if profile.Disclaimer != "" {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:  "Disclaimer",
			Value: profile.Disclaimer,
		})
	}

	embed.Fields = append(embed.Fields, discord.EmbedField{
		Name:  "Expires in",
		Value: FormatTimeRemaining(listing.ExpiresAt, now),
	})

	post := listings.Post{Embeds: []discord.Embed{embed}}

	// Discord renders embeds sharing the first embed's URL as one gallery.
	if len(profile.MediaURLs) > 0 {
		post.Embeds[0].URL = profile.MediaURLs[0]
		post.Embeds[0].Image = &discord.EmbedResource{URL: profile.MediaURLs[0]}
		for _, mediaURL := range profile.MediaURLs[1:] {
			if len(post.Embeds) >= maxMediaEmbeds {
				break
			}
			post.Embeds = append(post.Embeds, discord.Embed{
				URL:   profile.MediaURLs[0],
				Image: &discord.EmbedResource{URL: mediaURL},
			})
		}
		return post
	}

	// A zero message id means the post is about to be sent fresh, which is
	// the only time an attachment can be included.
	if f.cards != nil && listing.MessageID == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if data, err := f.cards.GenerateListingCard(ctx, profile, FormatTimeRemaining(listing.ExpiresAt, now)); err == nil {
			post.ImageName = "availability-card.png"
			post.ImageData = data
			post.Embeds[0].Image = &discord.EmbedResource{URL: "attachment://availability-card.png"}
		}
	}

	return post
}

func (f *ListingFormatter) RenderSummary(all []*models.Listing, profiles map[string]*models.Profile) listings.Post {
	shown := make([]*models.Listing, 0, len(all))
	for _, listing := range all {
		if _, ok := profiles[listing.OwnerID]; ok {
			shown = append(shown, listing)
		}
	}

	embed := discord.Embed{
		Title: fmt.Sprintf("AVAILABLE NOW (%d available)", len(shown)),
		Color: config.SummaryColor,
	}

	if len(shown) == 0 {
		embed.Description = "No one is currently available. Check back soon!"
		return listings.Post{Embeds: []discord.Embed{embed}}
	}

	var sb strings.Builder
	for i, listing := range shown {
		profile := profiles[listing.OwnerID]
		marker := ""
		if profile.AllowComments {
			marker = " " + config.CommentsOpenMarker
		}
		fmt.Fprintf(&sb, "%d. **%s**%s [View post](%s)\n",
			i+1, profile.DisplayName, marker, f.messageLink(listing))
	}
	embed.Description = sb.String()

	return listings.Post{Embeds: []discord.Embed{embed}}
}

func (f *ListingFormatter) messageLink(listing *models.Listing) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s",
		f.guildID, listing.ChannelID, listing.MessageID)
}

func formatContact(profile *models.Profile) string {
	switch profile.ContactMethod {
	case models.ContactTextCall:
		return fmt.Sprintf("Text/Call: %s", profile.ContactInfo)
	case models.ContactEmail:
		return fmt.Sprintf("Email: %s", profile.ContactInfo)
	case models.ContactDiscord:
		return fmt.Sprintf("Discord: <@%s>", profile.UserID)
	default:
		return profile.ContactInfo
	}
}

func boolPtr(b bool) *bool {
	return &b
}
