package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/availboard/availbot/availbot"
	"github.com/availboard/availbot/availbot/config"
	"github.com/availboard/availbot/availbot/database/models"
	"github.com/availboard/availbot/availbot/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

const maxMediaSize = 8 * 1024 * 1024

var Profile = discord.SlashCommandCreate{
	Name:        "profile",
	Description: "Manage your board profile",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "set",
			Description: "Create or update your profile",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "display_name",
					Description: "Name shown on your listing",
				},
				discord.ApplicationCommandOptionString{
					Name:        "about",
					Description: "A short introduction",
				},
				discord.ApplicationCommandOptionString{
					Name:        "services",
					Description: "Comma-separated list of services you offer",
				},
				discord.ApplicationCommandOptionString{
					Name:        "location",
					Description: "Where you are based",
				},
				discord.ApplicationCommandOptionString{
					Name:        "rates",
					Description: "Your rates",
				},
				discord.ApplicationCommandOptionString{
					Name:        "contact_method",
					Description: "How people should reach you",
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "Discord", Value: models.ContactDiscord},
						{Name: "Text / Call", Value: models.ContactTextCall},
						{Name: "Email", Value: models.ContactEmail},
					},
				},
				discord.ApplicationCommandOptionString{
					Name:        "contact_info",
					Description: "Handle, number, or address for your contact method",
				},
				discord.ApplicationCommandOptionString{
					Name:        "social_links",
					Description: "Comma-separated social links",
				},
				discord.ApplicationCommandOptionString{
					Name:        "disclaimer",
					Description: "Disclaimer shown at the bottom of your listing",
				},
				discord.ApplicationCommandOptionBool{
					Name:        "allow_comments",
					Description: "Show the comments-welcome marker on the summary",
				},
				discord.ApplicationCommandOptionAttachment{
					Name:        "media",
					Description: "Image to add to your listing gallery",
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "view",
			Description: "View a profile",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Whose profile to view (defaults to yours)",
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "delete",
			Description: "Delete your profile, media, and any active listing",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionBool{
					Name:        "confirm",
					Description: "Set to true to confirm this cannot be undone",
					Required:    true,
				},
			},
		},
	},
}

func ProfileHandler(b *availbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "set":
			return handleProfileSet(b, e)
		case "view":
			return handleProfileView(b, e)
		case "delete":
			return handleProfileDelete(b, e)
		default:
			return utils.EH.CreateErrorEmbed(e, "Unknown subcommand.")
		}
	}
}

func handleProfileSet(b *availbot.Bot, e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
	defer cancel()

	data := e.SlashCommandInteractionData()
	userID := e.User().ID.String()

	profile, err := b.ProfileRepository.GetByUserID(ctx, userID)
	if err != nil {
		slog.Error("Failed to load profile",
			slog.String("type", "cmd"),
			slog.String("user_id", userID),
			slog.Any("error", err))
		return utils.EH.CreateErrorEmbed(e, "Something went wrong. Please try again later.")
	}

	created := profile == nil
	if created {
		profile = &models.Profile{
			UserID:      userID,
			DisplayName: e.User().Username,
			CreatedAt:   time.Now(),
		}
	}

	if v, ok := data.OptString("display_name"); ok {
		profile.DisplayName = strings.TrimSpace(v)
	}
	if v, ok := data.OptString("about"); ok {
		profile.About = strings.TrimSpace(v)
	}
	if v, ok := data.OptString("services"); ok {
		profile.Services = splitList(v)
	}
	if v, ok := data.OptString("location"); ok {
		profile.Location = strings.TrimSpace(v)
	}
	if v, ok := data.OptString("rates"); ok {
		profile.Rates = strings.TrimSpace(v)
	}
	if v, ok := data.OptString("contact_method"); ok {
		profile.ContactMethod = v
	}
	if v, ok := data.OptString("contact_info"); ok {
		profile.ContactInfo = strings.TrimSpace(v)
	}
	if v, ok := data.OptString("social_links"); ok {
		profile.SocialLinks = splitList(v)
	}
	if v, ok := data.OptString("disclaimer"); ok {
		profile.Disclaimer = strings.TrimSpace(v)
	}
	if v, ok := data.OptBool("allow_comments"); ok {
		profile.AllowComments = v
	}

	if attachment, ok := data.OptAttachment("media"); ok {
		url, err := storeMedia(ctx, b, userID, attachment)
		if err != nil {
			slog.Error("Failed to store profile media",
				slog.String("type", "cmd"),
				slog.String("user_id", userID),
				slog.Any("error", err))
			return utils.EH.CreateErrorEmbed(e, "Could not upload your media. Profile not saved; please try again.")
		}
		profile.MediaURLs = append(profile.MediaURLs, url)
	}

	if profile.DisplayName == "" {
		return utils.EH.CreateErrorEmbed(e, "Your profile needs a display name.")
	}

	profile.UpdatedAt = time.Now()
	if err := b.ProfileRepository.Upsert(ctx, profile); err != nil {
		slog.Error("Failed to save profile",
			slog.String("type", "cmd"),
			slog.String("user_id", userID),
			slog.Any("error", err))
		return utils.EH.CreateErrorEmbed(e, "Could not save your profile. Please try again.")
	}
	b.ProfileCache.Invalidate(userID)
	nudgeListSync(b)

	if created {
		return utils.EH.CreateSuccessEmbed(e, "Profile created! You can now post with `/available`.")
	}
	return utils.EH.CreateSuccessEmbed(e, "Profile updated.")
}

func handleProfileView(b *availbot.Bot, e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
	defer cancel()

	data := e.SlashCommandInteractionData()
	target := e.User()
	if user, ok := data.OptUser("user"); ok {
		target = user
	}

	profile, err := b.ProfileRepository.GetByUserID(ctx, target.ID.String())
	if err != nil {
		slog.Error("Failed to load profile",
			slog.String("type", "cmd"),
			slog.String("user_id", target.ID.String()),
			slog.Any("error", err))
		return utils.EH.CreateErrorEmbed(e, "Something went wrong. Please try again later.")
	}
	if profile == nil {
		return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("%s has no profile yet.", target.Username))
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{buildProfileEmbed(profile)},
		Flags:  discord.MessageFlagEphemeral,
	})
}

func handleProfileDelete(b *availbot.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	if !data.Bool("confirm") {
		return utils.EH.CreateErrorEmbed(e, "Set `confirm` to true to delete your profile. This cannot be undone.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
	defer cancel()

	userID := e.User().ID.String()

	// Take the board message down first; the repository delete removes the
	// listing row but can't reach the channel.
	if listing, err := b.ListingRepository.GetByOwner(ctx, userID); err == nil && listing != nil {
		if err := b.Controller.Expire(ctx, listing); err != nil {
			slog.Warn("Failed to expire listing during profile delete",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
	}

	if err := b.ProfileRepository.Delete(ctx, userID); err != nil {
		slog.Error("Failed to delete profile",
			slog.String("type", "cmd"),
			slog.String("user_id", userID),
			slog.Any("error", err))
		return utils.EH.CreateErrorEmbed(e, "Could not delete your profile. Please try again.")
	}
	b.ProfileCache.Invalidate(userID)

	if b.MediaStorage != nil {
		if err := b.MediaStorage.DeleteAll(ctx, userID); err != nil {
			slog.Warn("Failed to delete profile media",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
	}

	nudgeListSync(b)
	return utils.EH.CreateSuccessEmbed(e, "Your profile and media have been deleted.")
}

func storeMedia(ctx context.Context, b *availbot.Bot, userID string, attachment discord.Attachment) (string, error) {
	if b.MediaStorage == nil {
		return "", fmt.Errorf("media storage is not configured")
	}
	if attachment.Size > maxMediaSize {
		return "", fmt.Errorf("attachment exceeds %dMB limit", maxMediaSize/1024/1024)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attachment.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download attachment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status downloading attachment: %d", resp.StatusCode)
	}

	contentType := "application/octet-stream"
	if attachment.ContentType != nil {
		contentType = *attachment.ContentType
	}
	return b.MediaStorage.Upload(ctx, userID, attachment.Filename, contentType, io.LimitReader(resp.Body, maxMediaSize))
}

func buildProfileEmbed(profile *models.Profile) discord.Embed {
	builder := discord.NewEmbedBuilder().
		SetTitle(profile.DisplayName).
		SetColor(config.InfoColor)

	if profile.About != "" {
		builder.SetDescription(profile.About)
	}
	if len(profile.Services) > 0 {
		builder.AddField("Services", "• "+strings.Join(profile.Services, "\n• "), false)
	}
	if profile.Location != "" {
		builder.AddField("Location", profile.Location, true)
	}
	if profile.Rates != "" {
		builder.AddField("Rates", profile.Rates, true)
	}
	if profile.ContactInfo != "" {
		builder.AddField("Contact", profile.ContactInfo, true)
	}
	if len(profile.SocialLinks) > 0 {
		builder.AddField("Social", strings.Join(profile.SocialLinks, "\n"), false)
	}
	if len(profile.MediaURLs) > 0 {
		builder.SetImage(profile.MediaURLs[0])
	}
	if profile.Disclaimer != "" {
		builder.SetFooter(profile.Disclaimer, "")
	}
	return builder.Build()
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
