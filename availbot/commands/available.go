package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/availboard/availbot/availbot"
	"github.com/availboard/availbot/availbot/config"
	"github.com/availboard/availbot/availbot/listings"
	"github.com/availboard/availbot/availbot/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Available = discord.SlashCommandCreate{
	Name:        "available",
	Description: "Post your availability listing to the board",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "duration",
			Description: "How long you will be available",
			Required:    true,
			Choices: []discord.ApplicationCommandOptionChoiceInt{
				{Name: "2 hours", Value: 2},
				{Name: "4 hours", Value: 4},
				{Name: "6 hours", Value: 6},
			},
		},
	},
}

func AvailableHandler(b *availbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !b.Cfg.Bot.IsAdmin(e.User().ID) {
			return utils.EH.CreateErrorEmbed(e, "This command is for approved members only.")
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
		defer cancel()

		ownerID := e.User().ID.String()
		duration := time.Duration(e.SlashCommandInteractionData().Int("duration")) * time.Hour

		// The controller refuses to replace silently, so an existing listing
		// is taken down first and the user is told it was replaced.
		replaced := false
		if existing, err := b.ListingRepository.GetByOwner(ctx, ownerID); err == nil && existing != nil {
			if err := b.Controller.Expire(ctx, existing); err != nil {
				slog.Error("Failed to replace existing listing",
					slog.String("type", "cmd"),
					slog.String("owner_id", ownerID),
					slog.Any("error", err))
				return utils.EH.CreateErrorEmbed(e, "Could not replace your existing listing. Please try again.")
			}
			replaced = true
		}

		listing, err := b.Controller.Create(ctx, ownerID, duration)
		if err != nil {
			switch {
			case errors.Is(err, listings.ErrNoProfile):
				return utils.EH.CreateErrorEmbed(e, "You need a profile first. Use `/profile set` to create one.")
			case errors.Is(err, listings.ErrDuplicateActive):
				return utils.EH.CreateErrorEmbed(e, "You already have an active listing. Use `/bump` to refresh it.")
			default:
				slog.Error("Failed to create listing",
					slog.String("type", "cmd"),
					slog.String("owner_id", ownerID),
					slog.Any("error", err))
				return utils.EH.CreateErrorEmbed(e, "Could not post your listing. Please try again later.")
			}
		}

		nudgeListSync(b)

		msg := fmt.Sprintf("✅ Your listing is live for %s! It expires <t:%d:R>.",
			utils.FormatDurationShort(duration), listing.ExpiresAt.Unix())
		if replaced {
			msg = "Your previous listing has been replaced.\n" + msg
		}
		return utils.EH.CreateSuccessEmbed(e, msg)
	}
}

// nudgeListSync pushes the pinned summary in the background so a user action
// is reflected before the next periodic resync.
func nudgeListSync(b *availbot.Bot) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()
		if err := b.Synchronizer.SyncPinned(ctx); err != nil {
			slog.Error("List sync nudge failed",
				slog.String("type", "sys"),
				slog.Any("error", err))
		}
	}()
}
