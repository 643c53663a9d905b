package commands

import (
	"context"
	"log/slog"

	"github.com/availboard/availbot/availbot"
	"github.com/availboard/availbot/availbot/config"
	"github.com/availboard/availbot/availbot/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Unavailable = discord.SlashCommandCreate{
	Name:        "unavailable",
	Description: "Take your listing down from the board",
}

func UnavailableHandler(b *availbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
		defer cancel()

		ownerID := e.User().ID.String()
		listing, err := b.ListingRepository.GetByOwner(ctx, ownerID)
		if err != nil {
			slog.Error("Failed to look up listing for takedown",
				slog.String("type", "cmd"),
				slog.String("owner_id", ownerID),
				slog.Any("error", err))
			return utils.EH.CreateErrorEmbed(e, "Something went wrong. Please try again later.")
		}
		if listing == nil {
			return utils.EH.CreateErrorEmbed(e, "You don't have an active listing.")
		}

		if err := b.Controller.Expire(ctx, listing); err != nil {
			slog.Error("Failed to take down listing",
				slog.String("type", "cmd"),
				slog.String("owner_id", ownerID),
				slog.Any("error", err))
			return utils.EH.CreateErrorEmbed(e, "Could not take your listing down. Please try again.")
		}

		nudgeListSync(b)
		return utils.EH.CreateSuccessEmbed(e, "Your listing has been taken down. See you next time!")
	}
}
