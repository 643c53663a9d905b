package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/availboard/availbot/availbot"
	"github.com/availboard/availbot/availbot/config"
	"github.com/availboard/availbot/availbot/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Board = discord.SlashCommandCreate{
	Name:        "board",
	Description: "Repost the availability summary at the bottom of the channel",
}

var PinBoard = discord.SlashCommandCreate{
	Name:        "pinboard",
	Description: "Post and pin a fresh availability summary (admin)",
}

func BoardHandler(b *availbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
		defer cancel()

		if err := b.Synchronizer.RefreshChatList(ctx); err != nil {
			slog.Error("Failed to refresh chat list",
				slog.String("type", "cmd"),
				slog.Any("error", err))
			return utils.EH.CreateErrorEmbed(e, "Could not refresh the board right now. Please try again later.")
		}
		return utils.EH.CreateSuccessEmbed(e, "The availability summary has been reposted.")
	}
}

func PinBoardHandler(b *availbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !b.Cfg.Bot.IsAdmin(e.User().ID) {
			return utils.EH.CreateErrorEmbed(e, "Only admins can set up the pinned board.")
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
		defer cancel()

		messageID, err := b.Synchronizer.BootstrapPinned(ctx)
		if err != nil {
			slog.Error("Failed to bootstrap pinned list",
				slog.String("type", "cmd"),
				slog.Any("error", err))
			return utils.EH.CreateErrorEmbed(e, "Could not post the pinned board. Please try again.")
		}
		return utils.EH.CreateSuccessEmbed(e,
			fmt.Sprintf("Pinned board is live (message `%d`). It will be kept up to date automatically.", messageID))
	}
}
