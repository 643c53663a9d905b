package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/availboard/availbot/availbot"
	"github.com/availboard/availbot/availbot/config"
	"github.com/availboard/availbot/availbot/listings"
	"github.com/availboard/availbot/availbot/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Bump = discord.SlashCommandCreate{
	Name:        "bump",
	Description: "Repost your listing to the bottom of the board",
}

func BumpHandler(b *availbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
		defer cancel()

		ownerID := e.User().ID.String()
		listing, err := b.ListingRepository.GetByOwner(ctx, ownerID)
		if err != nil {
			slog.Error("Failed to look up listing for bump",
				slog.String("type", "cmd"),
				slog.String("owner_id", ownerID),
				slog.Any("error", err))
			return utils.EH.CreateErrorEmbed(e, "Something went wrong. Please try again later.")
		}
		if listing == nil {
			return utils.EH.CreateErrorEmbed(e, "You don't have an active listing. Use `/available` to post one.")
		}

		now := time.Now()
		if ok, wait := listings.CanBump(listing.LastBumpAt, now, b.Controller.Cooldown()); !ok {
			return utils.EH.CreateErrorEmbed(e,
				fmt.Sprintf("⏳ You can bump again in %s.", utils.FormatDurationShort(wait)))
		}

		remaining := listing.Remaining(now)
		embed := discord.NewEmbedBuilder().
			SetTitle("Bump Listing").
			SetDescription("Your listing will be reposted at the bottom of the board. How long should it stay up?").
			SetColor(config.InfoColor).
			Build()

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed},
			Components: []discord.ContainerComponent{
				discord.NewActionRow(
					discord.NewPrimaryButton(
						fmt.Sprintf("Keep remaining (%s)", utils.FormatDurationShort(remaining)),
						"/bump/keep"),
					discord.NewSecondaryButton("Reset 2h", "/bump/reset/2"),
					discord.NewSecondaryButton("Reset 4h", "/bump/reset/4"),
					discord.NewSecondaryButton("Reset 6h", "/bump/reset/6"),
				),
			},
			Flags: discord.MessageFlagEphemeral,
		})
	}
}

func BumpKeepHandler(b *availbot.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		return executeBump(b, e, listings.KeepRemaining())
	}
}

func BumpResetHandler(b *availbot.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		hours, err := strconv.Atoi(e.Vars["hours"])
		if err != nil || hours <= 0 {
			return utils.EH.CreateEphemeralError(e, "Invalid duration.")
		}
		return executeBump(b, e, listings.ResetTo(time.Duration(hours)*time.Hour))
	}
}

func executeBump(b *availbot.Bot, e *handler.ComponentEvent, mode listings.BumpMode) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
	defer cancel()

	ownerID := e.User().ID.String()
	listing, err := b.Controller.Bump(ctx, ownerID, mode)
	if err != nil {
		var cooldownErr *listings.CooldownError
		var repostErr *listings.RepostError
		switch {
		case errors.Is(err, listings.ErrNoActiveListing):
			return updateWithError(e, "Your listing is no longer active. Use `/available` to post a new one.")
		case errors.As(err, &cooldownErr):
			return updateWithError(e,
				fmt.Sprintf("⏳ You can bump again in %s.", utils.FormatDurationShort(cooldownErr.Wait)))
		case errors.As(err, &repostErr):
			slog.Error("Bump repost failed",
				slog.String("type", "cmd"),
				slog.String("owner_id", ownerID),
				slog.Any("error", err))
			return updateWithError(e, "Could not repost your listing. It is still on the board; try again in a moment.")
		default:
			slog.Error("Bump failed",
				slog.String("type", "cmd"),
				slog.String("owner_id", ownerID),
				slog.Any("error", err))
			return updateWithError(e, "Something went wrong. Please try again later.")
		}
	}

	nudgeListSync(b)

	embed := discord.NewEmbedBuilder().
		SetTitle("Listing Bumped").
		SetDescription(fmt.Sprintf("🔄 Your listing is back at the bottom of the board. It expires <t:%d:R>.",
			listing.ExpiresAt.Unix())).
		SetColor(config.SuccessColor).
		Build()
	return e.UpdateMessage(discord.MessageUpdate{
		Embeds:     &[]discord.Embed{embed},
		Components: &[]discord.ContainerComponent{},
	})
}

func updateWithError(e *handler.ComponentEvent, message string) error {
	embed := discord.NewEmbedBuilder().
		SetTitle("Error").
		SetDescription(message).
		SetColor(config.ErrorColor).
		Build()
	return e.UpdateMessage(discord.MessageUpdate{
		Embeds:     &[]discord.Embed{embed},
		Components: &[]discord.ContainerComponent{},
	})
}
