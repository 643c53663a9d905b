package availbot

import (
	"context"
	"log/slog"
	"time"

	"github.com/availboard/availbot/availbot/channel"
	"github.com/availboard/availbot/availbot/database"
	"github.com/availboard/availbot/availbot/database/repositories"
	"github.com/availboard/availbot/availbot/listings"
	"github.com/availboard/availbot/availbot/services"
	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string

	DB                    *database.DB
	ProfileRepository     repositories.ProfileRepository
	ListingRepository     repositories.ListingRepository
	ListMessageRepository repositories.ListMessageRepository

	Board        *channel.Gateway
	ProfileCache *services.ProfileCache
	MediaStorage *services.MediaStorage
	CardImages   *services.CardImageService

	Controller   *listings.Controller
	Synchronizer *listings.Synchronizer
	Scheduler    *listings.Scheduler
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildMessages)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("Availability board bot is now ready",
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("the availability board"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
