package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/availboard/availbot/availbot"
	"github.com/availboard/availbot/availbot/channel"
	"github.com/availboard/availbot/availbot/commands"
	"github.com/availboard/availbot/availbot/database"
	"github.com/availboard/availbot/availbot/database/repositories"
	"github.com/availboard/availbot/availbot/handlers"
	"github.com/availboard/availbot/availbot/listings"
	"github.com/availboard/availbot/availbot/logger"
	"github.com/availboard/availbot/availbot/migration"
	"github.com/availboard/availbot/availbot/services"
	"github.com/availboard/availbot/availbot/utils"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler()))

	slog.Info("Starting availability board bot",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	migrateDir := flag.String("migrate", "", "Import legacy data from mongodump BSON files in this directory, then exit")
	migrateMongoURI := flag.String("migrate-mongo-uri", "", "Import legacy data directly from this MongoDB URI, then exit")
	migrateMongoDB := flag.String("migrate-mongo-db", "availbot", "MongoDB database name for direct migration")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := availbot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	dbStartTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.New(ctx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()))
		os.Exit(-1)
	}

	if *migrateDir != "" || *migrateMongoURI != "" {
		if err := runMigration(ctx, db, *migrateDir, *migrateMongoURI, *migrateMongoDB); err != nil {
			slog.Error("Migration failed", slog.Any("error", err))
			os.Exit(-1)
		}
		return
	}

	b := availbot.New(*cfg, version, commit)
	b.DB = db
	b.ProfileRepository = repositories.NewProfileRepository(db.BunDB())
	b.ListingRepository = repositories.NewListingRepository(db.BunDB())
	b.ListMessageRepository = repositories.NewListMessageRepository(db.BunDB())
	b.ProfileCache = services.NewProfileCache(b.ProfileRepository)

	if cfg.Spaces.Key != "" {
		storage, err := services.NewMediaStorage(
			cfg.Spaces.Key,
			cfg.Spaces.Secret,
			cfg.Spaces.Region,
			cfg.Spaces.Bucket,
			cfg.Spaces.MediaRoot,
		)
		if err != nil {
			slog.Error("Failed to initialize media storage", slog.Any("error", err))
			os.Exit(-1)
		}
		b.MediaStorage = storage
	} else {
		slog.Info("Media storage not configured, profile media uploads disabled")
	}

	var cards utils.CardGenerator
	if cfg.Listings.UseGeneratedCard {
		b.CardImages = services.NewCardImageService()
		cards = b.CardImages
	}
	formatter := utils.NewListingFormatter(cfg.Bot.GuildID, cards)

	h := handler.New()
	h.Command("/available", handlers.WrapWithLogging("available", commands.AvailableHandler(b)))
	h.Command("/bump", handlers.WrapWithLogging("bump", commands.BumpHandler(b)))
	h.Component("/bump/keep", handlers.WrapComponentWithLogging("bump-keep", commands.BumpKeepHandler(b)))
	h.Component("/bump/reset/{hours}", handlers.WrapComponentWithLogging("bump-reset", commands.BumpResetHandler(b)))
	h.Command("/unavailable", handlers.WrapWithLogging("unavailable", commands.UnavailableHandler(b)))
	h.Command("/board", handlers.WrapWithLogging("board", commands.BoardHandler(b)))
	h.Command("/pinboard", handlers.WrapWithLogging("pinboard", commands.PinBoardHandler(b)))
	h.Command("/profile", handlers.WrapWithLogging("profile", commands.ProfileHandler(b)))
	h.Command("/profiles", handlers.WrapWithLogging("profiles", commands.ProfilesHandler(b)))
	h.Autocomplete("/profiles", commands.ProfilesAutocomplete(b))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)))
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	b.Board = channel.NewGateway(b.Client.Rest(), cfg.Bot.BoardChannelID)
	b.Controller = listings.NewController(b.ListingRepository, b.ProfileCache, b.Board, formatter, cfg.Listings.Cooldown())
	b.Synchronizer = listings.NewSynchronizer(b.ListingRepository, b.ListMessageRepository, b.ProfileCache, b.Board, formatter)
	b.Scheduler = listings.NewScheduler(b.ListingRepository, b.ProfileCache, b.Board, formatter,
		b.Controller, b.Synchronizer, cfg.Listings.RefreshInterval(), cfg.Listings.ResyncInterval())

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds))
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err))
		}
	}

	gwCtx, gwCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gwCancel()
	if err = b.Client.OpenGateway(gwCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err))
		os.Exit(-1)
	}

	b.Scheduler.Start(context.Background())
	defer b.Scheduler.Stop()

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...")
}

func runMigration(ctx context.Context, db *database.DB, dataDir, mongoURI, mongoDBName string) error {
	m := migration.NewMigrator(db.BunDB(), dataDir)

	if mongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		defer client.Disconnect(ctx)

		m.UseMongo(client, mongoDBName)
		return m.MigrateAllFromMongo(ctx)
	}
	return m.MigrateAll(ctx)
}
