// Package migration imports data from the legacy bot's MongoDB database
// into Postgres, either from mongodump BSON files or from a live server.
package migration

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/availboard/availbot/availbot/database/models"
	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Migrator struct {
	pgDB      *bun.DB
	dataDir   string
	batchSize int
	mongoDB   *mongo.Database
	stats     map[string]int
}

func NewMigrator(pgDB *bun.DB, dataDir string) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		dataDir:   dataDir,
		batchSize: 500,
		stats:     make(map[string]int),
	}
}

// UseMongo enables direct-from-Mongo migration mode.
func (m *Migrator) UseMongo(client *mongo.Client, dbName string) {
	if client != nil && dbName != "" {
		m.mongoDB = client.Database(dbName)
	}
}

// MigrateAll imports profiles, listings, and list message pointers from
// mongodump BSON files in the data directory. Missing files are skipped so
// partial dumps still import.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	start := time.Now()
	slog.Info("Starting BSON migration",
		slog.String("type", "db"),
		slog.String("data_dir", m.dataDir))

	steps := []struct {
		name     string
		fileName string
		migrate  func(context.Context, string) error
	}{
		{"profiles", "profiles.bson", m.migrateProfilesFile},
		{"listings", "listings.bson", m.migrateListingsFile},
		{"list_messages", "list_messages.bson", m.migrateListMessagesFile},
	}

	for _, step := range steps {
		path := filepath.Join(m.dataDir, step.fileName)
		if _, err := os.Stat(path); err != nil {
			slog.Info("Dump file not found, skipping",
				slog.String("type", "db"),
				slog.String("file", step.fileName))
			continue
		}
		if err := step.migrate(ctx, path); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", step.name, err)
		}
	}

	m.logStats(time.Since(start))
	return nil
}

// MigrateAllFromMongo imports the same collections from a live MongoDB
// database. Call UseMongo first.
func (m *Migrator) MigrateAllFromMongo(ctx context.Context) error {
	if m.mongoDB == nil {
		return fmt.Errorf("mongoDB not configured; call UseMongo first")
	}
	start := time.Now()
	slog.Info("Starting direct MongoDB migration", slog.String("type", "db"))

	steps := []struct {
		name    string
		migrate func(context.Context) error
	}{
		{"profiles", m.migrateProfilesFromMongo},
		{"listings", m.migrateListingsFromMongo},
		{"list_messages", m.migrateListMessagesFromMongo},
	}
	for _, step := range steps {
		if err := step.migrate(ctx); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", step.name, err)
		}
	}

	m.logStats(time.Since(start))
	return nil
}

func (m *Migrator) migrateProfilesFile(ctx context.Context, path string) error {
	var docs []MongoProfile
	if err := readBSONFile(path, func(raw []byte) error {
		var mp MongoProfile
		if err := bson.Unmarshal(raw, &mp); err != nil {
			return err
		}
		docs = append(docs, mp)
		return nil
	}); err != nil {
		return err
	}
	return m.processProfiles(ctx, docs)
}

func (m *Migrator) migrateProfilesFromMongo(ctx context.Context) error {
	cur, err := m.mongoDB.Collection("profiles").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query profiles: %w", err)
	}
	defer cur.Close(ctx)

	var docs []MongoProfile
	for cur.Next(ctx) {
		var mp MongoProfile
		if err := cur.Decode(&mp); err != nil {
			slog.Warn("Skipping undecodable profile document", slog.Any("error", err))
			continue
		}
		docs = append(docs, mp)
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return m.processProfiles(ctx, docs)
}

func (m *Migrator) processProfiles(ctx context.Context, docs []MongoProfile) error {
	// Dedupe on user_id, keeping the latest occurrence.
	byUser := make(map[string]*models.Profile, len(docs))
	for _, doc := range docs {
		p := convertProfile(doc)
		if p.UserID == "" || p.DisplayName == "" {
			continue
		}
		byUser[p.UserID] = p
	}

	profiles := make([]*models.Profile, 0, len(byUser))
	for _, p := range byUser {
		profiles = append(profiles, p)
	}

	for i := 0; i < len(profiles); i += m.batchSize {
		end := min(i+m.batchSize, len(profiles))
		batch := profiles[i:end]
		_, err := m.pgDB.NewInsert().
			Model(&batch).
			On("CONFLICT (user_id) DO UPDATE").
			Set("display_name = EXCLUDED.display_name").
			Set("about = EXCLUDED.about").
			Set("services = EXCLUDED.services").
			Set("location = EXCLUDED.location").
			Set("rates = EXCLUDED.rates").
			Set("contact_method = EXCLUDED.contact_method").
			Set("contact_info = EXCLUDED.contact_info").
			Set("social_links = EXCLUDED.social_links").
			Set("disclaimer = EXCLUDED.disclaimer").
			Set("allow_comments = EXCLUDED.allow_comments").
			Set("media_urls = EXCLUDED.media_urls").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert profiles batch: %w", err)
		}
	}

	m.stats["profiles"] = len(profiles)
	slog.Info("Profiles migrated",
		slog.String("type", "db"),
		slog.Int("input", len(docs)),
		slog.Int("imported", len(profiles)))
	return nil
}

func (m *Migrator) migrateListingsFile(ctx context.Context, path string) error {
	var docs []MongoListing
	if err := readBSONFile(path, func(raw []byte) error {
		var ml MongoListing
		if err := bson.Unmarshal(raw, &ml); err != nil {
			return err
		}
		docs = append(docs, ml)
		return nil
	}); err != nil {
		return err
	}
	return m.processListings(ctx, docs)
}

func (m *Migrator) migrateListingsFromMongo(ctx context.Context) error {
	cur, err := m.mongoDB.Collection("listings").Find(ctx, bson.D{})
	if err != nil {
		slog.Info("Listings collection not found, skipping", slog.String("type", "db"))
		return nil
	}
	defer cur.Close(ctx)

	var docs []MongoListing
	for cur.Next(ctx) {
		var ml MongoListing
		if err := cur.Decode(&ml); err != nil {
			slog.Warn("Skipping undecodable listing document", slog.Any("error", err))
			continue
		}
		docs = append(docs, ml)
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return m.processListings(ctx, docs)
}

func (m *Migrator) processListings(ctx context.Context, docs []MongoListing) error {
	// A user can only have one active listing; keep the one bumped last.
	byOwner := make(map[string]*models.Listing, len(docs))
	for _, doc := range docs {
		l := convertListing(doc)
		if l.OwnerID == "" {
			continue
		}
		if prev, ok := byOwner[l.OwnerID]; ok && prev.LastBumpAt.After(l.LastBumpAt) {
			continue
		}
		byOwner[l.OwnerID] = l
	}

	imported := 0
	for _, l := range byOwner {
		_, err := m.pgDB.NewInsert().
			Model(l).
			On("CONFLICT (owner_id) DO UPDATE").
			Set("channel_id = EXCLUDED.channel_id").
			Set("message_id = EXCLUDED.message_id").
			Set("duration_hours = EXCLUDED.duration_hours").
			Set("expires_at = EXCLUDED.expires_at").
			Set("last_bump_at = EXCLUDED.last_bump_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert listing for owner %s: %w", l.OwnerID, err)
		}
		imported++
	}

	m.stats["listings"] = imported
	slog.Info("Listings migrated",
		slog.String("type", "db"),
		slog.Int("input", len(docs)),
		slog.Int("imported", imported))
	return nil
}

func (m *Migrator) migrateListMessagesFile(ctx context.Context, path string) error {
	var docs []MongoListMessage
	if err := readBSONFile(path, func(raw []byte) error {
		var mm MongoListMessage
		if err := bson.Unmarshal(raw, &mm); err != nil {
			return err
		}
		docs = append(docs, mm)
		return nil
	}); err != nil {
		return err
	}
	return m.processListMessages(ctx, docs)
}

func (m *Migrator) migrateListMessagesFromMongo(ctx context.Context) error {
	cur, err := m.mongoDB.Collection("list_messages").Find(ctx, bson.D{})
	if err != nil {
		slog.Info("List messages collection not found, skipping", slog.String("type", "db"))
		return nil
	}
	defer cur.Close(ctx)

	var docs []MongoListMessage
	for cur.Next(ctx) {
		var mm MongoListMessage
		if err := cur.Decode(&mm); err != nil {
			continue
		}
		docs = append(docs, mm)
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return m.processListMessages(ctx, docs)
}

func (m *Migrator) processListMessages(ctx context.Context, docs []MongoListMessage) error {
	imported := 0
	for _, doc := range docs {
		if doc.Type != models.ListTypePinned && doc.Type != models.ListTypeChat {
			slog.Warn("Skipping list message with unknown type",
				slog.String("list_type", doc.Type))
			continue
		}
		row := convertListMessage(doc)
		_, err := m.pgDB.NewInsert().
			Model(row).
			On("CONFLICT (type) DO UPDATE").
			Set("channel_id = EXCLUDED.channel_id").
			Set("message_id = EXCLUDED.message_id").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert list message %s: %w", doc.Type, err)
		}
		imported++
	}

	m.stats["list_messages"] = imported
	return nil
}

func (m *Migrator) logStats(took time.Duration) {
	slog.Info("Migration completed",
		slog.String("type", "db"),
		slog.Int("profiles", m.stats["profiles"]),
		slog.Int("listings", m.stats["listings"]),
		slog.Int("list_messages", m.stats["list_messages"]),
		slog.Duration("took", took))
}

func convertProfile(doc MongoProfile) *models.Profile {
	now := time.Now()
	return &models.Profile{
		UserID:        strconv.FormatInt(doc.UserID, 10),
		DisplayName:   doc.DisplayName,
		About:         doc.About,
		Services:      orEmpty(doc.Services),
		Location:      doc.Location,
		Rates:         doc.Rates,
		ContactMethod: doc.ContactMethod,
		ContactInfo:   doc.ContactInfo,
		SocialLinks:   orEmpty(doc.SocialLinks),
		Disclaimer:    doc.Disclaimer,
		AllowComments: doc.AllowComments,
		MediaURLs:     orEmpty(doc.MediaURLs),
		CreatedAt:     timeOr(doc.CreatedAt, now),
		UpdatedAt:     timeOr(doc.UpdatedAt, now),
	}
}

func convertListing(doc MongoListing) *models.Listing {
	now := time.Now()
	created := timeOr(doc.CreatedAt, now)
	return &models.Listing{
		OwnerID:       strconv.FormatInt(doc.UserID, 10),
		ChannelID:     snowflake.ID(doc.ChannelID),
		MessageID:     snowflake.ID(doc.MessageID),
		DurationHours: doc.DurationHours,
		ExpiresAt:     timeOr(doc.ExpiresAt, created),
		LastBumpAt:    timeOr(doc.LastBumpAt, created),
		CreatedAt:     created,
	}
}

func convertListMessage(doc MongoListMessage) *models.ListMessage {
	return &models.ListMessage{
		Type:      doc.Type,
		ChannelID: snowflake.ID(doc.ChannelID),
		MessageID: snowflake.ID(doc.MessageID),
		UpdatedAt: timeOr(doc.UpdatedAt, time.Now()),
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func timeOr(t *time.Time, fallback time.Time) time.Time {
	if t == nil || t.IsZero() {
		return fallback
	}
	return *t
}

// readBSONFile walks a mongodump file, a stream of length-prefixed BSON
// documents, calling fn with each raw document.
func readBSONFile(path string, fn func(raw []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open BSON file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	for {
		lengthBytes := make([]byte, 4)
		if _, err := io.ReadFull(reader, lengthBytes); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("failed to read document length: %w", err)
		}

		length := int32(binary.LittleEndian.Uint32(lengthBytes))
		if length <= 4 {
			return fmt.Errorf("invalid document length: %d", length)
		}

		docBytes := make([]byte, length-4)
		if _, err := io.ReadFull(reader, docBytes); err != nil {
			return fmt.Errorf("failed to read document bytes: %w", err)
		}

		if err := fn(append(lengthBytes, docBytes...)); err != nil {
			return fmt.Errorf("failed to decode BSON document: %w", err)
		}
	}
}
