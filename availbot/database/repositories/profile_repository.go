package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/availboard/availbot/availbot/database/models"
	"github.com/uptrace/bun"
)

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetAll(ctx context.Context) ([]*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, userID string) error
}

type profileRepository struct {
	db *bun.DB
}

func NewProfileRepository(db *bun.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// GetByUserID returns the user's profile, or nil when none exists.
func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	profile := new(models.Profile)
	err := r.db.NewSelect().
		Model(profile).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile for %s: %w", userID, err)
	}
	return profile, nil
}

func (r *profileRepository) GetAll(ctx context.Context) ([]*models.Profile, error) {
	var profiles []*models.Profile
	err := r.db.NewSelect().
		Model(&profiles).
		Order("display_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	return profiles, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	now := time.Now()
	profile.UpdatedAt = now
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}

	_, err := r.db.NewInsert().
		Model(profile).
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
		slog.Error("Failed to upsert profile",
			slog.String("type", "db"),
			slog.String("user_id", profile.UserID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// Delete removes the profile and, through the owner_id cascade, any active
// listing record the user still has.
func (r *profileRepository) Delete(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NewDelete().
		Model((*models.Listing)(nil)).
		Where("owner_id = ?", userID).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete listing for %s: %w", userID, err)
	}

	if _, err := tx.NewDelete().
		Model((*models.Profile)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete profile for %s: %w", userID, err)
	}

	return tx.Commit()
}
