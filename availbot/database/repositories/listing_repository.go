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

var ErrDuplicateListing = errors.New("owner already has an active listing")

type ListingRepository interface {
	GetByOwner(ctx context.Context, ownerID string) (*models.Listing, error)
	GetAll(ctx context.Context) ([]*models.Listing, error)
	Create(ctx context.Context, listing *models.Listing) error
	Update(ctx context.Context, listing *models.Listing) error
	Delete(ctx context.Context, id int64) error
}

type listingRepository struct {
	db *bun.DB
}

func NewListingRepository(db *bun.DB) ListingRepository {
	return &listingRepository{db: db}
}

// GetByOwner returns the owner's active listing, or nil when none exists.
func (r *listingRepository) GetByOwner(ctx context.Context, ownerID string) (*models.Listing, error) {
	listing := new(models.Listing)
	err := r.db.NewSelect().
		Model(listing).
		Where("owner_id = ?", ownerID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing for owner %s: %w", ownerID, err)
	}
	return listing, nil
}

// GetAll returns every active listing, most recently bumped first.
func (r *listingRepository) GetAll(ctx context.Context) ([]*models.Listing, error) {
	var listings []*models.Listing
	err := r.db.NewSelect().
		Model(&listings).
		Order("last_bump_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = time.Now()
	}
	_, err := r.db.NewInsert().
		Model(listing).
		Returning("id").
		Exec(ctx)
	if err != nil {
		slog.Error("Failed to create listing",
			slog.String("type", "db"),
			slog.String("owner_id", listing.OwnerID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	_, err := r.db.NewUpdate().
		Model(listing).
		Column("message_id", "channel_id", "duration_hours", "expires_at", "last_bump_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update listing %d: %w", listing.ID, err)
	}
	return nil
}

// Delete removes a listing record. Deleting an already-absent id is not an
// error, which keeps expiry idempotent.
func (r *listingRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*models.Listing)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete listing %d: %w", id, err)
	}
	return nil
}
