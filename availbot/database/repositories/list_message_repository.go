package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/availboard/availbot/availbot/database/models"
	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

type ListMessageRepository interface {
	Get(ctx context.Context, listType string) (*models.ListMessage, error)
	Set(ctx context.Context, listType string, channelID, messageID snowflake.ID) error
}

type listMessageRepository struct {
	db *bun.DB
}

func NewListMessageRepository(db *bun.DB) ListMessageRepository {
	return &listMessageRepository{db: db}
}

// Get returns the pointer for the given view, or nil when it has never been
// posted.
func (r *listMessageRepository) Get(ctx context.Context, listType string) (*models.ListMessage, error) {
	msg := new(models.ListMessage)
	err := r.db.NewSelect().
		Model(msg).
		Where("type = ?", listType).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get list message %s: %w", listType, err)
	}
	return msg, nil
}

// Set upserts the pointer for the given view, keyed by type.
func (r *listMessageRepository) Set(ctx context.Context, listType string, channelID, messageID snowflake.ID) error {
	msg := &models.ListMessage{
		Type:      listType,
		ChannelID: channelID,
		MessageID: messageID,
		UpdatedAt: time.Now(),
	}
	_, err := r.db.NewInsert().
		Model(msg).
		On("CONFLICT (type) DO UPDATE").
		Set("channel_id = EXCLUDED.channel_id").
		Set("message_id = EXCLUDED.message_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set list message %s: %w", listType, err)
	}
	return nil
}
