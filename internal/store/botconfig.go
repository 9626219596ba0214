package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/seureview/content-engine/internal/models"
)

// BotConfigStore persists the comment-reply automation settings.
type BotConfigStore struct {
	db *sqlx.DB
}

func NewBotConfigStore(db *sqlx.DB) *BotConfigStore {
	return &BotConfigStore{db: db}
}

// Get returns the stored config, or a zero config when none was saved.
func (s *BotConfigStore) Get(ctx context.Context, userID string) (*models.BotConfig, error) {
	var cfg models.BotConfig
	err := s.db.GetContext(ctx, &cfg,
		"SELECT user_id, trigger_keyword, auto_reply, updated_at FROM bot_configs WHERE user_id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.BotConfig{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to fetch bot config: %w", err)
	}
	return &cfg, nil
}

func (s *BotConfigStore) Upsert(ctx context.Context, cfg models.BotConfig) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_configs (user_id, trigger_keyword, auto_reply, updated_at)
		 VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id) DO UPDATE SET trigger_keyword = $2, auto_reply = $3, updated_at = CURRENT_TIMESTAMP`,
		cfg.UserID, cfg.TriggerKeyword, cfg.AutoReply)
	if err != nil {
		return fmt.Errorf("failed to save bot config: %w", err)
	}
	return nil
}
