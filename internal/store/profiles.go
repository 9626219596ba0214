package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/seureview/content-engine/internal/models"
)

// ProfileStore persists user profiles in Postgres.
type ProfileStore struct {
	db *sqlx.DB
}

func NewProfileStore(db *sqlx.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.GetContext(ctx, &p,
		"SELECT id, full_name, avatar_url, plan, credits, stripe_customer_id, created_at FROM profiles WHERE id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &p, nil
}

// Insert creates a profile if none exists. The write is idempotent: on
// conflict the existing row wins and is returned, so two concurrent
// ensure-profile calls converge on a single row.
func (s *ProfileStore) Insert(ctx context.Context, p models.Profile) (*models.Profile, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, full_name, avatar_url, plan, credits)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		p.ID, p.FullName, p.AvatarURL, p.Plan, p.Credits)
	if err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}
	return s.Get(ctx, p.ID)
}

func (s *ProfileStore) Update(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Profile, error) {
	_, err := s.db.ExecContext(ctx,
		"UPDATE profiles SET full_name = $2, avatar_url = $3 WHERE id = $1",
		userID, req.FullName, req.AvatarURL)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.Get(ctx, userID)
}

// ConsumeCredits atomically deducts n credits, refusing to go negative.
func (s *ProfileStore) ConsumeCredits(ctx context.Context, userID string, n int) (int, error) {
	var remaining int
	err := s.db.QueryRowContext(ctx,
		"UPDATE profiles SET credits = credits - $2 WHERE id = $1 AND credits >= $2 RETURNING credits",
		userID, n).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, models.ErrInsufficientCredits
		}
		return 0, fmt.Errorf("failed to consume credits: %w", err)
	}
	return remaining, nil
}
