package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/seureview/content-engine/internal/models"
)

// APIKeyStore persists the per-user third-party credential blob.
type APIKeyStore struct {
	db *sqlx.DB
}

func NewAPIKeyStore(db *sqlx.DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Get returns the stored blob, or an empty one when the user has never
// saved keys.
func (s *APIKeyStore) Get(ctx context.Context, userID string) (models.APIKeyBlob, error) {
	var row models.UserAPIKeys
	err := s.db.GetContext(ctx, &row,
		"SELECT user_id, keys, updated_at FROM user_api_keys WHERE user_id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.APIKeyBlob{}, nil
		}
		return nil, fmt.Errorf("failed to fetch api keys: %w", err)
	}

	blob := models.APIKeyBlob{}
	if len(row.Keys) > 0 {
		if err := json.Unmarshal(row.Keys, &blob); err != nil {
			return nil, fmt.Errorf("stored api keys are corrupt: %w", err)
		}
	}
	return blob, nil
}

// Upsert merges the incoming fields into the stored blob and writes the
// result back. Empty incoming values do not erase stored ones; the form
// posts only what changed.
func (s *APIKeyStore) Upsert(ctx context.Context, userID string, incoming models.APIKeyBlob) (models.APIKeyBlob, error) {
	existing, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	for k, v := range incoming {
		if v == "" {
			continue
		}
		existing[k] = v
	}

	raw, err := json.Marshal(existing)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal api keys: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_api_keys (user_id, keys, updated_at)
		 VALUES ($1, $2, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id) DO UPDATE SET keys = $2, updated_at = CURRENT_TIMESTAMP`,
		userID, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to save api keys: %w", err)
	}
	return existing, nil
}

// HasShopeeCredentials reports whether a marketplace search can run.
func (s *APIKeyStore) HasShopeeCredentials(ctx context.Context, userID string) (bool, error) {
	blob, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return blob[models.KeyShopeeAppID] != "" && blob[models.KeyShopeePassword] != "", nil
}

var shopeeAppIDPattern = regexp.MustCompile(`^\d{6,}$`)

// ValidateKey classifies a credential value for the settings form's
// status indicator. Purely presentational: an "invalid" value is still
// saved (the real providers are the only authority).
func ValidateKey(name, value string) string {
	if value == "" {
		return models.KeyStatusEmpty
	}
	switch name {
	case models.KeyStripePublic:
		if strings.HasPrefix(value, "pk_") && len(value) > 10 {
			return models.KeyStatusValid
		}
	case models.KeyStripeSecret:
		if strings.HasPrefix(value, "sk_") && len(value) > 10 {
			return models.KeyStatusValid
		}
	case models.KeyShopeeAppID:
		if shopeeAppIDPattern.MatchString(value) {
			return models.KeyStatusValid
		}
	case models.KeyShopeePassword:
		if len(value) >= 8 {
			return models.KeyStatusValid
		}
	case models.KeySubID:
		if len(value) >= 3 && !strings.ContainsAny(value, " \t") {
			return models.KeyStatusValid
		}
	default:
		if len(value) >= 10 {
			return models.KeyStatusValid
		}
	}
	return models.KeyStatusInvalid
}

// ValidateBlob returns the status map for a whole blob.
func ValidateBlob(blob models.APIKeyBlob) map[string]string {
	statuses := make(map[string]string, len(blob))
	for k, v := range blob {
		statuses[k] = ValidateKey(k, v)
	}
	return statuses
}
