package models

import "time"

// APIKeyBlob is the per-user third-party credential set, stored as an
// opaque JSON object in user_api_keys.keys.
type APIKeyBlob map[string]string

// Well-known key names inside the blob.
const (
	KeyShopeeAppID    = "shopeeAppId"
	KeyShopeePassword = "shopeePassword"
	KeyMercadoLivre   = "mercadoLivre"
	KeyAmazon         = "amazon"
	KeyStripePublic   = "stripePublishableKey"
	KeyStripeSecret   = "stripeSecretKey"
	KeySubID          = "subId"
)

// Key validation statuses. These are presentational hints only and never
// block a write.
const (
	KeyStatusEmpty   = "empty"
	KeyStatusValid   = "valid"
	KeyStatusInvalid = "invalid"
)

// UserAPIKeys is the stored row for a user's credential blob.
type UserAPIKeys struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Keys      []byte    `json:"-" db:"keys"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BotConfig is the comment-reply automation for one user.
type BotConfig struct {
	UserID         string    `json:"user_id" db:"user_id"`
	TriggerKeyword string    `json:"trigger_keyword" db:"trigger_keyword"`
	AutoReply      string    `json:"auto_reply" db:"auto_reply"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
