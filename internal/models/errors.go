package models

import "errors"

// Sentinel errors shared across layers. Handlers map these to HTTP
// statuses; everything else is wrapped with fmt.Errorf and %w.
var (
	// ErrProfileNotFound means no profiles row exists for the user yet.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrInsufficientCredits means a generation was requested with an
	// exhausted credit balance.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrMissingMarketplaceKeys means the user has not stored the
	// marketplace credentials a search requires.
	ErrMissingMarketplaceKeys = errors.New("marketplace API keys not configured")

	// ErrNoProducts means the search succeeded but returned nothing.
	ErrNoProducts = errors.New("no products found for this search")

	// ErrMalformedProduct means the webhook returned a row without the
	// fields the UI needs.
	ErrMalformedProduct = errors.New("malformed product in search response")

	// ErrCodeAlreadyExchanged guards the one-time OAuth code exchange.
	ErrCodeAlreadyExchanged = errors.New("authorization code already exchanged")

	// ErrVideoNotConfigured is returned by the reels generator while the
	// video backend is disabled.
	ErrVideoNotConfigured = errors.New("video generation is not configured")
)
