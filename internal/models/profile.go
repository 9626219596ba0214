package models

import (
	"time"
)

// Plan tiers offered by the product.
const (
	PlanFree   = "FREE"
	PlanPro    = "PRO"
	PlanAgency = "AGENCY"
)

// Profile represents a user profile in the system
type Profile struct {
	ID               string    `json:"id" db:"id"` // UUID that matches auth.users.id
	FullName         string    `json:"full_name" db:"full_name"`
	AvatarURL        string    `json:"avatar_url" db:"avatar_url"`
	Plan             string    `json:"plan" db:"plan"`
	Credits          int       `json:"credits" db:"credits"`
	StripeCustomerID string    `json:"stripe_customer_id,omitempty" db:"stripe_customer_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// CreditsForPlan returns the signup credit allowance for a plan tier.
func CreditsForPlan(plan string) int {
	switch plan {
	case PlanPro:
		return 50
	case PlanAgency:
		return 150
	default:
		return 5
	}
}

// NormalizePlan maps unknown plan values to the free tier.
func NormalizePlan(plan string) string {
	switch plan {
	case PlanFree, PlanPro, PlanAgency:
		return plan
	default:
		return PlanFree
	}
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}
