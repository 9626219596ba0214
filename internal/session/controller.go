// Package session implements the authentication bootstrap flow: code
// exchange, profile provisioning, plan selection, and the flow-state
// machine that decides which surface a user lands on.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seureview/content-engine/internal/models"
	"github.com/seureview/content-engine/internal/pkg/supabase"
	"github.com/seureview/content-engine/internal/store"
)

// FlowState is where the user is in the signup/login funnel.
type FlowState string

const (
	StateLanding   FlowState = "landing"
	StateLogin     FlowState = "login"
	StateRegister  FlowState = "register"
	StatePayment   FlowState = "payment"
	StateContact   FlowState = "contact"
	StateDashboard FlowState = "dashboard"
)

// defaultRetryDelay is how long to wait for the backend's own profile
// creation trigger before retrying the fetch.
const defaultRetryDelay = 1500 * time.Millisecond

// Controller owns the bootstrap state that the original kept in browser
// storage: which authorization codes were already exchanged and which
// plan each user picked before paying. Both are explicit state here, not
// storage side-channels.
type Controller struct {
	auth     supabase.AuthAPI
	profiles *store.ProfileStore
	logger   *slog.Logger

	retryDelay time.Duration

	mu        sync.Mutex
	exchanged map[string]struct{}
	plans     map[string]string
}

func NewController(auth supabase.AuthAPI, profiles *store.ProfileStore, logger *slog.Logger) *Controller {
	return &Controller{
		auth:       auth,
		profiles:   profiles,
		logger:     logger,
		retryDelay: defaultRetryDelay,
		exchanged:  make(map[string]struct{}),
		plans:      make(map[string]string),
	}
}

// SetRetryDelay overrides how long EnsureProfile waits before its second
// fetch.
func (c *Controller) SetRetryDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryDelay = d
}

// ExchangeCode trades an OAuth authorization code for a session exactly
// once. A second attempt with the same code fails locally instead of
// being rejected by the backend.
func (c *Controller) ExchangeCode(ctx context.Context, code, verifier string) (*supabase.Session, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code is required")
	}

	c.mu.Lock()
	if _, done := c.exchanged[code]; done {
		c.mu.Unlock()
		return nil, models.ErrCodeAlreadyExchanged
	}
	c.exchanged[code] = struct{}{}
	c.mu.Unlock()

	sess, err := c.auth.ExchangeCode(ctx, code, verifier)
	if err != nil {
		// The exchange never happened; let the caller retry with the
		// same code.
		c.mu.Lock()
		delete(c.exchanged, code)
		c.mu.Unlock()
		return nil, err
	}
	return sess, nil
}

// SelectPlan records a pending plan choice for a registration flow.
func (c *Controller) SelectPlan(flowKey, plan string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[flowKey] = models.NormalizePlan(plan)
}

// PendingPlan returns the plan chosen earlier in this flow, if any.
func (c *Controller) PendingPlan(flowKey string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plans[flowKey]
}

// ClearPlan forgets the pending choice (payment done or flow abandoned).
func (c *Controller) ClearPlan(flowKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.plans, flowKey)
}

// EnsureProfile resolves the profile for an authenticated user: fetch,
// wait out the backend's creation trigger and retry once, then fall back
// to inserting a default profile with credits derived from the pending
// plan. If even the fallback fails the session is torn down and the user
// goes back to the landing state. Fail closed.
func (c *Controller) EnsureProfile(ctx context.Context, sess *supabase.Session, planHint string) (*models.Profile, error) {
	p, err := c.profiles.Get(ctx, sess.User.ID)
	if err == nil {
		return normalizeCredits(p), nil
	}
	if !errors.Is(err, models.ErrProfileNotFound) {
		return nil, err
	}

	// Give the backend trigger a moment, then look again.
	select {
	case <-time.After(c.retryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	p, err = c.profiles.Get(ctx, sess.User.ID)
	if err == nil {
		return normalizeCredits(p), nil
	}
	if !errors.Is(err, models.ErrProfileNotFound) {
		return nil, err
	}

	c.logger.Warn("profile missing after retry, creating fallback", "user_id", sess.User.ID)

	plan := models.NormalizePlan(planHint)
	fullName := sess.User.FullName
	if fullName == "" {
		fullName = sess.User.Email
	}
	if fullName == "" {
		fullName = "Novo Usuário"
	}

	p, err = c.profiles.Insert(ctx, models.Profile{
		ID:        sess.User.ID,
		FullName:  fullName,
		AvatarURL: sess.User.AvatarURL,
		Plan:      plan,
		Credits:   models.CreditsForPlan(plan),
	})
	if err != nil {
		c.logger.Error("profile fallback insert failed, signing out", "user_id", sess.User.ID, "error", err)
		if soErr := c.auth.SignOut(ctx, sess.AccessToken); soErr != nil {
			c.logger.Error("sign out after failed provisioning also failed", "error", soErr)
		}
		return nil, fmt.Errorf("profile provisioning failed: %w", err)
	}
	return normalizeCredits(p), nil
}

// Resolve maps the current session/profile/plan situation onto a flow
// state.
func (c *Controller) Resolve(hasSession, hasProfile bool, pendingPlan string) FlowState {
	if !hasSession || !hasProfile {
		return StateLanding
	}
	if pendingPlan != "" {
		return StatePayment
	}
	return StateDashboard
}

// normalizeCredits backfills a zero credit balance with the plan default.
// Old rows created before the credits column had a default carry zeros.
func normalizeCredits(p *models.Profile) *models.Profile {
	if p.Credits == 0 {
		p.Credits = models.CreditsForPlan(p.Plan)
	}
	return p
}
