package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/seureview/content-engine/internal/models"
	"github.com/seureview/content-engine/internal/pkg/supabase"
	"github.com/seureview/content-engine/internal/session"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Plan     string `json:"plan"`
}

type CallbackRequest struct {
	Code     string `json:"code"`
	Verifier string `json:"code_verifier"`
}

type SessionResponse struct {
	Token     string            `json:"token"`
	TokenType string            `json:"type"`
	FlowState session.FlowState `json:"flow_state"`
	Profile   *models.Profile   `json:"profile"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and password are required",
		})
	}

	s.logger.Info("Authentication attempt", "email", req.Email)

	sess, err := s.auth.SignIn(c.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Error("Authentication error", "error", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	return s.completeSession(c, sess)
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and password are required",
		})
	}

	if req.Plan != "" {
		s.controller.SelectPlan(req.Email, req.Plan)
	}

	if err := s.auth.SignUp(c.Context(), req.Email, req.Password, req.FullName); err != nil {
		s.logger.Error("Registration error", "error", err, "email", req.Email)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Registration failed",
		})
	}

	s.logger.Info("User registered", "email", req.Email)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"flow_state": session.StatePayment,
	})
}

// handleOAuthCallback finishes an OAuth login by exchanging the
// authorization code for a session. The controller guarantees a code is
// exchanged at most once across repeated submissions.
func (s *Server) handleOAuthCallback(c *fiber.Ctx) error {
	var req CallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Authorization code is required",
		})
	}

	sess, err := s.controller.ExchangeCode(c.Context(), req.Code, req.Verifier)
	if err != nil {
		if errors.Is(err, models.ErrCodeAlreadyExchanged) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Authorization code already exchanged",
			})
		}
		s.logger.Error("Code exchange failed", "error", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Code exchange failed",
		})
	}

	return s.completeSession(c, sess)
}

// completeSession provisions the profile and mints the API token. Profile
// provisioning failures fail closed: the Supabase session is torn down
// and the caller goes back to the landing state.
func (s *Server) completeSession(c *fiber.Ctx, sess *supabase.Session) error {
	planHint := s.controller.PendingPlan(sess.User.Email)

	profile, err := s.controller.EnsureProfile(c.Context(), sess, planHint)
	if err != nil {
		s.logger.Error("Profile provisioning failed", "error", err, "user_id", sess.User.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":      "Could not load your profile, please try again",
			"flow_state": session.StateLanding,
		})
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sess.User.ID,
		"email": sess.User.Email,
		"plan":  profile.Plan,
		"exp":   time.Now().Add(s.cfg.JWT.Expiration).Unix(),
		"iat":   time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	flow := s.controller.Resolve(true, true, planHint)

	s.logger.Info("User successfully authenticated", "user_id", sess.User.ID, "flow", flow)

	return c.JSON(SessionResponse{
		Token:     tokenString,
		TokenType: "Bearer",
		FlowState: flow,
		Profile:   profile,
	})
}

// handleSelectPlan records a plan choice made on the landing page before
// the user has an account.
func (s *Server) handleSelectPlan(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Plan  string `json:"plan"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Email == "" || req.Plan == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and plan are required",
		})
	}

	s.controller.SelectPlan(req.Email, req.Plan)
	return c.JSON(fiber.Map{
		"flow_state": session.StateRegister,
		"plan":       models.NormalizePlan(req.Plan),
	})
}

// handlePaymentConfirm closes the payment step: the pending plan choice
// is consumed and the user moves on to the dashboard. Without this the
// payment state would be sticky across logins.
func (s *Server) handlePaymentConfirm(c *fiber.Ctx) error {
	uid := userID(c)

	// Pending plans are keyed by the flow's email before an account
	// exists and may linger under the user id as well.
	if email := userEmail(c); email != "" {
		s.controller.ClearPlan(email)
	}
	s.controller.ClearPlan(uid)

	s.logger.Info("Payment confirmed", "user_id", uid)
	return c.JSON(fiber.Map{
		"flow_state": session.StateDashboard,
	})
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	uid := userID(c)

	// Best effort: the bearer token used against this API is not the
	// Supabase token, so there is nothing to revoke upstream here beyond
	// clearing flow state.
	s.controller.ClearPlan(uid)
	s.selections.ForUser(uid).SetCompareMode(false)

	s.logger.Info("User logged out", "user_id", uid)
	return c.JSON(fiber.Map{
		"flow_state": session.StateLanding,
	})
}

func (s *Server) handleSessionState(c *fiber.Ctx) error {
	uid := userID(c)

	profile, err := s.profiles.Get(c.Context(), uid)
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			return c.JSON(fiber.Map{
				"flow_state": session.StateLanding,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load session",
		})
	}

	return c.JSON(fiber.Map{
		"flow_state": session.StateDashboard,
		"profile":    profile,
	})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": msg,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
