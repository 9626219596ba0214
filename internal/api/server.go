package api

import (
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	jwtware "github.com/gofiber/jwt/v3"
	jwtv4 "github.com/golang-jwt/jwt/v4"

	"github.com/seureview/content-engine/internal/artifacts"
	"github.com/seureview/content-engine/internal/config"
	"github.com/seureview/content-engine/internal/genai"
	"github.com/seureview/content-engine/internal/marketplace"
	"github.com/seureview/content-engine/internal/pkg/supabase"
	"github.com/seureview/content-engine/internal/session"
	"github.com/seureview/content-engine/internal/store"
	"github.com/seureview/content-engine/pkg/database"
)

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	db       *database.Clients
	producer sarama.SyncProducer
	logger   *slog.Logger

	auth       supabase.AuthAPI
	gen        genai.Generator
	market     marketplace.API
	artifacts  artifacts.Store
	controller *session.Controller
	selections *session.Selections

	profiles *store.ProfileStore
	keys     *store.APIKeyStore
	bots     *store.BotConfigStore
	activity *store.ActivityStore
}

func NewServer(cfg *config.Config, db *database.Clients, producer sarama.SyncProducer, auth supabase.AuthAPI, gen genai.Generator, market marketplace.API) (*Server, error) {
	// Initialize artifact storage for generated images
	localStore, err := artifacts.NewLocalStore(cfg.Storage.TempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact storage: %w", err)
	}

	app := fiber.New()

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status}\n",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RequestTimeout,
	}))
	app.Use(cache.New(cache.Config{
		Expiration:   cfg.Server.CacheExpiration,
		CacheControl: true,
		Next: func(c *fiber.Ctx) bool {
			// Only landing-page style GETs are cacheable.
			return c.Method() != fiber.MethodGet
		},
	}))

	profiles := store.NewProfileStore(db.DB)

	server := &Server{
		app:        app,
		cfg:        cfg,
		db:         db,
		producer:   producer,
		logger:     slog.Default(),
		auth:       auth,
		gen:        gen,
		market:     market,
		artifacts:  localStore,
		controller: session.NewController(auth, profiles, slog.Default()),
		selections: session.NewSelections(),
		profiles:   profiles,
		keys:       store.NewAPIKeyStore(db.DB),
		bots:       store.NewBotConfigStore(db.DB),
		activity:   store.NewActivityStore(db.Redis),
	}

	// Routes
	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	api := s.app.Group("/api")

	// Public routes
	api.Post("/auth/login", s.handleLogin)
	api.Post("/auth/register", s.handleRegister)
	api.Post("/auth/callback", s.handleOAuthCallback)
	api.Post("/plans/select", s.handleSelectPlan)

	// Protected routes
	protected := api.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(s.cfg.JWT.Secret),
	}))

	protected.Post("/auth/logout", s.handleLogout)
	protected.Post("/plans/confirm", s.handlePaymentConfirm)
	protected.Get("/session", s.handleSessionState)

	protected.Get("/profile", s.handleGetProfile)
	protected.Put("/profile", s.handleUpdateProfile)

	protected.Post("/products/search", s.handleSearchProducts)
	protected.Post("/products/select", s.handleSelectProduct)
	protected.Put("/products/compare-mode", s.handleCompareMode)
	protected.Post("/products/compare", s.handleCompareProducts)
	protected.Post("/products/affiliate-link", s.handleAffiliateLink)

	protected.Post("/content/post", s.handleGeneratePost)
	protected.Post("/content/blog", s.handleGenerateBlogPost)
	protected.Post("/content/video-script", s.handleGenerateVideoScript)
	protected.Post("/content/reels", s.handleGenerateReels)
	protected.Post("/content/image", s.handleGenerateImage)
	protected.Post("/content/suggestions", s.handleSuggestions)
	protected.Post("/content/chat", s.handleChat)

	protected.Get("/history", s.handleHistory)
	protected.Get("/schedule", s.handleListScheduled)
	protected.Post("/schedule", s.handleSchedulePost)
	protected.Delete("/schedule/:id", s.handleCancelScheduled)

	protected.Get("/settings/api-keys", s.handleGetAPIKeys)
	protected.Put("/settings/api-keys", s.handleSaveAPIKeys)
	protected.Get("/settings/bot", s.handleGetBotConfig)
	protected.Put("/settings/bot", s.handleSaveBotConfig)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// userID extracts the authenticated user id from the verified JWT.
func userID(c *fiber.Ctx) string {
	token, ok := c.Locals("user").(*jwtv4.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(jwtv4.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

// userEmail extracts the authenticated user's email from the verified JWT.
func userEmail(c *fiber.Ctx) string {
	token, ok := c.Locals("user").(*jwtv4.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(jwtv4.MapClaims)
	if !ok {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}
