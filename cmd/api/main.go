package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/seureview/content-engine/internal/api"
	"github.com/seureview/content-engine/internal/config"
	"github.com/seureview/content-engine/internal/genai"
	"github.com/seureview/content-engine/internal/marketplace"
	"github.com/seureview/content-engine/internal/pkg/supabase"
	"github.com/seureview/content-engine/pkg/database"
	"github.com/seureview/content-engine/pkg/kafka"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database clients
	db, err := database.NewClients(cfg.Database.URL, cfg.Redis.Addr)
	if err != nil {
		slog.Error("Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.DB.Close()
	slog.Info("✅ Connected to databases")

	if err := db.CreateTables(); err != nil {
		slog.Error("Failed to bootstrap row storage", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer
	producer, err := kafka.NewProducer(cfg.Kafka.Broker, cfg.Kafka.RetryMax, cfg.Kafka.RetryBackoff)
	if err != nil {
		slog.Error("Failed to create Kafka producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()
	slog.Info("✅ Connected to Kafka")

	// Initialize the auth backend
	auth, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey)
	if err != nil {
		slog.Error("Failed to create auth client", "error", err)
		os.Exit(1)
	}
	if err := auth.Healthcheck(); err != nil {
		slog.Error("Auth backend unreachable", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to auth backend")

	// Initialize the content generator
	ctx := context.Background()
	gen, err := genai.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.ImageModel)
	if err != nil {
		slog.Error("Failed to create generation client", "error", err)
		os.Exit(1)
	}
	defer gen.Close()
	slog.Info("✅ Connected to generation backend")

	market := marketplace.NewClient(cfg.Webhook.BaseURL)

	// Create and start server
	server, err := api.NewServer(cfg, db, producer, auth, gen, market)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}
	if err := server.Start(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
