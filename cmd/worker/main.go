package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/seureview/content-engine/internal/config"
	"github.com/seureview/content-engine/internal/marketplace"
	"github.com/seureview/content-engine/internal/worker"
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

	// Initialize Kafka consumer
	consumer, err := kafka.NewConsumer(cfg.Kafka.Broker, cfg.Kafka.Group)
	if err != nil {
		slog.Error("Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()
	slog.Info("✅ Connected to Kafka")

	market := marketplace.NewClient(cfg.Webhook.BaseURL)

	// Create and start worker
	w := worker.NewWorker(cfg, db, consumer, market)

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		slog.Error("Worker error", "error", err)
		os.Exit(1)
	}
}
