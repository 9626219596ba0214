package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/seureview/content-engine/internal/config"
	"github.com/seureview/content-engine/internal/marketplace"
	"github.com/seureview/content-engine/internal/models"
	"github.com/seureview/content-engine/internal/store"
	"github.com/seureview/content-engine/pkg/database"
)

// Worker consumes content events and talks to the automation webhook:
// it delivers scheduled posts when they come due and forwards comment-bot
// config updates.
type Worker struct {
	cfg      *config.Config
	db       *database.Clients
	consumer sarama.ConsumerGroup
	market   marketplace.API
	activity *store.ActivityStore
	ready    chan bool
}

func NewWorker(cfg *config.Config, db *database.Clients, consumer sarama.ConsumerGroup, market marketplace.API) *Worker {
	return &Worker{
		cfg:      cfg,
		db:       db,
		consumer: consumer,
		market:   market,
		activity: store.NewActivityStore(db.Redis),
		ready:    make(chan bool),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	topics := []string{w.cfg.Kafka.Topic}
	slog.Info("Starting worker", "topics", topics)

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start error logging for consumer errors
	go func() {
		for err := range w.consumer.Errors() {
			slog.Error("Kafka consumer error received", "error", err)
		}
	}()

	// Start consuming messages
	go func() {
		for {
			if err := w.consumer.Consume(ctx, topics, w); err != nil {
				slog.Error("Error from consumer.Consume", "error", err)
			}
			if ctx.Err() != nil {
				return
			}
			// Reset the ready channel after a new session is created
			w.ready = make(chan bool)
		}
	}()

	<-w.ready // Wait till the consumer has been set up
	slog.Info("Worker setup complete; consumer ready")

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("Context cancelled; shutting down worker")
	}

	slog.Info("Worker shutting down gracefully")
	return nil
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	close(w.ready)
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
// Each event is handled in its own goroutine: a post scheduled far in the
// future waits until due, and that wait must not stall the rest of the
// partition. Offsets are marked up front; the schedule in Redis is the
// source of truth for what still needs delivering.
func (w *Worker) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	var wg sync.WaitGroup
	for message := range claim.Messages() {
		raw := message.Value
		offset := message.Offset
		session.MarkMessage(message, "")

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.ProcessMessage(session.Context(), raw); err != nil {
				slog.Error("Failed to process event", "error", err, "offset", offset)
			}
		}()
	}
	wg.Wait()
	return nil
}

// ProcessMessage handles one event envelope.
func (w *Worker) ProcessMessage(ctx context.Context, raw []byte) error {
	var event models.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("failed to parse event: %w", err)
	}

	switch event.Type {
	case models.EventPostScheduled:
		if event.Post == nil {
			return fmt.Errorf("post.scheduled event without post")
		}
		return w.deliverScheduledPost(ctx, event.UserID, *event.Post)
	case models.EventAutomationUpdate:
		if event.Bot == nil {
			return fmt.Errorf("automation.updated event without config")
		}
		return w.forwardAutomation(ctx, *event.Bot)
	default:
		slog.Warn("Ignoring unknown event type", "type", event.Type)
		return nil
	}
}

// deliverScheduledPost waits until the post is due, re-checks it was not
// cancelled in the meantime, and hands it to the automation webhook.
func (w *Worker) deliverScheduledPost(ctx context.Context, userID string, post models.ScheduledPost) error {
	if wait := time.Until(post.ScheduledAt); wait > 0 {
		slog.Info("Waiting for scheduled post", "post_id", post.ID, "wait", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// Cancellation wins over delivery.
	queued, err := w.activity.HasScheduled(ctx, userID, post.ID)
	if err != nil {
		return fmt.Errorf("failed to check schedule: %w", err)
	}
	if !queued {
		slog.Info("Scheduled post cancelled before delivery", "post_id", post.ID)
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= w.cfg.Kafka.RetryMax; attempt++ {
		lastErr = w.market.PublishPost(ctx, userID, post)
		if lastErr == nil {
			break
		}
		slog.Error("Post delivery failed", "post_id", post.ID, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(w.cfg.Kafka.RetryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if lastErr != nil {
		if err := w.activity.SetDeliveryStatus(ctx, userID, post.ID, models.DeliveryFailed); err != nil {
			slog.Error("Failed to record delivery failure", "error", err)
		}
		return fmt.Errorf("delivery failed after %d attempts: %w", w.cfg.Kafka.RetryMax, lastErr)
	}

	if _, err := w.activity.CancelScheduled(ctx, userID, post.ID); err != nil {
		slog.Error("Failed to remove delivered post from schedule", "error", err)
	}
	if err := w.activity.SetDeliveryStatus(ctx, userID, post.ID, models.DeliveryPublished); err != nil {
		slog.Error("Failed to record delivery", "error", err)
	}

	slog.Info("Scheduled post delivered", "post_id", post.ID, "user_id", userID)
	return nil
}

func (w *Worker) forwardAutomation(ctx context.Context, cfg models.BotConfig) error {
	var lastErr error
	for attempt := 1; attempt <= w.cfg.Kafka.RetryMax; attempt++ {
		lastErr = w.market.NotifyAutomation(ctx, cfg)
		if lastErr == nil {
			return nil
		}
		slog.Error("Automation forwarding failed", "user_id", cfg.UserID, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(w.cfg.Kafka.RetryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("automation forwarding failed after %d attempts: %w", w.cfg.Kafka.RetryMax, lastErr)
}
