package api

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/seureview/content-engine/internal/models"
)

func (s *Server) handleHistory(c *fiber.Ctx) error {
	items, err := s.activity.History(c.Context(), userID(c))
	if err != nil {
		s.logger.Error("Failed to load history", "error", err)
		return internalError(c, "Failed to load history")
	}

	return c.JSON(fiber.Map{
		"history": items,
	})
}

type SchedulePostRequest struct {
	Product     models.ProductOption `json:"product"`
	Content     models.PostContent   `json:"content"`
	ScheduledAt time.Time            `json:"scheduled_at"`
}

// handleSchedulePost queues a post for publication: it lands in the
// user's sorted schedule and an event goes to the worker that will
// deliver it when due.
func (s *Server) handleSchedulePost(c *fiber.Ctx) error {
	var req SchedulePostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ScheduledAt.IsZero() {
		return badRequest(c, "Scheduled time is required")
	}
	if req.ScheduledAt.Before(time.Now()) {
		return badRequest(c, "Scheduled time must be in the future")
	}
	if err := req.Content.Validate(); err != nil {
		return badRequest(c, "Post content is incomplete")
	}

	uid := userID(c)
	post := models.ScheduledPost{
		ID:          uuid.NewString(),
		Product:     req.Product,
		Content:     req.Content,
		ScheduledAt: req.ScheduledAt,
	}

	if err := s.activity.Schedule(c.Context(), uid, post); err != nil {
		s.logger.Error("Failed to store scheduled post", "error", err, "user_id", uid)
		return internalError(c, "Failed to schedule post")
	}

	event := models.Event{
		Type:      models.EventPostScheduled,
		UserID:    uid,
		Post:      &post,
		EmittedAt: time.Now().UTC(),
	}
	eventBytes, _ := json.Marshal(event)
	msg := &sarama.ProducerMessage{
		Topic: s.cfg.Kafka.Topic,
		Key:   sarama.StringEncoder(uid),
		Value: sarama.StringEncoder(eventBytes),
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		// Roll back so the schedule never shows a post nobody will
		// deliver.
		if _, cancelErr := s.activity.CancelScheduled(c.Context(), uid, post.ID); cancelErr != nil {
			s.logger.Error("Rollback of scheduled post failed", "error", cancelErr)
		}
		s.logger.Error("Failed to queue scheduled post", "error", err)
		return internalError(c, "Failed to schedule post")
	}

	return c.JSON(fiber.Map{
		"scheduled": post,
		"status":    models.DeliveryScheduled,
	})
}

func (s *Server) handleListScheduled(c *fiber.Ctx) error {
	uid := userID(c)

	posts, err := s.activity.Scheduled(c.Context(), uid)
	if err != nil {
		s.logger.Error("Failed to load scheduled posts", "error", err)
		return internalError(c, "Failed to load scheduled posts")
	}

	statuses := make(map[string]string, len(posts))
	for _, p := range posts {
		if status, err := s.activity.DeliveryStatus(c.Context(), uid, p.ID); err == nil && status != "" {
			statuses[p.ID] = status
		}
	}

	return c.JSON(fiber.Map{
		"scheduled": posts,
		"statuses":  statuses,
	})
}

func (s *Server) handleCancelScheduled(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Scheduled post id is required")
	}

	removed, err := s.activity.CancelScheduled(c.Context(), userID(c), id)
	if err != nil {
		s.logger.Error("Failed to cancel scheduled post", "error", err)
		return internalError(c, "Failed to cancel scheduled post")
	}
	if !removed {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Scheduled post not found",
		})
	}

	return c.JSON(fiber.Map{
		"cancelled": id,
	})
}
