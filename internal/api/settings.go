package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/IBM/sarama"
	"github.com/gofiber/fiber/v2"

	"github.com/seureview/content-engine/internal/models"
	"github.com/seureview/content-engine/internal/store"
)

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	profile, err := s.profiles.Get(c.Context(), userID(c))
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Profile not found",
			})
		}
		s.logger.Error("Failed to fetch profile", "error", err)
		return internalError(c, "Failed to fetch profile")
	}

	return c.JSON(fiber.Map{
		"profile": profile,
	})
}

func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.FullName == "" {
		return badRequest(c, "Full name is required")
	}

	profile, err := s.profiles.Update(c.Context(), userID(c), req)
	if err != nil {
		s.logger.Error("Failed to update profile", "error", err)
		return internalError(c, "Failed to update profile")
	}

	return c.JSON(fiber.Map{
		"profile": profile,
	})
}

// handleGetAPIKeys returns the stored credential blob plus the
// presentational status of each value.
func (s *Server) handleGetAPIKeys(c *fiber.Ctx) error {
	blob, err := s.keys.Get(c.Context(), userID(c))
	if err != nil {
		s.logger.Error("Failed to fetch api keys", "error", err)
		return internalError(c, "Failed to fetch API keys")
	}

	return c.JSON(fiber.Map{
		"keys":       blob,
		"validation": store.ValidateBlob(blob),
	})
}

// handleSaveAPIKeys merges the posted fields into the stored blob. Status
// heuristics never block the write.
func (s *Server) handleSaveAPIKeys(c *fiber.Ctx) error {
	var incoming models.APIKeyBlob
	if err := c.BodyParser(&incoming); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if len(incoming) == 0 {
		return badRequest(c, "No keys provided")
	}

	merged, err := s.keys.Upsert(c.Context(), userID(c), incoming)
	if err != nil {
		s.logger.Error("Failed to save api keys", "error", err)
		return internalError(c, "Failed to save API keys")
	}

	return c.JSON(fiber.Map{
		"keys":       merged,
		"validation": store.ValidateBlob(merged),
	})
}

func (s *Server) handleGetBotConfig(c *fiber.Ctx) error {
	cfg, err := s.bots.Get(c.Context(), userID(c))
	if err != nil {
		s.logger.Error("Failed to fetch bot config", "error", err)
		return internalError(c, "Failed to fetch bot config")
	}

	return c.JSON(fiber.Map{
		"bot": cfg,
	})
}

// handleSaveBotConfig persists the comment-bot automation and notifies
// the workflow server through the events topic.
func (s *Server) handleSaveBotConfig(c *fiber.Ctx) error {
	var req struct {
		TriggerKeyword string `json:"trigger_keyword"`
		AutoReply      string `json:"auto_reply"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.TriggerKeyword == "" || req.AutoReply == "" {
		return badRequest(c, "Trigger keyword and auto reply are required")
	}

	cfg := models.BotConfig{
		UserID:         userID(c),
		TriggerKeyword: req.TriggerKeyword,
		AutoReply:      req.AutoReply,
	}

	if err := s.bots.Upsert(c.Context(), cfg); err != nil {
		s.logger.Error("Failed to save bot config", "error", err)
		return internalError(c, "Failed to save bot config")
	}

	event := models.Event{
		Type:      models.EventAutomationUpdate,
		UserID:    cfg.UserID,
		Bot:       &cfg,
		EmittedAt: time.Now().UTC(),
	}
	eventBytes, _ := json.Marshal(event)
	msg := &sarama.ProducerMessage{
		Topic: s.cfg.Kafka.Topic,
		Key:   sarama.StringEncoder(cfg.UserID),
		Value: sarama.StringEncoder(eventBytes),
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		// The config is saved; delivery to the workflow will happen on
		// the next update.
		s.logger.Error("Failed to queue automation event", "error", err)
	}

	return c.JSON(fiber.Map{
		"bot":   cfg,
		"saved": true,
	})
}
