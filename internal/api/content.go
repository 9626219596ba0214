package api

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/seureview/content-engine/internal/marketplace"
	"github.com/seureview/content-engine/internal/models"
)

// generationCost is the credit price of one content generation.
const generationCost = 1

type GeneratePostRequest struct {
	Product  models.ProductOption `json:"product"`
	Platform string               `json:"platform"`
}

// handleGeneratePost is the main generation path: affiliate link, post
// bundle, history entry, best-effort suggestions. Nothing is written to
// history unless generation succeeded.
func (s *Server) handleGeneratePost(c *fiber.Ctx) error {
	var req GeneratePostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := req.Product.Validate(); err != nil {
		return badRequest(c, "Product name and URL are required")
	}

	uid := userID(c)

	remaining, err := s.profiles.ConsumeCredits(c.Context(), uid, generationCost)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientCredits) {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error": "Seus créditos acabaram. Faça upgrade do seu plano.",
			})
		}
		s.logger.Error("Credit check failed", "error", err, "user_id", uid)
		return internalError(c, "Failed to check credits")
	}

	affiliateURL, err := s.market.GenerateAffiliateLink(c.Context(), marketplace.LinkRequest{
		UserID:   uid,
		Platform: req.Platform,
		Product:  req.Product,
	})
	if err != nil {
		s.logger.Error("Affiliate link generation failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":     "Falha ao gerar conteúdo. Tente novamente.",
			"retryable": true,
		})
	}

	content, err := s.gen.GeneratePost(c.Context(), req.Product, affiliateURL)
	if err != nil {
		s.logger.Error("Post generation failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":     "Falha ao gerar conteúdo. Tente novamente.",
			"retryable": true,
		})
	}

	item := models.HistoryItem{
		ID:          uuid.NewString(),
		Product:     req.Product,
		Content:     *content,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.activity.AddHistory(c.Context(), uid, item); err != nil {
		// History is a convenience; the generated content still goes out.
		s.logger.Error("Failed to record history", "error", err, "user_id", uid)
	}

	// Optimization suggestions are best effort: failure leaves the list
	// empty.
	suggestions, err := s.gen.OptimizationSuggestions(c.Context(), content.SocialPostTitle, content.SocialPostBody)
	if err != nil {
		s.logger.Warn("Suggestions unavailable", "error", err)
		suggestions = nil
	}

	return c.JSON(fiber.Map{
		"content":     content,
		"suggestions": suggestions,
		"credits":     remaining,
		"history_id":  item.ID,
	})
}

func (s *Server) handleGenerateBlogPost(c *fiber.Ctx) error {
	var req struct {
		Topic string `json:"topic"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Topic == "" {
		return badRequest(c, "Topic is required")
	}

	uid := userID(c)
	remaining, err := s.profiles.ConsumeCredits(c.Context(), uid, generationCost)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientCredits) {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error": "Seus créditos acabaram. Faça upgrade do seu plano.",
			})
		}
		return internalError(c, "Failed to check credits")
	}

	post, err := s.gen.GenerateBlogPost(c.Context(), req.Topic)
	if err != nil {
		s.logger.Error("Blog generation failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":     "Falha ao gerar artigo. Tente novamente.",
			"retryable": true,
		})
	}

	return c.JSON(fiber.Map{
		"blog_post": post,
		"credits":   remaining,
	})
}

func (s *Server) handleGenerateVideoScript(c *fiber.Ctx) error {
	var req struct {
		Topic     string `json:"topic"`
		VideoType string `json:"video_type"` // "short" | "long"
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Topic == "" {
		return badRequest(c, "Topic is required")
	}

	uid := userID(c)
	remaining, err := s.profiles.ConsumeCredits(c.Context(), uid, generationCost)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientCredits) {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error": "Seus créditos acabaram. Faça upgrade do seu plano.",
			})
		}
		return internalError(c, "Failed to check credits")
	}

	script, err := s.gen.GenerateVideoScript(c.Context(), req.Topic, req.VideoType)
	if err != nil {
		s.logger.Error("Video script generation failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":     "Falha ao gerar roteiro. Tente novamente.",
			"retryable": true,
		})
	}

	return c.JSON(fiber.Map{
		"video_script": script,
		"credits":      remaining,
	})
}

func (s *Server) handleGenerateReels(c *fiber.Ctx) error {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	_, err := s.gen.GenerateReelsVideo(c.Context(), req.Prompt)
	if errors.Is(err, models.ErrVideoNotConfigured) {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "Geração de vídeo ainda não está configurada.",
		})
	}
	if err != nil {
		s.logger.Error("Reels generation failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":     "Falha ao gerar vídeo. Tente novamente.",
			"retryable": true,
		})
	}

	return c.JSON(fiber.Map{})
}

// handleGenerateImage powers the image-regeneration modal: prompt in,
// image payload out. The artifact store keeps a copy on disk for the
// worker and for debugging.
func (s *Server) handleGenerateImage(c *fiber.Ctx) error {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Prompt == "" {
		return badRequest(c, "Prompt is required")
	}

	img, err := s.gen.GenerateImage(c.Context(), req.Prompt)
	if err != nil {
		s.logger.Error("Image generation failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":     "Falha ao gerar imagem. Tente novamente.",
			"retryable": true,
		})
	}

	path, err := s.artifacts.StoreImage(c.Context(), img)
	if err != nil {
		s.logger.Error("Failed to store image artifact", "error", err)
	} else {
		s.logger.Info("Image artifact stored", "path", path)
	}

	// Sweep artifacts past their TTL while we are here.
	if err := s.artifacts.CleanupExpired(c.Context(), s.cfg.Storage.TTL); err != nil {
		s.logger.Warn("Artifact cleanup failed", "error", err)
	}

	return c.JSON(fiber.Map{
		"image_base64": base64.StdEncoding.EncodeToString(img),
		"mime_type":    "image/png",
	})
}

// handleChat powers the dashboard assistant: a free-form conversation
// about the platform, riding on the same model as the generators. The
// client keeps the transcript and sends it back each turn.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req struct {
		Message string               `json:"message"`
		History []models.ChatMessage `json:"history"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Message == "" {
		return badRequest(c, "Message is required")
	}

	reply, err := s.gen.Chat(c.Context(), req.History, req.Message)
	if err != nil {
		s.logger.Error("Chat failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":     "Falha ao responder. Tente novamente.",
			"retryable": true,
		})
	}

	return c.JSON(fiber.Map{
		"reply": reply,
	})
}

func (s *Server) handleSuggestions(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Title == "" && req.Body == "" {
		return badRequest(c, "Title or body is required")
	}

	suggestions, err := s.gen.OptimizationSuggestions(c.Context(), req.Title, req.Body)
	if err != nil {
		// Best effort by contract.
		s.logger.Warn("Suggestions unavailable", "error", err)
		suggestions = nil
	}

	return c.JSON(fiber.Map{
		"suggestions": suggestions,
	})
}
