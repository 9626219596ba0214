package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/seureview/content-engine/internal/markdown"
	"github.com/seureview/content-engine/internal/marketplace"
	"github.com/seureview/content-engine/internal/models"
)

type SearchProductsRequest struct {
	Query     string  `json:"query"`
	Provider  string  `json:"provider"`
	Sort      string  `json:"sort"`
	Limit     int     `json:"limit"`
	MinRating float64 `json:"min_rating"`
	OnlyPromo bool    `json:"only_promo"`
}

// handleSearchProducts runs the two-step wizard's first step: free-text
// query against the marketplace webhook. Stored marketplace credentials
// are required before any call leaves this process.
func (s *Server) handleSearchProducts(c *fiber.Ctx) error {
	var req SearchProductsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Query == "" {
		return badRequest(c, "Product query is required")
	}
	if req.Provider != "" && req.Provider != "Shopee" {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "Only the Shopee provider is available in this environment",
		})
	}

	uid := userID(c)

	hasKeys, err := s.keys.HasShopeeCredentials(c.Context(), uid)
	if err != nil {
		s.logger.Error("Failed to check marketplace credentials", "error", err, "user_id", uid)
		return internalError(c, "Failed to check marketplace credentials")
	}
	if !hasKeys {
		return c.Status(fiber.StatusPreconditionFailed).JSON(fiber.Map{
			"error": models.ErrMissingMarketplaceKeys.Error(),
			"hint":  "Adicione suas chaves na página 'Chaves de API' em Configurações.",
		})
	}

	products, err := s.market.SearchProducts(c.Context(), marketplace.SearchRequest{
		UserID:    uid,
		Query:     req.Query,
		Sort:      req.Sort,
		Limit:     req.Limit,
		MinRating: req.MinRating,
		OnlyPromo: req.OnlyPromo,
	})
	if err != nil {
		if errors.Is(err, models.ErrNoProducts) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Nenhum produto encontrado para esta busca.",
			})
		}
		s.logger.Error("Product search failed", "error", err, "query", req.Query)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Falha ao buscar produtos. Tente novamente.",
		})
	}

	return c.JSON(fiber.Map{
		"products": products,
	})
}

type SelectProductRequest struct {
	Product models.ProductOption `json:"product"`
}

// handleSelectProduct records a wizard selection. In compare mode the
// second selection completes a pair and immediately returns the rendered
// comparison.
func (s *Server) handleSelectProduct(c *fiber.Ctx) error {
	var req SelectProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := req.Product.Validate(); err != nil {
		return badRequest(c, "Product name and URL are required")
	}

	sel := s.selections.ForUser(userID(c))
	pair, complete := sel.Select(req.Product)
	if !complete {
		return c.JSON(fiber.Map{
			"compare_mode": sel.CompareMode(),
			"pending_pair": sel.PendingPair(),
		})
	}

	html, err := s.compare(c, pair[0], pair[1])
	if err != nil {
		s.logger.Error("Comparison failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":     "Falha ao comparar produtos.",
			"retryable": true,
			"pair":      pair,
		})
	}

	return c.JSON(fiber.Map{
		"comparison": html,
		"pair":       pair,
	})
}

// handleCompareMode toggles comparison mode; any partially selected pair
// is discarded on toggle.
func (s *Server) handleCompareMode(c *fiber.Ctx) error {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	sel := s.selections.ForUser(userID(c))
	sel.SetCompareMode(req.Enabled)

	return c.JSON(fiber.Map{
		"compare_mode": req.Enabled,
	})
}

type CompareProductsRequest struct {
	Products []models.ProductOption `json:"products"`
}

// handleCompareProducts is the retry path for a failed comparison: the
// client re-posts the same pair.
func (s *Server) handleCompareProducts(c *fiber.Ctx) error {
	var req CompareProductsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if len(req.Products) != 2 {
		return badRequest(c, "Exactly two products are required")
	}

	html, err := s.compare(c, req.Products[0], req.Products[1])
	if err != nil {
		s.logger.Error("Comparison failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":     "Falha ao comparar produtos.",
			"retryable": true,
		})
	}

	return c.JSON(fiber.Map{
		"comparison": html,
	})
}

func (s *Server) compare(c *fiber.Ctx, a, b models.ProductOption) (string, error) {
	md, err := s.gen.CompareProducts(c.Context(), a, b)
	if err != nil {
		return "", err
	}
	return markdown.ToHTML(md)
}

type AffiliateLinkRequest struct {
	Platform string               `json:"platform"`
	Product  models.ProductOption `json:"product"`
}

func (s *Server) handleAffiliateLink(c *fiber.Ctx) error {
	var req AffiliateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := req.Product.Validate(); err != nil {
		return badRequest(c, "Product name and URL are required")
	}

	url, err := s.market.GenerateAffiliateLink(c.Context(), marketplace.LinkRequest{
		UserID:   userID(c),
		Platform: req.Platform,
		Product:  req.Product,
	})
	if err != nil {
		s.logger.Error("Affiliate link generation failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Falha ao gerar link de afiliado.",
		})
	}

	return c.JSON(fiber.Map{
		"affiliate_url": url,
	})
}
