package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/seureview/content-engine/internal/models"
)

// API is the workflow-automation surface: product search and affiliate
// link generation run on an external n8n server, not in this codebase.
type API interface {
	SearchProducts(ctx context.Context, req SearchRequest) ([]models.ProductOption, error)
	GenerateAffiliateLink(ctx context.Context, req LinkRequest) (string, error)
	PublishPost(ctx context.Context, userID string, post models.ScheduledPost) error
	NotifyAutomation(ctx context.Context, cfg models.BotConfig) error
}

// SearchRequest mirrors the shopee_search webhook contract.
type SearchRequest struct {
	UserID    string
	Query     string
	Sort      string // "relevance" | "sales"
	Country   string
	Limit     int
	MinRating float64
	OnlyPromo bool
}

// LinkRequest mirrors the shopee_subids webhook contract.
type LinkRequest struct {
	UserID   string
	Platform string // e.g. "instagram", "facebook"
	Product  models.ProductOption
}

// Client calls the n8n webhooks over plain HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SearchProducts runs a free-text marketplace search. The webhook response
// is validated field by field before anything is handed to the caller:
// malformed rows fail with a typed error instead of propagating blanks.
func (c *Client) SearchProducts(ctx context.Context, req SearchRequest) ([]models.ProductOption, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("product query is required")
	}
	if req.Sort == "" {
		req.Sort = "relevance"
	}
	if req.Country == "" {
		req.Country = "BR"
	}
	if req.Limit <= 0 {
		req.Limit = 24
	}

	body := map[string]interface{}{
		"userId":  req.UserID,
		"query":   req.Query,
		"sort":    req.Sort,
		"country": req.Country,
		"filters": map[string]interface{}{
			"limit":      req.Limit,
			"min_rating": req.MinRating,
			"only_promo": req.OnlyPromo,
		},
	}

	raw, err := c.post(ctx, "/webhook/shopee_search", body)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("search webhook returned invalid JSON")
	}

	parsed := gjson.ParseBytes(raw)
	// The workflow responds either with a bare array or with { items: [...] }.
	items := parsed
	if !parsed.IsArray() {
		items = parsed.Get("items")
	}
	if !items.IsArray() || len(items.Array()) == 0 {
		return nil, models.ErrNoProducts
	}

	var products []models.ProductOption
	for _, item := range items.Array() {
		p, err := mapProduct(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", len(products), err)
		}
		products = append(products, p)
	}
	return products, nil
}

// GenerateAffiliateLink rewrites a product URL into a SubID-tracked
// affiliate link. When the workflow returns nothing usable, the base
// product URL is kept so the post still links somewhere.
func (c *Client) GenerateAffiliateLink(ctx context.Context, req LinkRequest) (string, error) {
	if req.Platform == "" {
		req.Platform = "instagram"
	}

	body := map[string]interface{}{
		"base_url": req.Product.ProductURL,
		"platform": req.Platform,
		"product": map[string]interface{}{
			"title":  req.Product.ProductName,
			"rating": req.Product.Rating,
			"image":  req.Product.ImageURL,
			"url":    req.Product.ProductURL,
		},
		"userId": req.UserID,
	}

	raw, err := c.post(ctx, "/webhook/shopee_subids", body)
	if err != nil {
		return "", err
	}

	url := gjson.GetBytes(raw, "items.0.url").String()
	if url == "" {
		url = req.Product.ProductURL
	}
	return url, nil
}

// PublishPost hands a due scheduled post to the automation workflow for
// actual publication.
func (c *Client) PublishPost(ctx context.Context, userID string, post models.ScheduledPost) error {
	body := map[string]interface{}{
		"userId":      userID,
		"postId":      post.ID,
		"scheduledAt": post.ScheduledAt,
		"content":     post.Content,
		"product":     post.Product,
	}
	_, err := c.post(ctx, "/webhook/publish_post", body)
	return err
}

// NotifyAutomation pushes an updated comment-bot configuration to the
// workflow that answers comments.
func (c *Client) NotifyAutomation(ctx context.Context, cfg models.BotConfig) error {
	body := map[string]interface{}{
		"userId":         cfg.UserID,
		"triggerKeyword": cfg.TriggerKeyword,
		"autoReply":      cfg.AutoReply,
	}
	_, err := c.post(ctx, "/webhook/comment_bot", body)
	return err
}

func (c *Client) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("webhook %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

// mapProduct converts one webhook item into a ProductOption, applying the
// display formatting the dashboard expects.
func mapProduct(item gjson.Result) (models.ProductOption, error) {
	p := models.ProductOption{
		ProductName: item.Get("title").String(),
		ImageURL:    firstString(item, "image", "image_url"),
		Rating:      item.Get("rating").Float(),
		ProductURL:  firstString(item, "url", "canonicalUrl", "product_link"),
	}

	if price := item.Get("price"); price.Type == gjson.Number {
		p.Price = formatPrice(price.Float())
	} else if s := item.Get("price_str").String(); s != "" {
		p.Price = s
	} else {
		p.Price = "—"
	}

	if pct := item.Get("commission_percent"); pct.Exists() {
		p.Commission = fmt.Sprintf("%.1f%%", pct.Float())
	} else if com := item.Get("commission"); com.Exists() {
		p.Commission = fmt.Sprintf("%s%%", com.String())
	} else {
		p.Commission = "—"
	}

	if sales := item.Get("sales_count"); sales.Exists() {
		p.SalesVolume = fmt.Sprintf("%d vendidos", sales.Int())
	}

	if err := p.Validate(); err != nil {
		return models.ProductOption{}, err
	}
	return p, nil
}

// formatPrice renders a numeric price as a pt-BR currency string,
// e.g. 89.9 -> "R$ 89,90".
func formatPrice(v float64) string {
	return "R$ " + strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}

func firstString(item gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := item.Get(k).String(); s != "" {
			return s
		}
	}
	return ""
}
