package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/IBM/sarama"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	jwtv4 "github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/seureview/content-engine/internal/config"
	"github.com/seureview/content-engine/internal/marketplace"
	"github.com/seureview/content-engine/internal/models"
	"github.com/seureview/content-engine/internal/pkg/supabase"
	"github.com/seureview/content-engine/pkg/database"
)

const testUserID = "user-1"

// MockProducer simulates the Kafka producer for testing.
type MockProducer struct {
	sarama.SyncProducer
	messages []*sarama.ProducerMessage
	err      error
}

func (m *MockProducer) SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error) {
	if m.err != nil {
		return 0, 0, m.err
	}
	m.messages = append(m.messages, msg)
	return 0, 0, nil
}

func (m *MockProducer) Close() error {
	return nil
}

// fakeAuth is a scripted auth backend.
type fakeAuth struct {
	signInSession *supabase.Session
	signInErr     error
	signUpErr     error
	exchangeErr   error
	signOutCalls  int
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*supabase.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.signInSession, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password, fullName string) error {
	return f.signUpErr
}

func (f *fakeAuth) ExchangeCode(ctx context.Context, code, verifier string) (*supabase.Session, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.signInSession, nil
}

func (f *fakeAuth) SignOut(ctx context.Context, accessToken string) error {
	f.signOutCalls++
	return nil
}

// fakeGenerator is a scripted content generator.
type fakeGenerator struct {
	postContent *models.PostContent
	postErr     error
	postCalls   int

	blogPost   *models.BlogPost
	blogErr    error
	script     *models.VideoScript
	scriptErr  error
	comparison string
	compareErr error
	image      []byte
	imageErr   error
	chatReply  string
	chatErr    error
}

func (f *fakeGenerator) GeneratePost(ctx context.Context, product models.ProductOption, affiliateURL string) (*models.PostContent, error) {
	f.postCalls++
	if f.postErr != nil {
		return nil, f.postErr
	}
	content := *f.postContent
	content.AffiliateURL = affiliateURL
	return &content, nil
}

func (f *fakeGenerator) GenerateBlogPost(ctx context.Context, topic string) (*models.BlogPost, error) {
	return f.blogPost, f.blogErr
}

func (f *fakeGenerator) GenerateVideoScript(ctx context.Context, topic, videoType string) (*models.VideoScript, error) {
	return f.script, f.scriptErr
}

func (f *fakeGenerator) CompareProducts(ctx context.Context, a, b models.ProductOption) (string, error) {
	if f.compareErr != nil {
		return "", f.compareErr
	}
	return f.comparison, nil
}

func (f *fakeGenerator) OptimizationSuggestions(ctx context.Context, title, body string) ([]string, error) {
	return []string{"Use mais emojis"}, nil
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	return f.image, f.imageErr
}

func (f *fakeGenerator) GenerateReelsVideo(ctx context.Context, prompt string) (string, error) {
	return "", models.ErrVideoNotConfigured
}

func (f *fakeGenerator) Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatReply, nil
}

// fakeMarket is a scripted marketplace webhook client.
type fakeMarket struct {
	products    []models.ProductOption
	searchErr   error
	searchCalls int

	link    string
	linkErr error

	publishCalls int
	publishErr   error
	notifyCalls  int
}

func (f *fakeMarket) SearchProducts(ctx context.Context, req marketplace.SearchRequest) ([]models.ProductOption, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.products, nil
}

func (f *fakeMarket) GenerateAffiliateLink(ctx context.Context, req marketplace.LinkRequest) (string, error) {
	if f.linkErr != nil {
		return "", f.linkErr
	}
	return f.link, nil
}

func (f *fakeMarket) PublishPost(ctx context.Context, userID string, post models.ScheduledPost) error {
	f.publishCalls++
	return f.publishErr
}

func (f *fakeMarket) NotifyAutomation(ctx context.Context, cfg models.BotConfig) error {
	f.notifyCalls++
	return nil
}

type testDeps struct {
	auth     *fakeAuth
	gen      *fakeGenerator
	market   *fakeMarket
	producer *MockProducer
}

func defaultDeps() *testDeps {
	return &testDeps{
		auth: &fakeAuth{
			signInSession: &supabase.Session{
				AccessToken: "supabase-token",
				User: supabase.User{
					ID:       testUserID,
					Email:    "maria@example.com",
					FullName: "Maria Silva",
				},
			},
		},
		gen: &fakeGenerator{
			postContent: &models.PostContent{
				SocialPostTitle: "🎧 Fone incrível!",
				SocialPostBody:  "O melhor custo-benefício da Shopee.",
				CallToAction:    "Corre pra garantir!",
				PostTemplates:   []models.PostTemplate{{Name: "Foco em Benefícios", Body: "..."}},
			},
			comparison: "## Comparação\n\nO Fone A vence.",
			image:      []byte("png-bytes"),
			chatReply:  "Para vender mais, poste à noite.",
		},
		market: &fakeMarket{
			products: []models.ProductOption{{
				ProductName: "Fone Bluetooth",
				Price:       "R$ 89,90",
				Rating:      4.8,
				ProductURL:  "https://shopee.com.br/p/1",
			}},
			link: "https://s.shopee.com.br/abc?subid=promo",
		},
		producer: &MockProducer{},
	}
}

// setupTestServer initializes a test instance of the API server. The JWT
// middleware is replaced by a stub identity so handlers see a fixed user.
func setupTestServer(t *testing.T, deps *testDeps) (*Server, sqlmock.Sqlmock, *miniredis.Miniredis) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")

	miniRedis, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(miniRedis.Close)

	redisClient := redis.NewClient(&redis.Options{
		Addr: miniRedis.Addr(),
	})

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        ":8080",
			Environment: "development",
		},
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			Expiration: 24 * time.Hour,
		},
		Kafka: config.KafkaConfig{
			Topic: "test-topic",
		},
		Storage: config.StorageConfig{
			TempDir: t.TempDir(),
		},
	}

	clients := &database.Clients{
		DB:    db,
		Redis: redisClient,
	}

	server, err := NewServer(cfg, clients, deps.producer, deps.auth, deps.gen, deps.market)
	assert.NoError(t, err)

	// Rebuild the app without the JWT middleware; a stub fills in the
	// verified-token local instead.
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", &jwtv4.Token{Claims: jwtv4.MapClaims{
			"sub":   testUserID,
			"email": "maria@example.com",
		}})
		return c.Next()
	})
	server.app = app

	api := app.Group("/api")
	api.Post("/auth/login", server.handleLogin)
	api.Post("/auth/register", server.handleRegister)
	api.Post("/auth/callback", server.handleOAuthCallback)
	api.Post("/plans/select", server.handleSelectPlan)
	api.Post("/auth/logout", server.handleLogout)
	api.Post("/plans/confirm", server.handlePaymentConfirm)
	api.Get("/session", server.handleSessionState)
	api.Get("/profile", server.handleGetProfile)
	api.Put("/profile", server.handleUpdateProfile)
	api.Post("/products/search", server.handleSearchProducts)
	api.Post("/products/select", server.handleSelectProduct)
	api.Put("/products/compare-mode", server.handleCompareMode)
	api.Post("/products/compare", server.handleCompareProducts)
	api.Post("/products/affiliate-link", server.handleAffiliateLink)
	api.Post("/content/post", server.handleGeneratePost)
	api.Post("/content/reels", server.handleGenerateReels)
	api.Post("/content/image", server.handleGenerateImage)
	api.Post("/content/chat", server.handleChat)
	api.Get("/history", server.handleHistory)
	api.Get("/schedule", server.handleListScheduled)
	api.Post("/schedule", server.handleSchedulePost)
	api.Delete("/schedule/:id", server.handleCancelScheduled)
	api.Get("/settings/api-keys", server.handleGetAPIKeys)
	api.Put("/settings/api-keys", server.handleSaveAPIKeys)
	api.Put("/settings/bot", server.handleSaveBotConfig)

	return server, mock, miniRedis
}

func postJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	var result map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

var errBoom = errors.New("boom")
