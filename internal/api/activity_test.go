package api

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/seureview/content-engine/internal/models"
)

func scheduleBody(at time.Time) fiber.Map {
	return fiber.Map{
		"scheduled_at": at.Format(time.RFC3339),
		"product": fiber.Map{
			"productName": "Fone Bluetooth",
			"productUrl":  "https://shopee.com.br/p/1",
		},
		"content": fiber.Map{
			"socialPostTitle": "🎧 Fone incrível!",
			"socialPostBody":  "O melhor custo-benefício.",
			"callToAction":    "Corre pra garantir!",
			"postTemplates":   []fiber.Map{{"name": "Foco em Benefícios", "body": "..."}},
		},
	}
}

func TestSchedulePost(t *testing.T) {
	deps := defaultDeps()
	server, _, _ := setupTestServer(t, deps)

	at := time.Now().Add(2 * time.Hour)
	resp := postJSON(t, server.app, "POST", "/api/schedule", scheduleBody(at))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	assert.Equal(t, models.DeliveryScheduled, result["status"])

	posts, err := server.activity.Scheduled(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.Len(t, posts, 1)

	// The worker is told about the post through the events topic.
	assert.Len(t, deps.producer.messages, 1)
	var event models.Event
	raw := []byte(deps.producer.messages[0].Value.(sarama.StringEncoder))
	assert.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, models.EventPostScheduled, event.Type)
	assert.Equal(t, testUserID, event.UserID)
	assert.Equal(t, posts[0].ID, event.Post.ID)
}

func TestSchedulePostRejectsPastTime(t *testing.T) {
	server, _, _ := setupTestServer(t, defaultDeps())

	resp := postJSON(t, server.app, "POST", "/api/schedule", scheduleBody(time.Now().Add(-time.Hour)))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSchedulePostRejectsIncompleteContent(t *testing.T) {
	server, _, _ := setupTestServer(t, defaultDeps())

	body := scheduleBody(time.Now().Add(time.Hour))
	body["content"] = fiber.Map{"socialPostTitle": "só o título"}

	resp := postJSON(t, server.app, "POST", "/api/schedule", body)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSchedulePostRollsBackOnProducerFailure(t *testing.T) {
	deps := defaultDeps()
	deps.producer.err = errBoom
	server, _, _ := setupTestServer(t, deps)

	resp := postJSON(t, server.app, "POST", "/api/schedule", scheduleBody(time.Now().Add(time.Hour)))
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	// Nothing left in the schedule that nobody would deliver.
	posts, err := server.activity.Scheduled(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.Empty(t, posts)
}

func TestListScheduledWithStatuses(t *testing.T) {
	server, _, _ := setupTestServer(t, defaultDeps())

	at := time.Now().Add(time.Hour)
	postJSON(t, server.app, "POST", "/api/schedule", scheduleBody(at))
	postJSON(t, server.app, "POST", "/api/schedule", scheduleBody(at.Add(time.Hour)))

	resp := postJSON(t, server.app, "GET", "/api/schedule", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	scheduled := result["scheduled"].([]interface{})
	assert.Len(t, scheduled, 2)

	statuses := result["statuses"].(map[string]interface{})
	for _, raw := range scheduled {
		id := raw.(map[string]interface{})["id"].(string)
		assert.Equal(t, models.DeliveryScheduled, statuses[id])
	}
}

func TestCancelScheduled(t *testing.T) {
	server, _, _ := setupTestServer(t, defaultDeps())

	postJSON(t, server.app, "POST", "/api/schedule", scheduleBody(time.Now().Add(time.Hour)))
	posts, err := server.activity.Scheduled(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.Len(t, posts, 1)

	resp := postJSON(t, server.app, "DELETE", fmt.Sprintf("/api/schedule/%s", posts[0].ID), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Cancelling the same post again is a 404.
	resp = postJSON(t, server.app, "DELETE", fmt.Sprintf("/api/schedule/%s", posts[0].ID), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHistoryEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t, defaultDeps())

	err := server.activity.AddHistory(context.Background(), testUserID, models.HistoryItem{
		ID:          "h1",
		GeneratedAt: time.Now().UTC(),
	})
	assert.NoError(t, err)

	resp := postJSON(t, server.app, "GET", "/api/history", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	history := result["history"].([]interface{})
	assert.Len(t, history, 1)
}
