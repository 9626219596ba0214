package api

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/seureview/content-engine/internal/models"
)

const selectKeysQuery = "SELECT user_id, keys, updated_at FROM user_api_keys WHERE user_id = $1"

func expectKeysRow(mock sqlmock.Sqlmock, blob string) {
	mock.ExpectQuery(regexp.QuoteMeta(selectKeysQuery)).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "keys", "updated_at"}).
			AddRow(testUserID, []byte(blob), time.Now()))
}

func expectNoKeysRow(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(selectKeysQuery)).
		WithArgs(testUserID).
		WillReturnError(sql.ErrNoRows)
}

const shopeeKeys = `{"shopeeAppId":"123456","shopeePassword":"hunter22"}`

func TestSearchRequiresStoredCredentials(t *testing.T) {
	deps := defaultDeps()
	server, mock, _ := setupTestServer(t, deps)

	expectNoKeysRow(mock)

	resp := postJSON(t, server.app, "POST", "/api/products/search", map[string]string{
		"query": "fone bluetooth",
	})
	assert.Equal(t, fiber.StatusPreconditionFailed, resp.StatusCode)

	result := decodeBody(t, resp)
	assert.NotEmpty(t, result["hint"], "response should point at the settings page")

	// The webhook must not have been touched.
	assert.Equal(t, 0, deps.market.searchCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchProducts(t *testing.T) {
	deps := defaultDeps()
	server, mock, _ := setupTestServer(t, deps)

	expectKeysRow(mock, shopeeKeys)

	resp := postJSON(t, server.app, "POST", "/api/products/search", map[string]string{
		"query": "fone bluetooth",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	products := result["products"].([]interface{})
	assert.Len(t, products, 1)
	assert.Equal(t, 1, deps.market.searchCalls)
}

func TestSearchProductsNoneFound(t *testing.T) {
	deps := defaultDeps()
	deps.market.searchErr = models.ErrNoProducts
	server, mock, _ := setupTestServer(t, deps)

	expectKeysRow(mock, shopeeKeys)

	resp := postJSON(t, server.app, "POST", "/api/products/search", map[string]string{
		"query": "produto inexistente",
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSearchProductsUpstreamFailure(t *testing.T) {
	deps := defaultDeps()
	deps.market.searchErr = errBoom
	server, mock, _ := setupTestServer(t, deps)

	expectKeysRow(mock, shopeeKeys)

	resp := postJSON(t, server.app, "POST", "/api/products/search", map[string]string{
		"query": "fone",
	})
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestSearchProductsUnknownProvider(t *testing.T) {
	server, _, _ := setupTestServer(t, defaultDeps())

	resp := postJSON(t, server.app, "POST", "/api/products/search", map[string]string{
		"query":    "fone",
		"provider": "MercadoLivre",
	})
	assert.Equal(t, fiber.StatusNotImplemented, resp.StatusCode)
}

func TestSelectProductSingle(t *testing.T) {
	server, _, _ := setupTestServer(t, defaultDeps())

	resp := postJSON(t, server.app, "POST", "/api/products/select", fiber.Map{
		"product": fiber.Map{
			"productName": "Fone Bluetooth",
			"productUrl":  "https://shopee.com.br/p/1",
		},
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	assert.Equal(t, false, result["compare_mode"])
}

func TestCompareFlowThroughSelection(t *testing.T) {
	server, _, _ := setupTestServer(t, defaultDeps())

	resp := postJSON(t, server.app, "PUT", "/api/products/compare-mode", fiber.Map{"enabled": true})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	first := fiber.Map{"product": fiber.Map{"productName": "Fone A", "productUrl": "https://shopee.com.br/p/1"}}
	resp = postJSON(t, server.app, "POST", "/api/products/select", first)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	assert.Equal(t, float64(1), result["pending_pair"])

	second := fiber.Map{"product": fiber.Map{"productName": "Fone B", "productUrl": "https://shopee.com.br/p/2"}}
	resp = postJSON(t, server.app, "POST", "/api/products/select", second)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result = decodeBody(t, resp)
	assert.Contains(t, result["comparison"], "<h2>Comparação</h2>", "the pair completes and renders")
}

func TestCompareProductsRetryPath(t *testing.T) {
	server, _, _ := setupTestServer(t, defaultDeps())

	resp := postJSON(t, server.app, "POST", "/api/products/compare", fiber.Map{
		"products": []fiber.Map{
			{"productName": "Fone A", "productUrl": "https://shopee.com.br/p/1"},
			{"productName": "Fone B", "productUrl": "https://shopee.com.br/p/2"},
		},
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCompareProductsNeedsExactlyTwo(t *testing.T) {
	server, _, _ := setupTestServer(t, defaultDeps())

	resp := postJSON(t, server.app, "POST", "/api/products/compare", fiber.Map{
		"products": []fiber.Map{
			{"productName": "Fone A", "productUrl": "https://shopee.com.br/p/1"},
		},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCompareFailureIsRetryable(t *testing.T) {
	deps := defaultDeps()
	deps.gen.compareErr = errBoom
	server, _, _ := setupTestServer(t, deps)

	resp := postJSON(t, server.app, "POST", "/api/products/compare", fiber.Map{
		"products": []fiber.Map{
			{"productName": "Fone A", "productUrl": "https://shopee.com.br/p/1"},
			{"productName": "Fone B", "productUrl": "https://shopee.com.br/p/2"},
		},
	})
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	result := decodeBody(t, resp)
	assert.Equal(t, true, result["retryable"])
}

func TestAffiliateLink(t *testing.T) {
	server, _, _ := setupTestServer(t, defaultDeps())

	resp := postJSON(t, server.app, "POST", "/api/products/affiliate-link", fiber.Map{
		"platform": "instagram",
		"product":  fiber.Map{"productName": "Fone", "productUrl": "https://shopee.com.br/p/1"},
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	assert.Equal(t, "https://s.shopee.com.br/abc?subid=promo", result["affiliate_url"])
}
