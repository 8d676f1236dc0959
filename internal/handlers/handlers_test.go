package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/bozor/internal/config"
	"github.com/example/bozor/internal/database"
	"github.com/example/bozor/internal/events"
	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/routes"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:    "test-secret",
		TokenExpires: time.Hour,
	}

	app := fiber.New()
	routes.Register(app, db, cfg, events.New())

	return app, db
}

func jsonRequest(method, path string, body interface{}, token string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func registerUser(t *testing.T, app *fiber.App, phone string) string {
	t.Helper()
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"first_name": "Test",
		"last_name":  "User",
		"phone":      phone,
		"password":   "secret123",
	}, ""))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned status %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("register returned no token")
	}
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	app, _ := setupApp(t)

	registerUser(t, app, "+998901112233")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"phone":    "+998901112233",
		"password": "secret123",
	}, ""))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, models.RoleCustomer, user["role"])

	// Wrong password is rejected.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"phone":    "+998901112233",
		"password": "wrong",
	}, ""))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCartRequiresAuth(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/cart", nil, ""))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCartFlowOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	token := registerUser(t, app, "+998901112244")

	product := models.Product{Name: "Kettle", Slug: "kettle", Price: 250, Quantity: 10, IsActive: true}
	assert.NoError(t, db.Create(&product).Error)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/cart", map[string]interface{}{
		"product_id": product.ID.String(),
		"quantity":   2,
	}, token))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodGet, "/api/cart", nil, token))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	items := body["data"].([]interface{})
	assert.Len(t, items, 1)
}

func TestWishlistIdempotentOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	token := registerUser(t, app, "+998901112255")

	product := models.Product{Name: "Teapot", Slug: "teapot", Price: 90, Quantity: 3, IsActive: true}
	assert.NoError(t, db.Create(&product).Error)

	payload := map[string]string{"product_id": product.ID.String()}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/wishlist", payload, token))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, false, decodeBody(t, resp)["already_exists"])

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/wishlist", payload, token))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["already_exists"])
}

func TestDeliveryQuoteIsPublic(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/delivery-charge?amount=750", nil, ""))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, 30.0, data["charge"])
}

func TestAdminGate(t *testing.T) {
	app, db := setupApp(t)
	token := registerUser(t, app, "+998901112266")

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/admin/dashboard", nil, token))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Promote and retry.
	assert.NoError(t, db.Model(&models.User{}).
		Where("phone = ?", "+998901112266").
		Update("role", models.RoleAdmin).Error)

	resp, err = app.Test(jsonRequest(http.MethodGet, "/api/admin/dashboard", nil, token))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
