package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"harborview/internal/config"
	"harborview/internal/domain"
	"harborview/internal/services"
	"harborview/internal/util"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:    "Harborview Insurance API",
			Version: "test",
			Debug:   false,
		},
		Auth: config.AuthConfig{
			SecretKey:          "test-secret-key-0123456789abcdef0123456789abcdef",
			TokenExpiryMinutes: 60,
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
			AllowedHeaders: []string{"*"},
			MaxAge:         86400,
		},
		RateLimit: config.RateLimitConfig{
			Requests:      1000,
			WindowMinutes: 15,
		},
		Analytics: config.AnalyticsConfig{
			RetentionDays: 90,
		},
	}
}

// newTestServer builds a full router backed by an in-memory database
func newTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: ":memory:", Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}
	err = db.AutoMigrate(
		&domain.User{},
		&domain.ContactMessage{},
		&domain.QuoteRequest{},
		&domain.AnalyticsEvent{},
		&domain.Partner{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		sqlDB.Close()
	})

	cfg := testConfig()
	tokens := util.NewTokenManager(&cfg.Auth)
	mailer := services.NewEmailService(&config.EmailConfig{Enabled: false})

	server := NewServer(
		cfg,
		services.NewContactService(db, mailer, "office@example.com"),
		services.NewQuoteService(db, mailer, "office@example.com"),
		services.NewAnalyticsService(db),
		services.NewPartnerService(db),
		services.NewAuthService(db, tokens),
		services.NewHealthService(db, cfg.App.Name, cfg.App.Version),
	)
	return server.Routes(), db
}

func seedStaffUser(t *testing.T, db *gorm.DB, username, password string) {
	t.Helper()
	hashed, err := util.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &domain.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: hashed,
		IsActive:       true,
		IsStaff:        true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func loginAs(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return result.AccessToken
}

func contactBody() map[string]any {
	return map[string]any{
		"firstName": "Alice",
		"lastName":  "Nguyen",
		"email":     "alice@example.com",
		"subject":   "general",
		"message":   "I would like to discuss my current home coverage.",
	}
}

func TestContactEndpoint(t *testing.T) {
	t.Run("valid submission returns 201", func(t *testing.T) {
		handler, _ := newTestServer(t)
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/contact", "", contactBody())
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		var result struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result.ID == "" {
			t.Error("expected an id in the response")
		}
	})

	t.Run("invalid submission returns 400 with violations", func(t *testing.T) {
		handler, _ := newTestServer(t)
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/contact", "", map[string]any{
			"firstName": "A",
			"email":     "nope",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Violations []struct {
				Field string `json:"field"`
			} `json:"violations"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(body.Violations) == 0 {
			t.Error("expected itemized violations")
		}
	})

	t.Run("duplicate submission returns 429", func(t *testing.T) {
		handler, _ := newTestServer(t)
		if rec := doJSON(t, handler, http.MethodPost, "/api/v1/contact", "", contactBody()); rec.Code != http.StatusCreated {
			t.Fatalf("first submission status = %d, want 201", rec.Code)
		}
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/contact", "", contactBody())
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d, want 429: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestAnalyticsEndpoint(t *testing.T) {
	t.Run("valid event returns 201", func(t *testing.T) {
		handler, _ := newTestServer(t)
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/analytics", "", map[string]any{
			"event": "page_view",
			"page":  "/quote",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("broken event degrades to 200", func(t *testing.T) {
		handler, _ := newTestServer(t)
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/analytics", "", map[string]any{
			"page": "/quote",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Success bool `json:"success"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Success {
			t.Error("expected success=false for a rejected event")
		}
	})
}

func TestAdminAuthBoundary(t *testing.T) {
	t.Run("admin routes reject missing token", func(t *testing.T) {
		handler, _ := newTestServer(t)
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/contact", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("admin routes reject a malformed header", func(t *testing.T) {
		handler, _ := newTestServer(t)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/contact", nil)
		req.Header.Set("Authorization", "Basic abc123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("admin routes accept a staff token", func(t *testing.T) {
		handler, db := newTestServer(t)
		seedStaffUser(t, db, "agent", "correct-horse")
		token := loginAs(t, handler, "agent", "correct-horse")

		if rec := doJSON(t, handler, http.MethodPost, "/api/v1/contact", "", contactBody()); rec.Code != http.StatusCreated {
			t.Fatalf("submission status = %d, want 201", rec.Code)
		}

		rec := doJSON(t, handler, http.MethodGet, "/api/v1/contact", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var messages []domain.ContactMessage
		if err := json.Unmarshal(rec.Body.Bytes(), &messages); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(messages) != 1 {
			t.Errorf("got %d messages, want 1", len(messages))
		}
	})

	t.Run("auth me returns the caller", func(t *testing.T) {
		handler, db := newTestServer(t)
		seedStaffUser(t, db, "agent", "correct-horse")
		token := loginAs(t, handler, "agent", "correct-horse")

		rec := doJSON(t, handler, http.MethodGet, "/api/v1/auth/me", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var user domain.User
		if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if user.Username != "agent" {
			t.Errorf("username = %q, want %q", user.Username, "agent")
		}
	})
}

func TestQuoteLifecycleEndpoints(t *testing.T) {
	handler, db := newTestServer(t)
	seedStaffUser(t, db, "agent", "correct-horse")
	token := loginAs(t, handler, "agent", "correct-horse")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/quote", "", map[string]any{
		"firstName":     "Marcus",
		"lastName":      "Webb",
		"email":         "marcus@example.com",
		"phone":         "+1 555 987 6543",
		"insuranceType": "home",
		"age":           35,
		"requirements":  "Four bedroom house, built 2009.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submission status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	processing := "processing"
	rec = doJSON(t, handler, http.MethodPatch, "/api/v1/quote/"+result.ID, token, map[string]any{"status": processing})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/quote/"+result.ID+"/quoted", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("quoted status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var quoted domain.QuoteRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &quoted); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if quoted.ValidUntil == nil {
		t.Error("expected a validity deadline after quoting")
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/quote/"+result.ID+"/converted", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("converted status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// Terminal state: declining now must fail
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/quote/"+result.ID+"/declined", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("declined status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestServer(t)
	rec := doJSON(t, handler, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status   string `json:"status"`
		Database bool   `json:"database"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "healthy" || !body.Database {
		t.Errorf("health = %+v, want healthy with database up", body)
	}
}

func TestPartnersEndpoint(t *testing.T) {
	handler, db := newTestServer(t)

	active := domain.Partner{Name: "Meridian Mutual", Category: "home", DisplayOrder: 2, Active: true}
	first := domain.Partner{Name: "Lakeshore Life", Category: "life", DisplayOrder: 1, Active: true}
	for _, p := range []domain.Partner{active, first} {
		partner := p
		if err := db.Create(&partner).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	// The column default is true, so deactivation has to be an update
	retired := domain.Partner{Name: "Retired Carrier", Category: "life", DisplayOrder: 1, Active: true}
	if err := db.Create(&retired).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := db.Model(&retired).Update("active", false).Error; err != nil {
		t.Fatalf("deactivation failed: %v", err)
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/partners", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var partners []domain.Partner
	if err := json.Unmarshal(rec.Body.Bytes(), &partners); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(partners) != 2 {
		t.Fatalf("got %d partners, want 2 active", len(partners))
	}
	if partners[0].Name != "Lakeshore Life" {
		t.Errorf("first partner = %q, want display order to win", partners[0].Name)
	}
}
