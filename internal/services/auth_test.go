package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"harborview/internal/config"
	"harborview/internal/domain"
	"harborview/internal/util"
)

func testTokenManager() *util.TokenManager {
	return util.NewTokenManager(&config.AuthConfig{
		SecretKey:          "test-secret-key-0123456789abcdef0123456789abcdef",
		TokenExpiryMinutes: 60,
	})
}

func seedUser(t *testing.T, db *gorm.DB, username, password string, active, staff bool) *domain.User {
	t.Helper()
	hashed, err := util.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &domain.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: hashed,
		IsActive:       active,
		IsStaff:        staff,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func TestAuthLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a token for valid credentials", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAuthService(db, testTokenManager())
		seedUser(t, db, "agent", "correct-horse", true, true)

		result, err := svc.Login(ctx, &LoginPayload{Username: "agent", Password: "correct-horse"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.AccessToken == "" {
			t.Error("expected an access token")
		}
		if result.TokenType != "bearer" {
			t.Errorf("token type = %q, want %q", result.TokenType, "bearer")
		}

		var user domain.User
		db.Where("username = ?", "agent").First(&user)
		if user.LastLogin == nil {
			t.Error("expected LastLogin to be stamped")
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAuthService(db, testTokenManager())
		seedUser(t, db, "agent", "correct-horse", true, true)

		_, err := svc.Login(ctx, &LoginPayload{Username: "agent", Password: "wrong"})
		requireServiceError(t, err, ErrTypeUnauthorized)
	})

	t.Run("rejects an unknown user", func(t *testing.T) {
		svc := NewAuthService(newTestDB(t), testTokenManager())
		_, err := svc.Login(ctx, &LoginPayload{Username: "nobody", Password: "whatever"})
		requireServiceError(t, err, ErrTypeUnauthorized)
	})

	t.Run("rejects an inactive user", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAuthService(db, testTokenManager())
		seedUser(t, db, "former", "correct-horse", false, true)

		_, err := svc.Login(ctx, &LoginPayload{Username: "former", Password: "correct-horse"})
		requireServiceError(t, err, ErrTypeUnauthorized)
	})
}

func TestAuthAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts a freshly issued token", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAuthService(db, testTokenManager())
		seedUser(t, db, "agent", "correct-horse", true, true)

		result, err := svc.Login(ctx, &LoginPayload{Username: "agent", Password: "correct-horse"})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}

		user, err := svc.Authenticate(ctx, result.AccessToken)
		if err != nil {
			t.Fatalf("authenticate failed: %v", err)
		}
		if user.Username != "agent" {
			t.Errorf("username = %q, want %q", user.Username, "agent")
		}
	})

	t.Run("rejects a garbage token", func(t *testing.T) {
		svc := NewAuthService(newTestDB(t), testTokenManager())
		_, err := svc.Authenticate(ctx, "not-a-token")
		requireServiceError(t, err, ErrTypeUnauthorized)
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		db := newTestDB(t)
		seedUser(t, db, "agent", "correct-horse", true, true)

		other := util.NewTokenManager(&config.AuthConfig{
			SecretKey:          "another-secret-key-fedcba9876543210fedcba98",
			TokenExpiryMinutes: 60,
		})
		otherSvc := NewAuthService(db, other)
		result, err := otherSvc.Login(ctx, &LoginPayload{Username: "agent", Password: "correct-horse"})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}

		svc := NewAuthService(db, testTokenManager())
		_, err = svc.Authenticate(ctx, result.AccessToken)
		requireServiceError(t, err, ErrTypeUnauthorized)
	})

	t.Run("forbids a non-staff user", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAuthService(db, testTokenManager())
		seedUser(t, db, "visitor", "correct-horse", true, false)

		result, err := svc.Login(ctx, &LoginPayload{Username: "visitor", Password: "correct-horse"})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		_, err = svc.Authenticate(ctx, result.AccessToken)
		requireServiceError(t, err, ErrTypeForbidden)
	})
}
