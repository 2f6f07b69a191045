package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"harborview/internal/domain"
	"harborview/internal/metrics"
	"harborview/internal/util"
)

// AuthService implements administrative authentication
type AuthService struct {
	db     *gorm.DB
	tokens *util.TokenManager
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB, tokens *util.TokenManager) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

// LoginPayload carries login credentials
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult carries the issued access token
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login verifies credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, p *LoginPayload) (*LoginResult, error) {
	username := strings.TrimSpace(p.Username)
	password := strings.TrimSpace(p.Password)

	log.Printf("[AUTH] Login attempt for user: %s", username)

	var user domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[AUTH] Login failed: user '%s' not found", username)
			metrics.RecordAuthAttempt(false)
			return nil, NewUnauthorizedError("incorrect username or password")
		}
		metrics.RecordAuthAttempt(false)
		return nil, NewInternalError("failed to load user", err)
	}

	if !util.CheckPasswordHash(password, user.HashedPassword) {
		log.Printf("[AUTH] Login failed: invalid password for user '%s'", username)
		metrics.RecordAuthAttempt(false)
		return nil, NewUnauthorizedError("incorrect username or password")
	}

	if !user.IsActive {
		log.Printf("[AUTH] Login failed: user '%s' is inactive", username)
		metrics.RecordAuthAttempt(false)
		return nil, NewUnauthorizedError("user account is inactive")
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	s.db.WithContext(ctx).Save(&user)

	token, err := s.tokens.GenerateToken(&user)
	if err != nil {
		log.Printf("[AUTH] Login failed: token generation error for user '%s': %v", username, err)
		return nil, NewInternalError("failed to generate token", err)
	}

	log.Printf("[AUTH] Login successful for user '%s' (id=%d, admin=%v, staff=%v)", username, user.ID, user.IsAdmin, user.IsStaff)
	metrics.RecordAuthAttempt(true)

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

// Authenticate validates a bearer token and loads the active user it
// belongs to. Used by the admin-route middleware.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, NewUnauthorizedError("invalid or expired token")
	}

	user, err := util.GetUserFromClaims(s.db.WithContext(ctx), claims)
	if err != nil {
		return nil, NewUnauthorizedError("user not found")
	}

	if !user.IsActive {
		return nil, NewUnauthorizedError("user account is inactive")
	}

	if err := util.RequireStaff(user); err != nil {
		return nil, NewForbiddenError(err.Error())
	}

	return user, nil
}
