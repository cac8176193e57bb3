package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storehub/internal/config"
	"github.com/example/storehub/internal/models"
	"github.com/example/storehub/internal/utils"
)

const tokenByteLength = 32

// TokenPair is the result of issuing credentials: an opaque access token and
// a longer-lived refresh token, with their TTLs in seconds.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	AccessExpiresIn  int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
}

// TokenService manages opaque database-backed auth tokens. Tokens are random
// strings resolved against the auth_tokens table on every request; there is
// no signed claims payload.
type TokenService struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewTokenService creates a new TokenService.
func NewTokenService(db *gorm.DB, cfg *config.Config) *TokenService {
	return &TokenService{db: db, cfg: cfg}
}

// IssuePair revokes every existing token for the user and issues a fresh
// access/refresh pair. One live session per user.
func (s *TokenService) IssuePair(userID uuid.UUID) (*TokenPair, error) {
	accessToken, err := utils.GenerateToken(tokenByteLength)
	if err != nil {
		return nil, Internal(err)
	}
	refreshToken, err := utils.GenerateToken(tokenByteLength)
	if err != nil {
		return nil, Internal(err)
	}

	now := time.Now()
	records := []models.AuthToken{
		{
			UserID:    userID,
			Token:     accessToken,
			Ability:   models.AbilityAccess,
			ExpiresAt: now.Add(s.cfg.AccessTokenTTL),
		},
		{
			UserID:    userID,
			Token:     refreshToken,
			Ability:   models.AbilityRefresh,
			ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		},
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.AuthToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return nil, Internal(err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresIn:  int64(s.cfg.AccessTokenTTL.Seconds()),
		RefreshToken:     refreshToken,
		RefreshExpiresIn: int64(s.cfg.RefreshTokenTTL.Seconds()),
		TokenType:        "Bearer",
	}, nil
}

// Refresh exchanges a live refresh token for a new pair. Issuing the new pair
// revokes all prior tokens, so a superseded refresh token fails afterwards.
func (s *TokenService) Refresh(refreshToken string) (*TokenPair, error) {
	var record models.AuthToken
	err := s.db.Where("token = ? AND ability = ?", refreshToken, models.AbilityRefresh).
		First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, Unauthorized("invalid refresh token", ErrInvalidToken)
	}
	if err != nil {
		return nil, Internal(err)
	}
	if record.IsExpired() {
		s.db.Delete(&record)
		return nil, Unauthorized("invalid refresh token", ErrInvalidToken)
	}
	return s.IssuePair(record.UserID)
}

// Authenticate resolves a bearer access token to its user. Expired tokens are
// deleted lazily on first sight.
func (s *TokenService) Authenticate(accessToken string) (*models.User, error) {
	var record models.AuthToken
	err := s.db.Where("token = ? AND ability = ?", accessToken, models.AbilityAccess).
		First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, Unauthorized("invalid token", ErrInvalidToken)
	}
	if err != nil {
		return nil, Internal(err)
	}
	if record.IsExpired() {
		s.db.Delete(&record)
		return nil, Unauthorized("token expired", ErrTokenExpired)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", record.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, Unauthorized("invalid token", ErrUserNotFound)
		}
		return nil, Internal(err)
	}
	return &user, nil
}

// RevokeScope selects how much of a user's session to revoke.
type RevokeScope string

const (
	// RevokeScopeCurrent deletes only the token presented with the request.
	RevokeScopeCurrent RevokeScope = "current"
	// RevokeScopeAll deletes every token for the user, logout-everywhere.
	RevokeScopeAll RevokeScope = "all"
)

// Revoke deletes tokens per the requested scope. Scope current leaves the
// rest of the session intact, in particular the refresh token stays usable.
func (s *TokenService) Revoke(userID uuid.UUID, scope RevokeScope, presentedToken string) error {
	switch scope {
	case RevokeScopeCurrent:
		if presentedToken == "" {
			return ValidationError("no token presented to revoke")
		}
		err := s.db.Where("user_id = ? AND token = ?", userID, presentedToken).
			Delete(&models.AuthToken{}).Error
		if err != nil {
			return Internal(err)
		}
		return nil
	case RevokeScopeAll, "":
		return s.RevokeAll(userID)
	default:
		return ValidationError("scope must be current or all")
	}
}

// RevokeAll deletes every token for the user. Used by logout.
func (s *TokenService) RevokeAll(userID uuid.UUID) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&models.AuthToken{}).Error; err != nil {
		return Internal(err)
	}
	return nil
}

// CleanupExpired removes tokens past their expiry.
func (s *TokenService) CleanupExpired() (int64, error) {
	res := s.db.Where("expires_at < ?", time.Now()).Delete(&models.AuthToken{})
	if res.Error != nil {
		return 0, Internal(res.Error)
	}
	return res.RowsAffected, nil
}
