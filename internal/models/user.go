package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a store owner account.
type User struct {
	BaseModel
	Email           string     `gorm:"uniqueIndex" json:"email"`
	PasswordHash    *string    `json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	IsPremium       bool       `json:"is_premium"`
	Store           *Store     `json:"store,omitempty"`
}

// IsVerified reports whether the account completed email verification.
func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

// Verification code types.
const (
	CodeTypeEmailVerification = "email_verification"
)

// VerificationCode keeps track of 6-digit codes sent to users by email.
// At most one unexpired, unused code exists per (email, type); generating a
// new one invalidates the previous ones.
type VerificationCode struct {
	BaseModel
	Email     string     `gorm:"index" json:"email"`
	Code      string     `json:"code"`
	Type      string     `gorm:"index" json:"type"`
	ExpiresAt time.Time  `json:"expires_at"`
	IsUsed    bool       `json:"is_used"`
	UsedAt    *time.Time `json:"used_at"`
}

// IsExpired reports whether the code can no longer be consumed.
func (v *VerificationCode) IsExpired() bool {
	return v.ExpiresAt.Before(time.Now())
}

// Token abilities.
const (
	AbilityAccess  = "access"
	AbilityRefresh = "refresh"
)

// AuthToken is an opaque bearer token record. Both access and refresh tokens
// live in this table, distinguished by Ability. Expiry is checked lazily on
// every authenticated request; expired rows are removed by CleanupExpired.
type AuthToken struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex" json:"-"`
	Ability   string    `json:"ability"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the token is past its expiry.
func (t *AuthToken) IsExpired() bool {
	return t.ExpiresAt.Before(time.Now())
}

// PasswordResetToken backs the forgot-password flow. Single-use, short lived.
type PasswordResetToken struct {
	BaseModel
	Email     string     `gorm:"index" json:"email"`
	Token     string     `gorm:"uniqueIndex" json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
}
