package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/storehub/internal/config"
	"github.com/example/storehub/internal/middleware"
	"github.com/example/storehub/internal/models"
	"github.com/example/storehub/internal/services"
	"github.com/example/storehub/internal/utils"
)

var validate = validator.New()

const passwordResetTTL = 30 * time.Minute

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db           *gorm.DB
	cfg          *config.Config
	tokens       *services.TokenService
	verification *services.VerificationService
	mailer       services.MailSender
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, tokens *services.TokenService, verification *services.VerificationService, mailer services.MailSender) *AuthHandler {
	return &AuthHandler{
		db:           db,
		cfg:          cfg,
		tokens:       tokens,
		verification: verification,
		mailer:       mailer,
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register creates a new user account and emails a verification code.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return services.Conflict("email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: &passwordHash,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	code, err := h.verification.Generate(user.Email, models.CodeTypeEmailVerification)
	if err != nil {
		return err
	}
	if err := h.mailer.SendVerificationCode(user.Email, code.Code); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    userResponse(&user),
		"message": "verification code sent",
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a user and issues a fresh token pair. Issuing revokes
// any previous session.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.Unauthorized("invalid credentials", services.ErrInvalidCredentials)
		}
		return err
	}

	if user.PasswordHash == nil || !utils.CheckPassword(*user.PasswordHash, req.Password) {
		return services.Unauthorized("invalid credentials", services.ErrInvalidCredentials)
	}
	if !user.IsVerified() {
		return services.Forbidden("verify your email before logging in")
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    userResponse(&user),
		"tokens":  pair,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates the token pair. The presented refresh token and every
// other token of the user are revoked by the rotation.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	pair, err := h.tokens.Refresh(req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"tokens":  pair,
	})
}

// Logout revokes tokens for the current user. Scope "current" drops only the
// token this request authenticated with; the default "all" ends the session
// everywhere.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	scope := services.RevokeScope(c.Query("scope", string(services.RevokeScopeAll)))
	if err := h.tokens.Revoke(user.ID, scope, middleware.GetCurrentToken(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    userResponse(user),
	})
}

type verifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// VerifyEmail consumes a verification code, marks the account verified and
// logs the user straight in with their first token pair.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req verifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	if err := h.verification.Verify(req.Email, req.Code, models.CodeTypeEmailVerification); err != nil {
		return err
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return err
	}

	now := time.Now()
	if err := h.db.Model(&user).Update("email_verified_at", &now).Error; err != nil {
		return err
	}
	user.EmailVerifiedAt = &now

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    userResponse(&user),
		"tokens":  pair,
	})
}

// VerificationStatus reports whether an email address is verified.
func (h *AuthHandler) VerificationStatus(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return services.ValidationError("email query parameter is required")
	}

	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.NotFound("user not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"verified": user.IsVerified(),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword sets a new password for the authenticated user. Every session
// is revoked and a fresh pair is returned so the current client stays logged in.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	if user.PasswordHash == nil || !utils.CheckPassword(*user.PasswordHash, req.CurrentPassword) {
		return services.Unauthorized("current password is incorrect", services.ErrInvalidCredentials)
	}

	passwordHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := h.db.Model(user).Update("password_hash", passwordHash).Error; err != nil {
		return err
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"tokens":  pair,
	})
}

type resendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResendVerification issues a new code, subject to the resend throttle.
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req resendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.NotFound("user not found")
		}
		return err
	}
	if user.IsVerified() {
		return services.Conflict("email is already verified")
	}

	code, err := h.verification.Generate(user.Email, models.CodeTypeEmailVerification)
	if err != nil {
		return err
	}
	if err := h.mailer.SendVerificationCode(user.Email, code.Code); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "verification code sent",
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword emails a reset link. An unknown email gets the same answer
// as a known one so the endpoint does not leak account existence.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	accepted := fiber.Map{
		"success": true,
		"message": "if the email exists, a reset link was sent",
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(accepted)
		}
		return err
	}

	token, err := utils.GenerateToken(32)
	if err != nil {
		return err
	}

	// Expire previous unused reset tokens for this email.
	if err := h.db.Model(&models.PasswordResetToken{}).
		Where("email = ? AND used_at IS NULL", req.Email).
		Update("expires_at", time.Now()).Error; err != nil {
		return err
	}

	record := models.PasswordResetToken{
		Email:     req.Email,
		Token:     token,
		ExpiresAt: time.Now().Add(passwordResetTTL),
	}
	if err := h.db.Create(&record).Error; err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", h.cfg.FrontendURL, token)
	if err := h.mailer.SendPasswordReset(req.Email, resetURL); err != nil {
		return err
	}

	return c.JSON(accepted)
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// ResetPassword consumes a reset token, sets the new password and revokes
// every session.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	var record models.PasswordResetToken
	if err := h.db.Where("token = ?", req.Token).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.ValidationError("invalid reset token")
		}
		return err
	}
	if record.UsedAt != nil {
		return services.ValidationError("reset token already used")
	}
	if record.ExpiresAt.Before(time.Now()) {
		return services.ValidationError("reset token expired")
	}

	var user models.User
	if err := h.db.Where("email = ?", record.Email).First(&user).Error; err != nil {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return err
	}

	now := time.Now()
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password_hash", passwordHash).Error; err != nil {
			return err
		}
		return tx.Model(&record).Update("used_at", &now).Error
	})
	if err != nil {
		return err
	}

	// Rotate out every old session; the client continues with a fresh pair.
	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password updated",
		"tokens":  pair,
	})
}

func userResponse(user *models.User) fiber.Map {
	return fiber.Map{
		"id":          user.ID,
		"email":       user.Email,
		"is_verified": user.IsVerified(),
		"is_premium":  user.IsPremium,
	}
}
