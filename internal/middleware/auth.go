package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storehub/internal/models"
	"github.com/example/storehub/internal/services"
)

const (
	userContextKey  = "currentUser"
	tokenContextKey = "currentToken"
)

// AuthMiddleware resolves the bearer token against the auth_tokens table and
// loads the authenticated user into context. Expired tokens answer with a
// distinct message so clients know to refresh.
func AuthMiddleware(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		user, err := tokens.Authenticate(parts[1])
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				return fiber.NewError(fiber.StatusUnauthorized, "token expired")
			}
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, user)
		c.Locals(tokenContextKey, parts[1])
		return c.Next()
	}
}

// RequireVerified rejects users who have not verified their email.
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetCurrentUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if !user.IsVerified() {
			return fiber.NewError(fiber.StatusForbidden, "email not verified")
		}
		return c.Next()
	}
}

// GetCurrentToken extracts the bearer token the request authenticated with.
func GetCurrentToken(c *fiber.Ctx) string {
	if token, ok := c.Locals(tokenContextKey).(string); ok {
		return token
	}
	return ""
}

// GetCurrentUser extracts the authenticated user from context.
func GetCurrentUser(c *fiber.Ctx) (*models.User, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return nil, false
	}

	if user, ok := value.(*models.User); ok {
		return user, true
	}

	return nil, false
}
