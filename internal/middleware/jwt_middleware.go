package middleware

import (
	"errors"
	"strings"

	"marketplace/internal/apperror"
	"marketplace/internal/models"
	"marketplace/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const claimKey = "auth_claim"

// Guard builds an authentication middleware admitting the given roles.
// Calling it without roles admits any authenticated user.
type Guard func(roles ...models.Role) fiber.Handler

// NewGuard returns the Guard backed by authService.
func NewGuard(authService *services.AuthService) Guard {
	return func(roles ...models.Role) fiber.Handler {
		return AuthRequired(authService, roles...)
	}
}

// AuthRequired is a Fiber middleware that checks for a valid JWT bearer token
// whose role is one of roles.
func AuthRequired(authService *services.AuthService, roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
				"error":   apperror.ErrUnauthenticated.Error(),
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
				"error":   apperror.ErrUnauthenticated.Error(),
			})
		}

		claim, err := authService.Authorize(c.UserContext(), strings.TrimSpace(parts[1]), roles...)
		if err != nil {
			switch {
			case errors.Is(err, apperror.ErrForbidden):
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"message": "Insufficient permissions",
					"error":   err.Error(),
				})
			case errors.Is(err, apperror.ErrUnauthenticated):
				log.Debug().Err(err).Str("path", c.Path()).Msg("JWT validation failed")
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"message": "Invalid or expired token",
					"error":   err.Error(),
				})
			default:
				log.Error().Err(err).Str("path", c.Path()).Msg("authorization lookup failed")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": "Could not verify credentials",
					"error":   "internal server error",
				})
			}
		}

		c.Locals(claimKey, claim)
		return c.Next()
	}
}

// ClaimFrom returns the claim stored by AuthRequired.
func ClaimFrom(c *fiber.Ctx) (services.AuthClaim, bool) {
	claim, ok := c.Locals(claimKey).(services.AuthClaim)
	return claim, ok
}
