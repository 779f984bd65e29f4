package server

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/handlers"
	"marketplace/internal/middleware"
	"marketplace/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
)

// Deps are the services the HTTP API is built on.
type Deps struct {
	Auth     *services.AuthService
	Users    *services.UserService
	Products *services.ProductService
	Orders   *services.OrderService

	// LoginRateLimit caps login attempts per client IP per minute; 0 disables it.
	LoginRateLimit int
	// Ping reports database health for /health. Optional.
	Ping func(ctx context.Context) error
}

// New builds the Fiber app with every route registered.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "marketplace",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	guard := middleware.NewGuard(deps.Auth)

	handlers.NewAuthHandler(deps.Auth).RegisterRoutes(app, loginLimiter(deps.LoginRateLimit))
	handlers.NewUserHandler(deps.Users).RegisterRoutes(app, guard)
	handlers.NewProductHandler(deps.Products).RegisterRoutes(app, guard)
	handlers.NewOrderHandler(deps.Orders).RegisterRoutes(app, guard)

	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":   "unhealthy",
					"time":     time.Now().Format(time.RFC3339),
					"database": "down",
				})
			}
		}
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "up",
		})
	})

	return app
}

func loginLimiter(max int) fiber.Handler {
	if max <= 0 {
		return nil
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many login attempts",
				"error":   "rate limit exceeded",
			})
		},
	})
}

// errorHandler keeps the {"message","error"} body shape for errors that
// escape the handlers, such as unknown routes.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"message": fe.Message,
			"error":   fe.Error(),
		})
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal server error",
		"error":   "internal server error",
	})
}
