package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/credential-auth/internal/api/http/handlers"
	"github.com/spec-kit/credential-auth/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/login", cfg.Auth.Login)
	app.Post("/register", cfg.Auth.Register)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/me", cfg.Auth.Me)
	protected.Post("/logout", cfg.Auth.Logout)
}
