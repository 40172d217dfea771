package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/services"
)

func Setup(
	app *fiber.App,
	authService *services.AuthService,
	authHandler *handlers.AuthHandler,
	planHandler *handlers.PlanHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Probes are not rate limited
	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// General API rate limiter: 60 req/min per IP
	api := app.Group("/", limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	authLimit := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	api.Post("/register", authLimit, authHandler.Register)
	api.Post("/login", authLimit, authHandler.Login)

	// Protected routes (bearer token required)
	protected := middleware.RequireAuth(authService)
	api.Get("/me", protected, authHandler.Me)
	api.Post("/plan", protected, planHandler.CreatePlan)
	api.Get("/plan", protected, planHandler.GetPlan)
}
