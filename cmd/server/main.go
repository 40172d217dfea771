package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/generator"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/storage/dynamostore"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/storage/gormstore"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/storage/memstore"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}

	// Services
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTIssuer, cfg.JWTAccessExpiry)
	if err != nil {
		slog.Error("invalid token settings", "error", err)
		os.Exit(1)
	}
	if cfg.OpenAIAPIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, plan generation will fail")
	}
	authService := services.NewAuthService(store, tokens, cfg.BcryptCost)
	planService := services.NewPlanService(store, generator.NewOpenAIGenerator(cfg), cfg.AITimeout)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	planHandler := handlers.NewPlanHandler(planService)
	healthHandler := handlers.NewHealthHandler(store)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.Metrics())
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// Routes
	routes.Setup(app, authService, authHandler, planHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreBackend)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(cfg.AITimeout + 5*time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	closeStore()
	sentry.Flush(2 * time.Second)

	slog.Info("server stopped")
}

// openStore builds the configured backend. The returned func releases
// whatever the backend holds open.
func openStore(cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		slog.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil

	case config.BackendDynamoDB:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := dynamostore.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		store := dynamostore.New(client, cfg.AuthTable, cfg.ProfileTable)
		if err := store.Ping(ctx); err != nil {
			slog.Warn("dynamodb tables not reachable yet", "error", err)
		}
		return store, func() {}, nil

	case config.BackendPostgres:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, nil, err
		}
		store := gormstore.New(db, cfg.AuthTable, cfg.ProfileTable)
		if err := store.Migrate(); err != nil {
			return nil, nil, err
		}
		if err := database.MigrateLogs(db); err != nil {
			return nil, nil, err
		}

		// Ship ERROR logs to service_logs and keep 30 days of them.
		sink := logging.NewDBSink(logging.GormLogWriter{DB: db}, 50, 5*time.Second)
		logging.Setup(sink)
		cleanupDone := make(chan struct{})
		logging.StartCleanup(db, logging.DefaultRetention, cleanupDone)

		return store, func() {
			close(cleanupDone)
			sink.Stop()
			if err := database.Close(db); err != nil {
				slog.Error("database close error", "error", err)
			}
		}, nil
	}
	return nil, nil, errors.New("unknown store backend " + cfg.StoreBackend)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
