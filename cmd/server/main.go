package main

import (
	"context"
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
	"github.com/modcore/shop-backend/internal/cache"
	"github.com/modcore/shop-backend/internal/catalog"
	"github.com/modcore/shop-backend/internal/config"
	"github.com/modcore/shop-backend/internal/database"
	"github.com/modcore/shop-backend/internal/handlers"
	"github.com/modcore/shop-backend/internal/jobs"
	"github.com/modcore/shop-backend/internal/logging"
	"github.com/modcore/shop-backend/internal/middleware"
	"github.com/modcore/shop-backend/internal/mq"
	"github.com/modcore/shop-backend/internal/routes"
	"github.com/modcore/shop-backend/internal/services"
	"github.com/modcore/shop-backend/internal/store/postgres"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Product catalog
	cat, err := catalog.LoadFromFile(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load product catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	slog.Info("product catalog loaded", "products", cat.Len())

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Client-state cache: redis when configured, in-process otherwise
	var snaps cache.Store
	var cachePing func() error
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(cfg)
		if err != nil {
			slog.Error("redis connection failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		snaps = redisStore
		cachePing = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisStore.Ping(ctx)
		}
		slog.Info("redis cache connected", "addr", cfg.RedisAddr)
	} else {
		snaps = cache.NewMemoryStore()
		slog.Info("using in-memory cache")
	}

	db := postgres.New(database.DB)

	bg, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Services
	reconciler := services.NewReconciler(db, snaps, cfg.ReconcileInterval)
	go reconciler.Start(bg)

	authService := services.NewAuthService(db, db, cfg)
	authService.OnAuthStateChange(reconciler.HandleAuthEvent)

	cartService := services.NewCartService(cat)
	walletService := services.NewWalletService(db, db, db, snaps, cat, cartService, reconciler, cfg.TopicPurchases)
	promoService := services.NewPromoService(db, db, db, snaps, reconciler, cfg.TopicRedemptions)
	profileService := services.NewProfileService(db, db, snaps, cfg)
	adminService := services.NewAdminService(db, db, db, reconciler)
	announcementService := services.NewAnnouncementService(database.DB)

	// Kafka outbox delivery (optional)
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := mq.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			slog.Error("kafka producer init failed", "brokers", cfg.KafkaBrokers, "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		sender := jobs.NewOutboxSender(db, producer, cfg)
		go sender.Start(bg)
		slog.Info("kafka outbox delivery enabled", "brokers", cfg.KafkaBrokers)
	} else {
		slog.Info("kafka disabled, settlement events stay in the outbox table")
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(cat, cachePing)
	shopHandler := handlers.NewShopHandler(cat, walletService, cartService)
	cartHandler := handlers.NewCartHandler(cartService, walletService)
	promoHandler := handlers.NewPromoHandler(promoService)
	profileHandler := handlers.NewProfileHandler(profileService, reconciler, walletService)
	announcementHandler := handlers.NewAnnouncementHandler(announcementService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
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
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, db,
		authHandler, healthHandler, shopHandler, cartHandler,
		promoHandler, profileHandler, announcementHandler, adminHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	stopBackground()
	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
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
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
