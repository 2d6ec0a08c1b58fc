package main

import (
	"os"
	"os/signal"
	"syscall"

	"crm-backend/config"
	"crm-backend/controllers"
	"crm-backend/database"
	"crm-backend/geocoding"
	"crm-backend/logger"
	"crm-backend/middlewares"
	"crm-backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})
	defer func() { _ = log.Sync() }()

	// ---- Database
	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimit(),
	})

	app.Use(recover.New())
	app.Use(middlewares.RequestID())
	app.Use(logger.FiberMiddleware(log))

	// ---- CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Request-ID",
	}))

	// ---- Global rate limiter (applies to all routes; tune via env)
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, API runs without authentication")
	}

	// ---- Routes
	geocoder := geocoding.NewClient(geocoding.Options{
		BaseURL:   cfg.Geocoder.URL,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   cfg.Geocoder.Timeout,
		Delay:     cfg.Geocoder.Delay,
	}, log)
	handlers := controllers.New(db, geocoder, cfg.Geocoder.CountryCodes)
	routes.Register(app, handlers, routes.Options{DB: db, JWTSecret: cfg.JWTSecret})

	// ---- Start
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		_ = app.Shutdown()
	}()

	log.Info("API server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
