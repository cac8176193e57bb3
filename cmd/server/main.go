package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/example/storehub/internal/cache"
	"github.com/example/storehub/internal/config"
	"github.com/example/storehub/internal/database"
	"github.com/example/storehub/internal/routes"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	db := database.Connect(cfg.DatabaseURL)

	redis := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redis.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis unavailable, caching disabled")
		redis = nil
	}
	cancel()

	app := fiber.New(fiber.Config{
		AppName:      "StoreHub Backend",
		ErrorHandler: routes.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	routes.Register(app, db, cfg, redis, log)

	log.WithField("port", cfg.AppPort).Info("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
