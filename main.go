package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"promptly/api"
	"promptly/config"
	"promptly/storage"
)

func main() {
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.Level())

	logger := log.New()
	logger.SetLevel(cfg.Level())
	logger.SetFormatter(&log.JSONFormatter{})

	rc := cfg.RedisClient()
	if rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable; using local cache only until it recovers")
		}
		cancel()
	}

	src, err := cfg.PromptSource(rc, logger)
	if err != nil {
		log.Fatalf("prompt source: %v", err)
	}

	var events api.CopyEventPublisher
	if cfg.CopyEventsQueue != "" {
		q, err := storage.NewCopyEventQueue(cfg.StorageConnection, cfg.CopyEventsQueue)
		if err != nil {
			log.Fatalf("copy events queue: %v", err)
		}
		events = q
	}
	var deduper api.Deduper
	if rc != nil {
		deduper = api.NewRedisDeduper(rc, cfg.DedupeTTL)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderContentEncoding},
	}))

	api.Register(e, src, events, deduper, logger)

	logger.WithFields(log.Fields{
		"source": cfg.Source,
		"key":    src.Key(),
		"addr":   cfg.ListenAddr,
	}).Info("prompt library listening")
	e.Logger.Fatal(e.Start(cfg.ListenAddr))
}
