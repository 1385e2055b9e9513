package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"bloodlink/internal/auth"
	"bloodlink/internal/cache"
	"bloodlink/internal/config"
	"bloodlink/internal/db"
	"bloodlink/internal/handler"
	"bloodlink/internal/logger"
	"bloodlink/internal/match"
	"bloodlink/internal/notify"
	"bloodlink/internal/remote"
	"bloodlink/internal/repository"
	"bloodlink/internal/router"
	"bloodlink/internal/service"
	syncengine "bloodlink/internal/sync"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewSQLite(cfg.SQLitePath)
	if err != nil {
		log.Fatal("local store init", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("local store migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	store, err := remote.NewArangoStore(context.Background(), remote.ArangoConfig{
		URL:      cfg.ArangoURL,
		User:     cfg.ArangoUser,
		Pass:     cfg.ArangoPass,
		Database: cfg.ArangoDB,
	}, log)
	if err != nil {
		log.Fatal("remote store init", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	requestRepo := repository.NewRequestRepository(gormDB)
	centerRepo := repository.NewCenterRepository(gormDB)

	// Auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Matching and notification pipeline
	matcher := match.NewMatcher(userRepo)
	scheduler := notify.NewLogScheduler(log)
	dispatcher := notify.NewDispatcher(scheduler, cacheClient, log)

	// Sync engine
	engine := syncengine.NewEngine(userRepo, requestRepo, centerRepo, store, log)

	// Services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, cacheClient)
	requestService := service.NewRequestService(requestRepo, store, matcher, dispatcher, log)
	centerService := service.NewCenterService(centerRepo, nil, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	requestHandler := handler.NewRequestHandler(requestService, jwtService)
	centerHandler := handler.NewCenterHandler(centerService)
	syncHandler := handler.NewSyncHandler(engine)

	router.Register(e, cfg, authHandler, userHandler, requestHandler, centerHandler, syncHandler)

	// Opportunistic background sync: one pass at startup, then on a timer.
	// In-flight passes absorb overlapping triggers.
	syncCtx, cancelSync := context.WithCancel(context.Background())
	defer cancelSync()
	go func() {
		if err := engine.SyncAll(syncCtx); err != nil {
			log.Warn("initial sync", zap.Error(err))
		}
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := engine.SyncAll(syncCtx); err != nil {
					log.Warn("background sync", zap.Error(err))
				}
			case <-syncCtx.Done():
				return
			}
		}
	}()

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatal("server start", zap.Error(err))
	}
}
