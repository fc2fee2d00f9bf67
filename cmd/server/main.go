package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidolearn/kidolearn-api/internal/api"
	"github.com/kidolearn/kidolearn-api/internal/config"
	"github.com/kidolearn/kidolearn-api/internal/logger"
	"github.com/kidolearn/kidolearn-api/internal/ratelimit"
	"github.com/kidolearn/kidolearn-api/internal/repository/postgres"
	"github.com/kidolearn/kidolearn-api/internal/service"
	"github.com/kidolearn/kidolearn-api/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Setup(cfg.LogLevel, cfg.Environment)

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	repos := postgres.NewRepositories(db)

	// Rate-limit store: Redis when configured, in-process otherwise
	var store ratelimit.Store
	if cfg.RedisURL != "" {
		store, err = ratelimit.NewRedisStore(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		log.Info().Msg("rate limiting backed by redis")
	} else {
		store = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.NewLimiter(store, cfg.RateLimitPerMinute, time.Minute)

	services := service.NewServices(repos, cfg)

	hub := websocket.NewHub()
	go hub.Run()

	var ready atomic.Bool
	ready.Store(true)

	router := api.NewRouter(services, hub, limiter, cfg, &ready)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received")

	// Fail readiness first so load balancers stop routing before the
	// listener drains
	ready.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	hub.Stop()

	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close rate-limit store")
	}

	log.Info().Msg("server stopped")
}
