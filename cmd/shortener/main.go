package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nlevin/shortly/internal/cache"
	"github.com/nlevin/shortly/internal/config"
	"github.com/nlevin/shortly/internal/handler"
	"github.com/nlevin/shortly/internal/middleware"
	"github.com/nlevin/shortly/internal/notifier"
	"github.com/nlevin/shortly/internal/repository"
	"github.com/nlevin/shortly/internal/service"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	sugar.Infow("Starting URL shortener service")

	cfg, err := config.ParseFlags()
	if err != nil {
		sugar.Fatalw("Configuration error",
			"error", err.Error())
	}

	sugar.Infow("Configuration loaded",
		"server_address", cfg.ServerAddress,
		"kafka_topic", cfg.KafkaTopic,
	)

	repo, err := repository.NewPostgresRepository(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("Failed to connect to PostgreSQL",
			"error", err.Error())
	}
	defer repo.Close()

	urlCache, err := cache.NewURLCache(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		sugar.Fatalw("Failed to connect to Redis",
			"error", err.Error())
	}
	defer urlCache.Close()

	producer := notifier.NewProducer(cfg.Brokers(), cfg.KafkaTopic, logger)
	defer producer.Close()

	authService, err := service.NewAuthService(repo, cfg.JWTSecret, logger)
	if err != nil {
		sugar.Fatalw("Failed to create auth service",
			"error", err.Error())
	}

	shortenerService := service.NewShortenerService(repo, urlCache, producer, logger)

	h := handler.NewHandler(authService, shortenerService, logger)
	authMW := middleware.NewAuthMiddleware(authService, logger)

	server := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: h.SetupRouter(authMW),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		sugar.Infow("Server starting",
			"address", cfg.ServerAddress)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw(err.Error(), "event", "start server")
		}
	}()

	<-ctx.Done()

	sugar.Infow("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Server shutdown failed",
			"error", err.Error())
	}
}
