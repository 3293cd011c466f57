package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nlevin/shortly/internal/config"
	"github.com/nlevin/shortly/internal/notifier"
	"github.com/nlevin/shortly/internal/repository"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	sugar.Infow("Starting URL access consumer")

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("Configuration error",
			"error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("Failed to connect to PostgreSQL",
			"error", err.Error())
	}
	defer repo.Close()

	consumer := notifier.NewConsumer(cfg.Brokers(), cfg.KafkaTopic, cfg.KafkaGroupID, repo, logger)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sugar.Infow("Consumer started",
		"topic", cfg.KafkaTopic,
		"group_id", cfg.KafkaGroupID)

	if err := consumer.Run(ctx); err != nil {
		sugar.Fatalw("Consumer stopped",
			"error", err.Error())
	}

	sugar.Infow("Consumer shut down")
}
