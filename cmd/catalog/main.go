package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JustinArce/MicroservicioPedidos/internal/application/factories/infrastructure"
	"github.com/JustinArce/MicroservicioPedidos/internal/catalog"
	"github.com/JustinArce/MicroservicioPedidos/internal/config"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/kafka"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("catalog consumer metrics listening on :9094")
		http.ListenAndServe(":9094", mux)
	}()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	consumer := catalog.NewConsumer(
		postgres.NewTxManager(pgPool),
		postgres.NewInboxRepository(pgPool),
		postgres.NewProductRepository(pgPool),
	)

	groupID := "catalog-service"
	reader := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, groupID)
	defer reader.Close()

	logger.Info("catalog consumer started", "topic", cfg.Kafka.Topic, "group_id", groupID)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to fetch message", "error", err)
			time.Sleep(1 * time.Second)
			continue
		}

		// Never commit past a failed event: there is no later delivery
		// that would heal a lost stock decrement. Exit uncommitted and
		// let the group redeliver on restart.
		if err := consumer.HandleWithRetry(ctx, msg.Value, 5, time.Second); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("giving up on event, exiting uncommitted", "error", err)
			os.Exit(1)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error("failed to commit offset", "error", err)
		}
	}
}
