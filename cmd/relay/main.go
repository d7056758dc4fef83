package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JustinArce/MicroservicioPedidos/internal/application/factories/infrastructure"
	"github.com/JustinArce/MicroservicioPedidos/internal/config"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/kafka"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/postgres"
	"github.com/JustinArce/MicroservicioPedidos/internal/relay"
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

	// Metrics sidecar
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("relay metrics listening on :9093")
		http.ListenAndServe(":9093", mux)
	}()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	producer := kafka.NewProducer(kafka.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer producer.Close()

	outboxRepo := postgres.NewOutboxRepository(pgPool)
	poller := relay.NewPoller(outboxRepo, producer, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize)

	logger.Info("outbox relay starting", "topic", producer.Topic())
	if err := poller.Run(ctx); err != nil {
		logger.Error("relay stopped", "error", err)
		os.Exit(1)
	}
}
