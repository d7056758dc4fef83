package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JustinArce/MicroservicioPedidos/internal/application/factories/infrastructure"
	"github.com/JustinArce/MicroservicioPedidos/internal/config"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/event"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/kafka"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/postgres"
	"github.com/JustinArce/MicroservicioPedidos/internal/projection"
)

func main() {
	rebuild := flag.Bool("rebuild", false, "rebuild the read model from the event store and exit")
	flag.Parse()

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
		logger.Info("projector metrics listening on :9092")
		http.ListenAndServe(":9092", mux)
	}()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	redisClient, err := infraFactory.Redis(ctx)
	if err != nil {
		logger.Warn("redis unavailable, cache invalidation disabled", "error", err)
		redisClient = nil
	}

	eventStore := postgres.NewEventStore(pgPool)
	summaryRepo := postgres.NewSummaryRepository(pgPool)
	projector := projection.NewProjector(eventStore, summaryRepo, redisClient)

	if *rebuild {
		logger.Info("rebuilding read model from event store")
		if err := projector.Rebuild(ctx); err != nil {
			logger.Error("rebuild failed", "error", err)
			os.Exit(1)
		}
		logger.Info("rebuild complete")
		return
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer consumer.Close()

	logger.Info("projector started", "topic", cfg.Kafka.Topic, "group_id", cfg.Kafka.GroupID)

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to fetch message", "error", err)
			time.Sleep(1 * time.Second)
			continue
		}

		var envelope event.Message
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			// Not our envelope, or corrupt. Commit and move on.
			logger.Error("failed to unmarshal event envelope", "error", err)
			if err := consumer.CommitMessages(ctx, msg); err != nil {
				logger.Error("failed to commit offset", "error", err)
			}
			continue
		}

		// The offset is committed only after the read model durably holds
		// the event. If retries are exhausted we exit without committing;
		// the group redelivers the message on restart.
		if err := projector.ApplyWithRetry(ctx, envelope, 5, time.Second); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("giving up on event, exiting uncommitted", "event_id", envelope.ID, "error", err)
			os.Exit(1)
		}

		if err := consumer.CommitMessages(ctx, msg); err != nil {
			logger.Error("failed to commit offset", "error", err)
		}
	}
}
