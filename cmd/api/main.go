package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JustinArce/MicroservicioPedidos/internal/api"
	"github.com/JustinArce/MicroservicioPedidos/internal/application/factories/infrastructure"
	"github.com/JustinArce/MicroservicioPedidos/internal/config"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/postgres"
	"github.com/JustinArce/MicroservicioPedidos/internal/usecase"
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

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	redisClient, err := infraFactory.Redis(ctx)
	if err != nil {
		// The API degrades without redis: no idempotency keys, no read
		// cache. Commands and queries still work.
		logger.Warn("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	// Storage
	eventStore := postgres.NewEventStore(pgPool)
	outboxRepo := postgres.NewOutboxRepository(pgPool)
	summaryRepo := postgres.NewSummaryRepository(pgPool)
	txManager := postgres.NewTxManager(pgPool)

	// Command side
	retries := cfg.Command.MaxRetries
	createOrderUC := usecase.NewCreateOrder(txManager, eventStore, outboxRepo, retries)
	addItemUC := usecase.NewAddItem(txManager, eventStore, outboxRepo, retries)
	confirmOrderUC := usecase.NewConfirmOrder(txManager, eventStore, outboxRepo, retries)
	shipOrderUC := usecase.NewShipOrder(txManager, eventStore, outboxRepo, retries)
	deliverOrderUC := usecase.NewDeliverOrder(txManager, eventStore, outboxRepo, retries)
	cancelOrderUC := usecase.NewCancelOrder(txManager, eventStore, outboxRepo, retries)

	// Query side
	getOrderUC := usecase.NewGetOrder(redisClient, summaryRepo)
	listOrdersUC := usecase.NewListOrders(summaryRepo)
	getOrderEventsUC := usecase.NewGetOrderEvents(eventStore)

	handlers := api.NewHandlers(
		createOrderUC, addItemUC, confirmOrderUC,
		shipOrderUC, deliverOrderUC, cancelOrderUC,
		getOrderUC, listOrdersUC, getOrderEventsUC,
	)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: api.NewRouter(handlers, redisClient),
	}

	go func() {
		logger.Info("server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exiting")
}
