// Package catalog consumes OrderConfirmed events on behalf of the product
// catalog and decrements stock for each confirmed line item. Delivery is
// at-least-once, so every event is deduplicated through the inbox before
// any stock change.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/event"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/order"
)

const consumerName = "catalog-service"

var (
	ordersProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_orders_processed_total",
		Help: "The total number of confirmed orders applied to stock",
	})
	duplicateDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_duplicate_deliveries_total",
		Help: "The total number of redelivered events skipped by the inbox",
	})
)

// Inbox is the dedup record keyed by (consumer, event id).
type Inbox interface {
	SaveIfNotExists(ctx context.Context, consumer, eventID, eventType, correlationID string) (bool, error)
}

// Products adjusts stock levels.
type Products interface {
	DecrementStock(ctx context.Context, productID string, quantity int) error
}

// Transactor scopes the inbox mark and the stock change to one commit.
type Transactor interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
}

type Consumer struct {
	txManager Transactor
	inbox     Inbox
	products  Products
}

func NewConsumer(txManager Transactor, inbox Inbox, products Products) *Consumer {
	return &Consumer{txManager: txManager, inbox: inbox, products: products}
}

// HandleWithRetry retries Handle with exponential backoff, returning the
// last error once attempts are exhausted. Callers must not acknowledge the
// delivery on error: a lost OrderConfirmed has no later event to trigger a
// resync, so the only recovery is redelivery.
func (c *Consumer) HandleWithRetry(ctx context.Context, raw []byte, attempts int, backoff time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := backoff * time.Duration(1<<(attempt-1))
			slog.Info("retrying stock update", "attempt", attempt, "backoff", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		if lastErr = c.Handle(ctx, raw); lastErr == nil {
			return nil
		}
		slog.Error("failed to handle event", "error", lastErr)
	}
	return lastErr
}

// Handle processes one delivered envelope. Non-OrderConfirmed events are
// ignored; duplicates are no-ops. The inbox mark commits atomically with
// the stock decrement, so a crash never double-applies an event.
func (c *Consumer) Handle(ctx context.Context, raw []byte) error {
	var msg event.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		// Not our envelope, or corrupt. Log and move on.
		slog.Error("failed to unmarshal event envelope", "error", err)
		return nil
	}

	if msg.Type != order.TypeOrderConfirmed {
		return nil
	}

	ev, err := order.UnmarshalEvent(msg.Type, msg.Payload)
	if err != nil {
		return fmt.Errorf("decode event %s: %w", msg.ID, err)
	}
	confirmed, ok := ev.(order.OrderConfirmed)
	if !ok {
		return fmt.Errorf("event %s: unexpected payload for %s", msg.ID, msg.Type)
	}

	return c.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		isNew, err := c.inbox.SaveIfNotExists(txCtx, consumerName, msg.ID, msg.Type, msg.CorrelationID)
		if err != nil {
			return fmt.Errorf("inbox save: %w", err)
		}
		if !isNew {
			duplicateDeliveries.Inc()
			return nil
		}

		for _, item := range confirmed.Items {
			if err := c.products.DecrementStock(txCtx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		ordersProcessed.Inc()
		slog.Info("stock adjusted for confirmed order",
			"order_id", confirmed.OrderID, "items", len(confirmed.Items))
		return nil
	})
}
