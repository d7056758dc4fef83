// Package projection maintains the OrderSummary read model from the event
// stream. Apply is idempotent and replay safe: redelivered events are
// skipped by sequence number and gaps trigger a resync from the store.
package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/event"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/order"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/summary"
	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
)

var (
	eventsProjected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projector_events_applied_total",
		Help: "The total number of events applied to the read model",
	})
	duplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projector_duplicates_skipped_total",
		Help: "The total number of already-applied events skipped",
	})
	resyncs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projector_resyncs_total",
		Help: "The total number of stream resyncs triggered by sequence gaps",
	})
	applyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "projector_apply_duration_seconds",
		Help:    "Time taken to apply one event to the read model",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})
)

const rebuildBatchSize = 500

type Projector struct {
	store     eventstore.Store
	summaries summary.Store
	// optional: invalidates the query-side cache after each update
	redisClient *redis.Client
}

func NewProjector(store eventstore.Store, summaries summary.Store, redisClient *redis.Client) *Projector {
	return &Projector{store: store, summaries: summaries, redisClient: redisClient}
}

// Apply updates the read model for one delivered envelope. Events at or
// below the summary's last applied sequence are no-ops; an event more than
// one step ahead means deliveries were lost or reordered, so the whole
// stream is re-read from the store instead of applying partial state.
func (p *Projector) Apply(ctx context.Context, msg event.Message) error {
	started := time.Now()
	defer func() { applyDuration.Observe(time.Since(started).Seconds()) }()

	cur, err := p.summaries.Get(ctx, msg.AggregateID)
	if errors.Is(err, summary.ErrNotFound) {
		cur = &summary.OrderSummary{OrderID: msg.AggregateID}
	} else if err != nil {
		return fmt.Errorf("load summary: %w", err)
	}

	switch {
	case msg.SequenceNumber <= cur.LastEventSeq:
		duplicatesSkipped.Inc()
		return nil
	case msg.SequenceNumber > cur.LastEventSeq+1:
		resyncs.Inc()
		return p.Resync(ctx, msg.AggregateID)
	}

	ev, err := order.UnmarshalEvent(msg.Type, msg.Payload)
	if err != nil {
		return fmt.Errorf("decode event %s: %w", msg.ID, err)
	}

	next := advance(*cur, ev)
	next.LastEventSeq = msg.SequenceNumber
	return p.save(ctx, &next)
}

// ApplyWithRetry retries Apply with exponential backoff. It returns the
// last error once attempts are exhausted so the caller can hold back the
// delivery acknowledgement and let the bus redeliver.
func (p *Projector) ApplyWithRetry(ctx context.Context, msg event.Message, attempts int, backoff time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := backoff * time.Duration(1<<(attempt-1))
			slog.Info("retrying apply", "attempt", attempt, "backoff", wait, "event_id", msg.ID)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		if lastErr = p.Apply(ctx, msg); lastErr == nil {
			return nil
		}
		slog.Error("failed to apply event", "event_id", msg.ID, "error", lastErr)
	}
	return lastErr
}

// Resync rebuilds one order's summary by folding its full stream.
func (p *Projector) Resync(ctx context.Context, orderID string) error {
	records, err := p.store.ReadStream(ctx, orderID, 0)
	if err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	s := &summary.OrderSummary{OrderID: orderID}
	for _, rec := range records {
		ev, err := order.UnmarshalEvent(rec.EventType, rec.Payload)
		if err != nil {
			return fmt.Errorf("decode event %s: %w", rec.EventID, err)
		}
		*s = advance(*s, ev)
		s.LastEventSeq = rec.SequenceNumber
	}

	return p.save(ctx, s)
}

// Rebuild replays the global feed from zero, restoring every summary. The
// read model is disposable: this is the recovery path after schema changes
// or data loss.
func (p *Projector) Rebuild(ctx context.Context) error {
	var pos int64
	for {
		records, err := p.store.ReadAll(ctx, pos, rebuildBatchSize)
		if err != nil {
			return fmt.Errorf("read global feed: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		for _, rec := range records {
			msg := event.Message{
				ID:             rec.EventID,
				AggregateID:    rec.AggregateID,
				SequenceNumber: rec.SequenceNumber,
				Type:           rec.EventType,
				Payload:        rec.Payload,
				OccurredAt:     rec.OccurredAt,
			}
			if err := p.Apply(ctx, msg); err != nil {
				return err
			}
			pos = rec.GlobalSeq
		}
	}
}

func (p *Projector) save(ctx context.Context, s *summary.OrderSummary) error {
	s.UpdatedAt = time.Now().UTC()
	saved, err := p.summaries.Save(ctx, s)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	if !saved {
		duplicatesSkipped.Inc()
		return nil
	}
	eventsProjected.Inc()

	if p.redisClient != nil {
		p.redisClient.Del(ctx, fmt.Sprintf("order-summary:%s", s.OrderID))
	}
	return nil
}

// advance applies one domain event to a summary value.
func advance(s summary.OrderSummary, ev order.Event) summary.OrderSummary {
	switch e := ev.(type) {
	case order.OrderCreated:
		s.CustomerID = e.CustomerID
		s.Status = string(order.StatusCreated)
		s.ItemCount = 0
		s.Total = 0
	case order.ItemAdded:
		s.ItemCount++
		s.Total += float64(e.Quantity) * e.UnitPrice
	case order.OrderConfirmed:
		s.Status = string(order.StatusConfirmed)
		// the event carries the authoritative total at confirmation
		s.Total = e.Total
		s.ItemCount = len(e.Items)
	case order.OrderShipped:
		s.Status = string(order.StatusShipped)
	case order.OrderDelivered:
		s.Status = string(order.StatusDelivered)
	case order.OrderCancelled:
		s.Status = string(order.StatusCancelled)
	}
	return s
}
