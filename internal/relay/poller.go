// Package relay publishes committed events from the outbox to the event
// bus. Publishing is at-least-once: a record is marked processed only after
// the bus accepted it, and failed records are requeued, never dropped.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/event"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/outbox"
)

var (
	eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_outbox_events_published_total",
		Help: "The total number of events published to the bus",
	})
	publishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_outbox_publish_errors_total",
		Help: "The total number of failed publish attempts",
	})
)

// Publisher is the bus seam; satisfied by the Kafka producer and the
// in-memory bus. Key is the aggregate id so one order stays ordered.
type Publisher interface {
	SendMessage(ctx context.Context, key, value []byte) error
}

type Poller struct {
	outboxRepo outbox.Repository
	publisher  Publisher
	interval   time.Duration
	batchSize  int
}

func NewPoller(outboxRepo outbox.Repository, publisher Publisher, interval time.Duration, batchSize int) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Poller{outboxRepo: outboxRepo, publisher: publisher, interval: interval, batchSize: batchSize}
}

func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	slog.Info("outbox relay started", "interval", p.interval, "batch_size", p.batchSize)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.ProcessBatch(ctx); err != nil {
				slog.Error("failed to process outbox batch", "error", err)
			}
		}
	}
}

// ProcessBatch claims one batch and publishes it. A failed record stops
// further sends for its aggregate in this batch so stream order survives
// the retry. The guard assumes a single relay instance: concurrent pollers
// can split one aggregate's records across batches via SKIP LOCKED and
// publish them out of order, leaving the projector's gap resync to absorb
// the reordering.
func (p *Poller) ProcessBatch(ctx context.Context) error {
	records, err := p.outboxRepo.FetchBatch(ctx, p.batchSize)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	var processedIDs, failedIDs []string
	skipAggregate := make(map[string]bool)

	for _, rec := range records {
		if skipAggregate[rec.AggregateID] {
			failedIDs = append(failedIDs, rec.ID)
			continue
		}

		msg := event.Message{
			ID:             rec.ID,
			AggregateID:    rec.AggregateID,
			SequenceNumber: rec.SequenceNumber,
			Type:           rec.EventType,
			CorrelationID:  rec.CorrelationID,
			CausationID:    rec.CausationID,
			Producer:       rec.Producer,
			OccurredAt:     rec.OccurredAt,
			Payload:        rec.Payload,
		}

		value, err := json.Marshal(msg)
		if err != nil {
			slog.Error("failed to marshal envelope", "event_id", rec.ID, "error", err)
			publishErrors.Inc()
			failedIDs = append(failedIDs, rec.ID)
			skipAggregate[rec.AggregateID] = true
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = p.publisher.SendMessage(sendCtx, []byte(rec.AggregateID), value)
		cancel()

		if err != nil {
			slog.Error("failed to publish event", "event_id", rec.ID, "error", err)
			publishErrors.Inc()
			failedIDs = append(failedIDs, rec.ID)
			skipAggregate[rec.AggregateID] = true
			continue
		}

		eventsPublished.Inc()
		processedIDs = append(processedIDs, rec.ID)
	}

	if len(processedIDs) > 0 {
		if err := p.outboxRepo.MarkProcessed(ctx, processedIDs); err != nil {
			return err
		}
	}

	if len(failedIDs) > 0 {
		if err := p.outboxRepo.Requeue(ctx, failedIDs); err != nil {
			slog.Error("failed to requeue outbox records", "error", err)
		}
	}

	return nil
}
