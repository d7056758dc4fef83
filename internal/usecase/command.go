package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/order"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/outbox"
	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/postgres"
)

const producerName = "order-service"

// runner is the shared command pipeline: load the stream, fold it into the
// aggregate, let the decision produce an event, then append event and
// outbox record in one transaction. A concurrency conflict means another
// command won the race on this order; the whole pipeline is retried
// against the fresh stream up to maxRetries times.
type runner struct {
	txManager  postgres.Transactor
	store      eventstore.Store
	outboxRepo outbox.Repository
	maxRetries int
}

func newRunner(txManager postgres.Transactor, store eventstore.Store, outboxRepo outbox.Repository, maxRetries int) *runner {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &runner{txManager: txManager, store: store, outboxRepo: outboxRepo, maxRetries: maxRetries}
}

func (r *runner) run(ctx context.Context, orderID, correlationID string, requireExists bool, decide func(o *order.Order) (order.Event, error)) (int64, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		o, err := r.load(ctx, orderID)
		if err != nil {
			return 0, err
		}

		if requireExists && !o.Exists() {
			return 0, fmt.Errorf("order %s: %w", orderID, eventstore.ErrNotFound)
		}

		ev, err := decide(o)
		if err != nil {
			return 0, err
		}

		version, err := r.commit(ctx, o, ev, correlationID)
		if errors.Is(err, eventstore.ErrConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return 0, err
		}
		return version, nil
	}

	return 0, lastErr
}

// load replays the order's stream into an aggregate. An empty stream
// yields a zero aggregate, which is how a new order is detected.
func (r *runner) load(ctx context.Context, orderID string) (*order.Order, error) {
	records, err := r.store.ReadStream(ctx, orderID, 0)
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	o := order.New(orderID)
	for _, rec := range records {
		ev, err := order.UnmarshalEvent(rec.EventType, rec.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode event %s: %w", rec.EventID, err)
		}
		o.Apply(ev)
	}
	return o, nil
}

func (r *runner) commit(ctx context.Context, o *order.Order, ev order.Event, correlationID string) (int64, error) {
	payload, err := order.MarshalEvent(ev)
	if err != nil {
		return 0, err
	}

	if correlationID == "" {
		correlationID = o.ID
	}

	now := time.Now().UTC()
	rec := &eventstore.Record{
		EventID:       uuid.New().String(),
		AggregateID:   o.ID,
		EventType:     ev.EventType(),
		Payload:       payload,
		OccurredAt:    now,
		CorrelationID: correlationID,
	}

	var version int64
	err = r.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		version, err = r.store.Append(txCtx, o.ID, o.Version, []*eventstore.Record{rec})
		if err != nil {
			return err
		}

		return r.outboxRepo.Create(txCtx, []*outbox.Record{{
			ID:             rec.EventID,
			AggregateID:    rec.AggregateID,
			SequenceNumber: rec.SequenceNumber,
			EventType:      rec.EventType,
			Payload:        rec.Payload,
			Status:         outbox.StatusNew,
			CorrelationID:  rec.CorrelationID,
			Producer:       producerName,
			OccurredAt:     rec.OccurredAt,
			CreatedAt:      now,
		}})
	})
	if err != nil {
		if errors.Is(err, eventstore.ErrConflict) {
			return 0, err
		}
		return 0, fmt.Errorf("commit command: %w", err)
	}

	return version, nil
}
