package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
)

// EventDTO is the operator-facing view of one committed event.
type EventDTO struct {
	EventID        string          `json:"event_id"`
	SequenceNumber int64           `json:"sequence_number"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	OccurredAt     time.Time       `json:"occurred_at"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
}

// GetOrderEvents lists an order's committed stream for introspection. This
// is an operator endpoint; client queries go through the read model.
type GetOrderEvents struct {
	store eventstore.Store
}

func NewGetOrderEvents(store eventstore.Store) *GetOrderEvents {
	return &GetOrderEvents{store: store}
}

func (uc *GetOrderEvents) Execute(ctx context.Context, orderID string) ([]*EventDTO, error) {
	records, err := uc.store.ReadStream(ctx, orderID, 0)
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("order %s: %w", orderID, eventstore.ErrNotFound)
	}

	out := make([]*EventDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, &EventDTO{
			EventID:        rec.EventID,
			SequenceNumber: rec.SequenceNumber,
			EventType:      rec.EventType,
			Payload:        json.RawMessage(rec.Payload),
			OccurredAt:     rec.OccurredAt,
			CorrelationID:  rec.CorrelationID,
		})
	}
	return out, nil
}
