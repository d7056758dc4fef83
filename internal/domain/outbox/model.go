package outbox

import (
	"context"
	"time"
)

// Record statuses. A failed publish moves the record back to new so the
// relay picks it up again; committed events are never dropped.
const (
	StatusNew        = "new"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
)

// Record is the durable intent to publish one committed event.
type Record struct {
	ID             string    `json:"id"`
	AggregateID    string    `json:"aggregate_id"`
	SequenceNumber int64     `json:"sequence_number"`
	EventType      string    `json:"event_type"`
	Payload        []byte    `json:"payload"`
	Status         string    `json:"status"`
	CorrelationID  string    `json:"correlation_id"`
	CausationID    string    `json:"causation_id"`
	Producer       string    `json:"producer"`
	OccurredAt     time.Time `json:"occurred_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Repository interface {
	Create(ctx context.Context, records []*Record) error
	FetchBatch(ctx context.Context, limit int) ([]*Record, error)
	MarkProcessed(ctx context.Context, ids []string) error
	Requeue(ctx context.Context, ids []string) error
}
