package event

import (
	"encoding/json"
	"time"
)

// Message is the envelope published to the bus for every committed event.
// Payload is the raw JSON produced by the order domain codec.
type Message struct {
	ID             string          `json:"id"`
	AggregateID    string          `json:"aggregate_id"`
	SequenceNumber int64           `json:"sequence_number"`
	Type           string          `json:"type"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	CausationID    string          `json:"causation_id,omitempty"`
	Producer       string          `json:"producer"`
	OccurredAt     time.Time       `json:"occurred_at"`
	Payload        json.RawMessage `json:"payload"`
}
