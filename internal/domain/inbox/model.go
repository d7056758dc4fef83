package inbox

import "time"

// Entry is a consumer-side dedup record (inbox pattern). Delivery from the
// bus is at-least-once; each consumer keys processed events by (consumer, event id).
type Entry struct {
	Consumer      string    `json:"consumer"`
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	CorrelationID string    `json:"correlation_id"`
	ProcessedAt   time.Time `json:"processed_at"`
}
