package summary

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no summary row exists for an order.
var ErrNotFound = errors.New("order summary not found")

// OrderSummary is the denormalized read model maintained by the projector.
// LastEventSeq is the sequence number of the last applied event; it drives
// idempotent apply and measures projection lag.
type OrderSummary struct {
	OrderID      string    `json:"order_id"`
	CustomerID   string    `json:"customer_id"`
	Status       string    `json:"status"`
	ItemCount    int       `json:"item_count"`
	Total        float64   `json:"total"`
	LastEventSeq int64     `json:"last_event_seq"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store is owned by projectors; nothing else writes to it.
type Store interface {
	Get(ctx context.Context, orderID string) (*OrderSummary, error)
	List(ctx context.Context, limit int) ([]*OrderSummary, error)
	// Save upserts the summary iff s.LastEventSeq is greater than the stored
	// one; returns false when the row was already at or past that sequence.
	Save(ctx context.Context, s *OrderSummary) (bool, error)
}
