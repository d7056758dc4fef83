package order

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event type names as persisted in the event store and published on the bus.
const (
	TypeOrderCreated   = "OrderCreated"
	TypeItemAdded      = "ItemAdded"
	TypeOrderConfirmed = "OrderConfirmed"
	TypeOrderShipped   = "OrderShipped"
	TypeOrderDelivered = "OrderDelivered"
	TypeOrderCancelled = "OrderCancelled"
)

// Event is the closed set of facts an order stream can contain.
// Every variant lives in this package so replay stays exhaustive.
type Event interface {
	EventType() string
}

type OrderCreated struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (OrderCreated) EventType() string { return TypeOrderCreated }

type ItemAdded struct {
	OrderID   string  `json:"order_id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func (ItemAdded) EventType() string { return TypeItemAdded }

type OrderConfirmed struct {
	OrderID string     `json:"order_id"`
	Items   []LineItem `json:"items"`
	Total   float64    `json:"total"`
}

func (OrderConfirmed) EventType() string { return TypeOrderConfirmed }

type OrderShipped struct {
	OrderID string `json:"order_id"`
}

func (OrderShipped) EventType() string { return TypeOrderShipped }

type OrderDelivered struct {
	OrderID string `json:"order_id"`
}

func (OrderDelivered) EventType() string { return TypeOrderDelivered }

type OrderCancelled struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

func (OrderCancelled) EventType() string { return TypeOrderCancelled }

// MarshalEvent serializes an event payload for storage and publishing.
func MarshalEvent(ev Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ev.EventType(), err)
	}
	return b, nil
}

// UnmarshalEvent decodes a stored payload back into its concrete variant.
// Unknown types are an error: the taxonomy is closed.
func UnmarshalEvent(eventType string, payload []byte) (Event, error) {
	var ev Event
	switch eventType {
	case TypeOrderCreated:
		ev = &OrderCreated{}
	case TypeItemAdded:
		ev = &ItemAdded{}
	case TypeOrderConfirmed:
		ev = &OrderConfirmed{}
	case TypeOrderShipped:
		ev = &OrderShipped{}
	case TypeOrderDelivered:
		ev = &OrderDelivered{}
	case TypeOrderCancelled:
		ev = &OrderCancelled{}
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", eventType, err)
	}
	return deref(ev), nil
}

// deref returns the value form so replay can switch on value types.
func deref(ev Event) Event {
	switch e := ev.(type) {
	case *OrderCreated:
		return *e
	case *ItemAdded:
		return *e
	case *OrderConfirmed:
		return *e
	case *OrderShipped:
		return *e
	case *OrderDelivered:
		return *e
	case *OrderCancelled:
		return *e
	}
	return ev
}
