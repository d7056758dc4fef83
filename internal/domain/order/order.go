package order

import (
	"time"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusNone      Status = ""
	StatusCreated   Status = "CREATED"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further command can move the order.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type LineItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Order is the aggregate rebuilt by folding its event stream. It is never
// persisted directly; Version equals the last applied sequence number.
type Order struct {
	ID             string
	Version        int64
	Status         Status
	CustomerID     string
	LineItems      []LineItem
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// New returns the zero aggregate for an id whose stream may be empty.
func New(id string) *Order {
	return &Order{ID: id}
}

// Replay folds a history into a fresh aggregate. Pure and deterministic:
// the same sequence always yields the same state.
func Replay(id string, history []Event) *Order {
	o := New(id)
	for _, ev := range history {
		o.Apply(ev)
	}
	return o
}

// Apply advances the aggregate by one event and bumps the version.
func (o *Order) Apply(ev Event) {
	switch e := ev.(type) {
	case OrderCreated:
		o.CustomerID = e.CustomerID
		o.Status = StatusCreated
		o.CreatedAt = e.CreatedAt
		o.LastModifiedAt = e.CreatedAt
	case ItemAdded:
		o.LineItems = append(o.LineItems, LineItem{
			ProductID: e.ProductID,
			Quantity:  e.Quantity,
			UnitPrice: e.UnitPrice,
		})
	case OrderConfirmed:
		o.Status = StatusConfirmed
	case OrderShipped:
		o.Status = StatusShipped
	case OrderDelivered:
		o.Status = StatusDelivered
	case OrderCancelled:
		o.Status = StatusCancelled
	}
	o.Version++
}

// Exists reports whether any event has been applied.
func (o *Order) Exists() bool { return o.Version > 0 }

// Total is the sum of quantity*unitPrice over all line items.
func (o *Order) Total() float64 {
	var total float64
	for _, li := range o.LineItems {
		total += float64(li.Quantity) * li.UnitPrice
	}
	return total
}

// Create starts the lifecycle. Only valid when the stream is empty.
func (o *Order) Create(customerID string, now time.Time) (Event, error) {
	if customerID == "" {
		return nil, &ValidationError{Field: "customer_id", Reason: "must not be empty"}
	}
	if o.Exists() {
		return nil, ErrAlreadyExists
	}
	return OrderCreated{OrderID: o.ID, CustomerID: customerID, CreatedAt: now.UTC()}, nil
}

// AddItem appends a line item while the order is still open.
func (o *Order) AddItem(productID string, quantity int, unitPrice float64) (Event, error) {
	if productID == "" {
		return nil, &ValidationError{Field: "product_id", Reason: "must not be empty"}
	}
	if quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if unitPrice < 0 {
		return nil, &ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}
	if o.Status != StatusCreated {
		return nil, &InvalidStateError{Command: "AddItem", Status: o.Status}
	}
	return ItemAdded{OrderID: o.ID, ProductID: productID, Quantity: quantity, UnitPrice: unitPrice}, nil
}

// Confirm closes the order for changes and announces it downstream.
// Requires at least one line item.
func (o *Order) Confirm() (Event, error) {
	if o.Status != StatusCreated {
		return nil, &InvalidStateError{Command: "ConfirmOrder", Status: o.Status}
	}
	if len(o.LineItems) == 0 {
		return nil, ErrEmptyOrder
	}
	items := make([]LineItem, len(o.LineItems))
	copy(items, o.LineItems)
	return OrderConfirmed{OrderID: o.ID, Items: items, Total: o.Total()}, nil
}

func (o *Order) Ship() (Event, error) {
	if o.Status != StatusConfirmed {
		return nil, &InvalidStateError{Command: "ShipOrder", Status: o.Status}
	}
	return OrderShipped{OrderID: o.ID}, nil
}

func (o *Order) Deliver() (Event, error) {
	if o.Status != StatusShipped {
		return nil, &InvalidStateError{Command: "DeliverOrder", Status: o.Status}
	}
	return OrderDelivered{OrderID: o.ID}, nil
}

// Cancel is only reachable before shipment.
func (o *Order) Cancel(reason string) (Event, error) {
	if o.Status != StatusCreated && o.Status != StatusConfirmed {
		return nil, &InvalidStateError{Command: "CancelOrder", Status: o.Status}
	}
	return OrderCancelled{OrderID: o.ID, Reason: reason}, nil
}
