package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/event"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/order"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/memory"
)

type fakeInbox struct {
	seen map[string]bool
}

func (f *fakeInbox) SaveIfNotExists(ctx context.Context, consumer, eventID, eventType, correlationID string) (bool, error) {
	key := consumer + "|" + eventID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

type fakeProducts struct {
	stock map[string]int
}

func (f *fakeProducts) DecrementStock(ctx context.Context, productID string, quantity int) error {
	f.stock[productID] -= quantity
	if f.stock[productID] < 0 {
		f.stock[productID] = 0
	}
	return nil
}

func confirmedEnvelope(t *testing.T, eventID string) []byte {
	t.Helper()
	payload, err := order.MarshalEvent(order.OrderConfirmed{
		OrderID: "order-1",
		Items: []order.LineItem{
			{ProductID: "sku-7", Quantity: 2, UnitPrice: 9.5},
			{ProductID: "sku-8", Quantity: 1, UnitPrice: 3},
		},
		Total: 22,
	})
	require.NoError(t, err)

	raw, err := json.Marshal(event.Message{
		ID:             eventID,
		AggregateID:    "order-1",
		SequenceNumber: 3,
		Type:           order.TypeOrderConfirmed,
		Producer:       "order-service",
		OccurredAt:     time.Now().UTC(),
		Payload:        payload,
	})
	require.NoError(t, err)
	return raw
}

func TestStockDecrementedOnConfirm(t *testing.T) {
	products := &fakeProducts{stock: map[string]int{"sku-7": 10, "sku-8": 5}}
	c := NewConsumer(memory.NopTransactor{}, &fakeInbox{seen: map[string]bool{}}, products)

	require.NoError(t, c.Handle(context.Background(), confirmedEnvelope(t, "evt-1")))

	assert.Equal(t, 8, products.stock["sku-7"])
	assert.Equal(t, 4, products.stock["sku-8"])
}

func TestRedeliveryIsNoOp(t *testing.T) {
	products := &fakeProducts{stock: map[string]int{"sku-7": 10, "sku-8": 5}}
	c := NewConsumer(memory.NopTransactor{}, &fakeInbox{seen: map[string]bool{}}, products)

	raw := confirmedEnvelope(t, "evt-1")
	require.NoError(t, c.Handle(context.Background(), raw))
	require.NoError(t, c.Handle(context.Background(), raw))
	require.NoError(t, c.Handle(context.Background(), raw))

	assert.Equal(t, 8, products.stock["sku-7"])
	assert.Equal(t, 4, products.stock["sku-8"])
}

func TestOtherEventTypesIgnored(t *testing.T) {
	products := &fakeProducts{stock: map[string]int{"sku-7": 10}}
	c := NewConsumer(memory.NopTransactor{}, &fakeInbox{seen: map[string]bool{}}, products)

	raw, err := json.Marshal(event.Message{
		ID:   "evt-2",
		Type: order.TypeOrderShipped,
		Payload: json.RawMessage(`{"order_id":"order-1"}`),
	})
	require.NoError(t, err)

	require.NoError(t, c.Handle(context.Background(), raw))
	assert.Equal(t, 10, products.stock["sku-7"])
}

func TestGarbageEnvelopeSkipped(t *testing.T) {
	products := &fakeProducts{stock: map[string]int{}}
	c := NewConsumer(memory.NopTransactor{}, &fakeInbox{seen: map[string]bool{}}, products)

	assert.NoError(t, c.Handle(context.Background(), []byte("not json")))
}

// flakyInbox errors the first failures calls, then delegates.
type flakyInbox struct {
	inner    *fakeInbox
	failures int
	calls    int
}

func (f *flakyInbox) SaveIfNotExists(ctx context.Context, consumer, eventID, eventType, correlationID string) (bool, error) {
	f.calls++
	if f.calls <= f.failures {
		return false, errors.New("inbox unavailable")
	}
	return f.inner.SaveIfNotExists(ctx, consumer, eventID, eventType, correlationID)
}

func TestHandleWithRetryRecovers(t *testing.T) {
	products := &fakeProducts{stock: map[string]int{"sku-7": 10, "sku-8": 5}}
	inbox := &flakyInbox{inner: &fakeInbox{seen: map[string]bool{}}, failures: 2}
	c := NewConsumer(memory.NopTransactor{}, inbox, products)

	raw := confirmedEnvelope(t, "evt-1")
	require.NoError(t, c.HandleWithRetry(context.Background(), raw, 5, time.Millisecond))

	assert.Equal(t, 8, products.stock["sku-7"])
	assert.Equal(t, 3, inbox.calls)
}

func TestHandleWithRetrySurfacesExhaustion(t *testing.T) {
	products := &fakeProducts{stock: map[string]int{"sku-7": 10}}
	inbox := &flakyInbox{inner: &fakeInbox{seen: map[string]bool{}}, failures: 100}
	c := NewConsumer(memory.NopTransactor{}, inbox, products)

	raw := confirmedEnvelope(t, "evt-1")
	err := c.HandleWithRetry(context.Background(), raw, 3, time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, 3, inbox.calls)
	// no stock was touched; the caller must hold the delivery back
	assert.Equal(t, 10, products.stock["sku-7"])
}
