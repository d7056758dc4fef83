package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createdOrder(t *testing.T, id string) *Order {
	t.Helper()
	o := New(id)
	ev, err := o.Create("customer-42", time.Now())
	require.NoError(t, err)
	o.Apply(ev)
	return o
}

func TestCreateThenAddThenConfirm(t *testing.T) {
	o := createdOrder(t, "order-1")
	assert.Equal(t, int64(1), o.Version)
	assert.Equal(t, StatusCreated, o.Status)
	assert.Equal(t, "customer-42", o.CustomerID)

	ev, err := o.AddItem("sku-7", 2, 9.5)
	require.NoError(t, err)
	o.Apply(ev)
	assert.Equal(t, int64(2), o.Version)
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, 19.0, o.Total())

	ev, err = o.Confirm()
	require.NoError(t, err)
	confirmed, ok := ev.(OrderConfirmed)
	require.True(t, ok)
	assert.Equal(t, 19.0, confirmed.Total)
	o.Apply(ev)
	assert.Equal(t, int64(3), o.Version)
	assert.Equal(t, StatusConfirmed, o.Status)
}

func TestShipBeforeConfirmRejected(t *testing.T) {
	o := createdOrder(t, "order-2")

	_, err := o.Ship()
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))

	// the rejection left no trace on the aggregate
	assert.Equal(t, int64(1), o.Version)
	assert.Equal(t, StatusCreated, o.Status)
}

func TestCancelAfterShipRejected(t *testing.T) {
	o := createdOrder(t, "order-3")
	for _, step := range []func() (Event, error){
		func() (Event, error) { return o.AddItem("sku-1", 1, 5) },
		o.Confirm,
		o.Ship,
	} {
		ev, err := step()
		require.NoError(t, err)
		o.Apply(ev)
	}
	require.Equal(t, StatusShipped, o.Status)

	_, err := o.Cancel("changed my mind")
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
}

func TestCancelFromCreatedAndConfirmed(t *testing.T) {
	o := createdOrder(t, "order-4")
	ev, err := o.Cancel("")
	require.NoError(t, err)
	o.Apply(ev)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.True(t, o.Status.Terminal())

	o = createdOrder(t, "order-5")
	ev, err = o.AddItem("sku-1", 1, 5)
	require.NoError(t, err)
	o.Apply(ev)
	ev, err = o.Confirm()
	require.NoError(t, err)
	o.Apply(ev)

	ev, err = o.Cancel("supplier out of stock")
	require.NoError(t, err)
	o.Apply(ev)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestConfirmEmptyOrderRejected(t *testing.T) {
	o := createdOrder(t, "order-6")
	_, err := o.Confirm()
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCreateTwiceRejected(t *testing.T) {
	o := createdOrder(t, "order-7")
	_, err := o.Create("customer-43", time.Now())
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCommandsOnTerminalStates(t *testing.T) {
	o := createdOrder(t, "order-8")
	ev, err := o.Cancel("")
	require.NoError(t, err)
	o.Apply(ev)

	_, err = o.AddItem("sku-1", 1, 1)
	assert.True(t, IsInvalidState(err))
	_, err = o.Confirm()
	assert.True(t, IsInvalidState(err))
	_, err = o.Ship()
	assert.True(t, IsInvalidState(err))
	_, err = o.Deliver()
	assert.True(t, IsInvalidState(err))
	_, err = o.Cancel("")
	assert.True(t, IsInvalidState(err))
}

func TestAddItemValidation(t *testing.T) {
	o := createdOrder(t, "order-9")

	_, err := o.AddItem("", 1, 1)
	assert.True(t, IsValidation(err))
	_, err = o.AddItem("sku-1", 0, 1)
	assert.True(t, IsValidation(err))
	_, err = o.AddItem("sku-1", 1, -0.5)
	assert.True(t, IsValidation(err))
}

func TestReplayDeterminism(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	history := []Event{
		OrderCreated{OrderID: "order-10", CustomerID: "customer-42", CreatedAt: now},
		ItemAdded{OrderID: "order-10", ProductID: "sku-7", Quantity: 2, UnitPrice: 9.5},
		ItemAdded{OrderID: "order-10", ProductID: "sku-8", Quantity: 1, UnitPrice: 3},
		OrderConfirmed{OrderID: "order-10", Total: 22},
		OrderShipped{OrderID: "order-10"},
		OrderDelivered{OrderID: "order-10"},
	}

	first := Replay("order-10", history)
	second := Replay("order-10", history)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(len(history)), first.Version)
	assert.Equal(t, StatusDelivered, first.Status)
	assert.Len(t, first.LineItems, 2)
}

func TestEventCodecRoundTrip(t *testing.T) {
	original := ItemAdded{OrderID: "order-11", ProductID: "sku-7", Quantity: 2, UnitPrice: 9.5}

	payload, err := MarshalEvent(original)
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(TypeItemAdded, payload)
	require.NoError(t, err)
	assert.Equal(t, Event(original), decoded)

	_, err = UnmarshalEvent("OrderExploded", payload)
	assert.Error(t, err)
}
