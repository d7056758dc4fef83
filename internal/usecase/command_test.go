package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/order"
	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/memory"
)

type fixture struct {
	store  *memory.EventStore
	outbox *memory.OutboxRepository

	create  *CreateOrder
	addItem *AddItem
	confirm *ConfirmOrder
	ship    *ShipOrder
	deliver *DeliverOrder
	cancel  *CancelOrder
}

func newFixture() *fixture {
	store := memory.NewEventStore()
	outboxRepo := memory.NewOutboxRepository()
	tx := memory.NopTransactor{}

	return &fixture{
		store:   store,
		outbox:  outboxRepo,
		create:  NewCreateOrder(tx, store, outboxRepo, 3),
		addItem: NewAddItem(tx, store, outboxRepo, 3),
		confirm: NewConfirmOrder(tx, store, outboxRepo, 3),
		ship:    NewShipOrder(tx, store, outboxRepo, 3),
		deliver: NewDeliverOrder(tx, store, outboxRepo, 3),
		cancel:  NewCancelOrder(tx, store, outboxRepo, 3),
	}
}

func TestFullLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.create.Execute(ctx, CreateOrderParams{CustomerID: "customer-42"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)

	version, err := f.addItem.Execute(ctx, AddItemParams{
		OrderID: created.OrderID, ProductID: "sku-7", Quantity: 2, UnitPrice: 9.5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	version, err = f.confirm.Execute(ctx, ConfirmOrderParams{OrderID: created.OrderID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	version, err = f.ship.Execute(ctx, ShipOrderParams{OrderID: created.OrderID})
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)

	version, err = f.deliver.Execute(ctx, DeliverOrderParams{OrderID: created.OrderID})
	require.NoError(t, err)
	assert.Equal(t, int64(5), version)

	// every committed event has an outbox record
	records, err := f.store.ReadStream(ctx, created.OrderID, 0)
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.Equal(t, 5, f.outbox.Pending())
}

func TestShipBeforeConfirmNoEventAppended(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.create.Execute(ctx, CreateOrderParams{CustomerID: "customer-42"})
	require.NoError(t, err)

	_, err = f.ship.Execute(ctx, ShipOrderParams{OrderID: created.OrderID})
	require.Error(t, err)
	assert.True(t, order.IsInvalidState(err))

	records, err := f.store.ReadStream(ctx, created.OrderID, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestConfirmEmptyOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.create.Execute(ctx, CreateOrderParams{CustomerID: "customer-42"})
	require.NoError(t, err)

	_, err = f.confirm.Execute(ctx, ConfirmOrderParams{OrderID: created.OrderID})
	assert.ErrorIs(t, err, order.ErrEmptyOrder)
}

func TestCommandOnMissingOrder(t *testing.T) {
	f := newFixture()
	_, err := f.addItem.Execute(context.Background(), AddItemParams{
		OrderID: "no-such-order", ProductID: "sku-1", Quantity: 1, UnitPrice: 1,
	})
	assert.ErrorIs(t, err, eventstore.ErrNotFound)
}

// racingStore injects one competing append between the command's read and
// its own append, simulating the losing side of a concurrent race.
type racingStore struct {
	*memory.EventStore
	once    sync.Once
	compete func()
}

func (s *racingStore) Append(ctx context.Context, aggregateID string, expectedVersion int64, records []*eventstore.Record) (int64, error) {
	s.once.Do(s.compete)
	return s.EventStore.Append(ctx, aggregateID, expectedVersion, records)
}

func TestConflictRetriedAndCommitted(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewEventStore()
	outboxRepo := memory.NewOutboxRepository()
	tx := memory.NopTransactor{}

	createUC := NewCreateOrder(tx, inner, outboxRepo, 3)
	created, err := createUC.Execute(ctx, CreateOrderParams{CustomerID: "customer-42"})
	require.NoError(t, err)

	addUC := NewAddItem(tx, inner, outboxRepo, 3)
	_, err = addUC.Execute(ctx, AddItemParams{
		OrderID: created.OrderID, ProductID: "sku-7", Quantity: 2, UnitPrice: 9.5,
	})
	require.NoError(t, err)

	// both "commands" observe version 2; the competing one commits first
	racing := &racingStore{EventStore: inner}
	racing.compete = func() {
		_, err := inner.Append(ctx, created.OrderID, 2, []*eventstore.Record{{
			EventID:    "competing",
			EventType:  order.TypeItemAdded,
			Payload:    []byte(`{"order_id":"` + created.OrderID + `","product_id":"sku-8","quantity":1,"unit_price":3}`),
			OccurredAt: time.Now().UTC(),
		}})
		require.NoError(t, err)
	}

	racingAdd := NewAddItem(tx, racing, outboxRepo, 3)
	version, err := racingAdd.Execute(ctx, AddItemParams{
		OrderID: created.OrderID, ProductID: "sku-9", Quantity: 1, UnitPrice: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)

	records, err := inner.ReadStream(ctx, created.OrderID, 0)
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestConflictSurfacedAfterRetriesExhausted(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewEventStore()
	outboxRepo := memory.NewOutboxRepository()
	tx := memory.NopTransactor{}

	createUC := NewCreateOrder(tx, inner, outboxRepo, 3)
	created, err := createUC.Execute(ctx, CreateOrderParams{CustomerID: "customer-42"})
	require.NoError(t, err)

	// a competitor that always wins: appends right before every attempt
	always := &alwaysRacingStore{EventStore: inner, orderID: created.OrderID}
	addUC := NewAddItem(tx, always, outboxRepo, 3)

	_, err = addUC.Execute(ctx, AddItemParams{
		OrderID: created.OrderID, ProductID: "sku-1", Quantity: 1, UnitPrice: 1,
	})
	assert.ErrorIs(t, err, eventstore.ErrConflict)
}

type alwaysRacingStore struct {
	*memory.EventStore
	orderID string
	n       int
}

func (s *alwaysRacingStore) Append(ctx context.Context, aggregateID string, expectedVersion int64, records []*eventstore.Record) (int64, error) {
	s.n++
	current, _ := s.EventStore.ReadStream(ctx, s.orderID, 0)
	s.EventStore.Append(ctx, s.orderID, int64(len(current)), []*eventstore.Record{{
		EventID:    "competing-" + string(rune('0'+s.n)),
		EventType:  order.TypeItemAdded,
		Payload:    []byte(`{"order_id":"` + s.orderID + `","product_id":"sku-x","quantity":1,"unit_price":1}`),
		OccurredAt: time.Now().UTC(),
	}})
	return s.EventStore.Append(ctx, aggregateID, expectedVersion, records)
}

// Correlation ids are opaque request tokens from the HTTP edge (chi request
// ids look like "host/AbC123-000001"), not UUIDs. They must reach the stored
// event and its outbox record verbatim.
func TestCorrelationIDStoredVerbatim(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	const reqID = "vm-host/r5oA434EJ0-000001"

	created, err := f.create.Execute(ctx, CreateOrderParams{
		CustomerID:    "customer-42",
		CorrelationID: reqID,
	})
	require.NoError(t, err)

	records, err := f.store.ReadStream(ctx, created.OrderID, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, reqID, records[0].CorrelationID)

	pending, err := f.outbox.FetchBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, reqID, pending[0].CorrelationID)
}

func TestCorrelationIDDefaultsToOrderID(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.create.Execute(ctx, CreateOrderParams{CustomerID: "customer-42"})
	require.NoError(t, err)

	records, err := f.store.ReadStream(ctx, created.OrderID, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, created.OrderID, records[0].CorrelationID)
}
