package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
)

func record(id string) *eventstore.Record {
	return &eventstore.Record{
		EventID:    id,
		EventType:  "OrderCreated",
		Payload:    []byte(`{}`),
		OccurredAt: time.Now().UTC(),
	}
}

func TestAppendAssignsContiguousSequence(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()

	version, err := store.Append(ctx, "agg-1", 0, []*eventstore.Record{record("e1"), record("e2")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	version, err = store.Append(ctx, "agg-1", 2, []*eventstore.Record{record("e3")})
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	records, err := store.ReadStream(ctx, "agg-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, int64(i+1), rec.SequenceNumber)
	}
}

func TestAppendConflictOnStaleVersion(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()

	_, err := store.Append(ctx, "agg-1", 0, []*eventstore.Record{record("e1")})
	require.NoError(t, err)

	_, err = store.Append(ctx, "agg-1", 0, []*eventstore.Record{record("e2")})
	assert.ErrorIs(t, err, eventstore.ErrConflict)

	// only the winner's event is in the stream
	records, err := store.ReadStream(ctx, "agg-1", 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestAppendRejectsEmptyBatch(t *testing.T) {
	_, err := NewEventStore().Append(context.Background(), "agg-1", 0, nil)
	assert.ErrorIs(t, err, eventstore.ErrNoEvents)
}

func TestReadStreamEmptyIsValid(t *testing.T) {
	records, err := NewEventStore().ReadStream(context.Background(), "missing", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadStreamFromVersion(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()
	_, err := store.Append(ctx, "agg-1", 0, []*eventstore.Record{record("e1"), record("e2"), record("e3")})
	require.NoError(t, err)

	records, err := store.ReadStream(ctx, "agg-1", 2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(3), records[0].SequenceNumber)
}

func TestReadAllPreservesPerAggregateOrder(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()

	// interleave appends across two aggregates
	for i := 0; i < 3; i++ {
		_, err := store.Append(ctx, "agg-a", int64(i), []*eventstore.Record{record(fmt.Sprintf("a%d", i))})
		require.NoError(t, err)
		_, err = store.Append(ctx, "agg-b", int64(i), []*eventstore.Record{record(fmt.Sprintf("b%d", i))})
		require.NoError(t, err)
	}

	all, err := store.ReadAll(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 6)

	lastSeq := map[string]int64{}
	var lastGlobal int64
	for _, rec := range all {
		assert.Greater(t, rec.GlobalSeq, lastGlobal)
		lastGlobal = rec.GlobalSeq
		assert.Equal(t, lastSeq[rec.AggregateID]+1, rec.SequenceNumber)
		lastSeq[rec.AggregateID] = rec.SequenceNumber
	}
}

func TestReadAllFromPositionAndLimit(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()
	_, err := store.Append(ctx, "agg-1", 0, []*eventstore.Record{record("e1"), record("e2"), record("e3")})
	require.NoError(t, err)

	batch, err := store.ReadAll(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, int64(2), batch[0].GlobalSeq)
}
