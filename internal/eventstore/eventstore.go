// Package eventstore defines the append-only log that is the system of
// record for order streams.
package eventstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrConflict is the optimistic-concurrency rejection: the stream's
	// current version did not match the expected version at append time.
	ErrConflict = errors.New("concurrency conflict: expected version mismatch")

	// ErrNotFound is returned by callers that require an existing stream
	// when the stream is empty. ReadStream itself never returns it: an
	// empty stream is valid and means "new aggregate".
	ErrNotFound = errors.New("aggregate not found")

	// ErrNoEvents rejects an append with nothing to append.
	ErrNoEvents = errors.New("append requires at least one event")
)

// Record is one committed event as stored. SequenceNumber is monotonic per
// aggregate starting at 1 with no gaps; GlobalSeq is the commit-ordered
// position across all aggregates.
type Record struct {
	EventID        string
	AggregateID    string
	SequenceNumber int64
	EventType      string
	Payload        []byte
	OccurredAt     time.Time
	CausationID    string
	CorrelationID  string
	GlobalSeq      int64
}

// Store is the durable append-only log.
type Store interface {
	// Append atomically appends records to the aggregate's stream iff its
	// current version equals expectedVersion, and returns the committed
	// version. Fails with ErrConflict on version mismatch and ErrNoEvents
	// on an empty batch. A successful return means the events are durable.
	Append(ctx context.Context, aggregateID string, expectedVersion int64, records []*Record) (int64, error)

	// ReadStream returns the aggregate's events with sequence number
	// greater than fromVersion, in ascending sequence order. An empty
	// result is valid and distinguishes a new aggregate.
	ReadStream(ctx context.Context, aggregateID string, fromVersion int64) ([]*Record, error)

	// ReadAll returns up to limit events with global position greater than
	// fromGlobalPos, in commit order. Events of one aggregate keep their
	// relative order; cross-aggregate order is best effort.
	ReadAll(ctx context.Context, fromGlobalPos int64, limit int) ([]*Record, error)
}
