// Package memory provides in-process implementations of the storage and bus
// seams, used by tests and broker-free local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
)

// EventStore keeps streams in per-aggregate slices plus a single
// commit-ordered feed, guarded by one mutex so appends are linearizable.
type EventStore struct {
	mu        sync.Mutex
	streams   map[string][]*eventstore.Record
	global    []*eventstore.Record
	globalSeq int64
}

func NewEventStore() *EventStore {
	return &EventStore{streams: make(map[string][]*eventstore.Record)}
}

func (s *EventStore) Append(ctx context.Context, aggregateID string, expectedVersion int64, records []*eventstore.Record) (int64, error) {
	if len(records) == 0 {
		return 0, eventstore.ErrNoEvents
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := int64(len(s.streams[aggregateID]))
	if current != expectedVersion {
		return 0, fmt.Errorf("stream %s at version %d, expected %d: %w",
			aggregateID, current, expectedVersion, eventstore.ErrConflict)
	}

	version := expectedVersion
	for _, rec := range records {
		version++
		s.globalSeq++
		stored := *rec
		stored.AggregateID = aggregateID
		stored.SequenceNumber = version
		stored.GlobalSeq = s.globalSeq
		rec.SequenceNumber = stored.SequenceNumber
		rec.GlobalSeq = stored.GlobalSeq
		s.streams[aggregateID] = append(s.streams[aggregateID], &stored)
		s.global = append(s.global, &stored)
	}

	return version, nil
}

func (s *EventStore) ReadStream(ctx context.Context, aggregateID string, fromVersion int64) ([]*eventstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[aggregateID]
	var out []*eventstore.Record
	for _, rec := range stream {
		if rec.SequenceNumber > fromVersion {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *EventStore) ReadAll(ctx context.Context, fromGlobalPos int64, limit int) ([]*eventstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*eventstore.Record
	for _, rec := range s.global {
		if rec.GlobalSeq <= fromGlobalPos {
			continue
		}
		cp := *rec
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
