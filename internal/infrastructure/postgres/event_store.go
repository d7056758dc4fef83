package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
)

const uniqueViolation = "23505"

// EventStore persists order streams in the events table. The
// (aggregate_id, sequence_number) unique constraint is the authoritative
// guard against concurrent appends; the version pre-check just gives the
// caller a clean conflict before inserting.
type EventStore struct {
	pool *pgxpool.Pool
}

func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

func (s *EventStore) Append(ctx context.Context, aggregateID string, expectedVersion int64, records []*eventstore.Record) (int64, error) {
	if len(records) == 0 {
		return 0, eventstore.ErrNoEvents
	}

	// Appends must be atomic. Join the caller's transaction when there is
	// one (the command path wraps event + outbox writes together),
	// otherwise open our own.
	if tx := GetTx(ctx); tx != nil {
		return s.appendTx(ctx, tx, aggregateID, expectedVersion, records)
	}

	var committed int64
	err := NewTxManager(s.pool).WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		committed, err = s.appendTx(txCtx, GetTx(txCtx), aggregateID, expectedVersion, records)
		return err
	})
	return committed, err
}

func (s *EventStore) appendTx(ctx context.Context, tx pgx.Tx, aggregateID string, expectedVersion int64, records []*eventstore.Record) (int64, error) {
	var current int64
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM events WHERE aggregate_id = $1`,
		aggregateID,
	).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("read stream version: %w", err)
	}

	if current != expectedVersion {
		return 0, fmt.Errorf("stream %s at version %d, expected %d: %w",
			aggregateID, current, expectedVersion, eventstore.ErrConflict)
	}

	const sql = `
		INSERT INTO events (
			event_id, aggregate_id, sequence_number, event_type,
			payload, occurred_at, causation_id, correlation_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING global_seq
	`

	version := expectedVersion
	for _, rec := range records {
		version++
		rec.SequenceNumber = version
		err := tx.QueryRow(ctx, sql,
			rec.EventID, aggregateID, rec.SequenceNumber, rec.EventType,
			rec.Payload, rec.OccurredAt, nullIfEmpty(rec.CausationID), nullIfEmpty(rec.CorrelationID),
		).Scan(&rec.GlobalSeq)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return 0, fmt.Errorf("stream %s advanced past %d: %w",
					aggregateID, expectedVersion, eventstore.ErrConflict)
			}
			return 0, fmt.Errorf("insert event: %w", err)
		}
	}

	return version, nil
}

func (s *EventStore) ReadStream(ctx context.Context, aggregateID string, fromVersion int64) ([]*eventstore.Record, error) {
	const sql = `
		SELECT
			event_id, aggregate_id, sequence_number, event_type, payload,
			occurred_at, COALESCE(causation_id, ''), COALESCE(correlation_id, ''),
			global_seq
		FROM events
		WHERE aggregate_id = $1 AND sequence_number > $2
		ORDER BY sequence_number ASC
	`

	rows, err := pick(ctx, s.pool).Query(ctx, sql, aggregateID, fromVersion)
	if err != nil {
		return nil, fmt.Errorf("query stream: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (s *EventStore) ReadAll(ctx context.Context, fromGlobalPos int64, limit int) ([]*eventstore.Record, error) {
	const sql = `
		SELECT
			event_id, aggregate_id, sequence_number, event_type, payload,
			occurred_at, COALESCE(causation_id, ''), COALESCE(correlation_id, ''),
			global_seq
		FROM events
		WHERE global_seq > $1
		ORDER BY global_seq ASC
		LIMIT $2
	`

	rows, err := pick(ctx, s.pool).Query(ctx, sql, fromGlobalPos, limit)
	if err != nil {
		return nil, fmt.Errorf("query global feed: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]*eventstore.Record, error) {
	var records []*eventstore.Record
	for rows.Next() {
		rec := &eventstore.Record{}
		if err := rows.Scan(
			&rec.EventID, &rec.AggregateID, &rec.SequenceNumber, &rec.EventType,
			&rec.Payload, &rec.OccurredAt, &rec.CausationID, &rec.CorrelationID,
			&rec.GlobalSeq,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return records, nil
}
