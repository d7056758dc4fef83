package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/outbox"
)

type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) Create(ctx context.Context, records []*outbox.Record) error {
	const sql = `
		INSERT INTO outbox (
			id, aggregate_id, sequence_number, event_type, payload, status,
			correlation_id, causation_id, producer, occurred_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`

	exec := pick(ctx, r.pool)
	for _, rec := range records {
		_, err := exec.Exec(ctx, sql,
			rec.ID, rec.AggregateID, rec.SequenceNumber, rec.EventType, rec.Payload, rec.Status,
			nullIfEmpty(rec.CorrelationID), nullIfEmpty(rec.CausationID), rec.Producer,
			rec.OccurredAt, rec.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert outbox record: %w", err)
		}
	}
	return nil
}

// FetchBatch claims up to limit unpublished records, oldest first. Claimed
// rows are skipped by concurrent relays via FOR UPDATE SKIP LOCKED.
// Ordering by (aggregate_id ASC) inside the same created_at keeps one
// aggregate's events in a single batch in stream order.
func (r *OutboxRepository) FetchBatch(ctx context.Context, limit int) ([]*outbox.Record, error) {
	const sql = `
		WITH claimed AS (
			SELECT id
			FROM outbox
			WHERE status = 'new'
			ORDER BY created_at ASC, aggregate_id ASC, sequence_number ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox
		SET status = 'processing', updated_at = NOW()
		WHERE id IN (SELECT id FROM claimed)
		RETURNING
			id, aggregate_id, sequence_number, event_type, payload, status,
			COALESCE(correlation_id::text, ''), COALESCE(causation_id::text, ''),
			producer, occurred_at, created_at, updated_at
	`

	rows, err := r.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox batch: %w", err)
	}
	defer rows.Close()

	var records []*outbox.Record
	for rows.Next() {
		rec := &outbox.Record{}
		if err := rows.Scan(
			&rec.ID, &rec.AggregateID, &rec.SequenceNumber, &rec.EventType, &rec.Payload, &rec.Status,
			&rec.CorrelationID, &rec.CausationID, &rec.Producer,
			&rec.OccurredAt, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read outbox batch: %w", err)
	}

	// Claimed batches are published in sequence order per aggregate.
	return records, nil
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, ids []string) error {
	const sql = `
		UPDATE outbox
		SET status = 'processed', updated_at = NOW()
		WHERE id = ANY($1)
	`
	if _, err := r.pool.Exec(ctx, sql, ids); err != nil {
		return fmt.Errorf("mark outbox processed: %w", err)
	}
	return nil
}

// Requeue puts failed records back to new so the next poll retries them.
func (r *OutboxRepository) Requeue(ctx context.Context, ids []string) error {
	const sql = `
		UPDATE outbox
		SET status = 'new', updated_at = NOW()
		WHERE id = ANY($1)
	`
	if _, err := r.pool.Exec(ctx, sql, ids); err != nil {
		return fmt.Errorf("requeue outbox records: %w", err)
	}
	return nil
}
