package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/summary"
)

type SummaryRepository struct {
	pool *pgxpool.Pool
}

func NewSummaryRepository(pool *pgxpool.Pool) *SummaryRepository {
	return &SummaryRepository{pool: pool}
}

func (r *SummaryRepository) Get(ctx context.Context, orderID string) (*summary.OrderSummary, error) {
	const sql = `
		SELECT order_id, customer_id, status, item_count, total, last_event_seq, updated_at
		FROM order_summaries
		WHERE order_id = $1
	`

	s := &summary.OrderSummary{}
	err := pick(ctx, r.pool).QueryRow(ctx, sql, orderID).Scan(
		&s.OrderID, &s.CustomerID, &s.Status, &s.ItemCount, &s.Total, &s.LastEventSeq, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, summary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order summary: %w", err)
	}
	return s, nil
}

func (r *SummaryRepository) List(ctx context.Context, limit int) ([]*summary.OrderSummary, error) {
	const sql = `
		SELECT order_id, customer_id, status, item_count, total, last_event_seq, updated_at
		FROM order_summaries
		ORDER BY updated_at DESC
		LIMIT $1
	`

	rows, err := pick(ctx, r.pool).Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("list order summaries: %w", err)
	}
	defer rows.Close()

	var out []*summary.OrderSummary
	for rows.Next() {
		s := &summary.OrderSummary{}
		if err := rows.Scan(&s.OrderID, &s.CustomerID, &s.Status, &s.ItemCount, &s.Total, &s.LastEventSeq, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read order summaries: %w", err)
	}
	return out, nil
}

// Save upserts the summary guarded by last_event_seq so redelivered or
// out-of-order events never move the row backwards. Returns false when the
// stored row was already at or past s.LastEventSeq.
func (r *SummaryRepository) Save(ctx context.Context, s *summary.OrderSummary) (bool, error) {
	const sql = `
		INSERT INTO order_summaries (order_id, customer_id, status, item_count, total, last_event_seq, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (order_id) DO UPDATE
		SET customer_id = EXCLUDED.customer_id,
		    status = EXCLUDED.status,
		    item_count = EXCLUDED.item_count,
		    total = EXCLUDED.total,
		    last_event_seq = EXCLUDED.last_event_seq,
		    updated_at = NOW()
		WHERE order_summaries.last_event_seq < EXCLUDED.last_event_seq
	`

	tag, err := pick(ctx, r.pool).Exec(ctx, sql,
		s.OrderID, s.CustomerID, s.Status, s.ItemCount, s.Total, s.LastEventSeq,
	)
	if err != nil {
		return false, fmt.Errorf("save order summary: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
