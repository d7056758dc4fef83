package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepository adjusts catalog stock when confirmed orders arrive.
// The catalog service owns the products table; this repository only
// decrements stock on its behalf.
type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// DecrementStock subtracts quantity from the product's stock, clamped at
// zero. Missing products are ignored: the order service does not gate on
// catalog contents.
func (r *ProductRepository) DecrementStock(ctx context.Context, productID string, quantity int) error {
	const sql = `
		UPDATE products
		SET stock = GREATEST(stock - $2, 0)
		WHERE id = $1
	`

	if _, err := pick(ctx, r.pool).Exec(ctx, sql, productID, quantity); err != nil {
		return fmt.Errorf("decrement stock for product %s: %w", productID, err)
	}
	return nil
}
