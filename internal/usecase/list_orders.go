package usecase

import (
	"context"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/summary"
)

const defaultListLimit = 100

type ListOrders struct {
	summaries summary.Store
}

func NewListOrders(summaries summary.Store) *ListOrders {
	return &ListOrders{summaries: summaries}
}

func (uc *ListOrders) Execute(ctx context.Context, limit int) ([]*summary.OrderSummary, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return uc.summaries.List(ctx, limit)
}
