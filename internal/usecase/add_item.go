package usecase

import (
	"context"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/order"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/outbox"
	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/postgres"
)

type AddItem struct {
	runner *runner
}

func NewAddItem(txManager postgres.Transactor, store eventstore.Store, outboxRepo outbox.Repository, maxRetries int) *AddItem {
	return &AddItem{runner: newRunner(txManager, store, outboxRepo, maxRetries)}
}

type AddItemParams struct {
	OrderID       string  `json:"-"`
	ProductID     string  `json:"product_id"`
	Quantity      int     `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	CorrelationID string  `json:"-"`
}

func (uc *AddItem) Execute(ctx context.Context, params AddItemParams) (int64, error) {
	return uc.runner.run(ctx, params.OrderID, params.CorrelationID, true, func(o *order.Order) (order.Event, error) {
		return o.AddItem(params.ProductID, params.Quantity, params.UnitPrice)
	})
}
