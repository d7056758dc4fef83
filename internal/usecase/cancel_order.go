package usecase

import (
	"context"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/order"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/outbox"
	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/postgres"
)

type CancelOrder struct {
	runner *runner
}

func NewCancelOrder(txManager postgres.Transactor, store eventstore.Store, outboxRepo outbox.Repository, maxRetries int) *CancelOrder {
	return &CancelOrder{runner: newRunner(txManager, store, outboxRepo, maxRetries)}
}

type CancelOrderParams struct {
	OrderID       string `json:"-"`
	Reason        string `json:"reason"`
	CorrelationID string `json:"-"`
}

func (uc *CancelOrder) Execute(ctx context.Context, params CancelOrderParams) (int64, error) {
	return uc.runner.run(ctx, params.OrderID, params.CorrelationID, true, func(o *order.Order) (order.Event, error) {
		return o.Cancel(params.Reason)
	})
}
