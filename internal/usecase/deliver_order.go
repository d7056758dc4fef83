package usecase

import (
	"context"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/order"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/outbox"
	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/postgres"
)

type DeliverOrder struct {
	runner *runner
}

func NewDeliverOrder(txManager postgres.Transactor, store eventstore.Store, outboxRepo outbox.Repository, maxRetries int) *DeliverOrder {
	return &DeliverOrder{runner: newRunner(txManager, store, outboxRepo, maxRetries)}
}

type DeliverOrderParams struct {
	OrderID       string
	CorrelationID string
}

func (uc *DeliverOrder) Execute(ctx context.Context, params DeliverOrderParams) (int64, error) {
	return uc.runner.run(ctx, params.OrderID, params.CorrelationID, true, func(o *order.Order) (order.Event, error) {
		return o.Deliver()
	})
}
