package usecase

import (
	"context"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/order"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/outbox"
	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/postgres"
)

type ConfirmOrder struct {
	runner *runner
}

func NewConfirmOrder(txManager postgres.Transactor, store eventstore.Store, outboxRepo outbox.Repository, maxRetries int) *ConfirmOrder {
	return &ConfirmOrder{runner: newRunner(txManager, store, outboxRepo, maxRetries)}
}

type ConfirmOrderParams struct {
	OrderID       string
	CorrelationID string
}

func (uc *ConfirmOrder) Execute(ctx context.Context, params ConfirmOrderParams) (int64, error) {
	return uc.runner.run(ctx, params.OrderID, params.CorrelationID, true, func(o *order.Order) (order.Event, error) {
		return o.Confirm()
	})
}
