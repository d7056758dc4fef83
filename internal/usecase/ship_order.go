package usecase

import (
	"context"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/order"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/outbox"
	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/postgres"
)

type ShipOrder struct {
	runner *runner
}

func NewShipOrder(txManager postgres.Transactor, store eventstore.Store, outboxRepo outbox.Repository, maxRetries int) *ShipOrder {
	return &ShipOrder{runner: newRunner(txManager, store, outboxRepo, maxRetries)}
}

type ShipOrderParams struct {
	OrderID       string
	CorrelationID string
}

func (uc *ShipOrder) Execute(ctx context.Context, params ShipOrderParams) (int64, error) {
	return uc.runner.run(ctx, params.OrderID, params.CorrelationID, true, func(o *order.Order) (order.Event, error) {
		return o.Ship()
	})
}
