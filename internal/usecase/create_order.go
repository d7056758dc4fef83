package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/order"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/outbox"
	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
	"github.com/JustinArce/MicroservicioPedidos/internal/infrastructure/postgres"
)

type CreateOrder struct {
	runner *runner
}

func NewCreateOrder(txManager postgres.Transactor, store eventstore.Store, outboxRepo outbox.Repository, maxRetries int) *CreateOrder {
	return &CreateOrder{runner: newRunner(txManager, store, outboxRepo, maxRetries)}
}

type CreateOrderParams struct {
	CustomerID    string `json:"customer_id"`
	CorrelationID string `json:"-"`
}

type CreateOrderResult struct {
	OrderID string `json:"order_id"`
	Version int64  `json:"version"`
}

func (uc *CreateOrder) Execute(ctx context.Context, params CreateOrderParams) (*CreateOrderResult, error) {
	orderID := uuid.New().String()

	version, err := uc.runner.run(ctx, orderID, params.CorrelationID, false, func(o *order.Order) (order.Event, error) {
		return o.Create(params.CustomerID, time.Now())
	})
	if err != nil {
		return nil, err
	}

	return &CreateOrderResult{OrderID: orderID, Version: version}, nil
}
