package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JustinArce/MicroservicioPedidos/internal/usecase"
)

type Handlers struct {
	createOrderUC    *usecase.CreateOrder
	addItemUC        *usecase.AddItem
	confirmOrderUC   *usecase.ConfirmOrder
	shipOrderUC      *usecase.ShipOrder
	deliverOrderUC   *usecase.DeliverOrder
	cancelOrderUC    *usecase.CancelOrder
	getOrderUC       *usecase.GetOrder
	listOrdersUC     *usecase.ListOrders
	getOrderEventsUC *usecase.GetOrderEvents
}

func NewHandlers(
	createOrderUC *usecase.CreateOrder,
	addItemUC *usecase.AddItem,
	confirmOrderUC *usecase.ConfirmOrder,
	shipOrderUC *usecase.ShipOrder,
	deliverOrderUC *usecase.DeliverOrder,
	cancelOrderUC *usecase.CancelOrder,
	getOrderUC *usecase.GetOrder,
	listOrdersUC *usecase.ListOrders,
	getOrderEventsUC *usecase.GetOrderEvents,
) *Handlers {
	return &Handlers{
		createOrderUC:    createOrderUC,
		addItemUC:        addItemUC,
		confirmOrderUC:   confirmOrderUC,
		shipOrderUC:      shipOrderUC,
		deliverOrderUC:   deliverOrderUC,
		cancelOrderUC:    cancelOrderUC,
		getOrderUC:       getOrderUC,
		listOrdersUC:     listOrdersUC,
		getOrderEventsUC: getOrderEventsUC,
	}
}

type versionResponse struct {
	OrderID string `json:"order_id"`
	Version int64  `json:"version"`
}

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.createOrderUC.Execute(r.Context(), usecase.CreateOrderParams{
		CustomerID:    req.CustomerID,
		CorrelationID: chimw.GetReqID(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, versionResponse{OrderID: result.OrderID, Version: result.Version})
}

func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing order id", http.StatusBadRequest)
		return
	}

	var req struct {
		ProductID string  `json:"product_id"`
		Quantity  int     `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	version, err := h.addItemUC.Execute(r.Context(), usecase.AddItemParams{
		OrderID:       id,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		CorrelationID: chimw.GetReqID(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, versionResponse{OrderID: id, Version: version})
}

func (h *Handlers) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) (int64, error) {
		return h.confirmOrderUC.Execute(r.Context(), usecase.ConfirmOrderParams{
			OrderID:       id,
			CorrelationID: chimw.GetReqID(r.Context()),
		})
	})
}

func (h *Handlers) ShipOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) (int64, error) {
		return h.shipOrderUC.Execute(r.Context(), usecase.ShipOrderParams{
			OrderID:       id,
			CorrelationID: chimw.GetReqID(r.Context()),
		})
	})
}

func (h *Handlers) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) (int64, error) {
		return h.deliverOrderUC.Execute(r.Context(), usecase.DeliverOrderParams{
			OrderID:       id,
			CorrelationID: chimw.GetReqID(r.Context()),
		})
	})
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing order id", http.StatusBadRequest)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// body is optional; an empty reason is fine
	_ = json.NewDecoder(r.Body).Decode(&req)

	version, err := h.cancelOrderUC.Execute(r.Context(), usecase.CancelOrderParams{
		OrderID:       id,
		Reason:        req.Reason,
		CorrelationID: chimw.GetReqID(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, versionResponse{OrderID: id, Version: version})
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, exec func(r *http.Request, id string) (int64, error)) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing order id", http.StatusBadRequest)
		return
	}

	version, err := exec(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, versionResponse{OrderID: id, Version: version})
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing order id", http.StatusBadRequest)
		return
	}

	s, err := h.getOrderUC.Execute(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	writeJSON(w, http.StatusOK, s)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.listOrdersUC.Execute(r.Context(), 0)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": summaries})
}

func (h *Handlers) GetOrderEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing order id", http.StatusBadRequest)
		return
	}

	events, err := h.getOrderEventsUC.Execute(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order_id": id, "events": events})
}
