package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/JustinArce/MicroservicioPedidos/internal/api/middleware"
)

func NewRouter(h *Handlers, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Command side. Order creation is idempotent per Idempotency-Key.
	r.With(middleware.Idempotency(redisClient)).Post("/orders", h.CreateOrder)
	r.Post("/orders/{id}/items", h.AddItem)
	r.Post("/orders/{id}/confirm", h.ConfirmOrder)
	r.Post("/orders/{id}/ship", h.ShipOrder)
	r.Post("/orders/{id}/deliver", h.DeliverOrder)
	r.Post("/orders/{id}/cancel", h.CancelOrder)

	// Query side, served from the read model only.
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{id}", h.GetOrder)

	// Operator introspection of the committed stream.
	r.Get("/orders/{id}/events", h.GetOrderEvents)

	r.Handle("/metrics", promhttp.Handler())

	return r
}
