package httpapi

import (
	"net/http"

	"github.com/Suzzal26/Your-IT-Center/internal/auth"
	"github.com/Suzzal26/Your-IT-Center/internal/order"
	"github.com/Suzzal26/Your-IT-Center/pkg/metrics"
)

func NewHandler(svc *order.Service, verifier auth.Verifier, m *metrics.ServerMetrics, pinger Pinger) *Handler {
	return &Handler{svc: svc, verifier: verifier, metrics: m, pinger: pinger}
}

// NewRouter registers the order endpoints and wraps them with request-id and
// access-log middleware. The literal /orders/sales pattern takes precedence
// over /orders/{id}.
func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /orders", h.instrument("place_order", h.requireAuth(false, h.placeOrder)))
	mux.HandleFunc("GET /orders", h.instrument("list_orders", h.requireAuth(true, h.listOrders)))
	mux.HandleFunc("GET /orders/my-orders", h.instrument("my_orders", h.requireAuth(false, h.listMyOrders)))
	mux.HandleFunc("GET /orders/sales", h.instrument("sales", h.requireAuth(true, h.sales)))
	mux.HandleFunc("PATCH /orders/{id}/cancel", h.instrument("cancel_order", h.requireAuth(false, h.cancelOrder)))
	mux.HandleFunc("PATCH /orders/{id}", h.instrument("set_status", h.requireAuth(true, h.setOrderStatus)))

	mux.HandleFunc("GET /health", h.instrument("health", h.health))
	mux.Handle("GET /metrics", metrics.Handler())

	return withRequestID(withAccessLog(mux))
}
