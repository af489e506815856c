// Package httpapi exposes the order core over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Suzzal26/Your-IT-Center/internal/auth"
	"github.com/Suzzal26/Your-IT-Center/internal/domain"
	"github.com/Suzzal26/Your-IT-Center/internal/order"
	"github.com/Suzzal26/Your-IT-Center/pkg/metrics"
)

// IdempotencyHeader carries the caller's placement retry key.
const IdempotencyHeader = "Idempotency-Key"

// Pinger is the readiness probe dependency; nil means no database to probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc      *order.Service
	verifier auth.Verifier
	metrics  *metrics.ServerMetrics
	pinger   Pinger
}

type placeOrderRequest struct {
	Items []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
		// Name and price also arrive from the cart page; the server snapshots
		// its own from the catalog.
		Name  string `json:"name"`
		Price int64  `json:"price"`
	} `json:"items"`
	ShippingAddress domain.ShippingSnapshot `json:"shippingAddress"`
	TotalAmount     int64                   `json:"totalAmount"`
	PaymentMethod   string                  `json:"paymentMethod"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	in := order.PlacementInput{
		Shipping:       req.ShippingAddress,
		PaymentMethod:  domain.PaymentMethod(req.PaymentMethod),
		ClientTotal:    req.TotalAmount,
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, order.ItemInput{
			ProductID: domain.ProductID(it.ProductID),
			Quantity:  it.Quantity,
		})
	}

	res, err := h.svc.PlaceOrder(r.Context(), identity, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.Replayed {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Order already placed", "orderId": res.OrderID})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Order placed successfully", "orderId": res.OrderID})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	orders, err := h.svc.ListAll(r.Context(), identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.OrderWithUser{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	orders, err := h.svc.ListMine(r.Context(), identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	orderID := domain.OrderID(r.PathValue("id"))

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // body is optional
	}

	updated, err := h.svc.Cancel(r.Context(), identity, orderID, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Order cancelled successfully", "order": updated})
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	orderID := domain.OrderID(r.PathValue("id"))

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	updated, err := h.svc.SetStatus(r.Context(), identity, orderID, domain.OrderStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Order status updated", "order": updated})
}

func (h *Handler) sales(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	report, err := h.svc.WeeklySales(r.Context(), identity, order.DefaultSalesWindowDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if report.WeeklySales == nil {
		report.WeeklySales = []order.WeeklySale{}
	}
	if report.DeliveredProducts == nil {
		report.DeliveredProducts = []domain.OrderWithUser{}
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "db_error"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
