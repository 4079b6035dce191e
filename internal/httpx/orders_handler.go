package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	CreateOrder(ctx context.Context, req orders.CreateOrderRequest) (orders.Receipt, error)
	GetOrderDetails(ctx context.Context, orderID string) (orders.OrderDetails, error)
}

type OrdersHandler struct {
	Orders OrderService
	Log    *slog.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/order/create", h.createOrder)
	r.Get("/order/{orderId}", h.getOrder)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req orders.CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	rc, err := h.Orders.CreateOrder(ctx, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Order created successfully",
		"orderId":       rc.OrderID,
		"paymentId":     rc.PaymentID,
		"paymentMethod": rc.PaymentMethod,
		"amount":        json.Number(rc.Amount.String()),
	})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	d, err := h.Orders.GetOrderDetails(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
