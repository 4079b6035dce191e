package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/ariefcatur/rephone-market/internal/payments"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var tracer = otel.Tracer("rephone-http")

type PaymentService interface {
	InitiatePayment(ctx context.Context, orderID string) (string, error)
	PaymentStatus(ctx context.Context, orderID string) (orders.PaymentStatus, error)
}

type NotificationInbox interface {
	Enqueue(ctx context.Context, n payments.Notification)
}

type PaymentsHandler struct {
	Payments      PaymentService
	Inbox         NotificationInbox
	WebhookSecret string
	Log           *slog.Logger
}

func (h *PaymentsHandler) Register(r chi.Router) {
	r.Post("/payment/initiate/{orderId}", h.initiate)
	r.Post("/payment/notify", h.notify)
	r.Get("/payment/status/{orderId}", h.status)
}

func (h *PaymentsHandler) initiate(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.Payments.InitiatePayment(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirectUrl": redirect})
}

// notify acknowledges every delivery with 200 before looking at it. Bodies
// that fail the signature check are dropped without touching any state.
func (h *PaymentsHandler) notify(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := tracer.Start(ctx, "PaymentNotification")
	defer span.End()

	body, readErr := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))

	if readErr != nil {
		h.Log.Warn("webhook body unreadable", "err", readErr)
		return
	}
	if !payments.VerifySignature(h.WebhookSecret, body, r.Header.Get(payments.SignatureHeader)) {
		h.Log.Warn("webhook signature rejected", "remote", r.RemoteAddr)
		return
	}
	n, err := payments.ParseNotification(body)
	if err != nil {
		h.Log.Warn("webhook payload rejected", "err", err)
		return
	}
	n.Trace = span.SpanContext()
	h.Inbox.Enqueue(context.WithoutCancel(ctx), n)
}

func (h *PaymentsHandler) status(w http.ResponseWriter, r *http.Request) {
	st, err := h.Payments.PaymentStatus(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]orders.PaymentStatus{"status": st})
}
