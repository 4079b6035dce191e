package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/ariefcatur/rephone-market/internal/payments"
	"github.com/ariefcatur/rephone-market/internal/verification"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Moderation interface {
	Status(ctx context.Context, imei string) (verification.Report, error)
	Verify(ctx context.Context, imei string, st orders.ModerationStatus, adminID string) error
	Requests(ctx context.Context) ([]verification.Listing, error)
}

type Settlements interface {
	Replay(ctx context.Context, orderID string) (payments.SettleResult, error)
	Failures(ctx context.Context) ([]payments.Failure, error)
}

type AdminHandler struct {
	Moderation  Moderation
	Settlements Settlements
	Secret      string
	Log         *slog.Logger
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminAuth(h.Secret))
		r.Get("/verification-requests", h.requests)
		r.Get("/verification/{imei}", h.verificationStatus)
		r.Patch("/verify/{imei}", h.verify)
		r.Get("/settlements/failures", h.failures)
		r.Post("/settlements/{orderId}/replay", h.replay)
	})
}

func (h *AdminHandler) requests(w http.ResponseWriter, r *http.Request) {
	ls, err := h.Moderation.Requests(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Verification requests", "requests": ls})
}

func (h *AdminHandler) verificationStatus(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Moderation.Status(r.Context(), chi.URLParam(r, "imei"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Phone verification status", "phoneDetails": rep})
}

func (h *AdminHandler) verify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status orders.ModerationStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if body.Status != orders.ModerationVerified && body.Status != orders.ModerationRejected {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid status. Must be 'verified' or 'rejected'."})
		return
	}

	imei := chi.URLParam(r, "imei")
	if err := h.Moderation.Verify(r.Context(), imei, body.Status, adminID(r.Context())); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Phone " + string(body.Status) + " successfully."})
}

func (h *AdminHandler) failures(w http.ResponseWriter, r *http.Request) {
	fs, err := h.Settlements.Failures(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"failures": fs})
}

func (h *AdminHandler) replay(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if _, err := uuid.Parse(orderID); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	res, err := h.Settlements.Replay(r.Context(), orderID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.Log.Info("settlement replayed", "order_id", orderID, "admin_id", adminID(r.Context()), "outcome", res.Outcome)
	writeJSON(w, http.StatusOK, map[string]any{"orderId": orderID, "outcome": res.Outcome, "paymentId": res.PaymentID})
}
