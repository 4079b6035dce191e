package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/rephone-market/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy to a status code. Database errors are
// never echoed to the client.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var ve *orders.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": ve.Fields})
	case errors.Is(err, orders.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": []orders.FieldError{{Message: err.Error()}}})
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrConflict):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrGatewayTimeout):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "provider timed out", "details": err.Error()})
	case errors.Is(err, orders.ErrGateway):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "provider request failed", "details": err.Error()})
	default:
		log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
