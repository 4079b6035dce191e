package payments

import (
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	StateTrackerEnded      = "TRACKER_ENDED"
	StateTrackerAuthorized = "TRACKER_AUTHORIZED"
)

// Notification is the part of a Safepay webhook settlement cares about.
type Notification struct {
	OrderID string
	State   string
	Tracker string
	Raw     json.RawMessage

	// Trace is the span that received the webhook; settlement continues it.
	Trace trace.SpanContext
}

type webhookBody struct {
	Data struct {
		State    string `json:"state"`
		Tracker  string `json:"tracker"`
		Metadata struct {
			OrderID string `json:"order_id"`
		} `json:"metadata"`
	} `json:"data"`
}

func ParseNotification(body []byte) (Notification, error) {
	var w webhookBody
	if err := json.Unmarshal(body, &w); err != nil {
		return Notification{}, fmt.Errorf("%w: webhook body: %v", orders.ErrValidation, err)
	}
	id, err := uuid.Parse(w.Data.Metadata.OrderID)
	if err != nil {
		return Notification{}, fmt.Errorf("%w: webhook order id %q", orders.ErrValidation, w.Data.Metadata.OrderID)
	}
	return Notification{
		OrderID: id.String(),
		State:   w.Data.State,
		Tracker: w.Data.Tracker,
		Raw:     append(json.RawMessage(nil), body...),
	}, nil
}

// Confirmed reports whether the provider considers the payment complete.
func (n Notification) Confirmed() bool {
	return n.State == StateTrackerEnded || n.State == StateTrackerAuthorized
}
