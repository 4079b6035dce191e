package orders

import (
	"encoding/json"
	"time"
)

const (
	EventProductSold = "ProductSold"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// ProductSoldPayload tells one seller that one of their listings was paid for.
type ProductSoldPayload struct {
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	SellerEmail string `json:"seller_email"`
}
