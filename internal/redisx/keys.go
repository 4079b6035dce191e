package redisx

import (
	"fmt"
	"time"
)

const (
	// settled:{order_id} -> "1", set after a settlement commits
	KeySettled = "settled:%s"

	// payment_status:{order_id} -> Pending | Paid | Failed
	KeyPaymentStatus = "payment_status:%s"

	// dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLSettled     = 7 * 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)

func Settled(orderID string) string       { return fmt.Sprintf(KeySettled, orderID) }
func PaymentStatus(orderID string) string { return fmt.Sprintf(KeyPaymentStatus, orderID) }
func Dedup(service, id string) string     { return fmt.Sprintf(KeyDedup, service, id) }
