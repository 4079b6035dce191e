package orders

const (
	TopicSellerNotifications = "seller.notifications"
)

// Partition key = order_id so the events of one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
