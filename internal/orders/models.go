package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCOD     PaymentMethod = "cod"
	MethodSafepay PaymentMethod = "safepay"
)

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationVerified ModerationStatus = "verified"
	ModerationRejected ModerationStatus = "rejected"
)

// Buyer is the checkout contact and delivery address. The users row is keyed by
// email; every order keeps its own copy of the address.
type Buyer struct {
	ID              string `json:"-"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber"`
	City            string `json:"city"`
	Area            string `json:"area"`
	Street          int    `json:"street"`
	HouseNumber     int    `json:"houseNumber"`
	NearestLandmark string `json:"nearestLandmark"`
}

type ListedProduct struct {
	ID       string
	SellerID string
	Price    decimal.Decimal
	IsSold   bool
	Status   ModerationStatus
}

type Order struct {
	ID          string          `json:"orderId"`
	UserID      string          `json:"userId"`
	Status      OrderStatus     `json:"orderStatus"`
	OrderDate   time.Time       `json:"orderDate"`
	BaseTotal   decimal.Decimal `json:"baseTotal"`
	PlatformFee decimal.Decimal `json:"platformFee"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Tax         decimal.Decimal `json:"tax"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	PaymentID   *string         `json:"paymentId"`
}

type SubOrder struct {
	ID       string      `json:"subOrderId"`
	OrderID  string      `json:"orderId"`
	SellerID string      `json:"sellerId"`
	Items    []OrderItem `json:"items"`
}

// OrderItem keeps the price the product had when the order was placed.
type OrderItem struct {
	ID         string          `json:"orderItemId"`
	SubOrderID string          `json:"subOrderId"`
	ProductID  string          `json:"productId"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

type Payment struct {
	ID            string          `json:"paymentId"`
	OrderID       string          `json:"orderId"`
	Method        PaymentMethod   `json:"paymentMethod"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"paymentStatus"`
	TransactionID *string         `json:"transactionId"`
}

type OrderDetails struct {
	Order     Order      `json:"order"`
	Buyer     Buyer      `json:"buyer"`
	SubOrders []SubOrder `json:"subOrders"`
}

// Receipt is what order assembly hands back to the caller.
type Receipt struct {
	OrderID       string          `json:"orderId"`
	PaymentID     string          `json:"paymentId"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Amount        decimal.Decimal `json:"amount"`
}
