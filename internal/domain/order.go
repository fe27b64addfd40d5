package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Order status constants.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// orderTransitions defines the allowed forward transitions between order
// statuses. Cancellation is allowed from any non-terminal status.
var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ShippingAddress is the delivery destination captured on the order.
type ShippingAddress struct {
	FullName     string `json:"full_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone,omitempty"`
}

// OrderItem is a line item snapshot taken from the cart at order time.
type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	SellerID  string `json:"seller_id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Order represents a placed order. All amounts are cents.
type Order struct {
	ID              string           `json:"id"`
	OrderNumber     string           `json:"order_number"`
	UserID          string           `json:"user_id"`
	Status          string           `json:"status"`
	Items           []OrderItem      `json:"items"`
	Subtotal        int64            `json:"subtotal"`
	Discount        int64            `json:"discount"`
	Shipping        int64            `json:"shipping"`
	Tax             int64            `json:"tax"`
	Total           int64            `json:"total"`
	CouponCode      string           `json:"coupon_code,omitempty"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	DeliveredAt     *time.Time       `json:"delivered_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewOrderNumber generates a human-readable order number: "ORD" followed by
// the current unix milliseconds and a 3-digit random suffix.
func NewOrderNumber() string {
	return fmt.Sprintf("ORD%d%03d", time.Now().UnixMilli(), rand.IntN(1000)) // #nosec G404 -- uniqueness comes from the timestamp
}

// ValidOrderStatuses returns the set of valid order statuses.
func ValidOrderStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidOrderStatus checks whether the given status string is valid.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// OrderFilter holds list query filters for orders.
type OrderFilter struct {
	UserID   string
	SellerID string
	Status   string
}
