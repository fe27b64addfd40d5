package domain

import (
	"time"
)

// Payment method constants.
const (
	PaymentMethodCard = "card"
	PaymentMethodCOD  = "cod"
	PaymentMethodUPI  = "upi"
)

// Payment status constants.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment is the payment record created alongside an order. Cash-on-delivery
// payments stay pending until delivery; provider-charged payments are
// completed at order time.
type Payment struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Method     string    `json:"method"`
	Status     string    `json:"status"`
	GatewayRef string    `json:"gateway_ref,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidPaymentMethods returns the set of valid payment methods.
func ValidPaymentMethods() []string {
	return []string{PaymentMethodCard, PaymentMethodCOD, PaymentMethodUPI}
}

// IsValidPaymentMethod checks whether the given method string is valid.
func IsValidPaymentMethod(method string) bool {
	for _, m := range ValidPaymentMethods() {
		if m == method {
			return true
		}
	}
	return false
}
