package domain

import (
	"time"
)

// Coupon type constants.
const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

// Cart pricing constants. All amounts are cents.
const (
	FreeShippingThreshold int64 = 50000
	ShippingFee           int64 = 4000
	TaxRatePercent        int64 = 10
)

// Coupon represents a discount applied to a cart.
type Coupon struct {
	Code        string `json:"code"`
	Type        string `json:"type"`
	Value       int64  `json:"value"` // percent for percentage type, cents for fixed
	MaxDiscount int64  `json:"max_discount,omitempty"`
}

// CartItem is a single product entry in a cart. Price is the unit price in
// cents captured when the item was added.
type CartItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	SellerID  string    `json:"seller_id"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	Price     int64     `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// Cart holds a user's pending items. One cart per user. The derived totals
// are computed by CalculateTotals and never stored independently of the items.
type Cart struct {
	ID     string     `json:"id"`
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"items"`
	Coupon *Coupon    `json:"coupon,omitempty"`

	ItemsCount    int   `json:"items_count"`
	TotalQuantity int   `json:"total_quantity"`
	Subtotal      int64 `json:"subtotal"`
	Discount      int64 `json:"discount"`
	Shipping      int64 `json:"shipping"`
	Tax           int64 `json:"tax"`
	Total         int64 `json:"total"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CalculateTotals recomputes all derived amounts from the items and coupon.
// Callers must invoke it after every mutation; totals are never updated by
// persistence hooks.
//
// Rules: discount from the coupon (percentage capped at MaxDiscount when set,
// fixed capped at the subtotal), free shipping at or above the threshold,
// 10% tax on the discounted subtotal, total clamped at zero.
func (c *Cart) CalculateTotals() {
	c.ItemsCount = len(c.Items)
	c.TotalQuantity = 0
	c.Subtotal = 0
	for _, item := range c.Items {
		c.TotalQuantity += item.Quantity
		c.Subtotal += item.Price * int64(item.Quantity)
	}

	c.Discount = 0
	if c.Coupon != nil && c.Subtotal > 0 {
		switch c.Coupon.Type {
		case CouponTypePercentage:
			c.Discount = c.Subtotal * c.Coupon.Value / 100
			if c.Coupon.MaxDiscount > 0 && c.Discount > c.Coupon.MaxDiscount {
				c.Discount = c.Coupon.MaxDiscount
			}
		case CouponTypeFixed:
			c.Discount = c.Coupon.Value
		}
		if c.Discount > c.Subtotal {
			c.Discount = c.Subtotal
		}
	}

	taxable := c.Subtotal - c.Discount

	c.Shipping = 0
	if c.Subtotal > 0 && c.Subtotal < FreeShippingThreshold {
		c.Shipping = ShippingFee
	}

	c.Tax = taxable * TaxRatePercent / 100

	c.Total = taxable + c.Shipping + c.Tax
	if c.Total < 0 {
		c.Total = 0
	}
}
