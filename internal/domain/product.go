package domain

import (
	"time"
)

// Product status constants.
const (
	ProductStatusActive     = "active"
	ProductStatusInactive   = "inactive"
	ProductStatusDraft      = "draft"
	ProductStatusOutOfStock = "out_of_stock"
)

// Inventory holds stock tracking for a product. When TrackQuantity is false,
// stock is never checked or decremented.
type Inventory struct {
	SKU            string `json:"sku,omitempty"`
	Quantity       int    `json:"quantity"`
	TrackQuantity  bool   `json:"track_quantity"`
	AllowBackorder bool   `json:"allow_backorder"`
}

// Rating holds the denormalized review aggregate for a product. It is
// recomputed explicitly whenever a review is approved or removed.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Product represents a seller-owned catalog item. All amounts are cents.
type Product struct {
	ID           string            `json:"id"`
	SellerID     string            `json:"seller_id"`
	CategoryID   string            `json:"category_id"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Description  string            `json:"description,omitempty"`
	Price        int64             `json:"price"`
	ComparePrice int64             `json:"compare_price,omitempty"`
	Images       []string          `json:"images"`
	Inventory    Inventory         `json:"inventory"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Status       string            `json:"status"`
	IsFeatured   bool              `json:"is_featured"`
	Rating       Rating            `json:"rating"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ValidProductStatuses returns the set of valid product statuses.
func ValidProductStatuses() []string {
	return []string{
		ProductStatusActive,
		ProductStatusInactive,
		ProductStatusDraft,
		ProductStatusOutOfStock,
	}
}

// IsValidProductStatus checks whether the given status string is valid.
func IsValidProductStatus(status string) bool {
	for _, s := range ValidProductStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// InStock reports whether the requested quantity can be fulfilled.
func (p *Product) InStock(quantity int) bool {
	if !p.Inventory.TrackQuantity {
		return true
	}
	if p.Inventory.AllowBackorder {
		return true
	}
	return p.Inventory.Quantity >= quantity
}

// ProductFilter holds the list query filters for the catalog.
type ProductFilter struct {
	CategoryID string
	SellerID   string
	Status     string
	Search     string
	MinPrice   int64
	MaxPrice   int64
	Featured   *bool
	SortBy     string // price_asc, price_desc, rating, newest
}
