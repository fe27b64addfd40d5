package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/internal/repository"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
)

// CartService implements cart business logic. Totals are recomputed by an
// explicit transform after every mutation.
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// Get returns the user's cart with freshly computed totals.
func (s *CartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.cartRepo.Get(ctx, userID)
}

// AddItem puts a product into the cart. Adding a product already present
// merges quantities. The unit price is captured from the catalog now and
// does not track later price changes.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be positive")
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != domain.ProductStatusActive {
		return nil, apperrors.InvalidInput("product is not available")
	}

	cart, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: product.ID,
			SellerID:  product.SellerID,
			Name:      product.Name,
			Image:     image,
			Price:     product.Price,
			Quantity:  quantity,
		})
	}

	return s.persist(ctx, cart)
}

// UpdateItem sets an item's quantity. A quantity of zero or less removes
// the item.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	cart, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID == productID {
			found = true
			if quantity <= 0 {
				continue
			}
			item.Quantity = quantity
		}
		items = append(items, item)
	}
	if !found {
		return nil, apperrors.NotFound("cart item", productID)
	}
	cart.Items = items

	return s.persist(ctx, cart)
}

// RemoveItem drops a product from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	return s.UpdateItem(ctx, userID, productID, 0)
}

// ApplyCoupon attaches a coupon to the cart.
func (s *CartService) ApplyCoupon(ctx context.Context, userID string, coupon domain.Coupon) (*domain.Cart, error) {
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	if coupon.Code == "" {
		return nil, apperrors.InvalidInput("coupon code is required")
	}
	if coupon.Type != domain.CouponTypePercentage && coupon.Type != domain.CouponTypeFixed {
		return nil, apperrors.InvalidInput("coupon type must be percentage or fixed")
	}
	if coupon.Value <= 0 {
		return nil, apperrors.InvalidInput("coupon value must be positive")
	}
	if coupon.Type == domain.CouponTypePercentage && coupon.Value > 100 {
		return nil, apperrors.InvalidInput("percentage coupon cannot exceed 100")
	}

	cart, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Coupon = &coupon
	return s.persist(ctx, cart)
}

// RemoveCoupon detaches the coupon from the cart.
func (s *CartService) RemoveCoupon(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Coupon = nil
	return s.persist(ctx, cart)
}

// Clear drops all items and the coupon.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *CartService) persist(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	cart.CalculateTotals()
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}
