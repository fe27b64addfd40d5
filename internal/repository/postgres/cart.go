package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/pkg/database"
)

// CartRepository implements repository.CartRepository using PostgreSQL.
// The cart lives in Postgres rather than a cache so order placement can
// cover it in the same transaction as the stock decrement.
type CartRepository struct {
	db database.DBTX
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(db database.DBTX) *CartRepository {
	return &CartRepository{db: db}
}

// Get returns the user's cart, creating an empty one if none exists.
func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := getCart(ctx, r.db, userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	now := time.Now().UTC()
	cart = &domain.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, query, cart.ID, cart.UserID, cart.CreatedAt, cart.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}

	cart.CalculateTotals()
	return cart, nil
}

// Save upserts the cart's items and coupon in one transaction. Items are
// replaced wholesale; the totals are derived and never stored.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cart.UpdatedAt = time.Now().UTC()

	var couponCode, couponType *string
	var couponValue, couponMaxDiscount *int64
	if cart.Coupon != nil {
		couponCode = &cart.Coupon.Code
		couponType = &cart.Coupon.Type
		couponValue = &cart.Coupon.Value
		couponMaxDiscount = &cart.Coupon.MaxDiscount
	}

	_, err = tx.Exec(ctx, `
		UPDATE carts
		SET coupon_code = $1, coupon_type = $2, coupon_value = $3, coupon_max_discount = $4, updated_at = $5
		WHERE id = $6`,
		couponCode, couponType, couponValue, couponMaxDiscount, cart.UpdatedAt, cart.ID,
	)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = cart.UpdatedAt
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, seller_id, name, image, price, quantity, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID, cart.ID, item.ProductID, item.SellerID, item.Name, item.Image, item.Price, item.Quantity, item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Clear drops the cart's items and coupon.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	return clearCart(ctx, r.db, userID)
}

// getCart loads a cart with its items through the given executor. Returns
// nil without error when the user has no cart yet.
func getCart(ctx context.Context, db database.DBTX, userID string) (*domain.Cart, error) {
	var (
		cart              domain.Cart
		couponCode        *string
		couponType        *string
		couponValue       *int64
		couponMaxDiscount *int64
	)

	err := db.QueryRow(ctx, `
		SELECT id, user_id, coupon_code, coupon_type, coupon_value, coupon_max_discount, created_at, updated_at
		FROM carts
		WHERE user_id = $1`,
		userID,
	).Scan(&cart.ID, &cart.UserID, &couponCode, &couponType, &couponValue, &couponMaxDiscount, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan cart: %w", err)
	}

	if couponCode != nil && couponType != nil {
		cart.Coupon = &domain.Coupon{Code: *couponCode, Type: *couponType}
		if couponValue != nil {
			cart.Coupon.Value = *couponValue
		}
		if couponMaxDiscount != nil {
			cart.Coupon.MaxDiscount = *couponMaxDiscount
		}
	}

	rows, err := db.Query(ctx, `
		SELECT id, product_id, seller_id, name, image, price, quantity, created_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at ASC`,
		cart.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.SellerID, &item.Name, &item.Image, &item.Price, &item.Quantity, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart item rows: %w", err)
	}

	cart.CalculateTotals()
	return &cart, nil
}

// clearCart drops items and coupon through the given executor, so order
// placement can reuse it inside its transaction.
func clearCart(ctx context.Context, db database.DBTX, userID string) error {
	_, err := db.Exec(ctx, `
		DELETE FROM cart_items
		WHERE cart_id IN (SELECT id FROM carts WHERE user_id = $1)`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	_, err = db.Exec(ctx, `
		UPDATE carts
		SET coupon_code = NULL, coupon_type = NULL, coupon_value = NULL, coupon_max_discount = NULL, updated_at = $1
		WHERE user_id = $2`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("clear cart coupon: %w", err)
	}

	return nil
}
