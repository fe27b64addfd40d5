package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/pkg/database"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
	"github.com/20bec4199/blissora/pkg/pagination"
)

const orderColumns = `id, order_number, user_id, status, subtotal, discount, shipping, tax, total, coupon_code, shipping_address, notes, delivered_at, created_at, updated_at`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create atomically places an order. Stock is checked and decremented per
// tracked line item with the row locked, the order, its items and the
// payment record are inserted, and the ordered lines are removed from the
// user's cart. Any failure rolls the whole transaction back.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order, payment *domain.Payment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, item := range o.Items {
		if err := decrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	addressJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, order_number, user_id, status, subtotal, discount, shipping, tax, total, coupon_code, shipping_address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		o.ID, o.OrderNumber, o.UserID, o.Status, o.Subtotal, o.Discount, o.Shipping, o.Tax, o.Total,
		o.CouponCode, addressJSON, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, seller_id, name, image, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, o.ID, item.ProductID, item.SellerID, item.Name, item.Image, item.Price, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payments (id, order_id, user_id, amount, currency, method, status, gateway_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		payment.ID, payment.OrderID, payment.UserID, payment.Amount, payment.Currency,
		payment.Method, payment.Status, payment.GatewayRef, payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	productIDs := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	if err := consumeCartItems(ctx, tx, o.UserID, productIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// consumeCartItems deletes only the ordered lines from the user's cart and
// drops the coupon. An item added to the cart after the checkout snapshot
// was taken survives the order.
func consumeCartItems(ctx context.Context, tx pgx.Tx, userID string, productIDs []string) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM cart_items
		WHERE cart_id IN (SELECT id FROM carts WHERE user_id = $1)
		  AND product_id = ANY($2)`,
		userID, productIDs,
	)
	if err != nil {
		return fmt.Errorf("consume cart items: %w", err)
	}

	_, err = tx.Exec(ctx, `
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

// decrementStock checks and decrements a tracked product's stock with the
// row locked, flipping the status to out_of_stock when it reaches zero.
// Untracked and backorder products pass through.
func decrementStock(ctx context.Context, tx pgx.Tx, productID string, quantity int) error {
	var (
		stock          int
		trackQuantity  bool
		allowBackorder bool
	)

	err := tx.QueryRow(ctx,
		`SELECT quantity, track_quantity, allow_backorder FROM products WHERE id = $1 FOR UPDATE`,
		productID,
	).Scan(&stock, &trackQuantity, &allowBackorder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product", productID)
		}
		return fmt.Errorf("lock product %s: %w", productID, err)
	}

	if !trackQuantity {
		return nil
	}

	if stock < quantity && !allowBackorder {
		return apperrors.InvalidInput(fmt.Sprintf("insufficient stock for product %s", productID))
	}

	remaining := stock - quantity
	status := domain.ProductStatusActive
	if remaining <= 0 {
		status = domain.ProductStatusOutOfStock
	}

	_, err = tx.Exec(ctx,
		`UPDATE products SET quantity = $1, status = $2, updated_at = $3 WHERE id = $4`,
		remaining, status, time.Now().UTC(), productID,
	)
	if err != nil {
		return fmt.Errorf("decrement stock for product %s: %w", productID, err)
	}

	return nil
}

// GetByID retrieves an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrderRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	items, err := r.itemsForOrders(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}

	return o, nil
}

// List returns orders matching the filter, newest first, paginated. A
// seller filter restricts both the order set and the attached line items
// to that seller's products.
func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter, p pagination.Params) ([]domain.Order, int, error) {
	conditions := []string{}
	args := []any{}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.SellerID != "" {
		args = append(args, filter.SellerID)
		conditions = append(conditions, fmt.Sprintf("id IN (SELECT order_id FROM order_items WHERE seller_id = $%d)", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)+1, len(args)+2)
	args = append(args, p.PerPage, p.Offset)

	orders, err := r.queryOrders(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachItems(ctx, orders, filter.SellerID); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdateStatus transitions the order's status, stamping delivered_at when
// the new status is delivered.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	now := time.Now().UTC()

	var deliveredAt *time.Time
	if status == domain.OrderStatusDelivered {
		deliveredAt = &now
	}

	query := `
		UPDATE orders
		SET status = $1, delivered_at = COALESCE($2, delivered_at), updated_at = $3
		WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, status, deliveredAt, now, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// HasDeliveredProduct reports whether the user has a delivered order
// containing the given product.
func (r *OrderRepository) HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status = $3
		)`

	var exists bool
	err := r.db.QueryRow(ctx, query, userID, productID, domain.OrderStatusDelivered).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check delivered product: %w", err)
	}

	return exists, nil
}

// Recent returns the most recent orders across all users.
func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders ORDER BY created_at DESC LIMIT $1`, orderColumns)

	orders, err := r.queryOrders(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, orders, ""); err != nil {
		return nil, err
	}

	return orders, nil
}

// Stats returns the dashboard order aggregates.
func (r *OrderRepository) Stats(ctx context.Context) (total int, deliveredRevenue int64, deliveredCount int, err error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(total) FILTER (WHERE status = $1), 0),
			COUNT(*) FILTER (WHERE status = $1)
		FROM orders`

	err = r.db.QueryRow(ctx, query, domain.OrderStatusDelivered).Scan(&total, &deliveredRevenue, &deliveredCount)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("order stats: %w", err)
	}

	return total, deliveredRevenue, deliveredCount, nil
}

// DailySales aggregates non-cancelled orders per day over [from, to].
func (r *OrderRepository) DailySales(ctx context.Context, from, to time.Time) ([]domain.SalesPoint, error) {
	query := `
		SELECT to_char(created_at::date, 'YYYY-MM-DD'), COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2 AND status != $3
		GROUP BY created_at::date
		ORDER BY created_at::date ASC`

	rows, err := r.db.Query(ctx, query, from, to, domain.OrderStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	defer rows.Close()

	points := []domain.SalesPoint{}
	for rows.Next() {
		var pt domain.SalesPoint
		if err := rows.Scan(&pt.Date, &pt.Orders, &pt.Revenue); err != nil {
			return nil, fmt.Errorf("scan sales point: %w", err)
		}
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales rows: %w", err)
	}

	return points, nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

// attachItems loads line items for the given orders in one query. When
// sellerID is set, only that seller's items are attached.
func (r *OrderRepository) attachItems(ctx context.Context, orders []domain.Order, sellerID string) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}

	items, err := r.itemsForOrders(ctx, ids, sellerID)
	if err != nil {
		return err
	}

	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
	}

	return nil
}

func (r *OrderRepository) itemsForOrders(ctx context.Context, orderIDs []string, sellerID ...string) (map[string][]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, seller_id, name, image, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)`
	args := []any{orderIDs}

	if len(sellerID) > 0 && sellerID[0] != "" {
		query += ` AND seller_id = $2`
		args = append(args, sellerID[0])
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	items := map[string][]domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.SellerID, &item.Name, &item.Image, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order item rows: %w", err)
	}

	return items, nil
}

func scanOrderRow(row pgx.Row) (*domain.Order, error) {
	var (
		o           domain.Order
		addressJSON []byte
	)

	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.Status,
		&o.Subtotal,
		&o.Discount,
		&o.Shipping,
		&o.Tax,
		&o.Total,
		&o.CouponCode,
		&addressJSON,
		&o.Notes,
		&o.DeliveredAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if len(addressJSON) > 0 {
		var addr domain.ShippingAddress
		if err := json.Unmarshal(addressJSON, &addr); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
		o.ShippingAddress = &addr
	}

	return &o, nil
}
