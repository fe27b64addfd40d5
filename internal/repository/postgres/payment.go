package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/pkg/database"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
)

// PaymentRepository implements repository.PaymentRepository using PostgreSQL.
// Payments are inserted by the order repository inside the order creation
// transaction; this repository covers lookups and status changes after.
type PaymentRepository struct {
	db database.DBTX
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(db database.DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetByOrderID retrieves the payment record for an order.
func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	query := `
		SELECT id, order_id, user_id, amount, currency, method, status, gateway_ref, created_at, updated_at
		FROM payments
		WHERE order_id = $1`

	var p domain.Payment
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&p.ID,
		&p.OrderID,
		&p.UserID,
		&p.Amount,
		&p.Currency,
		&p.Method,
		&p.Status,
		&p.GatewayRef,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	return &p, nil
}

// UpdateStatus changes a payment's status.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("payment", id)
	}

	return nil
}
