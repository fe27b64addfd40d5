package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/internal/repository"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
)

// ChargeRequest describes a payment to collect.
type ChargeRequest struct {
	OrderID  string
	UserID   string
	Amount   int64
	Currency string
	Method   string
}

// ChargeResult is the provider's answer to a charge.
type ChargeResult struct {
	GatewayRef string
}

// PaymentProvider is the boundary to the payment gateway.
type PaymentProvider interface {
	// Charge collects the amount. A non-nil error means nothing was
	// collected and the order must not be placed.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)

	// Refund returns a previously collected amount.
	Refund(ctx context.Context, gatewayRef string, amount int64) error
}

// MockProvider approves every charge with a generated reference. It stands
// in for a real gateway integration.
type MockProvider struct{}

// NewMockProvider creates the stand-in payment provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Charge approves the charge.
func (p *MockProvider) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	return &ChargeResult{GatewayRef: "mock-" + uuid.NewString()}, nil
}

// Refund approves the refund.
func (p *MockProvider) Refund(_ context.Context, _ string, _ int64) error {
	return nil
}

// PaymentService implements payment queries and refunds. Payment records
// are created inside the order placement transaction.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	provider    PaymentProvider
	logger      *slog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	provider PaymentProvider,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		provider:    provider,
		logger:      logger,
	}
}

// GetByOrder returns the payment record for an order, visible only to the
// order's owner or an admin.
func (s *PaymentService) GetByOrder(ctx context.Context, orderID, actorID, actorRole string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if actorRole != domain.RoleAdmin && payment.UserID != actorID {
		return nil, apperrors.Forbidden("you do not own this payment")
	}

	return payment, nil
}

// Refund refunds a completed payment and marks it refunded. Admin only,
// enforced at the route.
func (s *PaymentService) Refund(ctx context.Context, orderID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if payment.Status != domain.PaymentStatusCompleted {
		return nil, apperrors.InvalidInput("only completed payments can be refunded")
	}

	if err := s.provider.Refund(ctx, payment.GatewayRef, payment.Amount); err != nil {
		return nil, apperrors.PaymentFailed(fmt.Sprintf("refund failed: %v", err))
	}

	if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, domain.PaymentStatusRefunded); err != nil {
		return nil, fmt.Errorf("mark payment refunded: %w", err)
	}
	payment.Status = domain.PaymentStatusRefunded

	s.logger.InfoContext(ctx, "payment refunded",
		slog.String("payment_id", payment.ID),
		slog.String("order_id", orderID),
	)

	return payment, nil
}

// MarkCODCollected completes a cash-on-delivery payment after the order is
// delivered.
func (s *PaymentService) MarkCODCollected(ctx context.Context, orderID string) error {
	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	if payment.Method != domain.PaymentMethodCOD {
		return apperrors.InvalidInput("payment is not cash on delivery")
	}
	if payment.Status != domain.PaymentStatusPending {
		return apperrors.InvalidInput("payment is not pending")
	}

	return s.paymentRepo.UpdateStatus(ctx, payment.ID, domain.PaymentStatusCompleted)
}
