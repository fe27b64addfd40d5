package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/internal/event"
	"github.com/20bec4199/blissora/internal/repository"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
	"github.com/20bec4199/blissora/pkg/pagination"
)

const orderCurrency = "USD"

// OrderService implements checkout and order management.
type OrderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	provider  PaymentProvider
	producer  *event.Producer
	logger    *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	provider PaymentProvider,
	producer *event.Producer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		provider:  provider,
		producer:  producer,
		logger:    logger,
	}
}

// CheckoutInput holds the parameters for placing an order.
type CheckoutInput struct {
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
	Notes           string
}

// CreateFromCart places an order from the user's cart. The charge happens
// first; only a collected (or cash-on-delivery) payment reaches the order
// transaction, which snapshots the cart, decrements stock and clears the
// cart atomically.
func (s *OrderService) CreateFromCart(ctx context.Context, userID string, input CheckoutInput) (*domain.Order, error) {
	if !domain.IsValidPaymentMethod(input.PaymentMethod) {
		return nil, apperrors.InvalidInput("invalid payment method")
	}
	if input.ShippingAddress.FullName == "" || input.ShippingAddress.AddressLine1 == "" ||
		input.ShippingAddress.City == "" || input.ShippingAddress.PostalCode == "" ||
		input.ShippingAddress.Country == "" {
		return nil, apperrors.InvalidInput("shipping address is incomplete")
	}

	cart, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}
	cart.CalculateTotals()

	now := time.Now().UTC()
	address := input.ShippingAddress
	order := &domain.Order{
		ID:              uuid.New().String(),
		OrderNumber:     domain.NewOrderNumber(),
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		Items:           make([]domain.OrderItem, 0, len(cart.Items)),
		Subtotal:        cart.Subtotal,
		Discount:        cart.Discount,
		Shipping:        cart.Shipping,
		Tax:             cart.Tax,
		Total:           cart.Total,
		ShippingAddress: &address,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if cart.Coupon != nil {
		order.CouponCode = cart.Coupon.Code
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			SellerID:  item.SellerID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	payment := &domain.Payment{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		UserID:    userID,
		Amount:    order.Total,
		Currency:  orderCurrency,
		Method:    input.PaymentMethod,
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if input.PaymentMethod != domain.PaymentMethodCOD {
		result, err := s.provider.Charge(ctx, ChargeRequest{
			OrderID:  order.ID,
			UserID:   userID,
			Amount:   order.Total,
			Currency: orderCurrency,
			Method:   input.PaymentMethod,
		})
		if err != nil {
			return nil, apperrors.PaymentFailed(fmt.Sprintf("payment was declined: %v", err))
		}
		payment.Status = domain.PaymentStatusCompleted
		payment.GatewayRef = result.GatewayRef
	}

	if err := s.orderRepo.Create(ctx, order, payment); err != nil {
		return nil, err
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("user_id", userID),
		slog.Int64("total", order.Total),
	)

	return order, nil
}

// Get returns an order. Buyers see their own orders, sellers see orders
// containing their products (restricted to their items), admins see all.
func (s *OrderService) Get(ctx context.Context, orderID, actorID, actorRole string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch actorRole {
	case domain.RoleAdmin:
		return order, nil
	case domain.RoleSeller:
		if order.UserID == actorID {
			return order, nil
		}
		items := order.Items[:0]
		for _, item := range order.Items {
			if item.SellerID == actorID {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			return nil, apperrors.Forbidden("you do not have access to this order")
		}
		order.Items = items
		return order, nil
	default:
		if order.UserID != actorID {
			return nil, apperrors.Forbidden("you do not have access to this order")
		}
		return order, nil
	}
}

// List returns orders visible to the actor. Buyers get their own orders,
// sellers get orders containing their products, admins get everything.
func (s *OrderService) List(ctx context.Context, actorID, actorRole, status string, p pagination.Params) ([]domain.Order, int, error) {
	if status != "" && !domain.IsValidOrderStatus(status) {
		return nil, 0, apperrors.InvalidInput("invalid order status")
	}

	filter := domain.OrderFilter{Status: status}
	switch actorRole {
	case domain.RoleAdmin:
	case domain.RoleSeller:
		filter.SellerID = actorID
	default:
		filter.UserID = actorID
	}

	return s.orderRepo.List(ctx, filter, p)
}

// UpdateStatus moves an order along its lifecycle. Transitions outside the
// state machine are rejected. Reaching delivered stamps the delivery time.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput("invalid order status")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(order.Status, status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot transition order from %s to %s", order.Status, status))
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order.Status = status
	order.UpdatedAt = now
	if status == domain.OrderStatusDelivered {
		order.DeliveredAt = &now
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", orderID),
		slog.String("status", status),
	)

	return order, nil
}

// Cancel cancels a pending order. Buyers may cancel only their own orders
// and only while the order is still pending; admins may cancel any order
// the state machine allows.
func (s *OrderService) Cancel(ctx context.Context, orderID, actorID, actorRole string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if actorRole != domain.RoleAdmin {
		if order.UserID != actorID {
			return nil, apperrors.Forbidden("you do not have access to this order")
		}
		if order.Status != domain.OrderStatusPending {
			return nil, apperrors.InvalidInput("only pending orders can be cancelled")
		}
	}

	return s.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled)
}
