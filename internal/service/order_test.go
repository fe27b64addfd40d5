package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/internal/event"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
	"github.com/20bec4199/blissora/pkg/pagination"
)

type orderFixture struct {
	svc       *OrderService
	orders    *fakeOrderRepo
	carts     *fakeCartRepo
	provider  *fakeChargeProvider
	publisher *fakePublisher
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	orders := newFakeOrderRepo()
	carts := newFakeCartRepo()
	provider := &fakeChargeProvider{}
	publisher := &fakePublisher{}
	producer := event.NewProducer(publisher, discardLogger())
	svc := NewOrderService(orders, carts, provider, producer, discardLogger())
	return &orderFixture{svc: svc, orders: orders, carts: carts, provider: provider, publisher: publisher}
}

func testAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName:     "Jane Doe",
		AddressLine1: "1 Main St",
		City:         "Springfield",
		PostalCode:   "12345",
		Country:      "US",
	}
}

func (f *orderFixture) fillCart(t *testing.T, userID string) {
	t.Helper()
	cart, err := f.carts.Get(context.Background(), userID)
	require.NoError(t, err)
	cart.Items = []domain.CartItem{
		{ProductID: "prod-1", SellerID: "seller-1", Name: "Keyboard", Price: 10000, Quantity: 2},
		{ProductID: "prod-2", SellerID: "seller-2", Name: "Mouse", Price: 5000, Quantity: 1},
	}
	require.NoError(t, f.carts.Save(context.Background(), cart))
}

func TestCreateFromCart_CardChargesThenPlaces(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "user-1")

	order, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMethodCard,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.NotEmpty(t, order.OrderNumber)
	assert.Len(t, order.Items, 2)
	// 25000 subtotal, below free shipping, plus 10% tax on the subtotal.
	assert.Equal(t, int64(25000), order.Subtotal)
	assert.Equal(t, int64(25000+4000+2500), order.Total)

	require.Len(t, f.provider.charges, 1)
	assert.Equal(t, order.Total, f.provider.charges[0].Amount)

	payment := f.orders.payments[order.ID]
	require.NotNil(t, payment)
	assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "gw-test-ref", payment.GatewayRef)

	assert.Equal(t, []string{"user-1"}, f.orders.clearedCarts)

	events := f.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, event.TopicOrderCreated, events[0].EventType)
}

func TestCreateFromCart_CODStaysPending(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "user-1")

	order, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMethodCOD,
	})
	require.NoError(t, err)

	assert.Empty(t, f.provider.charges, "cash on delivery must not hit the gateway")
	payment := f.orders.payments[order.ID]
	require.NotNil(t, payment)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	assert.Empty(t, payment.GatewayRef)
}

func TestCreateFromCart_DeclinedChargeAbortsOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "user-1")
	f.provider.chargeErr = errors.New("card declined")

	_, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMethodCard,
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 422, appErr.Status)
	assert.Empty(t, f.orders.orders, "no order may exist after a declined charge")

	cart, err := f.carts.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2, "cart survives a declined charge")
}

func TestCreateFromCart_EmptyCartRejected(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMethodCard,
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
	assert.Empty(t, f.provider.charges)
}

func TestCreateFromCart_IncompleteAddressRejected(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "user-1")

	address := testAddress()
	address.PostalCode = ""

	_, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: address,
		PaymentMethod:   domain.PaymentMethodCard,
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestCreateFromCart_InvalidPaymentMethodRejected(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "user-1")

	_, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   "cheque",
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestCreateFromCart_CouponCarriedOntoOrder(t *testing.T) {
	f := newOrderFixture(t)
	cart, err := f.carts.Get(context.Background(), "user-1")
	require.NoError(t, err)
	cart.Items = []domain.CartItem{
		{ProductID: "prod-1", SellerID: "seller-1", Name: "Keyboard", Price: 10000, Quantity: 2},
	}
	cart.Coupon = &domain.Coupon{Code: "SAVE20", Type: domain.CouponTypePercentage, Value: 20}
	require.NoError(t, f.carts.Save(context.Background(), cart))

	order, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMethodCard,
	})
	require.NoError(t, err)

	assert.Equal(t, "SAVE20", order.CouponCode)
	assert.Equal(t, int64(4000), order.Discount)
}

func TestGetOrder_Visibility(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "user-1")
	order, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMethodCOD,
	})
	require.NoError(t, err)

	t.Run("owner sees the whole order", func(t *testing.T) {
		got, err := f.svc.Get(context.Background(), order.ID, "user-1", domain.RoleUser)
		require.NoError(t, err)
		assert.Len(t, got.Items, 2)
	})

	t.Run("other buyer is refused", func(t *testing.T) {
		_, err := f.svc.Get(context.Background(), order.ID, "user-2", domain.RoleUser)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 403, appErr.Status)
	})

	t.Run("seller sees only their items", func(t *testing.T) {
		got, err := f.svc.Get(context.Background(), order.ID, "seller-1", domain.RoleSeller)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "prod-1", got.Items[0].ProductID)
	})

	t.Run("uninvolved seller is refused", func(t *testing.T) {
		_, err := f.svc.Get(context.Background(), order.ID, "seller-9", domain.RoleSeller)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 403, appErr.Status)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		got, err := f.svc.Get(context.Background(), order.ID, "admin-1", domain.RoleAdmin)
		require.NoError(t, err)
		assert.Len(t, got.Items, 2)
	})
}

func TestListOrders_ScopedByRole(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "user-1")
	_, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMethodCOD,
	})
	require.NoError(t, err)

	p := pagination.Params{Page: 1, PerPage: 10}

	own, total, err := f.svc.List(context.Background(), "user-1", domain.RoleUser, "", p)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, own, 1)

	none, total, err := f.svc.List(context.Background(), "user-2", domain.RoleUser, "", p)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, none)

	selling, total, err := f.svc.List(context.Background(), "seller-1", domain.RoleSeller, "", p)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, selling, 1)

	_, _, err = f.svc.List(context.Background(), "admin-1", domain.RoleAdmin, "bogus", p)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestUpdateStatus_FollowsStateMachine(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "user-1")
	order, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMethodCOD,
	})
	require.NoError(t, err)

	for _, status := range []string{
		domain.OrderStatusConfirmed,
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
	} {
		updated, err := f.svc.UpdateStatus(context.Background(), order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
		assert.Nil(t, updated.DeliveredAt)
	}

	delivered, err := f.svc.UpdateStatus(context.Background(), order.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, delivered.DeliveredAt)

	_, err = f.svc.UpdateStatus(context.Background(), order.ID, domain.OrderStatusPending)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status, "delivered is terminal")
}

func TestUpdateStatus_SkippingStagesRejected(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "user-1")
	order, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMethodCOD,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), order.ID, domain.OrderStatusShipped)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestCancel_BuyerOnlyWhilePending(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "user-1")
	order, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMethodCOD,
	})
	require.NoError(t, err)

	t.Run("stranger cannot cancel", func(t *testing.T) {
		_, err := f.svc.Cancel(context.Background(), order.ID, "user-2", domain.RoleUser)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 403, appErr.Status)
	})

	t.Run("owner cancels pending order", func(t *testing.T) {
		cancelled, err := f.svc.Cancel(context.Background(), order.ID, "user-1", domain.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	})
}

func TestCancel_AdminCanCancelConfirmed(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, "user-1")
	order, err := f.svc.CreateFromCart(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMethodCOD,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), order.ID, domain.OrderStatusConfirmed)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), order.ID, "user-1", domain.RoleUser)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status, "buyer cannot cancel once confirmed")

	cancelled, err := f.svc.Cancel(context.Background(), order.ID, "admin-1", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
}
