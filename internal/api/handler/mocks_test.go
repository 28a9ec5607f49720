package handler_test

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockCartService struct {
	mock.Mock
}

func (m *mockCartService) view(args mock.Arguments) (*service.CartView, error) {
	if v := args.Get(0); v != nil {
		return v.(*service.CartView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCartService) GetCart(ctx context.Context, owner model.CartOwner) (*service.CartView, error) {
	return m.view(m.Called(ctx, owner))
}

func (m *mockCartService) AddItem(ctx context.Context, owner model.CartOwner, productID uint, quantity int, options model.SelectedOptions) (*service.CartView, error) {
	return m.view(m.Called(ctx, owner, productID, quantity, options))
}

func (m *mockCartService) UpdateItem(ctx context.Context, owner model.CartOwner, productID uint, quantity int, options model.SelectedOptions) (*service.CartView, error) {
	return m.view(m.Called(ctx, owner, productID, quantity, options))
}

func (m *mockCartService) RemoveItem(ctx context.Context, owner model.CartOwner, productID uint, options model.SelectedOptions) (*service.CartView, error) {
	return m.view(m.Called(ctx, owner, productID, options))
}

func (m *mockCartService) Clear(ctx context.Context, owner model.CartOwner) error {
	return m.Called(ctx, owner).Error(0)
}

func (m *mockCartService) Merge(ctx context.Context, userID uint, sessionID string) (*service.CartView, error) {
	return m.view(m.Called(ctx, userID, sessionID))
}

type mockCouponService struct {
	mock.Mock
}

func (m *mockCouponService) result(args mock.Arguments) (*service.CouponResult, error) {
	if v := args.Get(0); v != nil {
		return v.(*service.CouponResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCouponService) Validate(ctx context.Context, code string, owner model.CartOwner) (*service.CouponResult, error) {
	return m.result(m.Called(ctx, code, owner))
}

func (m *mockCouponService) Apply(ctx context.Context, code string, owner model.CartOwner) (*service.CouponResult, error) {
	return m.result(m.Called(ctx, code, owner))
}

func (m *mockCouponService) CreateCoupon(ctx context.Context, coupon *model.Coupon, productIDs, categoryIDs []uint) (*model.Coupon, error) {
	args := m.Called(ctx, coupon, productIDs, categoryIDs)
	if v := args.Get(0); v != nil {
		return v.(*model.Coupon), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCheckoutService struct {
	mock.Mock
}

func (m *mockCheckoutService) order(args mock.Arguments) (*model.Order, error) {
	if v := args.Get(0); v != nil {
		return v.(*model.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCheckoutService) Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*service.CheckoutResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCheckoutService) Cancel(ctx context.Context, userID uint, orderNumber string) (*model.Order, error) {
	return m.order(m.Called(ctx, userID, orderNumber))
}

func (m *mockCheckoutService) GetOrder(ctx context.Context, identity model.Identity, orderNumber string) (*model.Order, error) {
	return m.order(m.Called(ctx, identity, orderNumber))
}

type mockPaymentService struct {
	mock.Mock
}

func (m *mockPaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	return m.Called(ctx, body, signature).Error(0)
}

func (m *mockPaymentService) Verify(ctx context.Context, reference string) (*service.PaymentResult, error) {
	args := m.Called(ctx, reference)
	if v := args.Get(0); v != nil {
		return v.(*service.PaymentResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockFulfillmentService struct {
	mock.Mock
}

func (m *mockFulfillmentService) UpdateItemStatus(ctx context.Context, actor model.Identity, itemID uint, to model.FulfillmentStatus) (*model.Order, error) {
	args := m.Called(ctx, actor, itemID, to)
	if v := args.Get(0); v != nil {
		return v.(*model.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockShippingService struct {
	mock.Mock
}

func (m *mockShippingService) ResolveFee(ctx context.Context, selection service.ShippingSelection, state string) (decimal.Decimal, error) {
	args := m.Called(ctx, selection, state)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockShippingService) Activate(ctx context.Context, settingID uint) (*model.ShippingSetting, error) {
	args := m.Called(ctx, settingID)
	if v := args.Get(0); v != nil {
		return v.(*model.ShippingSetting), args.Error(1)
	}
	return nil, args.Error(1)
}
