package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CartRepoTestSuite struct {
	suite.Suite
	store  *db.SQLStore
	fx     *dbtest.Fixtures
	vendor *model.User
}

func (suite *CartRepoTestSuite) SetupTest() {
	suite.store, _ = dbtest.NewStore(suite.T())
	suite.fx = dbtest.NewFixtures(suite.T(), suite.store)
	suite.vendor = suite.fx.User(constants.RoleVendor)
}

func (suite *CartRepoTestSuite) TestCreateCartRejectsInvalidOwner() {
	ctx := context.Background()
	uid := uint(1)
	sid := "s-1"

	err := suite.store.CreateCart(ctx, &model.Cart{})
	require.True(suite.T(), errors.Is(err, apperr.ErrCartOwnerRequired))

	err = suite.store.CreateCart(ctx, &model.Cart{UserID: &uid, SessionID: &sid})
	require.True(suite.T(), errors.Is(err, apperr.ErrCartOwnerRequired))
}

func (suite *CartRepoTestSuite) TestGetCartByOwner() {
	ctx := context.Background()
	customer := suite.fx.User(constants.RoleCustomer)
	p := suite.fx.Product(suite.vendor.ID, "12.50", 4)

	userCart := suite.fx.Cart(model.UserOwner(customer.ID))
	suite.fx.CartItem(userCart.ID, p.ID, 2, model.SelectedOptions{"size": "M"})
	suite.fx.CartItem(userCart.ID, p.ID, 1, nil)
	guestCart := suite.fx.Cart(model.SessionOwner("guest-1"))

	got, err := suite.store.GetCartByOwner(ctx, model.UserOwner(customer.ID))
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), userCart.ID, got.ID)
	require.Len(suite.T(), got.Items, 2)
	require.NotNil(suite.T(), got.Items[0].Product)
	require.Equal(suite.T(), "M", got.Items[0].SelectedOptions["size"])
	require.Empty(suite.T(), got.Items[1].SelectedOptions)

	got, err = suite.store.GetCartByOwner(ctx, model.SessionOwner("guest-1"))
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), guestCart.ID, got.ID)
	require.True(suite.T(), got.IsEmpty())

	_, err = suite.store.GetCartByOwner(ctx, model.SessionOwner("nobody"))
	require.True(suite.T(), errors.Is(err, apperr.ErrCartNotFound))
}

func (suite *CartRepoTestSuite) TestCartLineIsUniquePerOptions() {
	ctx := context.Background()
	p := suite.fx.Product(suite.vendor.ID, "1", 10)
	cart := suite.fx.Cart(model.SessionOwner("guest-2"))
	suite.fx.CartItem(cart.ID, p.ID, 1, model.SelectedOptions{"a": "1", "b": "2"})

	dup := &model.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: 1}
	dup.SetOptions(model.SelectedOptions{"b": "2", "a": "1"})
	require.Error(suite.T(), suite.store.CreateCartItem(ctx, dup))
}

func (suite *CartRepoTestSuite) TestSetCartCouponOnlyOnce() {
	ctx := context.Background()
	coupon := suite.fx.Coupon(&model.Coupon{Code: "once", Type: model.CouponTypeFixed, Value: decimal.NewFromInt(5)})
	other := suite.fx.Coupon(&model.Coupon{Code: "twice", Type: model.CouponTypeFixed, Value: decimal.NewFromInt(3)})
	cart := suite.fx.Cart(model.SessionOwner("guest-3"))

	require.NoError(suite.T(), suite.store.SetCartCoupon(ctx, cart.ID, coupon.ID, decimal.NewFromInt(5)))
	err := suite.store.SetCartCoupon(ctx, cart.ID, other.ID, decimal.NewFromInt(3))
	require.True(suite.T(), errors.Is(err, apperr.ErrCouponAlreadyApplied))

	got, err := suite.store.GetCartByID(ctx, cart.ID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), got.Coupon)
	require.Equal(suite.T(), "ONCE", got.Coupon.Code)
	require.True(suite.T(), got.DiscountAmount.Equal(decimal.NewFromInt(5)))

	require.NoError(suite.T(), suite.store.ClearCartCoupon(ctx, cart.ID))
	got, _ = suite.store.GetCartByID(ctx, cart.ID)
	require.Nil(suite.T(), got.CouponID)
	require.True(suite.T(), got.DiscountAmount.IsZero())
}

func (suite *CartRepoTestSuite) TestUpdateAndDeleteItems() {
	ctx := context.Background()
	p := suite.fx.Product(suite.vendor.ID, "1", 10)
	cart := suite.fx.Cart(model.SessionOwner("guest-4"))
	item := suite.fx.CartItem(cart.ID, p.ID, 1, nil)

	require.NoError(suite.T(), suite.store.UpdateCartItemQuantity(ctx, item.ID, 4))
	require.True(suite.T(), errors.Is(suite.store.UpdateCartItemQuantity(ctx, item.ID, 0), apperr.ErrInvalidQuantity))
	require.True(suite.T(), errors.Is(suite.store.UpdateCartItemQuantity(ctx, 999, 1), apperr.ErrCartItemNotFound))

	got, _ := suite.store.GetCartByID(ctx, cart.ID)
	require.Equal(suite.T(), 4, got.Items[0].Quantity)

	require.NoError(suite.T(), suite.store.DeleteCartItem(ctx, item.ID))
	require.True(suite.T(), errors.Is(suite.store.DeleteCartItem(ctx, item.ID), apperr.ErrCartItemNotFound))

	suite.fx.CartItem(cart.ID, p.ID, 2, nil)
	require.NoError(suite.T(), suite.store.DeleteCart(ctx, cart.ID))
	_, err := suite.store.GetCartByID(ctx, cart.ID)
	require.True(suite.T(), errors.Is(err, apperr.ErrCartNotFound))
}

func (suite *CartRepoTestSuite) TestDeleteExpiredGuestCarts() {
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	p := suite.fx.Product(suite.vendor.ID, "1", 10)
	customer := suite.fx.User(constants.RoleCustomer)

	expired := suite.fx.Cart(model.SessionOwner("expired"))
	require.NoError(suite.T(), suite.store.TouchCart(ctx, expired.ID, &past))
	suite.fx.CartItem(expired.ID, p.ID, 1, nil)

	fresh := suite.fx.Cart(model.SessionOwner("fresh"))
	require.NoError(suite.T(), suite.store.TouchCart(ctx, fresh.ID, &future))
	freshItem := suite.fx.CartItem(fresh.ID, p.ID, 1, nil)

	// 會員購物車就算有過期時間也不刪
	userCart := suite.fx.Cart(model.UserOwner(customer.ID))
	require.NoError(suite.T(), suite.store.TouchCart(ctx, userCart.ID, &past))

	deleted, err := suite.store.DeleteExpiredGuestCarts(ctx, now)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(1), deleted)

	_, err = suite.store.GetCartByID(ctx, expired.ID)
	require.True(suite.T(), errors.Is(err, apperr.ErrCartNotFound))

	got, err := suite.store.GetCartByID(ctx, fresh.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), freshItem.ID, got.Items[0].ID)

	_, err = suite.store.GetCartByID(ctx, userCart.ID)
	require.NoError(suite.T(), err)

	deleted, err = suite.store.DeleteExpiredGuestCarts(ctx, now)
	require.NoError(suite.T(), err)
	require.Zero(suite.T(), deleted)
}

func TestCartRepoTestSuite(t *testing.T) {
	suite.Run(t, new(CartRepoTestSuite))
}
