// Package dbtest 測試用的記憶體 sqlite 與資料建立工具
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var seq atomic.Int64

// NewStore 每次呼叫都是全新的資料庫，測試結束自動關閉
func NewStore(t testing.TB) (*db.SQLStore, *db.DbDao) {
	t.Helper()
	conn, err := db.GetSqliteConn(":memory:")
	require.NoError(t, err)
	dao := db.NewDbDao(conn)
	require.NoError(t, dao.InitMigrate())
	t.Cleanup(func() { _ = dao.Close() })
	return db.NewStore(dao), dao
}

type Fixtures struct {
	t     testing.TB
	store db.Store
}

func NewFixtures(t testing.TB, store db.Store) *Fixtures {
	return &Fixtures{t: t, store: store}
}

func next() int64 {
	return seq.Add(1)
}

func (f *Fixtures) User(role constants.Role) *model.User {
	f.t.Helper()
	n := next()
	u := &model.User{
		Name:  fmt.Sprintf("user-%d", n),
		Email: fmt.Sprintf("user-%d@example.com", n),
		Role:  role,
	}
	require.NoError(f.t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *Fixtures) Category() *model.Category {
	f.t.Helper()
	c := &model.Category{Name: fmt.Sprintf("category-%d", next())}
	require.NoError(f.t, f.store.CreateCategory(context.Background(), c))
	return c
}

type ProductOption func(*model.Product)

func WithDiscount(price string) ProductOption {
	return func(p *model.Product) {
		p.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
}

func WithStatus(status model.ProductStatus) ProductOption {
	return func(p *model.Product) { p.Status = status }
}

func WithCategory(categoryID uint) ProductOption {
	return func(p *model.Product) { p.CategoryID = categoryID }
}

// Product 預設為上架中
func (f *Fixtures) Product(vendorID uint, price string, stock int, opts ...ProductOption) *model.Product {
	f.t.Helper()
	p := &model.Product{
		VendorID:      vendorID,
		Name:          fmt.Sprintf("product-%d", next()),
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		Status:        model.ProductStatusActive,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.CategoryID == 0 {
		p.CategoryID = f.Category().ID
	}
	require.NoError(f.t, f.store.CreateProduct(context.Background(), p))
	return p
}

func (f *Fixtures) Coupon(c *model.Coupon) *model.Coupon {
	f.t.Helper()
	if c.Name == "" {
		c.Name = c.Code
	}
	c.Normalize()
	require.Nil(f.t, c.Validate())
	require.NoError(f.t, f.store.CreateCoupon(context.Background(), c))
	return c
}

func (f *Fixtures) Cart(owner model.CartOwner) *model.Cart {
	f.t.Helper()
	c := &model.Cart{UserID: owner.UserID, SessionID: owner.SessionID, DiscountAmount: decimal.Zero}
	require.NoError(f.t, f.store.CreateCart(context.Background(), c))
	return c
}

func (f *Fixtures) CartItem(cartID, productID uint, quantity int, options model.SelectedOptions) *model.CartItem {
	f.t.Helper()
	item := &model.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	item.SetOptions(options)
	require.NoError(f.t, f.store.CreateCartItem(context.Background(), item))
	return item
}

func Address() model.DeliveryAddress {
	return model.DeliveryAddress{
		FirstName: "Ada",
		LastName:  "Obi",
		Address:   "12 Marina Rd",
		City:      "Lagos",
		State:     "Lagos",
		Country:   "NG",
		Phone:     "+2348000000000",
	}
}
