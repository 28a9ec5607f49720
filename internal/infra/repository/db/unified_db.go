package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Store 統一的資料庫介面，ExecTx 內拿到的 Store 綁定同一個 transaction
type Store interface {
	ExecTx(ctx context.Context, fn func(Store) error) error

	IUserRepository
	IProductRepository
	ICartRepository
	ICouponRepository
	IOrderRepository
	IShippingRepository
}

// IUserRepository User / Category 相關操作介面
type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]model.User, error)
	CreateCategory(ctx context.Context, category *model.Category) error
}

// IProductRepository Product 相關操作介面
type IProductRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, id uint) (*model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []uint) ([]model.Product, error)
	DeductProductStock(ctx context.Context, id uint, quantity int) error
	AddProductStock(ctx context.Context, id uint, quantity int) error
}

// ICartRepository Cart 相關操作介面
type ICartRepository interface {
	CreateCart(ctx context.Context, cart *model.Cart) error
	GetCartByOwner(ctx context.Context, owner model.CartOwner) (*model.Cart, error)
	GetCartByID(ctx context.Context, id uint) (*model.Cart, error)
	TouchCart(ctx context.Context, id uint, expiresAt *time.Time) error
	SetCartCoupon(ctx context.Context, cartID, couponID uint, discount decimal.Decimal) error
	UpdateCartDiscount(ctx context.Context, cartID uint, discount decimal.Decimal) error
	ClearCartCoupon(ctx context.Context, cartID uint) error
	DeleteCart(ctx context.Context, id uint) error
	DeleteExpiredGuestCarts(ctx context.Context, now time.Time) (int64, error)
	CreateCartItem(ctx context.Context, item *model.CartItem) error
	UpdateCartItemQuantity(ctx context.Context, id uint, quantity int) error
	MoveCartItem(ctx context.Context, id, toCartID uint) error
	DeleteCartItem(ctx context.Context, id uint) error
}

// ICouponRepository Coupon 相關操作介面
type ICouponRepository interface {
	CreateCoupon(ctx context.Context, coupon *model.Coupon) error
	GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetCouponByID(ctx context.Context, id uint) (*model.Coupon, error)
	CountRedemptions(ctx context.Context, couponID uint, owner model.CartOwner) (int64, error)
	CreateRedemption(ctx context.Context, redemption *model.CouponRedemption) error
	DecrementCouponUses(ctx context.Context, couponID uint) error
	ReleaseRedemption(ctx context.Context, couponID, cartID uint) error
	ReassignRedemptions(ctx context.Context, fromCartID, toCartID, userID uint) error
}

// IOrderRepository Order / Payment 相關操作介面
type IOrderRepository interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrderByID(ctx context.Context, id uint) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	MarkOrderPaid(ctx context.Context, orderID uint) (bool, error)
	MarkOrderFailed(ctx context.Context, orderID uint) (bool, error)
	MarkOrderPaymentFailed(ctx context.Context, orderID uint) (bool, error)
	CancelOrder(ctx context.Context, orderID uint) error
	UpdateOrderStatus(ctx context.Context, orderID uint, status model.OrderStatus) error
	GetOrderItemByID(ctx context.Context, id uint) (*model.OrderItem, error)
	UpdateOrderItemStatus(ctx context.Context, id uint, from, to model.FulfillmentStatus) error
	UpdateOrderItemsStatus(ctx context.Context, orderID uint, from []model.FulfillmentStatus, to model.FulfillmentStatus) (int64, error)
	CreatePayment(ctx context.Context, payment *model.Payment) error
	GetPaymentByReference(ctx context.Context, reference string) (*model.Payment, error)
	UpdatePayment(ctx context.Context, reference string, updates map[string]any) error
}

// IShippingRepository ShippingSetting / StateFee / PickupLocation 相關操作介面
type IShippingRepository interface {
	CreateShippingSetting(ctx context.Context, setting *model.ShippingSetting) error
	GetActiveShippingSetting(ctx context.Context) (*model.ShippingSetting, error)
	GetShippingSettingByID(ctx context.Context, id uint) (*model.ShippingSetting, error)
	DeactivateShippingSettings(ctx context.Context) error
	ActivateShippingSetting(ctx context.Context, id uint) error
	CreateStateFee(ctx context.Context, fee *model.StateFee) error
	GetStateFee(ctx context.Context, state string) (*model.StateFee, error)
	CreatePickupLocation(ctx context.Context, location *model.PickupLocation) error
	GetPickupLocation(ctx context.Context, id uint) (*model.PickupLocation, error)
}
