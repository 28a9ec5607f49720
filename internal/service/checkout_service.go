package service

import (
	"context"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/pricing"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/gateway"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/util"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CheckoutRequest struct {
	UserID          uint
	DeliveryAddress model.DeliveryAddress
	PaymentMethod   string
	Shipping        ShippingSelection
}

type CheckoutResult struct {
	CheckoutURL string          `json:"checkoutUrl"`
	OrderID     uint            `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Reference   string          `json:"reference"`
	Total       decimal.Decimal `json:"total"`
}

type ICheckoutService interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	Cancel(ctx context.Context, userID uint, orderNumber string) (*model.Order, error)
	GetOrder(ctx context.Context, identity model.Identity, orderNumber string) (*model.Order, error)
}

type CheckoutConfig struct {
	TaxRate     decimal.Decimal
	DefaultFees DefaultFees
}

type CheckoutService struct {
	store    db.Store
	gateway  gateway.IPaymentGateway
	notifier INotificationService
	cf       CheckoutConfig
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewCheckoutService(store db.Store, gw gateway.IPaymentGateway, notifier INotificationService, cf CheckoutConfig, logger *zerolog.Logger) *CheckoutService {
	return &CheckoutService{
		store:    store,
		gateway:  gw,
		notifier: notifier,
		cf:       cf,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Checkout 結帳流程，任一步失敗就中止後續步驟
//  1. 讀購物車(含商品、優惠券)，空的回 EMPTY_CART
//  2. 運費 + 計價，有缺貨回 STOCK_UNAVAILABLE 並列出缺貨明細
//  3. 產生訂單編號
//  4. 單一 transaction: 建立訂單與明細、扣庫存
//  5. commit 後背景通知賣家 / 買家 / 管理員
//  6. 向金流建立付款，成功後建立 payment 並刪除購物車
//     金流失敗: 訂單標記 failed 並回補庫存
//
// 1~2 只讀，全部完成才開始寫入
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.UserID == 0 {
		return nil, apperr.ErrUnauthenticated
	}
	if err := req.DeliveryAddress.Validate(); err != nil {
		return nil, err
	}
	if !req.Shipping.Method.IsValid() {
		return nil, apperr.ErrInvalidShipping.WithMessage("unknown shipping method %q", req.Shipping.Method)
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		req.PaymentMethod = "card"
	}

	customer, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	cart, err := loadCart(ctx, s.store, model.UserOwner(req.UserID))
	if err != nil {
		return nil, err
	}
	if cart == nil || cart.IsEmpty() {
		return nil, apperr.ErrEmptyCart
	}
	for _, it := range cart.Items {
		if it.Product == nil || !it.Product.IsPurchasable() {
			return nil, apperr.ErrProductUnavailable.WithDetails(map[string]any{"productId": it.ProductID})
		}
	}

	fee, err := resolveFee(ctx, s.store, s.cf.DefaultFees, req.Shipping, req.DeliveryAddress.State)
	if err != nil {
		return nil, err
	}
	if pricing.WaivesDelivery(cart.Coupon) {
		fee = decimal.Zero
	}

	summary := pricing.Compute(pricing.Input{
		Lines:          pricing.LinesFromCart(cart),
		CouponDiscount: couponDiscount(cart),
		DeliveryFee:    fee,
		TaxRate:        s.cf.TaxRate,
	})
	if summary.HasUnavailable() {
		return nil, apperr.ErrStockUnavailable.WithDetails(map[string]any{
			"unavailableItems": summary.UnavailableItems,
		})
	}

	order := s.buildOrder(req, cart, summary)
	err = s.store.ExecTx(ctx, func(tx db.Store) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		for _, it := range order.Items {
			if err := tx.DeductProductStock(ctx, it.ProductID, it.Quantity); err != nil {
				if apperr.HasCode(err, apperr.ErrStockUnavailable.Code) {
					return s.stockConflict(ctx, tx, it)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := s.logger.With().Str("order_number", order.OrderNumber).Uint("user_id", req.UserID).Logger()
	log.Info().Str("total", order.Total.StringFixed(2)).Msg("order created")

	s.notifier.OrderPlaced(order, customer)

	session, err := s.gateway.Initialize(ctx, gateway.InitializeRequest{
		Email:     customer.Email,
		Amount:    util.ToMinorUnits(order.Total),
		Reference: order.OrderNumber,
		Metadata: map[string]any{
			"orderId":     order.ID,
			"orderNumber": order.OrderNumber,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("payment initialization failed")
		if rbErr := s.failOrder(context.WithoutCancel(ctx), order); rbErr != nil {
			log.Error().Err(rbErr).Msg("failed to mark order failed")
		}
		return nil, err
	}

	if err := s.store.CreatePayment(ctx, &model.Payment{
		OrderID:   order.ID,
		Reference: order.OrderNumber,
		Status:    model.PaymentStatusPending,
		Method:    order.PaymentMethod,
		Amount:    order.Total,
		Fees:      decimal.Zero,
	}); err != nil {
		log.Error().Err(err).Msg("failed to record payment")
	}
	if err := s.store.DeleteCart(ctx, cart.ID); err != nil {
		log.Error().Err(err).Msg("failed to clear cart after checkout")
	}

	return &CheckoutResult{
		CheckoutURL: session.AuthorizationURL,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Reference:   order.OrderNumber,
		Total:       order.Total,
	}, nil
}

// buildOrder 金額與明細在這裡凍結，vendorID 取商品目前的擁有者
func (s *CheckoutService) buildOrder(req CheckoutRequest, cart *model.Cart, summary pricing.Summary) *model.Order {
	order := &model.Order{
		OrderNumber:     util.GenerateOrderNumber(s.now()),
		UserID:          req.UserID,
		Subtotal:        summary.Subtotal,
		Discount:        summary.TotalDiscount,
		DeliveryFee:     summary.DeliveryFee,
		Tax:             summary.Tax,
		Total:           summary.Total,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		ShippingMethod:  req.Shipping.Method,
		DeliveryAddress: req.DeliveryAddress,
		Items:           make([]model.OrderItem, 0, len(cart.Items)),
	}
	if cart.Coupon != nil {
		order.CouponCode = cart.Coupon.Code
	}
	for _, it := range cart.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID:         it.ProductID,
			VendorID:          it.Product.VendorID,
			ProductName:       it.Product.Name,
			Quantity:          it.Quantity,
			Price:             it.Product.Price,
			DiscountPrice:     it.Product.DiscountPrice,
			SelectedOptions:   it.SelectedOptions,
			FulfillmentStatus: model.FulfillmentPending,
		})
	}
	return order
}

// stockConflict 扣庫存時被其他結帳搶先，回報與事前檢查相同的錯誤
func (s *CheckoutService) stockConflict(ctx context.Context, tx db.Store, it model.OrderItem) error {
	available := 0
	if p, err := tx.GetProductByID(ctx, it.ProductID); err == nil {
		available = p.StockQuantity
	}
	return stockError(it.ProductID, it.Quantity, available)
}

// failOrder 金流初始化失敗: 訂單 failed、付款 failed、回補庫存
func (s *CheckoutService) failOrder(ctx context.Context, order *model.Order) error {
	return s.store.ExecTx(ctx, func(tx db.Store) error {
		changed, err := tx.MarkOrderFailed(ctx, order.ID)
		if err != nil || !changed {
			return err
		}
		if _, err := tx.MarkOrderPaymentFailed(ctx, order.ID); err != nil {
			return err
		}
		return restock(ctx, tx, order.Items)
	})
}

func restock(ctx context.Context, tx db.Store, items []model.OrderItem) error {
	for _, it := range items {
		if err := tx.AddProductStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Cancel 只有尚未付款的 pending 訂單可以取消，取消時回補庫存
func (s *CheckoutService) Cancel(ctx context.Context, userID uint, orderNumber string) (*model.Order, error) {
	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.ErrNotOwner
	}

	var updated *model.Order
	err = s.store.ExecTx(ctx, func(tx db.Store) error {
		if err := tx.CancelOrder(ctx, order.ID); err != nil {
			return err
		}
		if err := restock(ctx, tx, order.Items); err != nil {
			return err
		}
		if _, err := tx.UpdateOrderItemsStatus(ctx, order.ID,
			[]model.FulfillmentStatus{model.FulfillmentPending, model.FulfillmentProcessing},
			model.FulfillmentCancelled); err != nil {
			return err
		}
		o, err := tx.GetOrderByID(ctx, order.ID)
		updated = o
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_number", orderNumber).Uint("user_id", userID).Msg("order cancelled")
	return updated, nil
}

// GetOrder 買家只能看自己的訂單，管理員不限
func (s *CheckoutService) GetOrder(ctx context.Context, identity model.Identity, orderNumber string) (*model.Order, error) {
	if !identity.IsAuthenticated() {
		return nil, apperr.ErrUnauthenticated
	}
	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if identity.Role != constants.RoleAdmin && order.UserID != identity.UserID {
		return nil, apperr.ErrNotOwner
	}
	return order, nil
}
