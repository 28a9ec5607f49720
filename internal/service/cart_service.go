package service

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/pricing"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CartView 購物車與顯示用金額摘要，摘要不會因缺貨擋下
type CartView struct {
	Cart    *model.Cart     `json:"cart"`
	Summary pricing.Summary `json:"summary"`
}

type ICartService interface {
	GetCart(ctx context.Context, owner model.CartOwner) (*CartView, error)
	AddItem(ctx context.Context, owner model.CartOwner, productID uint, quantity int, options model.SelectedOptions) (*CartView, error)
	UpdateItem(ctx context.Context, owner model.CartOwner, productID uint, quantity int, options model.SelectedOptions) (*CartView, error)
	RemoveItem(ctx context.Context, owner model.CartOwner, productID uint, options model.SelectedOptions) (*CartView, error)
	Clear(ctx context.Context, owner model.CartOwner) error
	Merge(ctx context.Context, userID uint, sessionID string) (*CartView, error)
}

type CartService struct {
	store    db.Store
	guestTTL time.Duration
	taxRate  decimal.Decimal
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewCartService(store db.Store, guestTTL time.Duration, taxRate decimal.Decimal, logger *zerolog.Logger) *CartService {
	return &CartService{
		store:    store,
		guestTTL: guestTTL,
		taxRate:  taxRate,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetCart 沒有購物車時回 nil, nil
func (s *CartService) GetCart(ctx context.Context, owner model.CartOwner) (*CartView, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	cart, err := loadCart(ctx, s.store, owner)
	if err != nil || cart == nil {
		return nil, err
	}
	return s.view(cart), nil
}

// loadCart 找不到不是錯誤
func loadCart(ctx context.Context, store db.Store, owner model.CartOwner) (*model.Cart, error) {
	cart, err := store.GetCartByOwner(ctx, owner)
	if err != nil {
		if apperr.HasCode(err, apperr.ErrCartNotFound.Code) {
			return nil, nil
		}
		return nil, err
	}
	annotate(cart)
	return cart, nil
}

// annotate 標記每個明細目前庫存是否足夠
func annotate(cart *model.Cart) {
	for i := range cart.Items {
		it := &cart.Items[i]
		it.Available = it.Product != nil && it.Product.StockQuantity >= it.Quantity
	}
}

func (s *CartService) view(cart *model.Cart) *CartView {
	return &CartView{
		Cart: cart,
		Summary: pricing.Compute(pricing.Input{
			Lines:          pricing.LinesFromCart(cart),
			CouponDiscount: cart.DiscountAmount,
			TaxRate:        s.taxRate,
		}),
	}
}

func (s *CartService) guestExpiry(owner model.CartOwner) *time.Time {
	if !owner.IsGuest() {
		return nil
	}
	exp := s.now().Add(s.guestTTL)
	return &exp
}

// getOrCreateCart 第一次加入商品時建立購物車
func (s *CartService) getOrCreateCart(ctx context.Context, tx db.Store, owner model.CartOwner) (*model.Cart, error) {
	cart, err := loadCart(ctx, tx, owner)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	cart = &model.Cart{
		UserID:         owner.UserID,
		SessionID:      owner.SessionID,
		ExpiresAt:      s.guestExpiry(owner),
		DiscountAmount: decimal.Zero,
	}
	if err := tx.CreateCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func stockError(productID uint, requested, available int) error {
	return apperr.ErrStockUnavailable.WithDetails(map[string]any{
		"unavailableItems": []pricing.UnavailableItem{{
			ProductID: productID,
			Requested: requested,
			Available: available,
		}},
	})
}

// AddItem 相同 (商品, 選項) 累加數量，超過庫存回 STOCK_UNAVAILABLE
func (s *CartService) AddItem(ctx context.Context, owner model.CartOwner, productID uint, quantity int, options model.SelectedOptions) (*CartView, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, apperr.ErrInvalidQuantity
	}
	if !options.Fits() {
		return nil, apperr.ErrInvalidRequest.WithMessage("selected options are too long")
	}

	err := s.store.ExecTx(ctx, func(tx db.Store) error {
		product, err := tx.GetProductByID(ctx, productID)
		if err != nil {
			return err
		}
		if !product.IsPurchasable() {
			return apperr.ErrProductUnavailable
		}

		cart, err := s.getOrCreateCart(ctx, tx, owner)
		if err != nil {
			return err
		}

		if line := cart.FindItem(productID, options); line != nil {
			total := line.Quantity + quantity
			if total > product.StockQuantity {
				return stockError(productID, total, product.StockQuantity)
			}
			if err := tx.UpdateCartItemQuantity(ctx, line.ID, total); err != nil {
				return err
			}
		} else {
			if quantity > product.StockQuantity {
				return stockError(productID, quantity, product.StockQuantity)
			}
			item := &model.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
			item.SetOptions(options)
			if err := tx.CreateCartItem(ctx, item); err != nil {
				return err
			}
		}
		if err := refreshCoupon(ctx, tx, cart.ID); err != nil {
			return err
		}
		return tx.TouchCart(ctx, cart.ID, s.guestExpiry(owner))
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

// findLine options 為 nil 時，該商品只有一筆明細就用那筆
func findLine(cart *model.Cart, productID uint, options model.SelectedOptions) *model.CartItem {
	if options != nil {
		return cart.FindItem(productID, options)
	}
	var found *model.CartItem
	for i := range cart.Items {
		if cart.Items[i].ProductID != productID {
			continue
		}
		if found != nil {
			return cart.FindItem(productID, model.SelectedOptions{})
		}
		found = &cart.Items[i]
	}
	return found
}

func (s *CartService) UpdateItem(ctx context.Context, owner model.CartOwner, productID uint, quantity int, options model.SelectedOptions) (*CartView, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, apperr.ErrInvalidQuantity
	}

	err := s.store.ExecTx(ctx, func(tx db.Store) error {
		cart, err := tx.GetCartByOwner(ctx, owner)
		if err != nil {
			return err
		}
		line := findLine(cart, productID, options)
		if line == nil {
			return apperr.ErrCartItemNotFound
		}
		if line.Product != nil && quantity > line.Product.StockQuantity {
			return stockError(productID, quantity, line.Product.StockQuantity)
		}
		if err := tx.UpdateCartItemQuantity(ctx, line.ID, quantity); err != nil {
			return err
		}
		if err := refreshCoupon(ctx, tx, cart.ID); err != nil {
			return err
		}
		return tx.TouchCart(ctx, cart.ID, s.guestExpiry(owner))
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

// RemoveItem options 為 nil 時移除該商品所有明細
func (s *CartService) RemoveItem(ctx context.Context, owner model.CartOwner, productID uint, options model.SelectedOptions) (*CartView, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	err := s.store.ExecTx(ctx, func(tx db.Store) error {
		cart, err := tx.GetCartByOwner(ctx, owner)
		if err != nil {
			return err
		}
		removed := 0
		for _, it := range cart.Items {
			if it.ProductID != productID {
				continue
			}
			if options != nil && it.OptionsKey != options.Key() {
				continue
			}
			if err := tx.DeleteCartItem(ctx, it.ID); err != nil {
				return err
			}
			removed++
		}
		if removed == 0 {
			return apperr.ErrCartItemNotFound
		}
		if err := refreshCoupon(ctx, tx, cart.ID); err != nil {
			return err
		}
		return tx.TouchCart(ctx, cart.ID, s.guestExpiry(owner))
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

// Clear 沒有購物車也視為成功
func (s *CartService) Clear(ctx context.Context, owner model.CartOwner) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	cart, err := loadCart(ctx, s.store, owner)
	if err != nil || cart == nil {
		return err
	}
	return s.store.DeleteCart(ctx, cart.ID)
}

// Merge 登入後把訪客購物車併入會員購物車
// 同 (商品, 選項) 數量相加不截斷，其餘明細直接搬移
// 會員購物車沒有優惠券時沿用訪客的，使用紀錄改歸屬會員
// 全部在同一個 transaction，失敗兩邊都不變
func (s *CartService) Merge(ctx context.Context, userID uint, sessionID string) (*CartView, error) {
	if userID == 0 || sessionID == "" {
		return nil, apperr.ErrCartOwnerRequired.WithMessage("both a user id and a session id are required to merge")
	}
	userOwner := model.UserOwner(userID)
	guestOwner := model.SessionOwner(sessionID)

	merged := 0
	err := s.store.ExecTx(ctx, func(tx db.Store) error {
		guest, err := loadCart(ctx, tx, guestOwner)
		if err != nil || guest == nil {
			return err
		}
		target, err := s.getOrCreateCart(ctx, tx, userOwner)
		if err != nil {
			return err
		}

		for _, it := range guest.Items {
			if existing := target.FindItem(it.ProductID, it.SelectedOptions); existing != nil {
				existing.Quantity += it.Quantity
				if err := tx.UpdateCartItemQuantity(ctx, existing.ID, existing.Quantity); err != nil {
					return err
				}
			} else if err := tx.MoveCartItem(ctx, it.ID, target.ID); err != nil {
				return err
			}
			merged++
		}

		if guest.CouponID != nil {
			if err := s.carryCoupon(ctx, tx, guest, target, userID); err != nil {
				return err
			}
		}
		if err := tx.DeleteCart(ctx, guest.ID); err != nil {
			return err
		}
		if err := refreshCoupon(ctx, tx, target.ID); err != nil {
			return err
		}
		return tx.TouchCart(ctx, target.ID, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("user_id", userID).Int("merged_items", merged).Msg("guest cart merged")
	return s.GetCart(ctx, userOwner)
}

// carryCoupon 會員已有優惠券或已達每人使用上限時不沿用，並歸還訪客那次使用
func (s *CartService) carryCoupon(ctx context.Context, tx db.Store, guest, target *model.Cart, userID uint) error {
	coupon, err := tx.GetCouponByID(ctx, *guest.CouponID)
	if err != nil {
		if apperr.HasCode(err, apperr.ErrCouponNotFound.Code) {
			return nil
		}
		return err
	}

	carry := target.CouponID == nil
	if carry && coupon.IsLimited() && coupon.LimitAmount != nil {
		used, err := tx.CountRedemptions(ctx, coupon.ID, model.UserOwner(userID))
		if err != nil {
			return err
		}
		carry = used < int64(*coupon.LimitAmount)
	}
	if !carry {
		s.logger.Info().Uint("user_id", userID).Str("coupon_code", coupon.Code).Msg("guest coupon not carried over")
		return tx.ReleaseRedemption(ctx, coupon.ID, guest.ID)
	}

	if err := tx.SetCartCoupon(ctx, target.ID, coupon.ID, guest.DiscountAmount); err != nil {
		return err
	}
	return tx.ReassignRedemptions(ctx, guest.ID, target.ID, userID)
}

// refreshCoupon 明細變動後依目前明細重算折抵
// 已沒有適用明細時移除優惠券並歸還使用次數
func refreshCoupon(ctx context.Context, tx db.Store, cartID uint) error {
	cart, err := tx.GetCartByID(ctx, cartID)
	if err != nil {
		return err
	}
	if cart.CouponID == nil {
		return nil
	}
	coupon := cart.Coupon
	if coupon == nil {
		return tx.ClearCartCoupon(ctx, cart.ID)
	}

	applicable := pricing.ApplicableLines(coupon, pricing.CouponLinesFromCart(cart))
	if len(applicable) == 0 {
		if err := tx.ClearCartCoupon(ctx, cart.ID); err != nil {
			return err
		}
		return tx.ReleaseRedemption(ctx, coupon.ID, cart.ID)
	}
	discount := pricing.CouponDiscount(coupon, pricing.ApplicableSubtotal(applicable))
	if discount.Equal(cart.DiscountAmount) {
		return nil
	}
	return tx.UpdateCartDiscount(ctx, cart.ID, discount)
}

// couponDiscount 以目前明細重算已套用優惠券的折抵
func couponDiscount(cart *model.Cart) decimal.Decimal {
	if cart.Coupon == nil {
		return decimal.Zero
	}
	applicable := pricing.ApplicableLines(cart.Coupon, pricing.CouponLinesFromCart(cart))
	if len(applicable) == 0 {
		return decimal.Zero
	}
	return pricing.CouponDiscount(cart.Coupon, pricing.ApplicableSubtotal(applicable))
}
