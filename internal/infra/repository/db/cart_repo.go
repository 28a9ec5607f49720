package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 購物車與明細一律硬刪除
type CartRepo struct {
	db *DbDao
}

func NewCartRepo(db *DbDao) *CartRepo {
	return &CartRepo{db: db}
}

func (s *CartRepo) CreateCart(ctx context.Context, cart *model.Cart) error {
	if err := cart.Owner().Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Omit("Items", "Coupon").Create(cart).Error
}

// preloadCart 明細依建立順序，帶出商品與已套用的優惠券(含適用範圍)
func (s *CartRepo) preloadCart(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id") }).
		Preload("Items.Product").
		Preload("Coupon").
		Preload("Coupon.Products").
		Preload("Coupon.Categories")
}

// GetCartByOwner 以會員或 session 找購物車
// 錯誤:
//   - ErrCartNotFound: 沒有購物車
func (s *CartRepo) GetCartByOwner(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	query := s.preloadCart(ctx)
	if owner.UserID != nil {
		query = query.Where("user_id = ?", *owner.UserID)
	} else {
		query = query.Where("session_id = ? AND user_id IS NULL", *owner.SessionID)
	}
	var cart model.Cart
	if err := query.First(&cart).Error; err != nil {
		return nil, notFound(err, apperr.ErrCartNotFound)
	}
	return &cart, nil
}

func (s *CartRepo) GetCartByID(ctx context.Context, id uint) (*model.Cart, error) {
	var cart model.Cart
	if err := s.preloadCart(ctx).First(&cart, id).Error; err != nil {
		return nil, notFound(err, apperr.ErrCartNotFound)
	}
	return &cart, nil
}

// TouchCart 更新 updated_at，訪客購物車同時延長到期時間
func (s *CartRepo) TouchCart(ctx context.Context, id uint, expiresAt *time.Time) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if expiresAt != nil {
		updates["expires_at"] = *expiresAt
	}
	return s.db.WithContext(ctx).Model(&model.Cart{}).Where("id = ?", id).Updates(updates).Error
}

// SetCartCoupon 只有尚未套用優惠券的購物車可以寫入
// 錯誤:
//   - ErrCouponAlreadyApplied
func (s *CartRepo) SetCartCoupon(ctx context.Context, cartID, couponID uint, discount decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&model.Cart{}).
		Where("id = ? AND coupon_id IS NULL", cartID).
		Updates(map[string]any{"coupon_id": couponID, "discount_amount": discount})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrCouponAlreadyApplied
	}
	return nil
}

// UpdateCartDiscount 明細變動後重算的折抵金額
func (s *CartRepo) UpdateCartDiscount(ctx context.Context, cartID uint, discount decimal.Decimal) error {
	return s.db.WithContext(ctx).Model(&model.Cart{}).
		Where("id = ? AND coupon_id IS NOT NULL", cartID).
		Update("discount_amount", discount).Error
}

func (s *CartRepo) ClearCartCoupon(ctx context.Context, cartID uint) error {
	return s.db.WithContext(ctx).Model(&model.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{"coupon_id": nil, "discount_amount": decimal.Zero}).Error
}

// DeleteCart 先刪明細再刪購物車
func (s *CartRepo) DeleteCart(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("cart_id = ?", id).Delete(&model.CartItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Cart{}, id).Error
}

// DeleteExpiredGuestCarts 只刪沒有會員、有 session 且已過期的購物車
// 刪除時再次檢查條件，期間被延長的購物車不會被刪
func (s *CartRepo) DeleteExpiredGuestCarts(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := func(db *gorm.DB) *gorm.DB {
			return db.Where("user_id IS NULL AND session_id IS NOT NULL AND expires_at IS NOT NULL AND expires_at < ?", now)
		}

		var ids []uint
		if err := tx.Model(&model.Cart{}).Scopes(expired).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		res := tx.Scopes(expired).Where("id IN ?", ids).Delete(&model.Cart{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected

		return tx.Where("cart_id IN ?", ids).
			Where("cart_id NOT IN (?)", tx.Model(&model.Cart{}).Select("id")).
			Delete(&model.CartItem{}).Error
	})
	return deleted, err
}

func (s *CartRepo) CreateCartItem(ctx context.Context, item *model.CartItem) error {
	item.SetOptions(item.SelectedOptions)
	return s.db.WithContext(ctx).Omit("Product").Create(item).Error
}

func (s *CartRepo) UpdateCartItemQuantity(ctx context.Context, id uint, quantity int) error {
	if quantity < 1 {
		return apperr.ErrInvalidQuantity
	}
	res := s.db.WithContext(ctx).Model(&model.CartItem{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrCartItemNotFound
	}
	return nil
}

func (s *CartRepo) MoveCartItem(ctx context.Context, id, toCartID uint) error {
	return s.db.WithContext(ctx).Model(&model.CartItem{}).Where("id = ?", id).Update("cart_id", toCartID).Error
}

func (s *CartRepo) DeleteCartItem(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.CartItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrCartItemNotFound
	}
	return nil
}
