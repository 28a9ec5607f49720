package db

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"gorm.io/gorm"
)

type CouponRepo struct {
	db *DbDao
}

func NewCouponRepo(db *DbDao) *CouponRepo {
	return &CouponRepo{db: db}
}

// CreateCoupon products / categories 需為已存在的資料，只寫入關聯表不 upsert 商品本身
func (s *CouponRepo) CreateCoupon(ctx context.Context, coupon *model.Coupon) error {
	return s.db.WithContext(ctx).Omit("Products.*", "Categories.*").Create(coupon).Error
}

func (s *CouponRepo) GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := s.db.WithContext(ctx).
		Preload("Products").
		Preload("Categories").
		Where("code = ?", model.NormalizeCouponCode(code)).
		First(&coupon).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrCouponNotFound)
	}
	return &coupon, nil
}

func (s *CouponRepo) GetCouponByID(ctx context.Context, id uint) (*model.Coupon, error) {
	var coupon model.Coupon
	err := s.db.WithContext(ctx).Preload("Products").Preload("Categories").First(&coupon, id).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrCouponNotFound)
	}
	return &coupon, nil
}

// CountRedemptions 會員以 user_id 計，訪客以 session_id 計
func (s *CouponRepo) CountRedemptions(ctx context.Context, couponID uint, owner model.CartOwner) (int64, error) {
	query := s.db.WithContext(ctx).Model(&model.CouponRedemption{}).Where("coupon_id = ?", couponID)
	switch {
	case owner.UserID != nil:
		query = query.Where("user_id = ?", *owner.UserID)
	case owner.SessionID != nil:
		query = query.Where("session_id = ? AND user_id IS NULL", *owner.SessionID)
	default:
		return 0, apperr.ErrCartOwnerRequired
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (s *CouponRepo) CreateRedemption(ctx context.Context, redemption *model.CouponRedemption) error {
	return s.db.WithContext(ctx).Create(redemption).Error
}

// DecrementCouponUses 條件式扣除剩餘次數，不限次數的優惠券不會被更新也不算錯
// 錯誤:
//   - ErrUsageLimitReached: 剩餘次數已為 0
func (s *CouponRepo) DecrementCouponUses(ctx context.Context, couponID uint) error {
	res := s.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("id = ? AND usage_limit = ? AND remaining_uses > 0", couponID, model.CouponUsageLimited).
		Update("remaining_uses", gorm.Expr("remaining_uses - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var coupon model.Coupon
		if err := s.db.WithContext(ctx).Select("id", "usage_limit").First(&coupon, couponID).Error; err != nil {
			return notFound(err, apperr.ErrCouponNotFound)
		}
		if coupon.IsLimited() {
			return apperr.ErrUsageLimitReached
		}
	}
	return nil
}

// ReleaseRedemption 優惠券從購物車移除時刪除使用紀錄，有次數限制的歸還一次
func (s *CouponRepo) ReleaseRedemption(ctx context.Context, couponID, cartID uint) error {
	db := s.db.WithContext(ctx)
	res := db.Where("coupon_id = ? AND cart_id = ?", couponID, cartID).Delete(&model.CouponRedemption{})
	if res.Error != nil || res.RowsAffected == 0 {
		return res.Error
	}
	return db.Model(&model.Coupon{}).
		Where("id = ? AND usage_limit = ? AND remaining_uses IS NOT NULL", couponID, model.CouponUsageLimited).
		Update("remaining_uses", gorm.Expr("remaining_uses + ?", res.RowsAffected)).Error
}

// ReassignRedemptions 訪客購物車併入會員購物車時，使用紀錄改歸屬會員
func (s *CouponRepo) ReassignRedemptions(ctx context.Context, fromCartID, toCartID, userID uint) error {
	return s.db.WithContext(ctx).Model(&model.CouponRedemption{}).
		Where("cart_id = ?", fromCartID).
		Updates(map[string]any{"cart_id": toCartID, "user_id": userID}).Error
}
