package service

import (
	"context"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/pricing"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CouponResult 驗證通過的優惠券與本次可折抵金額
type CouponResult struct {
	ID             uint                  `json:"id"`
	Code           string                `json:"code"`
	Name           string                `json:"name"`
	Type           model.CouponType      `json:"type"`
	AppliesTo      model.CouponAppliesTo `json:"appliesTo"`
	DiscountAmount decimal.Decimal       `json:"discountAmount"`
}

type ICouponService interface {
	Validate(ctx context.Context, code string, owner model.CartOwner) (*CouponResult, error)
	Apply(ctx context.Context, code string, owner model.CartOwner) (*CouponResult, error)
	CreateCoupon(ctx context.Context, coupon *model.Coupon, productIDs, categoryIDs []uint) (*model.Coupon, error)
}

type CouponService struct {
	store  db.Store
	logger *zerolog.Logger
	now    func() time.Time
}

func NewCouponService(store db.Store, logger *zerolog.Logger) *CouponService {
	return &CouponService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Validate 只讀不寫
func (s *CouponService) Validate(ctx context.Context, code string, owner model.CartOwner) (*CouponResult, error) {
	res, _, _, err := s.validate(ctx, s.store, code, owner)
	return res, err
}

// validate 依序檢查，第一個失敗就回傳
//  1. 代碼不可為空 MISSING_CODE
//  2. 代碼存在 INVALID_CODE
//  3. 未過期 EXPIRED_COUPON
//  4. 此使用者的使用次數 / 剩餘次數 USAGE_LIMIT_REACHED
//  5. 購物車不可為空 EMPTY_CART
//  6. 至少一個明細適用 INAPPLICABLE_COUPON
//  7. 適用明細小計，以實際售價計
//  8. 依類型計算折抵
func (s *CouponService) validate(ctx context.Context, store db.Store, code string, owner model.CartOwner) (*CouponResult, *model.Coupon, *model.Cart, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil, nil, apperr.ErrMissingCode
	}
	if err := owner.Validate(); err != nil {
		return nil, nil, nil, err
	}

	coupon, err := store.GetCouponByCode(ctx, code)
	if err != nil {
		return nil, nil, nil, err
	}
	if coupon.IsExpired(s.now()) {
		return nil, nil, nil, apperr.ErrExpiredCoupon
	}

	if coupon.IsLimited() {
		if coupon.IsExhausted() {
			return nil, nil, nil, apperr.ErrUsageLimitReached
		}
		used, err := store.CountRedemptions(ctx, coupon.ID, owner)
		if err != nil {
			return nil, nil, nil, err
		}
		if coupon.LimitAmount != nil && used >= int64(*coupon.LimitAmount) {
			return nil, nil, nil, apperr.ErrUsageLimitReached
		}
	}

	cart, err := loadCart(ctx, store, owner)
	if err != nil {
		return nil, nil, nil, err
	}
	if cart == nil || cart.IsEmpty() {
		return nil, nil, nil, apperr.ErrEmptyCart
	}

	applicable := pricing.ApplicableLines(coupon, pricing.CouponLinesFromCart(cart))
	if len(applicable) == 0 {
		return nil, nil, nil, apperr.ErrInapplicableCoupon
	}
	subtotal := pricing.ApplicableSubtotal(applicable)

	return &CouponResult{
		ID:             coupon.ID,
		Code:           coupon.Code,
		Name:           coupon.Name,
		Type:           coupon.Type,
		AppliesTo:      coupon.AppliesTo,
		DiscountAmount: pricing.CouponDiscount(coupon, subtotal),
	}, coupon, cart, nil
}

// Apply 驗證後在同一個 transaction 寫入
//   - 購物車記錄優惠券與折抵金額(已有優惠券則 COUPON_ALREADY_APPLIED)
//   - 新增使用紀錄
//   - 有次數限制的優惠券剩餘次數減一，已歸零則 USAGE_LIMIT_REACHED
//
// 任一步失敗三個寫入全部 rollback
func (s *CouponService) Apply(ctx context.Context, code string, owner model.CartOwner) (*CouponResult, error) {
	var result *CouponResult
	err := s.store.ExecTx(ctx, func(tx db.Store) error {
		res, coupon, cart, err := s.validate(ctx, tx, code, owner)
		if err != nil {
			return err
		}
		if cart.CouponID != nil {
			return apperr.ErrCouponAlreadyApplied
		}

		if err := tx.SetCartCoupon(ctx, cart.ID, coupon.ID, res.DiscountAmount); err != nil {
			return err
		}
		if err := tx.CreateRedemption(ctx, &model.CouponRedemption{
			CouponID:       coupon.ID,
			UserID:         owner.UserID,
			SessionID:      owner.SessionID,
			CartID:         cart.ID,
			DiscountAmount: res.DiscountAmount,
			RedeemedAt:     s.now(),
		}); err != nil {
			return err
		}
		if coupon.IsLimited() {
			if err := tx.DecrementCouponUses(ctx, coupon.ID); err != nil {
				return err
			}
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("coupon_code", result.Code).
		Str("discount", result.DiscountAmount.StringFixed(2)).
		Msg("coupon applied")
	return result, nil
}

// CreateCoupon 管理端建立優惠券，適用商品 / 分類以 id 關聯
func (s *CouponService) CreateCoupon(ctx context.Context, coupon *model.Coupon, productIDs, categoryIDs []uint) (*model.Coupon, error) {
	coupon.Normalize()

	switch coupon.AppliesTo {
	case model.CouponAppliesToProducts:
		if len(productIDs) == 0 {
			break
		}
		products, err := s.store.GetProductsByIDs(ctx, productIDs)
		if err != nil {
			return nil, err
		}
		if len(products) != len(uniqueIDs(productIDs)) {
			return nil, apperr.ErrProductNotFound
		}
		coupon.Products = products
	case model.CouponAppliesToCategories:
		coupon.Categories = make([]model.Category, 0, len(categoryIDs))
		for _, id := range uniqueIDs(categoryIDs) {
			coupon.Categories = append(coupon.Categories, model.Category{ID: id})
		}
	}
	if fields := coupon.Validate(); fields != nil {
		return nil, apperr.ErrInvalidCoupon.WithDetails(fields)
	}

	if err := s.store.CreateCoupon(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
