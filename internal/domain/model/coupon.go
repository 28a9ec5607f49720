package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponTypeFixed         CouponType = "fixed"
	CouponTypePercentage    CouponType = "percentage"
	CouponTypePriceDiscount CouponType = "priceDiscount"
	CouponTypeFreeShipping  CouponType = "freeShipping"
)

type CouponDuration string

const (
	CouponDurationSet  CouponDuration = "set"
	CouponDurationNone CouponDuration = "none"
)

type CouponAppliesTo string

const (
	CouponAppliesToAll        CouponAppliesTo = "all"
	CouponAppliesToProducts   CouponAppliesTo = "products"
	CouponAppliesToCategories CouponAppliesTo = "categories"
)

type CouponUsageLimit string

const (
	CouponUsageLimited CouponUsageLimit = "limited"
	CouponUsageNone    CouponUsageLimit = "none"
)

// CouponStatus 由到期與剩餘次數推導，不落 DB
type CouponStatus string

const (
	CouponStatusActive    CouponStatus = "active"
	CouponStatusExpired   CouponStatus = "expired"
	CouponStatusExhausted CouponStatus = "exhausted"
)

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	Code          string           `gorm:"not null;type:varchar(50);uniqueIndex" json:"code"`
	Name          string           `gorm:"not null;type:varchar(100)" json:"name"`
	Type          CouponType       `gorm:"not null;type:varchar(20)" json:"type"`
	Value         decimal.Decimal  `gorm:"not null;type:decimal(12,2)" json:"value"`
	Duration      CouponDuration   `gorm:"not null;type:varchar(10)" json:"duration"`
	DurationDays  *int             `json:"duration_days,omitempty"`
	AppliesTo     CouponAppliesTo  `gorm:"not null;type:varchar(20)" json:"applies_to"`
	Products      []Product        `gorm:"many2many:coupon_products" json:"products,omitempty"`
	Categories    []Category       `gorm:"many2many:coupon_categories" json:"categories,omitempty"`
	UsageLimit    CouponUsageLimit `gorm:"not null;type:varchar(10)" json:"usage_limit"`
	LimitAmount   *int             `json:"limit_amount,omitempty"`
	RemainingUses *int             `gorm:"check:remaining_uses >= 0" json:"remaining_uses,omitempty"`
	BaseModel
}

// Normalize code 一律大寫，limited 沒給 remainingUses 時從 limitAmount 開始
func (c *Coupon) Normalize() {
	c.Code = NormalizeCouponCode(c.Code)
	if c.Duration == "" {
		c.Duration = CouponDurationNone
	}
	if c.UsageLimit == "" {
		c.UsageLimit = CouponUsageNone
	}
	if c.AppliesTo == "" {
		c.AppliesTo = CouponAppliesToAll
	}
	if c.UsageLimit == CouponUsageLimited && c.RemainingUses == nil && c.LimitAmount != nil {
		remaining := *c.LimitAmount
		c.RemainingUses = &remaining
	}
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate 優惠券定義本身是否合法
func (c *Coupon) Validate() map[string]string {
	fields := map[string]string{}
	if c.Code == "" {
		fields["code"] = "required"
	}
	switch c.Type {
	case CouponTypeFixed, CouponTypePriceDiscount:
		if !c.Value.IsPositive() {
			fields["value"] = "must be greater than 0"
		}
	case CouponTypePercentage:
		if !c.Value.IsPositive() || c.Value.GreaterThan(hundred) {
			fields["value"] = "must be between 0 and 100"
		}
	case CouponTypeFreeShipping:
		if c.Value.IsNegative() {
			fields["value"] = "must not be negative"
		}
	default:
		fields["type"] = "invalid"
	}
	switch c.Duration {
	case CouponDurationSet:
		if c.DurationDays == nil || *c.DurationDays <= 0 {
			fields["duration_days"] = "required when duration is set"
		}
	case CouponDurationNone:
	default:
		fields["duration"] = "invalid"
	}
	switch c.UsageLimit {
	case CouponUsageLimited:
		if c.LimitAmount == nil || *c.LimitAmount <= 0 {
			fields["limit_amount"] = "required when usage is limited"
		}
	case CouponUsageNone:
	default:
		fields["usage_limit"] = "invalid"
	}
	switch c.AppliesTo {
	case CouponAppliesToAll:
	case CouponAppliesToProducts:
		if len(c.Products) == 0 {
			fields["products"] = "required when applies to products"
		}
	case CouponAppliesToCategories:
		if len(c.Categories) == 0 {
			fields["categories"] = "required when applies to categories"
		}
	default:
		fields["applies_to"] = "invalid"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// ExpiresAt duration=none 回 nil
func (c *Coupon) ExpiresAt() *time.Time {
	if c.Duration != CouponDurationSet || c.DurationDays == nil {
		return nil
	}
	t := c.CreatedAt.Add(time.Duration(*c.DurationDays) * 24 * time.Hour)
	return &t
}

// IsExpired now > createdAt + durationDays
func (c *Coupon) IsExpired(now time.Time) bool {
	exp := c.ExpiresAt()
	return exp != nil && now.After(*exp)
}

func (c *Coupon) IsLimited() bool {
	return c.UsageLimit == CouponUsageLimited
}

func (c *Coupon) IsExhausted() bool {
	return c.IsLimited() && c.RemainingUses != nil && *c.RemainingUses <= 0
}

func (c *Coupon) Status(now time.Time) CouponStatus {
	switch {
	case c.IsExpired(now):
		return CouponStatusExpired
	case c.IsExhausted():
		return CouponStatusExhausted
	default:
		return CouponStatusActive
	}
}

func (c *Coupon) ProductIDs() map[uint]struct{} {
	ids := make(map[uint]struct{}, len(c.Products))
	for _, p := range c.Products {
		ids[p.ID] = struct{}{}
	}
	return ids
}

func (c *Coupon) CategoryIDs() map[uint]struct{} {
	ids := make(map[uint]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		ids[cat.ID] = struct{}{}
	}
	return ids
}

// CouponRedemption 用來計算每個使用者的使用次數
// 購物車合併時改歸屬會員，優惠券失效移除時刪除
type CouponRedemption struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	CouponID       uint            `gorm:"not null;index:idx_redemption_user,priority:1;index:idx_redemption_session,priority:1" json:"coupon_id"`
	UserID         *uint           `gorm:"index:idx_redemption_user,priority:2" json:"user_id,omitempty"`
	SessionID      *string         `gorm:"type:varchar(100);index:idx_redemption_session,priority:2" json:"session_id,omitempty"`
	CartID         uint            `gorm:"not null" json:"cart_id"`
	DiscountAmount decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"discount_amount"`
	RedeemedAt     time.Time       `gorm:"not null" json:"redeemed_at"`
}
