package dto

import (
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/shopspring/decimal"
)

// CouponCodeRequest 缺少 code 由 service 回 MISSING_CODE
type CouponCodeRequest struct {
	Code string `json:"code" validate:"max=50"`
}

type CreateCouponRequest struct {
	Code         string          `json:"code" validate:"required,max=50"`
	Name         string          `json:"name" validate:"required,max=100"`
	Type         string          `json:"type" validate:"required,oneof=fixed percentage priceDiscount freeShipping"`
	Value        decimal.Decimal `json:"value"`
	Duration     string          `json:"duration" validate:"omitempty,oneof=set none"`
	DurationDays *int            `json:"durationDays" validate:"omitempty,min=1"`
	AppliesTo    string          `json:"appliesTo" validate:"omitempty,oneof=all products categories"`
	ProductIDs   []uint          `json:"productIds" validate:"omitempty,dive,required"`
	CategoryIDs  []uint          `json:"categoryIds" validate:"omitempty,dive,required"`
	UsageLimit   string          `json:"usageLimit" validate:"omitempty,oneof=limited none"`
	LimitAmount  *int            `json:"limitAmount" validate:"omitempty,min=1"`
}

func (r CreateCouponRequest) Model() *model.Coupon {
	return &model.Coupon{
		Code:         r.Code,
		Name:         r.Name,
		Type:         model.CouponType(r.Type),
		Value:        r.Value,
		Duration:     model.CouponDuration(r.Duration),
		DurationDays: r.DurationDays,
		AppliesTo:    model.CouponAppliesTo(r.AppliesTo),
		UsageLimit:   model.CouponUsageLimit(r.UsageLimit),
		LimitAmount:  r.LimitAmount,
	}
}
