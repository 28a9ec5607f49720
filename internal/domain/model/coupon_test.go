package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCouponValidate(t *testing.T) {
	tests := []struct {
		name    string
		coupon  Coupon
		invalid []string
	}{
		{
			name:   "valid percentage",
			coupon: Coupon{Code: "TEN", Type: CouponTypePercentage, Value: decimal.NewFromInt(10), Duration: CouponDurationNone, UsageLimit: CouponUsageNone, AppliesTo: CouponAppliesToAll},
		},
		{
			name:    "percentage over 100",
			coupon:  Coupon{Code: "BIG", Type: CouponTypePercentage, Value: decimal.NewFromInt(101), Duration: CouponDurationNone, UsageLimit: CouponUsageNone, AppliesTo: CouponAppliesToAll},
			invalid: []string{"value"},
		},
		{
			name:    "set duration without days",
			coupon:  Coupon{Code: "D", Type: CouponTypeFixed, Value: decimal.NewFromInt(5), Duration: CouponDurationSet, UsageLimit: CouponUsageNone, AppliesTo: CouponAppliesToAll},
			invalid: []string{"duration_days"},
		},
		{
			name:    "limited without amount",
			coupon:  Coupon{Code: "L", Type: CouponTypeFixed, Value: decimal.NewFromInt(5), Duration: CouponDurationNone, UsageLimit: CouponUsageLimited, AppliesTo: CouponAppliesToAll},
			invalid: []string{"limit_amount"},
		},
		{
			name:    "products without links",
			coupon:  Coupon{Code: "P", Type: CouponTypeFixed, Value: decimal.NewFromInt(5), Duration: CouponDurationNone, UsageLimit: CouponUsageNone, AppliesTo: CouponAppliesToProducts},
			invalid: []string{"products"},
		},
		{
			name:    "unknown type",
			coupon:  Coupon{Code: "X", Type: "bogus", Duration: CouponDurationNone, UsageLimit: CouponUsageNone, AppliesTo: CouponAppliesToAll},
			invalid: []string{"type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := tt.coupon.Validate()
			if len(tt.invalid) == 0 {
				require.Nil(t, fields)
				return
			}
			for _, f := range tt.invalid {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestCouponNormalize(t *testing.T) {
	c := Coupon{Code: " save10 ", UsageLimit: CouponUsageLimited, LimitAmount: intPtr(3)}
	c.Normalize()
	require.Equal(t, "SAVE10", c.Code)
	require.Equal(t, CouponDurationNone, c.Duration)
	require.Equal(t, CouponAppliesToAll, c.AppliesTo)
	require.NotNil(t, c.RemainingUses)
	require.Equal(t, 3, *c.RemainingUses)

	// 已給定的 remainingUses 不覆蓋
	c = Coupon{Code: "a", UsageLimit: CouponUsageLimited, LimitAmount: intPtr(3), RemainingUses: intPtr(1)}
	c.Normalize()
	require.Equal(t, 1, *c.RemainingUses)
}

func TestCouponStatus(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Coupon{Duration: CouponDurationSet, DurationDays: intPtr(2), UsageLimit: CouponUsageLimited, RemainingUses: intPtr(1)}
	c.CreatedAt = created

	require.Equal(t, CouponStatusActive, c.Status(created.Add(47*time.Hour)))
	require.Equal(t, CouponStatusActive, c.Status(created.Add(48*time.Hour)))
	require.Equal(t, CouponStatusExpired, c.Status(created.Add(48*time.Hour+time.Second)))

	c.RemainingUses = intPtr(0)
	require.Equal(t, CouponStatusExhausted, c.Status(created))

	none := Coupon{Duration: CouponDurationNone, UsageLimit: CouponUsageNone}
	require.Nil(t, none.ExpiresAt())
	require.Equal(t, CouponStatusActive, none.Status(created.Add(10000*time.Hour)))
}

func TestProductPricing(t *testing.T) {
	p := Product{Name: "Mug", Price: decimal.NewFromInt(100), Status: ProductStatusActive}
	require.Nil(t, p.Validate())
	require.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(100)))

	p.DiscountPrice = decimal.NewNullDecimal(decimal.NewFromInt(80))
	require.True(t, p.HasDiscount())
	require.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(80)))

	// 0 視為沒有折扣
	p.DiscountPrice = decimal.NewNullDecimal(decimal.Zero)
	require.False(t, p.HasDiscount())
	require.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(100)))

	p.DiscountPrice = decimal.NewNullDecimal(decimal.NewFromInt(100))
	require.Contains(t, p.Validate(), "discount_price")
}
