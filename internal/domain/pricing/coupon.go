package pricing

import (
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type CouponLine struct {
	ProductID     uint
	CategoryID    uint
	Price         decimal.Decimal
	DiscountPrice decimal.NullDecimal
	Quantity      int
}

func CouponLinesFromCart(cart *model.Cart) []CouponLine {
	if cart == nil {
		return nil
	}
	lines := make([]CouponLine, 0, len(cart.Items))
	for _, it := range cart.Items {
		if it.Product == nil {
			continue
		}
		lines = append(lines, CouponLine{
			ProductID:     it.ProductID,
			CategoryID:    it.Product.CategoryID,
			Price:         it.Product.Price,
			DiscountPrice: it.Product.DiscountPrice,
			Quantity:      it.Quantity,
		})
	}
	return lines
}

// ApplicableLines 依 appliesTo 篩出優惠券適用的明細
func ApplicableLines(coupon *model.Coupon, lines []CouponLine) []CouponLine {
	switch coupon.AppliesTo {
	case model.CouponAppliesToProducts:
		ids := coupon.ProductIDs()
		return filter(lines, func(l CouponLine) bool {
			_, ok := ids[l.ProductID]
			return ok
		})
	case model.CouponAppliesToCategories:
		ids := coupon.CategoryIDs()
		return filter(lines, func(l CouponLine) bool {
			_, ok := ids[l.CategoryID]
			return ok
		})
	default:
		return lines
	}
}

// ApplicableSubtotal 以實際售價計
func ApplicableSubtotal(lines []CouponLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(model.EffectiveUnitPrice(l.Price, l.DiscountPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// CouponDiscount 依類型計算折抵金額
//   - fixed: min(value, subtotal)
//   - percentage: subtotal * value / 100
//   - priceDiscount: subtotal >= value 才折 value
//   - freeShipping: 0，運費在結帳時另外免除
func CouponDiscount(coupon *model.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch coupon.Type {
	case model.CouponTypeFixed:
		d = decimal.Min(coupon.Value, subtotal)
	case model.CouponTypePercentage:
		d = subtotal.Mul(coupon.Value).Div(hundred)
	case model.CouponTypePriceDiscount:
		if subtotal.GreaterThanOrEqual(coupon.Value) {
			d = coupon.Value
		}
	default:
		d = decimal.Zero
	}
	return nonNegative(d).Round(scale)
}

// WaivesDelivery freeShipping 整筆免運
func WaivesDelivery(coupon *model.Coupon) bool {
	return coupon != nil && coupon.Type == model.CouponTypeFreeShipping
}

func filter(lines []CouponLine, keep func(CouponLine) bool) []CouponLine {
	out := make([]CouponLine, 0, len(lines))
	for _, l := range lines {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
