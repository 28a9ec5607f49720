// Package pricing 購物車與訂單金額計算，純函式不碰 I/O
package pricing

import (
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/shopspring/decimal"
)

// 金額小數位數
const scale int32 = 2

type Line struct {
	ProductID      uint
	Price          decimal.Decimal
	DiscountPrice  decimal.NullDecimal
	Quantity       int
	AvailableStock int
}

type Input struct {
	Lines []Line
	// 由優惠券計算後傳入，這裡不重算
	CouponDiscount decimal.Decimal
	DeliveryFee    decimal.Decimal
	TaxRate        decimal.Decimal
}

type UnavailableItem struct {
	ProductID uint `json:"productId"`
	Requested int  `json:"requested"`
	Available int  `json:"available"`
}

type Summary struct {
	TotalItems       int               `json:"totalItems"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	ProductDiscount  decimal.Decimal   `json:"productDiscount"`
	CouponDiscount   decimal.Decimal   `json:"couponDiscount"`
	TotalDiscount    decimal.Decimal   `json:"totalDiscount"`
	DeliveryFee      decimal.Decimal   `json:"deliveryFee"`
	Tax              decimal.Decimal   `json:"tax"`
	Total            decimal.Decimal   `json:"total"`
	UnavailableItems []UnavailableItem `json:"unavailableItems"`
}

func (s Summary) HasUnavailable() bool {
	return len(s.UnavailableItems) > 0
}

// Compute
// subtotal 用原價計，商品折扣另外累加
// 中間運算不做進位，各欄位最後各 round 一次，total 由 round 後的欄位相加
func Compute(in Input) Summary {
	subtotal := decimal.Zero
	productDiscount := decimal.Zero
	totalItems := 0
	unavailable := make([]UnavailableItem, 0)

	for _, l := range in.Lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		totalItems += l.Quantity
		subtotal = subtotal.Add(l.Price.Mul(qty))
		if model.HasDiscount(l.DiscountPrice) {
			productDiscount = productDiscount.Add(l.Price.Sub(l.DiscountPrice.Decimal).Mul(qty))
		}
		if l.Quantity > l.AvailableStock {
			unavailable = append(unavailable, UnavailableItem{
				ProductID: l.ProductID,
				Requested: l.Quantity,
				Available: l.AvailableStock,
			})
		}
	}

	subtotal = subtotal.Round(scale)
	productDiscount = productDiscount.Round(scale)
	couponDiscount := nonNegative(in.CouponDiscount).Round(scale)
	totalDiscount := productDiscount.Add(couponDiscount)
	deliveryFee := nonNegative(in.DeliveryFee).Round(scale)

	taxable := nonNegative(subtotal.Sub(totalDiscount))
	tax := taxable.Mul(nonNegative(in.TaxRate)).Round(scale)

	return Summary{
		TotalItems:       totalItems,
		Subtotal:         subtotal,
		ProductDiscount:  productDiscount,
		CouponDiscount:   couponDiscount,
		TotalDiscount:    totalDiscount,
		DeliveryFee:      deliveryFee,
		Tax:              tax,
		Total:            taxable.Add(deliveryFee).Add(tax),
		UnavailableItems: unavailable,
	}
}

// LinesFromCart 購物車明細轉成計價輸入，product 需已 preload
func LinesFromCart(cart *model.Cart) []Line {
	if cart == nil {
		return nil
	}
	lines := make([]Line, 0, len(cart.Items))
	for _, it := range cart.Items {
		if it.Product == nil {
			continue
		}
		lines = append(lines, Line{
			ProductID:      it.ProductID,
			Price:          it.Product.Price,
			DiscountPrice:  it.Product.DiscountPrice,
			Quantity:       it.Quantity,
			AvailableStock: it.Product.StockQuantity,
		})
	}
	return lines
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
