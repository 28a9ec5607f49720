package model

import (
	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusPending   ProductStatus = "pending"
	ProductStatusActive    ProductStatus = "active"
	ProductStatusDenied    ProductStatus = "denied"
	ProductStatusSuspended ProductStatus = "suspended"
)

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null;type:varchar(100);uniqueIndex" json:"name"`
	BaseModel
}

type Product struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	VendorID      uint                `gorm:"not null;index" json:"vendor_id"`
	Vendor        *User               `gorm:"foreignKey:VendorID" json:"-"`
	CategoryID    uint                `gorm:"not null;index" json:"category_id"`
	Category      *Category           `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SubCategory   string              `gorm:"type:varchar(100)" json:"sub_category,omitempty"`
	Name          string              `gorm:"not null;type:varchar(200)" json:"name"`
	Price         decimal.Decimal     `gorm:"not null;type:decimal(12,2)" json:"price"`
	DiscountPrice decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"discount_price"`
	StockQuantity int                 `gorm:"not null;check:stock_quantity >= 0" json:"stock_quantity"`
	Status        ProductStatus       `gorm:"not null;type:varchar(20)" json:"status"`
	CoverImage    string              `gorm:"type:varchar(500)" json:"cover_image,omitempty"`
	BaseModel
}

// HasDiscount discountPrice 有值且大於0
func (p *Product) HasDiscount() bool {
	return HasDiscount(p.DiscountPrice)
}

// EffectivePrice 有折扣價用折扣價，否則用原價
func (p *Product) EffectivePrice() decimal.Decimal {
	return EffectiveUnitPrice(p.Price, p.DiscountPrice)
}

func (p *Product) IsPurchasable() bool {
	return p.Status == ProductStatusActive
}

// Validate 商品價格規則
// 錯誤:
//   - 回傳欄位對應的錯誤訊息，nil 表示通過
func (p *Product) Validate() map[string]string {
	fields := map[string]string{}
	if p.Name == "" {
		fields["name"] = "required"
	}
	if !p.Price.IsPositive() {
		fields["price"] = "must be greater than 0"
	}
	if p.DiscountPrice.Valid && p.DiscountPrice.Decimal.IsPositive() && p.DiscountPrice.Decimal.GreaterThanOrEqual(p.Price) {
		fields["discount_price"] = "must be less than price"
	}
	if p.StockQuantity < 0 {
		fields["stock_quantity"] = "must not be negative"
	}
	switch p.Status {
	case ProductStatusPending, ProductStatusActive, ProductStatusDenied, ProductStatusSuspended:
	default:
		fields["status"] = "invalid"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func HasDiscount(discountPrice decimal.NullDecimal) bool {
	return discountPrice.Valid && discountPrice.Decimal.IsPositive()
}

func EffectiveUnitPrice(price decimal.Decimal, discountPrice decimal.NullDecimal) decimal.Decimal {
	if HasDiscount(discountPrice) {
		return discountPrice.Decimal
	}
	return price
}
