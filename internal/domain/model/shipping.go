package model

import (
	"github.com/shopspring/decimal"
)

type ShippingMode string

const (
	ShippingModeFlat  ShippingMode = "flat"
	ShippingModeState ShippingMode = "state"
)

// ShippingSetting 同時間只能有一筆 is_active，由 partial unique index 保證
type ShippingSetting struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null;type:varchar(100)" json:"name"`
	Mode        ShippingMode    `gorm:"not null;type:varchar(10)" json:"mode"`
	StandardFee decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"standard_fee"`
	ExpressFee  decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"express_fee"`
	PickupFee   decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"pickup_fee"`
	IsActive    bool            `gorm:"not null;uniqueIndex:idx_shipping_settings_active,where:is_active = true" json:"is_active"`
	Timestamps
}

// FlatFee 依配送方式查表
func (s *ShippingSetting) FlatFee(method ShippingMethod) decimal.Decimal {
	switch method {
	case ShippingExpress:
		return s.ExpressFee
	case ShippingPickup:
		return s.PickupFee
	default:
		return s.StandardFee
	}
}

type StateFee struct {
	ID    uint            `gorm:"primaryKey" json:"id"`
	State string          `gorm:"not null;type:varchar(100);uniqueIndex" json:"state"`
	Fee   decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"fee"`
	Timestamps
}

type PickupLocation struct {
	ID      uint            `gorm:"primaryKey" json:"id"`
	Name    string          `gorm:"not null;type:varchar(100)" json:"name"`
	Address string          `gorm:"not null;type:varchar(255)" json:"address"`
	State   string          `gorm:"type:varchar(100)" json:"state,omitempty"`
	Fee     decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"fee"`
	Active  bool            `gorm:"not null" json:"active"`
	Timestamps
}
