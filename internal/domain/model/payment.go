package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment 每次向金流發起的交易一筆，reference 與金流端一致
type Payment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	Reference string          `gorm:"not null;type:varchar(100);uniqueIndex" json:"reference"`
	Status    PaymentStatus   `gorm:"not null;type:varchar(20)" json:"status"`
	Method    string          `gorm:"not null;type:varchar(30)" json:"method"`
	Amount    decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"amount"`
	Fees      decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"fees"`
	Channel   string          `gorm:"type:varchar(30)" json:"channel,omitempty"`
	// 訂單已取消或失敗後才收到款項，需人工退款
	RequiresRefund bool `gorm:"not null;default:false" json:"requires_refund"`
	// 金流回傳的原始資料
	Details   string     `gorm:"type:text" json:"-"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
