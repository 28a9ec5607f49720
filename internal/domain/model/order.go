package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "pending"
	OrderStatusProcessing         OrderStatus = "processing"
	OrderStatusPartiallyShipped   OrderStatus = "partially_shipped"
	OrderStatusShipped            OrderStatus = "shipped"
	OrderStatusPartiallyDelivered OrderStatus = "partially_delivered"
	OrderStatusDelivered          OrderStatus = "delivered"
	OrderStatusPartiallyReceived  OrderStatus = "partially_received"
	OrderStatusCompleted          OrderStatus = "completed"
	OrderStatusCancelled          OrderStatus = "cancelled"
	OrderStatusPartiallyCancelled OrderStatus = "partially_cancelled"
	OrderStatusClosed             OrderStatus = "closed"
	OrderStatusRefunded           OrderStatus = "refunded"
	// 金流初始化失敗
	OrderStatusFailed OrderStatus = "failed"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "pending"
	FulfillmentProcessing FulfillmentStatus = "processing"
	FulfillmentShipped    FulfillmentStatus = "shipped"
	FulfillmentDelivered  FulfillmentStatus = "delivered"
	FulfillmentReceived   FulfillmentStatus = "received"
	FulfillmentCancelled  FulfillmentStatus = "cancelled"
	FulfillmentReturned   FulfillmentStatus = "returned"
)

func (s FulfillmentStatus) IsValid() bool {
	switch s {
	case FulfillmentPending, FulfillmentProcessing, FulfillmentShipped, FulfillmentDelivered,
		FulfillmentReceived, FulfillmentCancelled, FulfillmentReturned:
		return true
	default:
		return false
	}
}

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
	ShippingPickup   ShippingMethod = "pickup"
)

func (m ShippingMethod) IsValid() bool {
	return m == ShippingStandard || m == ShippingExpress || m == ShippingPickup
}

// Order 結帳當下的金額快照，建立後金額欄位不再異動
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNumber     string          `gorm:"not null;type:varchar(64);uniqueIndex" json:"order_number"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID" json:"-"`
	Subtotal        decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"subtotal"`
	Discount        decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"discount"`
	DeliveryFee     decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"delivery_fee"`
	Tax             decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"tax"`
	Total           decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"total"`
	CouponCode      string          `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`
	Status          OrderStatus     `gorm:"not null;type:varchar(30);index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"not null;type:varchar(20)" json:"payment_status"`
	PaymentMethod   string          `gorm:"not null;type:varchar(30)" json:"payment_method"`
	ShippingMethod  ShippingMethod  `gorm:"not null;type:varchar(20)" json:"shipping_method"`
	DeliveryAddress DeliveryAddress `gorm:"not null;type:text" json:"delivery_address"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payments        []Payment       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	BaseModel
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// ItemStatuses 給 roll-up 用
func (o *Order) ItemStatuses() []FulfillmentStatus {
	statuses := make([]FulfillmentStatus, 0, len(o.Items))
	for _, it := range o.Items {
		statuses = append(statuses, it.FulfillmentStatus)
	}
	return statuses
}

// OrderItem 下單時凍結的明細，vendorID 記錄當時的商品擁有者
type OrderItem struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	OrderID           uint                `gorm:"not null;index" json:"order_id"`
	ProductID         uint                `gorm:"not null;index" json:"product_id"`
	VendorID          uint                `gorm:"not null;index" json:"vendor_id"`
	ProductName       string              `gorm:"not null;type:varchar(200)" json:"product_name"`
	Quantity          int                 `gorm:"not null;check:quantity >= 1" json:"quantity"`
	Price             decimal.Decimal     `gorm:"not null;type:decimal(12,2)" json:"price"`
	DiscountPrice     decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"discount_price"`
	SelectedOptions   SelectedOptions     `gorm:"not null;type:text" json:"selected_options"`
	FulfillmentStatus FulfillmentStatus   `gorm:"not null;type:varchar(20)" json:"fulfillment_status"`
	CreatedAt         time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func (i *OrderItem) UnitPrice() decimal.Decimal {
	return EffectiveUnitPrice(i.Price, i.DiscountPrice)
}

// LineTotal 以實際售價計
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}
