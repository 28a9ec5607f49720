package model

import (
	"strings"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartOwner 購物車擁有者，登入會員或訪客 session 二選一
type CartOwner struct {
	UserID    *uint
	SessionID *string
}

// NewCartOwner 兩者都沒有回 CART_OWNER_REQUIRED
// 兩者都有時以會員為準，session 忽略
func NewCartOwner(userID uint, sessionID string) (CartOwner, error) {
	sessionID = strings.TrimSpace(sessionID)
	switch {
	case userID != 0:
		return CartOwner{UserID: &userID}, nil
	case sessionID != "":
		return CartOwner{SessionID: &sessionID}, nil
	default:
		return CartOwner{}, apperr.ErrCartOwnerRequired
	}
}

func UserOwner(userID uint) CartOwner {
	return CartOwner{UserID: &userID}
}

func SessionOwner(sessionID string) CartOwner {
	return CartOwner{SessionID: &sessionID}
}

func (o CartOwner) IsGuest() bool {
	return o.UserID == nil && o.SessionID != nil
}

// Validate 必須剛好一個有值
func (o CartOwner) Validate() error {
	hasUser := o.UserID != nil && *o.UserID != 0
	hasSession := o.SessionID != nil && *o.SessionID != ""
	if hasUser == hasSession {
		return apperr.ErrCartOwnerRequired
	}
	return nil
}

type Cart struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         *uint           `gorm:"uniqueIndex" json:"user_id,omitempty"`
	SessionID      *string         `gorm:"type:varchar(100);uniqueIndex" json:"session_id,omitempty"`
	ExpiresAt      *time.Time      `gorm:"index" json:"expires_at,omitempty"`
	CouponID       *uint           `gorm:"index" json:"coupon_id,omitempty"`
	Coupon         *Coupon         `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
	DiscountAmount decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"discount_amount"`
	Items          []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	Timestamps
}

func (c *Cart) Owner() CartOwner {
	return CartOwner{UserID: c.UserID, SessionID: c.SessionID}
}

// BeforeCreate 建立時檢查擁有者互斥
func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	return c.Owner().Validate()
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItem 以 (productID, options) 找明細
func (c *Cart) FindItem(productID uint, options SelectedOptions) *CartItem {
	key := options.Key()
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].OptionsKey == key {
			return &c.Items[i]
		}
	}
	return nil
}

type CartItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CartID          uint            `gorm:"not null;uniqueIndex:idx_cart_items_line" json:"cart_id"`
	ProductID       uint            `gorm:"not null;uniqueIndex:idx_cart_items_line;index" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	OptionsKey      string          `gorm:"not null;type:varchar(512);uniqueIndex:idx_cart_items_line" json:"-"`
	SelectedOptions SelectedOptions `gorm:"not null;type:text" json:"selected_options"`
	Quantity        int             `gorm:"not null;check:quantity >= 1" json:"quantity"`
	// 讀取時標記，不存 DB
	Available bool `gorm:"-" json:"available"`
	Timestamps
}

// SetOptions 同步更新 OptionsKey
func (i *CartItem) SetOptions(options SelectedOptions) {
	if options == nil {
		options = SelectedOptions{}
	}
	i.SelectedOptions = options
	i.OptionsKey = options.Key()
}
