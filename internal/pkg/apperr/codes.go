package apperr

import "net/http"

// 驗證類
var (
	ErrMissingCode        = Validation("MISSING_CODE", "coupon code is required", map[string]string{"code": "required"})
	ErrInvalidQuantity    = Validation("INVALID_QUANTITY", "quantity must be at least 1", map[string]string{"quantity": "min=1"})
	ErrCartOwnerRequired  = Validation("CART_OWNER_REQUIRED", "either a user id or a session id is required", nil)
	ErrInvalidAddress     = Validation("INVALID_DELIVERY_ADDRESS", "delivery address is incomplete", nil)
	ErrInvalidRequest     = Validation("INVALID_REQUEST", "request body is malformed", nil)
	ErrInvalidCoupon      = Validation("INVALID_COUPON", "coupon definition is invalid", nil)
	ErrInvalidProduct     = Validation("INVALID_PRODUCT", "product definition is invalid", nil)
	ErrInvalidShipping    = Validation("INVALID_SHIPPING_SELECTION", "shipping selection is invalid", nil)
	ErrMalformedStoreData = New(KindInternal, http.StatusInternalServerError, "MALFORMED_STORED_DATA", "stored data is malformed")
)

// 找不到資源
var (
	ErrCartNotFound            = NotFound("CART_NOT_FOUND", "cart not found")
	ErrCartItemNotFound        = NotFound("CART_ITEM_NOT_FOUND", "cart item not found")
	ErrProductNotFound         = NotFound("PRODUCT_NOT_FOUND", "product not found")
	ErrCouponNotFound          = NotFound("INVALID_CODE", "coupon code does not exist")
	ErrOrderNotFound           = NotFound("ORDER_NOT_FOUND", "order not found")
	ErrOrderItemNotFound       = NotFound("ORDER_ITEM_NOT_FOUND", "order item not found")
	ErrPickupLocationNotFound  = NotFound("PICKUP_LOCATION_NOT_FOUND", "pickup location not found")
	ErrStateFeeNotFound        = NotFound("STATE_FEE_NOT_FOUND", "no delivery fee configured for state")
	ErrShippingSettingNotFound = NotFound("SHIPPING_SETTING_NOT_FOUND", "shipping setting not found")
	ErrUserNotFound            = NotFound("USER_NOT_FOUND", "user not found")
)

// 業務規則
var (
	ErrExpiredCoupon         = Business("EXPIRED_COUPON", "coupon has expired")
	ErrUsageLimitReached     = Business("USAGE_LIMIT_REACHED", "coupon usage limit reached")
	ErrEmptyCart             = Business("EMPTY_CART", "cart is empty")
	ErrInapplicableCoupon    = Business("INAPPLICABLE_COUPON", "coupon does not apply to any item in the cart")
	ErrCouponAlreadyApplied  = Business("COUPON_ALREADY_APPLIED", "a coupon is already applied to this cart")
	ErrStockUnavailable      = Business("STOCK_UNAVAILABLE", "requested quantity is not available")
	ErrProductUnavailable    = Business("PRODUCT_UNAVAILABLE", "product is not available for purchase")
	ErrInvalidTransition     = Business("INVALID_TRANSITION", "fulfillment transition is not allowed")
	ErrOrderNotCancellable   = Business("ORDER_NOT_CANCELLABLE", "only pending orders can be cancelled")
	ErrPaymentAmountMismatch = Business("PAYMENT_AMOUNT_MISMATCH", "paid amount does not match order total")
	ErrNotOwner              = Forbidden("FORBIDDEN", "resource does not belong to the requester")
	ErrTransitionForbidden   = Forbidden("INVALID_TRANSITION", "actor may not perform this fulfillment transition")
)

// 認證 / 外部依賴
var (
	ErrUnauthenticated  = Unauthorized("UNAUTHENTICATED", "authentication required")
	ErrInvalidSignature = Unauthorized("INVALID_SIGNATURE", "webhook signature mismatch")
	ErrGateway          = External("GATEWAY_ERROR", "payment gateway request failed", nil)
	ErrTooManyRequests  = New(KindTooManyRequests, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "too many requests")
)
