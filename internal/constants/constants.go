package constants

import "time"

// for api identity
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	IdentityKey  ContextKey = "identity"
)

// 上游認證層轉送的身分標頭
const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderSessionID = "X-Session-ID"
	HeaderSignature = "X-Paystack-Signature"
)

type Role string

const (
	RoleGuest    Role = "guest"
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleCustomer, RoleVendor, RoleAdmin:
		return true
	default:
		return false
	}
}

type ENV string

const (
	Debug ENV = "debug"
	Dev   ENV = "development"
	Stag  ENV = "staging"
	Prod  ENV = "production"
)

const (
	DefaultGuestCartTTL      = 7 * 24 * time.Hour
	DefaultCartSweepInterval = time.Hour
	DefaultNotifyConcurrency = 4
	DefaultShutdownTimeout   = 30 * time.Second
)
