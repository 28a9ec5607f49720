package middleware

import (
	"net"
	"net/http"
	"strconv"

	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
)

// NewRateLimitMiddleware 每個請求者各自一個 bucket
// key 優先順序: user id > session id > client ip
func NewRateLimitMiddleware(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), rateLimitKey(r)) {
				w.Header().Set("Retry-After", "1")
				response.ErrorJSON(w, r, apperr.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	identity := GetIdentity(r.Context())
	switch {
	case identity.UserID != 0:
		return "user:" + strconv.FormatUint(uint64(identity.UserID), 10)
	case identity.SessionID != "":
		return "session:" + identity.SessionID
	}
	// RealIP 之後 RemoteAddr 可能沒有 port
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
