package middleware

import (
	"net/http"
	"slices"

	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
)

// AuthMiddleware 需要登入
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r.Context()).IsAuthenticated() {
			response.ErrorJSON(w, r, apperr.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole 需要登入且角色在清單內
func RequireRole(roles ...constants.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if !identity.IsAuthenticated() {
				response.ErrorJSON(w, r, apperr.ErrUnauthenticated)
				return
			}
			if !slices.Contains(roles, identity.Role) {
				response.ErrorJSON(w, r, apperr.ErrNotOwner.WithMessage("role %s may not access this resource", identity.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
