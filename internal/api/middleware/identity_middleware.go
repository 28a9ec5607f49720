package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/google/uuid"
)

// IdentityMiddleware 解析上游認證層轉送的身分標頭
// 認證本身不在這個服務，標頭格式錯誤直接回 400
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := parseIdentity(r)
		if err != nil {
			response.ErrorJSON(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func parseIdentity(r *http.Request) (model.Identity, error) {
	identity := model.Identity{
		SessionID: strings.TrimSpace(r.Header.Get(constants.HeaderSessionID)),
		Role:      constants.RoleGuest,
	}

	if raw := strings.TrimSpace(r.Header.Get(constants.HeaderUserID)); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			e := apperr.ErrInvalidRequest.WithMessage("invalid %s header", constants.HeaderUserID)
			e.Fields = map[string]string{constants.HeaderUserID: "positive integer"}
			return identity, e
		}
		identity.UserID = uint(id)
		identity.Role = constants.RoleCustomer
	}

	if raw := strings.TrimSpace(r.Header.Get(constants.HeaderUserRole)); raw != "" {
		role := constants.Role(strings.ToLower(raw))
		if !role.IsValid() {
			e := apperr.ErrInvalidRequest.WithMessage("invalid %s header", constants.HeaderUserRole)
			e.Fields = map[string]string{constants.HeaderUserRole: "oneof=customer vendor admin"}
			return identity, e
		}
		// 沒有 user id 的請求一律視為訪客
		if identity.UserID != 0 && role != constants.RoleGuest {
			identity.Role = role
		}
	}
	return identity, nil
}

// GuestSessionMiddleware 未登入且沒有 session 時核發一個新的 session id
// 透過回應標頭交給前端保存
func GuestSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r.Context())
		if identity.UserID == 0 && identity.SessionID == "" {
			identity.SessionID = uuid.NewString()
			w.Header().Set(constants.HeaderSessionID, identity.SessionID)
			r = r.WithContext(WithIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, constants.IdentityKey, identity)
}

// GetIdentity 沒有經過 IdentityMiddleware 時回傳訪客
func GetIdentity(ctx context.Context) model.Identity {
	if v, ok := ctx.Value(constants.IdentityKey).(model.Identity); ok {
		return v
	}
	return model.Identity{Role: constants.RoleGuest}
}
