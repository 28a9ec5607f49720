package handler

import (
	"net/http"
	"strconv"

	"github.com/RoyceAzure/lab/marketplace/internal/api/middleware"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/go-chi/chi/v5"
)

// uintParam 解析路徑上的正整數 id
func uintParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		e := apperr.ErrInvalidRequest.WithMessage("invalid path parameter %s", name)
		e.Fields = map[string]string{name: "positive integer"}
		return 0, e
	}
	return uint(id), nil
}

func cartOwner(r *http.Request) (model.CartOwner, error) {
	return middleware.GetIdentity(r.Context()).CartOwner()
}
