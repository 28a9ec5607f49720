package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/util"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
)

type ShippingHandler struct {
	shippingService service.IShippingService
}

func NewShippingHandler(shippingService service.IShippingService) *ShippingHandler {
	if util.IsNil(shippingService) {
		panic("shippingService cannot be nil")
	}
	return &ShippingHandler{shippingService: shippingService}
}

// Activate 同時間只會有一筆啟用中的運費設定
func (h *ShippingHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	setting, err := h.shippingService.Activate(r.Context(), id)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, setting)
}
