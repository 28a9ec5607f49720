package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/api/dto"
	"github.com/RoyceAzure/lab/marketplace/internal/api/middleware"
	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/util"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
)

type FulfillmentHandler struct {
	fulfillmentService service.IFulfillmentService
}

func NewFulfillmentHandler(fulfillmentService service.IFulfillmentService) *FulfillmentHandler {
	if util.IsNil(fulfillmentService) {
		panic("fulfillmentService cannot be nil")
	}
	return &FulfillmentHandler{fulfillmentService: fulfillmentService}
}

// UpdateItemStatus 回傳彙總後的整張訂單
func (h *FulfillmentHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	itemID, err := uintParam(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	var req dto.UpdateItemStatusRequest
	if err := dto.Decode(r, &req, false); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	order, err := h.fulfillmentService.UpdateItemStatus(r.Context(), middleware.GetIdentity(r.Context()), itemID, model.FulfillmentStatus(req.Status))
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, order)
}
