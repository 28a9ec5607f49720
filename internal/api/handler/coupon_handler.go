package handler

import (
	"context"
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/api/dto"
	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/util"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
)

type CouponHandler struct {
	couponService service.ICouponService
}

func NewCouponHandler(couponService service.ICouponService) *CouponHandler {
	if util.IsNil(couponService) {
		panic("couponService cannot be nil")
	}
	return &CouponHandler{couponService: couponService}
}

// Validate 只試算折扣，不寫入
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.handleCode(w, r, h.couponService.Validate)
}

func (h *CouponHandler) Apply(w http.ResponseWriter, r *http.Request) {
	h.handleCode(w, r, h.couponService.Apply)
}

func (h *CouponHandler) handleCode(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, code string, owner model.CartOwner) (*service.CouponResult, error)) {
	var req dto.CouponCodeRequest
	if err := dto.Decode(r, &req, true); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	owner, err := cartOwner(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	res, err := fn(r.Context(), req.Code, owner)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, res)
}

// Create 管理員建立優惠券
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCouponRequest
	if err := dto.Decode(r, &req, false); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	coupon, err := h.couponService.CreateCoupon(r.Context(), req.Model(), req.ProductIDs, req.CategoryIDs)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, coupon)
}
