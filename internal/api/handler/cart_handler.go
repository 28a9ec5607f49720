package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/api/dto"
	"github.com/RoyceAzure/lab/marketplace/internal/api/middleware"
	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/util"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
)

type CartHandler struct {
	cartService service.ICartService
}

func NewCartHandler(cartService service.ICartService) *CartHandler {
	if util.IsNil(cartService) {
		panic("cartService cannot be nil")
	}
	return &CartHandler{cartService: cartService}
}

// GetCart 沒有購物車時 data 為 null
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, err := cartOwner(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	view, err := h.cartService.GetCart(r.Context(), owner)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, view)
}

// AddItem 加入商品，同商品同選項時數量累加
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req dto.AddCartItemRequest
	if err := dto.Decode(r, &req, false); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	owner, err := cartOwner(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	view, err := h.cartService.AddItem(r.Context(), owner, req.ProductID, req.Quantity, req.Options())
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, view)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := uintParam(r, "productId")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	var req dto.UpdateCartItemRequest
	if err := dto.Decode(r, &req, false); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	owner, err := cartOwner(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	view, err := h.cartService.UpdateItem(r.Context(), owner, productID, req.Quantity, req.Options())
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, view)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := uintParam(r, "productId")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	var req dto.RemoveCartItemRequest
	if err := dto.Decode(r, &req, true); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	owner, err := cartOwner(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	view, err := h.cartService.RemoveItem(r.Context(), owner, productID, req.Options())
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, view)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	owner, err := cartOwner(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	if err := h.cartService.Clear(r.Context(), owner); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, nil)
}

// Merge 登入後把訪客購物車併入會員購物車
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req dto.MergeCartRequest
	if err := dto.Decode(r, &req, true); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	identity := middleware.GetIdentity(r.Context())
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = identity.SessionID
	}
	view, err := h.cartService.Merge(r.Context(), identity.UserID, sessionID)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, view)
}
