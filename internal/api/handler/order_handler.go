package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/api/dto"
	"github.com/RoyceAzure/lab/marketplace/internal/api/middleware"
	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/util"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/go-chi/chi/v5"
)

const maxWebhookBytes = 1 << 20

type OrderHandler struct {
	checkoutService service.ICheckoutService
	paymentService  service.IPaymentService
}

func NewOrderHandler(checkoutService service.ICheckoutService, paymentService service.IPaymentService) *OrderHandler {
	if util.IsNil(checkoutService) {
		panic("checkoutService cannot be nil")
	}
	if util.IsNil(paymentService) {
		panic("paymentService cannot be nil")
	}
	return &OrderHandler{
		checkoutService: checkoutService,
		paymentService:  paymentService,
	}
}

// CheckoutSession 建立訂單並回傳金流付款頁網址
func (h *OrderHandler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
	if err := dto.Decode(r, &req, false); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	identity := middleware.GetIdentity(r.Context())

	res, err := h.checkoutService.Checkout(r.Context(), service.CheckoutRequest{
		UserID:          identity.UserID,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Shipping: service.ShippingSelection{
			Method:           model.ShippingMethod(req.ShippingMethod),
			PickupLocationID: req.PickupLocationID,
		},
	})
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, res)
}

// Webhook 簽章以原始 body 計算，必須在解析前讀出完整內容
func (h *OrderHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		response.ErrorJSON(w, r, apperr.ErrInvalidRequest.Wrap(fmt.Errorf("reading webhook body: %w", err)))
		return
	}
	signature := strings.TrimSpace(r.Header.Get(constants.HeaderSignature))
	if err := h.paymentService.HandleWebhook(r.Context(), body, signature); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.WebhookAck{Received: true})
}

func (h *OrderHandler) Verify(w http.ResponseWriter, r *http.Request) {
	res, err := h.paymentService.Verify(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, res)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkoutService.GetOrder(r.Context(), middleware.GetIdentity(r.Context()), chi.URLParam(r, "orderNumber"))
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, order)
}

// Cancel 只有 pending 訂單可以取消
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	order, err := h.checkoutService.Cancel(r.Context(), identity.UserID, chi.URLParam(r, "orderNumber"))
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, order)
}
