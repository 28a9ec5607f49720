package service

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/fulfillment"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/gateway"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/util"
	"github.com/rs/zerolog"
)

// PaymentResult verify 後的訂單付款狀態
type PaymentResult struct {
	Reference     string              `json:"reference"`
	OrderStatus   model.OrderStatus   `json:"orderStatus"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	GatewayStatus string              `json:"gatewayStatus"`
}

type IPaymentService interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	Verify(ctx context.Context, reference string) (*PaymentResult, error)
}

// PaymentService webhook 與 verify 兩個入口都可能先到或同時到
// 狀態轉換靠條件式更新保證只發生一次，重複呼叫不是錯誤
type PaymentService struct {
	store    db.Store
	gateway  gateway.IPaymentGateway
	notifier INotificationService
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewPaymentService(store db.Store, gw gateway.IPaymentGateway, notifier INotificationService, logger *zerolog.Logger) *PaymentService {
	return &PaymentService{
		store:    store,
		gateway:  gw,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HandleWebhook 先驗簽章再解析內容
// 錯誤:
//   - ErrInvalidSignature 401: 簽章不符
//   - ErrOrderNotFound 404: reference 找不到訂單，不做任何修改
//   - ErrPaymentAmountMismatch: 金額與訂單不符
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if signature == "" || !s.gateway.VerifySignature(body, signature) {
		return apperr.ErrInvalidSignature
	}

	event, txn, err := gateway.ParseWebhookEvent(body)
	if err != nil {
		return err
	}
	if event.Event != gateway.EventChargeSuccess || txn == nil {
		s.logger.Debug().Str("event", event.Event).Msg("ignore webhook event")
		return nil
	}

	_, err = s.markPaid(ctx, txn)
	return err
}

// Verify 主動向金流查詢交易狀態
func (s *PaymentService) Verify(ctx context.Context, reference string) (*PaymentResult, error) {
	if _, err := s.store.GetOrderByNumber(ctx, reference); err != nil {
		return nil, err
	}

	txn, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	var order *model.Order
	switch {
	case txn.Succeeded():
		order, err = s.markPaid(ctx, txn)
	case txn.Status == gateway.StatusFailed || txn.Status == gateway.StatusAbandoned:
		order, err = s.markFailed(ctx, txn)
	default:
		order, err = s.store.GetOrderByNumber(ctx, reference)
	}
	if err != nil {
		return nil, err
	}

	return &PaymentResult{
		Reference:     reference,
		OrderStatus:   order.Status,
		PaymentStatus: order.PaymentStatus,
		GatewayStatus: txn.Status,
	}, nil
}

// markPaid 付款成功
//   - 訂單 paymentStatus=paid，仍為 pending 的訂單改為 processing
//   - 仍為 pending 的明細改為 processing 並重新彙總訂單狀態
//   - 更新 payment 紀錄
//
// 訂單已失敗或有明細取消時仍記錄收款，payment 標記 requiresRefund
// 庫存在建立訂單時已扣過，這裡不再異動
func (s *PaymentService) markPaid(ctx context.Context, txn *gateway.Transaction) (*model.Order, error) {
	order, err := s.store.GetOrderByNumber(ctx, txn.Reference)
	if err != nil {
		return nil, err
	}
	if util.ToMinorUnits(order.Total) != txn.Amount {
		s.logger.Warn().
			Str("order_number", order.OrderNumber).
			Int64("expected", util.ToMinorUnits(order.Total)).
			Int64("paid", txn.Amount).
			Msg("payment amount mismatch")
		return nil, apperr.ErrPaymentAmountMismatch
	}

	changed := false
	refund := false
	var updated *model.Order
	err = s.store.ExecTx(ctx, func(tx db.Store) error {
		paid, err := tx.MarkOrderPaid(ctx, order.ID)
		if err != nil {
			return err
		}
		changed = paid
		if changed {
			current, err := tx.GetOrderByID(ctx, order.ID)
			if err != nil {
				return err
			}
			refund = requiresRefund(current)
			if current.Status != model.OrderStatusFailed && current.Status != model.OrderStatusCancelled {
				if err := s.startFulfillment(ctx, tx, current); err != nil {
					return err
				}
			}
			if err := s.recordPayment(ctx, tx, order, txn, model.PaymentStatusPaid, refund); err != nil {
				return err
			}
		}
		updated, err = tx.GetOrderByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	switch {
	case changed && refund:
		s.logger.Warn().
			Str("order_number", order.OrderNumber).
			Str("order_status", string(updated.Status)).
			Msg("payment received for cancelled or failed order, refund required")
	case changed:
		s.logger.Info().Str("order_number", order.OrderNumber).Msg("order paid")
		s.notifier.PaymentReceived(updated)
	}
	return updated, nil
}

// startFulfillment pending 明細改為 processing，訂單狀態依明細重新彙總
func (s *PaymentService) startFulfillment(ctx context.Context, tx db.Store, order *model.Order) error {
	if _, err := tx.UpdateOrderItemsStatus(ctx, order.ID,
		[]model.FulfillmentStatus{model.FulfillmentPending},
		model.FulfillmentProcessing); err != nil {
		return err
	}
	statuses := order.ItemStatuses()
	for i, st := range statuses {
		if st == model.FulfillmentPending {
			statuses[i] = model.FulfillmentProcessing
		}
	}
	status := fulfillment.RollUp(statuses)
	if status == order.Status {
		return nil
	}
	return tx.UpdateOrderStatus(ctx, order.ID, status)
}

func requiresRefund(order *model.Order) bool {
	if order.Status == model.OrderStatusFailed || order.Status == model.OrderStatusCancelled {
		return true
	}
	for _, st := range order.ItemStatuses() {
		if st == model.FulfillmentCancelled {
			return true
		}
	}
	return false
}

// markFailed 只影響仍為 pending 的付款狀態
func (s *PaymentService) markFailed(ctx context.Context, txn *gateway.Transaction) (*model.Order, error) {
	order, err := s.store.GetOrderByNumber(ctx, txn.Reference)
	if err != nil {
		return nil, err
	}

	var updated *model.Order
	err = s.store.ExecTx(ctx, func(tx db.Store) error {
		changed, err := tx.MarkOrderPaymentFailed(ctx, order.ID)
		if err != nil {
			return err
		}
		if changed {
			if err := s.recordPayment(ctx, tx, order, txn, model.PaymentStatusFailed, false); err != nil {
				return err
			}
		}
		updated, err = tx.GetOrderByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// recordPayment 更新 payment，結帳時沒寫成功就補建
func (s *PaymentService) recordPayment(ctx context.Context, tx db.Store, order *model.Order, txn *gateway.Transaction, status model.PaymentStatus, refund bool) error {
	fees := util.FromMinorUnits(txn.Fees)
	var paidAt *time.Time
	if status == model.PaymentStatusPaid {
		t := s.now()
		if parsed, err := time.Parse(time.RFC3339, txn.PaidAt); err == nil {
			t = parsed.UTC()
		}
		paidAt = &t
	}

	_, err := tx.GetPaymentByReference(ctx, txn.Reference)
	if err != nil {
		if !apperr.HasCode(err, apperr.ErrOrderNotFound.Code) {
			return err
		}
		return tx.CreatePayment(ctx, &model.Payment{
			OrderID:   order.ID,
			Reference: txn.Reference,
			Status:    status,
			Method:    order.PaymentMethod,
			Amount:    order.Total,
			Fees:      fees,
			Channel:   txn.Channel,
			Details:   string(txn.Raw),
			PaidAt:    paidAt,

			RequiresRefund: refund,
		})
	}

	updates := map[string]any{
		"status":  status,
		"fees":    fees,
		"channel": txn.Channel,
		"details": string(txn.Raw),

		"requires_refund": refund,
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}
	return tx.UpdatePayment(ctx, txn.Reference, updates)
}
