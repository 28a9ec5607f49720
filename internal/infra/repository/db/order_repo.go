package db

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"gorm.io/gorm"
)

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// CreateOrder 連同明細一起建立
func (s *OrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	return s.db.WithContext(ctx).Omit("Payments").Create(order).Error
}

func (s *OrderRepo) preloadOrder(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payments.id") })
}

func (s *OrderRepo) GetOrderByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := s.preloadOrder(ctx).First(&order, id).Error; err != nil {
		return nil, notFound(err, apperr.ErrOrderNotFound)
	}
	return &order, nil
}

func (s *OrderRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var order model.Order
	if err := s.preloadOrder(ctx).Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return nil, notFound(err, apperr.ErrOrderNotFound)
	}
	return &order, nil
}

// MarkOrderPaid 以 payment_status 為條件，同一張訂單只會成功一次
// 訂單仍為 pending 才改為 processing，已取消或失敗的訂單保留原狀態
// 回傳 false 表示已處理過(冪等)
func (s *OrderRepo) MarkOrderPaid(ctx context.Context, orderID uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status NOT IN ?", orderID,
			[]model.PaymentStatus{model.PaymentStatusPaid, model.PaymentStatusRefunded}).
		Updates(map[string]any{
			"payment_status": model.PaymentStatusPaid,
			"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END",
				model.OrderStatusPending, model.OrderStatusProcessing),
		})
	return res.RowsAffected > 0, res.Error
}

// MarkOrderFailed 金流初始化失敗
func (s *OrderRepo) MarkOrderFailed(ctx context.Context, orderID uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusPending).
		Updates(map[string]any{
			"payment_status": model.PaymentStatusFailed,
			"status":         model.OrderStatusFailed,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkOrderPaymentFailed 付款失敗但訂單維持 pending，可重新付款或取消
func (s *OrderRepo) MarkOrderPaymentFailed(ctx context.Context, orderID uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", orderID, model.PaymentStatusPending).
		Update("payment_status", model.PaymentStatusFailed)
	return res.RowsAffected > 0, res.Error
}

// CancelOrder 只能取消 pending 訂單
// 錯誤:
//   - ErrOrderNotCancellable
func (s *OrderRepo) CancelOrder(ctx context.Context, orderID uint) error {
	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ? AND payment_status <> ?", orderID, model.OrderStatusPending, model.PaymentStatusPaid).
		Update("status", model.OrderStatusCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrOrderNotCancellable
	}
	return nil
}

func (s *OrderRepo) UpdateOrderStatus(ctx context.Context, orderID uint, status model.OrderStatus) error {
	return s.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", orderID).Update("status", status).Error
}

func (s *OrderRepo) GetOrderItemByID(ctx context.Context, id uint) (*model.OrderItem, error) {
	var item model.OrderItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, apperr.ErrOrderItemNotFound)
	}
	return &item, nil
}

// UpdateOrderItemStatus 以目前狀態為條件更新，期間被別人改過就失敗
// 錯誤:
//   - ErrInvalidTransition
func (s *OrderRepo) UpdateOrderItemStatus(ctx context.Context, id uint, from, to model.FulfillmentStatus) error {
	res := s.db.WithContext(ctx).Model(&model.OrderItem{}).
		Where("id = ? AND fulfillment_status = ?", id, from).
		Update("fulfillment_status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrInvalidTransition.WithMessage("item is no longer %s", from)
	}
	return nil
}

// UpdateOrderItemsStatus 批次把 from 內狀態的明細改為 to
func (s *OrderRepo) UpdateOrderItemsStatus(ctx context.Context, orderID uint, from []model.FulfillmentStatus, to model.FulfillmentStatus) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.OrderItem{}).
		Where("order_id = ? AND fulfillment_status IN ?", orderID, from).
		Update("fulfillment_status", to)
	return res.RowsAffected, res.Error
}

func (s *OrderRepo) CreatePayment(ctx context.Context, payment *model.Payment) error {
	return s.db.WithContext(ctx).Create(payment).Error
}

func (s *OrderRepo) GetPaymentByReference(ctx context.Context, reference string) (*model.Payment, error) {
	var payment model.Payment
	if err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&payment).Error; err != nil {
		return nil, notFound(err, apperr.ErrOrderNotFound)
	}
	return &payment, nil
}

func (s *OrderRepo) UpdatePayment(ctx context.Context, reference string, updates map[string]any) error {
	return s.db.WithContext(ctx).Model(&model.Payment{}).Where("reference = ?", reference).Updates(updates).Error
}
