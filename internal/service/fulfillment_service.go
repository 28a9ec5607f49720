package service

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/fulfillment"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/rs/zerolog"
)

type IFulfillmentService interface {
	UpdateItemStatus(ctx context.Context, actor model.Identity, itemID uint, to model.FulfillmentStatus) (*model.Order, error)
}

type FulfillmentService struct {
	store  db.Store
	logger *zerolog.Logger
}

func NewFulfillmentService(store db.Store, logger *zerolog.Logger) *FulfillmentService {
	return &FulfillmentService{store: store, logger: logger}
}

// UpdateItemStatus 更新單一明細的出貨狀態，並重新彙總訂單狀態
//   - customer: 只能操作自己的訂單
//   - vendor: 只能操作自己商品的明細
//   - admin: 不限
//
// 訂單未付款前只接受取消
// 明細更新以目前狀態為條件，期間被改過回 INVALID_TRANSITION
func (s *FulfillmentService) UpdateItemStatus(ctx context.Context, actor model.Identity, itemID uint, to model.FulfillmentStatus) (*model.Order, error) {
	if !actor.IsAuthenticated() {
		return nil, apperr.ErrUnauthenticated
	}

	var updated *model.Order
	var from model.FulfillmentStatus
	err := s.store.ExecTx(ctx, func(tx db.Store) error {
		item, err := tx.GetOrderItemByID(ctx, itemID)
		if err != nil {
			return err
		}
		order, err := tx.GetOrderByID(ctx, item.OrderID)
		if err != nil {
			return err
		}
		if err := checkOwnership(actor, order, item); err != nil {
			return err
		}
		if order.Status == model.OrderStatusFailed || order.Status == model.OrderStatusRefunded {
			return apperr.ErrInvalidTransition.WithMessage("order is %s", order.Status)
		}
		// 未付款只能取消
		if !order.IsPaid() && to != model.FulfillmentCancelled {
			return apperr.ErrInvalidTransition.WithMessage("order is not paid")
		}

		from = item.FulfillmentStatus
		if err := fulfillment.CanTransition(actor.Role, from, to); err != nil {
			return err
		}
		if err := tx.UpdateOrderItemStatus(ctx, item.ID, from, to); err != nil {
			return err
		}

		for i := range order.Items {
			if order.Items[i].ID == item.ID {
				order.Items[i].FulfillmentStatus = to
			}
		}
		status := fulfillment.RollUp(order.ItemStatuses())
		if status != order.Status {
			if err := tx.UpdateOrderStatus(ctx, order.ID, status); err != nil {
				return err
			}
			order.Status = status
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint("order_item_id", itemID).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("order_status", string(updated.Status)).
		Str("role", string(actor.Role)).
		Msg("fulfillment status updated")
	return updated, nil
}

func checkOwnership(actor model.Identity, order *model.Order, item *model.OrderItem) error {
	switch actor.Role {
	case constants.RoleAdmin:
		return nil
	case constants.RoleCustomer:
		if order.UserID == actor.UserID {
			return nil
		}
	case constants.RoleVendor:
		if item.VendorID == actor.UserID {
			return nil
		}
	}
	return apperr.ErrNotOwner
}
