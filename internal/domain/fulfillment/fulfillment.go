// Package fulfillment 訂單明細出貨狀態機與訂單狀態彙總
package fulfillment

import (
	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
)

// 合法的狀態邊，與操作者無關
var edges = map[model.FulfillmentStatus][]model.FulfillmentStatus{
	model.FulfillmentPending:    {model.FulfillmentProcessing, model.FulfillmentCancelled},
	model.FulfillmentProcessing: {model.FulfillmentShipped, model.FulfillmentCancelled},
	model.FulfillmentShipped:    {model.FulfillmentDelivered, model.FulfillmentReceived},
	model.FulfillmentDelivered:  {model.FulfillmentReceived, model.FulfillmentReturned},
	model.FulfillmentReceived:   {model.FulfillmentReturned},
}

// IsEdge from -> to 是否為狀態機上的邊
func IsEdge(from, to model.FulfillmentStatus) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(s model.FulfillmentStatus) bool {
	return len(edges[s]) == 0
}

// CanTransition 檢查狀態邊與操作者權限
// 擁有權(自己的訂單 / 自己的商品)由呼叫端先確認
// 錯誤:
//   - ErrInvalidTransition: 不是合法的狀態邊
//   - ErrTransitionForbidden: 邊合法但該角色不能執行
func CanTransition(role constants.Role, from, to model.FulfillmentStatus) error {
	if !to.IsValid() || !IsEdge(from, to) {
		return apperr.ErrInvalidTransition.WithMessage("cannot move item from %s to %s", from, to)
	}

	switch role {
	case constants.RoleAdmin:
		return nil
	case constants.RoleCustomer:
		if to == model.FulfillmentReceived {
			return nil
		}
	case constants.RoleVendor:
		if to != model.FulfillmentReceived {
			return nil
		}
	}
	return apperr.ErrTransitionForbidden.WithMessage("%s may not move item from %s to %s", role, from, to)
}

// RollUp 由所有明細狀態推導訂單狀態，相同輸入永遠得到相同結果
// 判斷順序:
//  1. 全部 received -> completed
//  2. 全部 returned -> closed
//  3. 任一 received -> partially_received
//  4. 全部 delivered -> delivered
//  5. 全部 cancelled -> cancelled
//  6. 任一 cancelled -> partially_cancelled
//  7. 任一 delivered -> partially_delivered
//  8. 全部 shipped -> shipped
//  9. 任一 shipped -> partially_shipped
//  10. 任一 processing -> processing
//  11. 其餘(含沒有明細) -> pending
func RollUp(statuses []model.FulfillmentStatus) model.OrderStatus {
	if len(statuses) == 0 {
		return model.OrderStatusPending
	}
	counts := make(map[model.FulfillmentStatus]int, len(statuses))
	for _, s := range statuses {
		counts[s]++
	}
	n := len(statuses)
	allOf := func(s model.FulfillmentStatus) bool { return counts[s] == n }
	anyOf := func(s model.FulfillmentStatus) bool { return counts[s] > 0 }

	switch {
	case allOf(model.FulfillmentReceived):
		return model.OrderStatusCompleted
	case allOf(model.FulfillmentReturned):
		return model.OrderStatusClosed
	case anyOf(model.FulfillmentReceived):
		return model.OrderStatusPartiallyReceived
	case allOf(model.FulfillmentDelivered):
		return model.OrderStatusDelivered
	case allOf(model.FulfillmentCancelled):
		return model.OrderStatusCancelled
	case anyOf(model.FulfillmentCancelled):
		return model.OrderStatusPartiallyCancelled
	case anyOf(model.FulfillmentDelivered):
		return model.OrderStatusPartiallyDelivered
	case allOf(model.FulfillmentShipped):
		return model.OrderStatusShipped
	case anyOf(model.FulfillmentShipped):
		return model.OrderStatusPartiallyShipped
	case anyOf(model.FulfillmentProcessing):
		return model.OrderStatusProcessing
	default:
		return model.OrderStatusPending
	}
}
