package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/producer"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const notifyTimeout = 30 * time.Second

// VendorItems 單一賣家在這張訂單內的明細
type VendorItems struct {
	VendorID uint
	Items    []model.OrderItem
	Subtotal decimal.Decimal
}

// GroupItemsByVendor 依 vendorID 由小到大排序
func GroupItemsByVendor(items []model.OrderItem) []VendorItems {
	groups := make(map[uint]*VendorItems)
	for _, it := range items {
		g, ok := groups[it.VendorID]
		if !ok {
			g = &VendorItems{VendorID: it.VendorID, Subtotal: decimal.Zero}
			groups[it.VendorID] = g
		}
		g.Items = append(g.Items, it)
		g.Subtotal = g.Subtotal.Add(it.LineTotal())
	}

	out := make([]VendorItems, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VendorID < out[j].VendorID })
	return out
}

type INotificationService interface {
	OrderPlaced(order *model.Order, customer *model.User)
	PaymentReceived(order *model.Order)
	Wait()
}

// NotificationService 訂單 commit 之後才發送，失敗只記 log
// 每個收件人各自送出，彼此不保證順序
type NotificationService struct {
	notifier    producer.Notifier
	store       db.Store
	adminEmail  string
	concurrency int
	logger      *zerolog.Logger
	wg          sync.WaitGroup
}

func NewNotificationService(notifier producer.Notifier, store db.Store, adminEmail string, concurrency int, logger *zerolog.Logger) *NotificationService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &NotificationService{
		notifier:    notifier,
		store:       store,
		adminEmail:  adminEmail,
		concurrency: concurrency,
		logger:      logger,
	}
}

// OrderPlaced 背景送出賣家 / 買家 / 管理員通知，不阻塞呼叫端
func (s *NotificationService) OrderPlaced(order *model.Order, customer *model.User) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		s.send(ctx, s.orderPlacedNotifications(ctx, order, customer))
	}()
}

// PaymentReceived 付款確認通知買家
func (s *NotificationService) PaymentReceived(order *model.Order) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		customer, err := s.store.GetUserByID(ctx, order.UserID)
		if err != nil {
			s.logger.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("skip payment notification, customer not found")
			return
		}
		s.send(ctx, []producer.Notification{{
			Template:  producer.TemplatePaymentReceived,
			Recipient: customer.Email,
			Key:       order.OrderNumber,
			Data: map[string]any{
				"orderNumber": order.OrderNumber,
				"total":       order.Total.StringFixed(2),
				"name":        customer.Name,
			},
		}})
	}()
}

// Wait 等待所有背景通知送完，關機時呼叫
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) orderPlacedNotifications(ctx context.Context, order *model.Order, customer *model.User) []producer.Notification {
	groups := GroupItemsByVendor(order.Items)
	ids := make([]uint, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.VendorID)
	}

	vendors := make(map[uint]model.User, len(ids))
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("failed to load vendors for notification")
	}
	for _, u := range users {
		vendors[u.ID] = u
	}

	out := make([]producer.Notification, 0, len(groups)+2)
	for _, g := range groups {
		vendor, ok := vendors[g.VendorID]
		if !ok {
			s.logger.Warn().Uint("vendor_id", g.VendorID).Str("order_number", order.OrderNumber).Msg("vendor not found, skip notification")
			continue
		}
		out = append(out, producer.Notification{
			Template:  producer.TemplateVendorNewOrder,
			Recipient: vendor.Email,
			Key:       order.OrderNumber,
			Data: map[string]any{
				"orderNumber": order.OrderNumber,
				"vendorName":  vendor.Name,
				"items":       itemsPayload(g.Items),
				"subtotal":    g.Subtotal.StringFixed(2),
			},
		})
	}

	summary := orderPayload(order)
	if customer != nil {
		data := copyPayload(summary)
		data["name"] = customer.Name
		out = append(out, producer.Notification{
			Template:  producer.TemplateCustomerConfirmed,
			Recipient: customer.Email,
			Key:       order.OrderNumber,
			Data:      data,
		})
	}
	if s.adminEmail != "" {
		data := copyPayload(summary)
		data["vendorCount"] = len(groups)
		out = append(out, producer.Notification{
			Template:  producer.TemplateAdminNewOrder,
			Recipient: s.adminEmail,
			Key:       order.OrderNumber,
			Data:      data,
		})
	}
	return out
}

// send 有上限的並行送出，個別失敗不影響其他收件人
func (s *NotificationService) send(ctx context.Context, notifications []producer.Notification) {
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, n := range notifications {
		n := n
		g.Go(func() error {
			if err := s.notifier.Notify(ctx, n); err != nil {
				s.logger.Error().Err(err).
					Str("template", n.Template).
					Str("recipient", n.Recipient).
					Msg("failed to send notification")
			}
			return nil
		})
	}
	_ = g.Wait()
}

func orderPayload(order *model.Order) map[string]any {
	return map[string]any{
		"orderNumber":    order.OrderNumber,
		"items":          itemsPayload(order.Items),
		"subtotal":       order.Subtotal.StringFixed(2),
		"discount":       order.Discount.StringFixed(2),
		"deliveryFee":    order.DeliveryFee.StringFixed(2),
		"tax":            order.Tax.StringFixed(2),
		"total":          order.Total.StringFixed(2),
		"shippingMethod": string(order.ShippingMethod),
	}
}

func itemsPayload(items []model.OrderItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"productId": it.ProductID,
			"name":      it.ProductName,
			"quantity":  it.Quantity,
			"unitPrice": it.UnitPrice().StringFixed(2),
			"lineTotal": it.LineTotal().StringFixed(2),
		})
	}
	return out
}

func copyPayload(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
