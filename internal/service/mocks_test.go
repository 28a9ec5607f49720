package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/gateway"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/producer"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*gateway.InitializeResult)
	return res, args.Error(1)
}

func (m *mockGateway) Verify(ctx context.Context, reference string) (*gateway.Transaction, error) {
	args := m.Called(ctx, reference)
	res, _ := args.Get(0).(*gateway.Transaction)
	return res, args.Error(1)
}

func (m *mockGateway) VerifySignature(body []byte, signature string) bool {
	return m.Called(body, signature).Bool(0)
}

type mockNotifications struct {
	mock.Mock
}

func (m *mockNotifications) OrderPlaced(order *model.Order, customer *model.User) {
	m.Called(order, customer)
}

func (m *mockNotifications) PaymentReceived(order *model.Order) {
	m.Called(order)
}

func (m *mockNotifications) Wait() {}

// recordingNotifier 收集送出的通知
type recordingNotifier struct {
	mu   sync.Mutex
	sent []producer.Notification
	fail map[string]error
}

func (r *recordingNotifier) Notify(ctx context.Context, n producer.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail[n.Recipient]; ok {
		return err
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

func (r *recordingNotifier) byTemplate(template string) []producer.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []producer.Notification
	for _, n := range r.sent {
		if n.Template == template {
			out = append(out, n)
		}
	}
	return out
}

func newStore(t *testing.T) (*db.SQLStore, *dbtest.Fixtures) {
	store, _ := dbtest.NewStore(t)
	return store, dbtest.NewFixtures(t, store)
}

// createOrder 直接寫入一張 pending 訂單，金額由明細加總
func createOrder(t *testing.T, store db.Store, userID uint, items ...model.OrderItem) *model.Order {
	t.Helper()
	total := decimal.Zero
	for i := range items {
		if items[i].FulfillmentStatus == "" {
			items[i].FulfillmentStatus = model.FulfillmentPending
		}
		if items[i].SelectedOptions == nil {
			items[i].SelectedOptions = model.SelectedOptions{}
		}
		total = total.Add(items[i].LineTotal())
	}
	order := &model.Order{
		OrderNumber:     util.GenerateOrderNumber(time.Now()),
		UserID:          userID,
		Subtotal:        total,
		Discount:        decimal.Zero,
		DeliveryFee:     decimal.Zero,
		Tax:             decimal.Zero,
		Total:           total,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   "card",
		ShippingMethod:  model.ShippingStandard,
		DeliveryAddress: dbtest.Address(),
		Items:           items,
	}
	require.NoError(t, store.CreateOrder(context.Background(), order))
	return order
}

func orderItem(p *model.Product, qty int) model.OrderItem {
	return model.OrderItem{
		ProductID:   p.ID,
		VendorID:    p.VendorID,
		ProductName: p.Name,
		Quantity:    qty,
		Price:       p.Price,
	}
}
