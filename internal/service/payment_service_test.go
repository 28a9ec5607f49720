package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/gateway"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/logger"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	store    *db.SQLStore
	fx       *dbtest.Fixtures
	gateway  *mockGateway
	notifier *mockNotifications
	svc      *service.PaymentService
	customer *model.User
	vendor   *model.User
	product  *model.Product
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.store, suite.fx = newStore(suite.T())
	suite.gateway = new(mockGateway)
	suite.notifier = new(mockNotifications)
	suite.notifier.On("PaymentReceived", mock.Anything).Return().Maybe()
	suite.svc = service.NewPaymentService(suite.store, suite.gateway, suite.notifier, logger.Nop())
	suite.customer = suite.fx.User(constants.RoleCustomer)
	suite.vendor = suite.fx.User(constants.RoleVendor)
	suite.product = suite.fx.Product(suite.vendor.ID, "10", 8)
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}

// placeOrder 模擬結帳後的狀態: 訂單 pending，庫存已扣，payment pending
func (suite *PaymentServiceTestSuite) placeOrder(qty int) *model.Order {
	ctx := context.Background()
	order := createOrder(suite.T(), suite.store, suite.customer.ID, orderItem(suite.product, qty))
	require.NoError(suite.T(), suite.store.DeductProductStock(ctx, suite.product.ID, qty))
	require.NoError(suite.T(), suite.store.CreatePayment(ctx, &model.Payment{
		OrderID:   order.ID,
		Reference: order.OrderNumber,
		Status:    model.PaymentStatusPending,
		Method:    "card",
		Amount:    order.Total,
		Fees:      decimal.Zero,
	}))
	return order
}

func webhookBody(event, reference string, amount int64) []byte {
	body, _ := json.Marshal(map[string]any{
		"event": event,
		"data": map[string]any{
			"reference": reference,
			"status":    gateway.StatusSuccess,
			"amount":    amount,
			"fees":      150,
			"channel":   "card",
			"paid_at":   "2026-10-01T10:00:00Z",
		},
	})
	return body
}

func (suite *PaymentServiceTestSuite) acceptSignature() {
	suite.gateway.On("VerifySignature", mock.Anything, "sig").Return(true)
}

func (suite *PaymentServiceTestSuite) TestWebhookRejectsBadSignature() {
	order := suite.placeOrder(2)
	suite.gateway.On("VerifySignature", mock.Anything, "forged").Return(false)
	body := webhookBody(gateway.EventChargeSuccess, order.OrderNumber, 2000)

	err := suite.svc.HandleWebhook(context.Background(), body, "forged")
	require.True(suite.T(), errors.Is(err, apperr.ErrInvalidSignature))
	require.Equal(suite.T(), 401, apperr.From(err).Status)

	err = suite.svc.HandleWebhook(context.Background(), body, "")
	require.True(suite.T(), errors.Is(err, apperr.ErrInvalidSignature))

	got, err := suite.store.GetOrderByID(context.Background(), order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.PaymentStatusPending, got.PaymentStatus)
}

// 重送同一個 webhook 不會重複轉換狀態，也不會再扣庫存
func (suite *PaymentServiceTestSuite) TestWebhookMarksPaidOnce() {
	ctx := context.Background()
	order := suite.placeOrder(2)
	suite.acceptSignature()
	body := webhookBody(gateway.EventChargeSuccess, order.OrderNumber, 2000)

	require.NoError(suite.T(), suite.svc.HandleWebhook(ctx, body, "sig"))
	require.NoError(suite.T(), suite.svc.HandleWebhook(ctx, body, "sig"))

	got, err := suite.store.GetOrderByID(ctx, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.PaymentStatusPaid, got.PaymentStatus)
	require.Equal(suite.T(), model.OrderStatusProcessing, got.Status)
	require.Equal(suite.T(), model.FulfillmentProcessing, got.Items[0].FulfillmentStatus)

	payment, err := suite.store.GetPaymentByReference(ctx, order.OrderNumber)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.PaymentStatusPaid, payment.Status)
	require.Equal(suite.T(), "1.5", payment.Fees.String())
	require.Equal(suite.T(), "card", payment.Channel)
	require.NotNil(suite.T(), payment.PaidAt)
	require.Contains(suite.T(), payment.Details, order.OrderNumber)

	p, err := suite.store.GetProductByID(ctx, suite.product.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 6, p.StockQuantity)

	suite.notifier.AssertNumberOfCalls(suite.T(), "PaymentReceived", 1)
}

func (suite *PaymentServiceTestSuite) TestWebhookUnknownReference() {
	suite.acceptSignature()
	body := webhookBody(gateway.EventChargeSuccess, "ORD-UNKNOWN", 2000)

	err := suite.svc.HandleWebhook(context.Background(), body, "sig")
	require.True(suite.T(), errors.Is(err, apperr.ErrOrderNotFound))
	suite.notifier.AssertNotCalled(suite.T(), "PaymentReceived", mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestWebhookAmountMismatch() {
	order := suite.placeOrder(2)
	suite.acceptSignature()
	body := webhookBody(gateway.EventChargeSuccess, order.OrderNumber, 100)

	err := suite.svc.HandleWebhook(context.Background(), body, "sig")
	require.True(suite.T(), errors.Is(err, apperr.ErrPaymentAmountMismatch))

	got, err := suite.store.GetOrderByID(context.Background(), order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.PaymentStatusPending, got.PaymentStatus)
}

func (suite *PaymentServiceTestSuite) TestWebhookIgnoresOtherEvents() {
	order := suite.placeOrder(1)
	suite.acceptSignature()
	body := webhookBody("transfer.success", order.OrderNumber, 1000)

	require.NoError(suite.T(), suite.svc.HandleWebhook(context.Background(), body, "sig"))
	got, err := suite.store.GetOrderByID(context.Background(), order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderStatusPending, got.Status)
}

func (suite *PaymentServiceTestSuite) TestWebhookMalformedBody() {
	suite.acceptSignature()
	err := suite.svc.HandleWebhook(context.Background(), []byte("{not json"), "sig")
	require.True(suite.T(), errors.Is(err, apperr.ErrInvalidRequest))
}

// verify 與 webhook 先後到達結果相同
func (suite *PaymentServiceTestSuite) TestVerifyThenWebhook() {
	ctx := context.Background()
	order := suite.placeOrder(3)
	suite.gateway.On("Verify", mock.Anything, order.OrderNumber).Return(&gateway.Transaction{
		Reference: order.OrderNumber,
		Status:    gateway.StatusSuccess,
		Amount:    3000,
		Channel:   "bank",
		Raw:       json.RawMessage(`{"reference":"x"}`),
	}, nil)

	res, err := suite.svc.Verify(ctx, order.OrderNumber)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.PaymentStatusPaid, res.PaymentStatus)
	require.Equal(suite.T(), model.OrderStatusProcessing, res.OrderStatus)
	require.Equal(suite.T(), gateway.StatusSuccess, res.GatewayStatus)

	res, err = suite.svc.Verify(ctx, order.OrderNumber)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.PaymentStatusPaid, res.PaymentStatus)

	suite.acceptSignature()
	require.NoError(suite.T(), suite.svc.HandleWebhook(ctx, webhookBody(gateway.EventChargeSuccess, order.OrderNumber, 3000), "sig"))

	suite.notifier.AssertNumberOfCalls(suite.T(), "PaymentReceived", 1)
}

func (suite *PaymentServiceTestSuite) TestVerifyFailed() {
	ctx := context.Background()
	order := suite.placeOrder(1)
	suite.gateway.On("Verify", mock.Anything, order.OrderNumber).Return(&gateway.Transaction{
		Reference: order.OrderNumber,
		Status:    gateway.StatusAbandoned,
	}, nil)

	res, err := suite.svc.Verify(ctx, order.OrderNumber)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.PaymentStatusFailed, res.PaymentStatus)
	require.Equal(suite.T(), model.OrderStatusPending, res.OrderStatus)

	payment, err := suite.store.GetPaymentByReference(ctx, order.OrderNumber)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.PaymentStatusFailed, payment.Status)
}

func (suite *PaymentServiceTestSuite) TestVerifyUnknownOrder() {
	_, err := suite.svc.Verify(context.Background(), "ORD-NOPE")
	require.True(suite.T(), errors.Is(err, apperr.ErrOrderNotFound))
	suite.gateway.AssertNotCalled(suite.T(), "Verify", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestVerifyGatewayError() {
	order := suite.placeOrder(1)
	suite.gateway.On("Verify", mock.Anything, order.OrderNumber).Return(nil, apperr.ErrGateway)

	_, err := suite.svc.Verify(context.Background(), order.OrderNumber)
	require.True(suite.T(), errors.Is(err, apperr.ErrGateway))
}

// 取消後才到的款項仍要記錄，標記待退款，訂單維持 cancelled
func (suite *PaymentServiceTestSuite) TestWebhookAfterCancellationFlagsRefund() {
	ctx := context.Background()
	order := suite.placeOrder(2)
	require.NoError(suite.T(), suite.store.CancelOrder(ctx, order.ID))
	_, err := suite.store.UpdateOrderItemsStatus(ctx, order.ID,
		[]model.FulfillmentStatus{model.FulfillmentPending}, model.FulfillmentCancelled)
	require.NoError(suite.T(), err)
	suite.acceptSignature()

	body := webhookBody(gateway.EventChargeSuccess, order.OrderNumber, 2000)
	require.NoError(suite.T(), suite.svc.HandleWebhook(ctx, body, "sig"))
	require.NoError(suite.T(), suite.svc.HandleWebhook(ctx, body, "sig"))

	got, err := suite.store.GetOrderByID(ctx, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.PaymentStatusPaid, got.PaymentStatus)
	require.Equal(suite.T(), model.OrderStatusCancelled, got.Status)
	require.Equal(suite.T(), model.FulfillmentCancelled, got.Items[0].FulfillmentStatus)

	payment, err := suite.store.GetPaymentByReference(ctx, order.OrderNumber)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.PaymentStatusPaid, payment.Status)
	require.True(suite.T(), payment.RequiresRefund)
	suite.notifier.AssertNotCalled(suite.T(), "PaymentReceived", mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestWebhookAfterGatewayFailureFlagsRefund() {
	ctx := context.Background()
	order := suite.placeOrder(1)
	changed, err := suite.store.MarkOrderFailed(ctx, order.ID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), changed)
	suite.acceptSignature()

	require.NoError(suite.T(), suite.svc.HandleWebhook(ctx, webhookBody(gateway.EventChargeSuccess, order.OrderNumber, 1000), "sig"))

	got, err := suite.store.GetOrderByID(ctx, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.PaymentStatusPaid, got.PaymentStatus)
	require.Equal(suite.T(), model.OrderStatusFailed, got.Status)
	require.Equal(suite.T(), model.FulfillmentPending, got.Items[0].FulfillmentStatus)

	payment, err := suite.store.GetPaymentByReference(ctx, order.OrderNumber)
	require.NoError(suite.T(), err)
	require.True(suite.T(), payment.RequiresRefund)
}

// 付款前已有明細被賣家取消，其餘明細照常進入 processing
func (suite *PaymentServiceTestSuite) TestWebhookAfterItemCancelled() {
	ctx := context.Background()
	other := suite.fx.Product(suite.vendor.ID, "5", 8)
	order := createOrder(suite.T(), suite.store, suite.customer.ID, orderItem(suite.product, 1), orderItem(other, 2))
	require.NoError(suite.T(), suite.store.UpdateOrderItemStatus(ctx, order.Items[1].ID,
		model.FulfillmentPending, model.FulfillmentCancelled))
	require.NoError(suite.T(), suite.store.UpdateOrderStatus(ctx, order.ID, model.OrderStatusPartiallyCancelled))
	suite.acceptSignature()

	require.NoError(suite.T(), suite.svc.HandleWebhook(ctx, webhookBody(gateway.EventChargeSuccess, order.OrderNumber, 2000), "sig"))

	got, err := suite.store.GetOrderByID(ctx, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.PaymentStatusPaid, got.PaymentStatus)
	require.Equal(suite.T(), model.OrderStatusPartiallyCancelled, got.Status)
	require.Equal(suite.T(), model.FulfillmentProcessing, got.Items[0].FulfillmentStatus)
	require.Equal(suite.T(), model.FulfillmentCancelled, got.Items[1].FulfillmentStatus)

	payment, err := suite.store.GetPaymentByReference(ctx, order.OrderNumber)
	require.NoError(suite.T(), err)
	require.True(suite.T(), payment.RequiresRefund)
}
