package fulfillment

import (
	"errors"
	"testing"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fs = model.FulfillmentStatus

func TestRollUp(t *testing.T) {
	tests := []struct {
		items    []fs
		expected model.OrderStatus
	}{
		{[]fs{model.FulfillmentReceived, model.FulfillmentReceived}, model.OrderStatusCompleted},
		{[]fs{model.FulfillmentReceived, model.FulfillmentShipped}, model.OrderStatusPartiallyReceived},
		{[]fs{model.FulfillmentCancelled, model.FulfillmentCancelled}, model.OrderStatusCancelled},
		{[]fs{model.FulfillmentCancelled, model.FulfillmentDelivered}, model.OrderStatusPartiallyCancelled},
		{[]fs{model.FulfillmentDelivered, model.FulfillmentDelivered}, model.OrderStatusDelivered},
		{[]fs{model.FulfillmentDelivered, model.FulfillmentShipped}, model.OrderStatusPartiallyDelivered},
		{[]fs{model.FulfillmentShipped, model.FulfillmentShipped}, model.OrderStatusShipped},
		{[]fs{model.FulfillmentShipped, model.FulfillmentProcessing}, model.OrderStatusPartiallyShipped},
		{[]fs{model.FulfillmentProcessing, model.FulfillmentPending}, model.OrderStatusProcessing},
		{[]fs{model.FulfillmentPending, model.FulfillmentPending}, model.OrderStatusPending},
		{[]fs{model.FulfillmentReturned, model.FulfillmentReturned}, model.OrderStatusClosed},
		{[]fs{model.FulfillmentReturned, model.FulfillmentReceived}, model.OrderStatusPartiallyReceived},
		{nil, model.OrderStatusPending},
	}

	for _, tt := range tests {
		first := RollUp(tt.items)
		assert.Equal(t, tt.expected, first, "items %v", tt.items)
		// 重算結果不變
		assert.Equal(t, first, RollUp(tt.items))
	}
}

func TestRollUpIgnoresOrder(t *testing.T) {
	a := []fs{model.FulfillmentShipped, model.FulfillmentCancelled, model.FulfillmentPending}
	b := []fs{model.FulfillmentPending, model.FulfillmentShipped, model.FulfillmentCancelled}
	require.Equal(t, RollUp(a), RollUp(b))
}

func TestCanTransitionEdges(t *testing.T) {
	require.NoError(t, CanTransition(constants.RoleAdmin, model.FulfillmentPending, model.FulfillmentProcessing))
	require.NoError(t, CanTransition(constants.RoleAdmin, model.FulfillmentDelivered, model.FulfillmentReturned))

	err := CanTransition(constants.RoleAdmin, model.FulfillmentPending, model.FulfillmentDelivered)
	require.True(t, errors.Is(err, apperr.ErrInvalidTransition))
	require.Equal(t, 400, apperr.From(err).Status)
	assert.Contains(t, err.Error(), "pending")
	assert.Contains(t, err.Error(), "delivered")

	err = CanTransition(constants.RoleAdmin, model.FulfillmentCancelled, model.FulfillmentProcessing)
	require.True(t, errors.Is(err, apperr.ErrInvalidTransition))

	err = CanTransition(constants.RoleAdmin, model.FulfillmentPending, "bogus")
	require.True(t, errors.Is(err, apperr.ErrInvalidTransition))

	require.True(t, IsTerminal(model.FulfillmentCancelled))
	require.True(t, IsTerminal(model.FulfillmentReturned))
	require.False(t, IsTerminal(model.FulfillmentShipped))
}

func TestCanTransitionCustomer(t *testing.T) {
	require.NoError(t, CanTransition(constants.RoleCustomer, model.FulfillmentShipped, model.FulfillmentReceived))
	require.NoError(t, CanTransition(constants.RoleCustomer, model.FulfillmentDelivered, model.FulfillmentReceived))

	err := CanTransition(constants.RoleCustomer, model.FulfillmentProcessing, model.FulfillmentShipped)
	require.Error(t, err)
	require.Equal(t, 403, apperr.From(err).Status)
	assert.Contains(t, err.Error(), "shipped")
}

func TestCanTransitionVendor(t *testing.T) {
	require.NoError(t, CanTransition(constants.RoleVendor, model.FulfillmentPending, model.FulfillmentProcessing))
	require.NoError(t, CanTransition(constants.RoleVendor, model.FulfillmentProcessing, model.FulfillmentShipped))
	require.NoError(t, CanTransition(constants.RoleVendor, model.FulfillmentShipped, model.FulfillmentDelivered))
	require.NoError(t, CanTransition(constants.RoleVendor, model.FulfillmentProcessing, model.FulfillmentCancelled))
	require.NoError(t, CanTransition(constants.RoleVendor, model.FulfillmentReceived, model.FulfillmentReturned))

	err := CanTransition(constants.RoleVendor, model.FulfillmentDelivered, model.FulfillmentReceived)
	require.Equal(t, 403, apperr.From(err).Status)
	require.Equal(t, "INVALID_TRANSITION", apperr.From(err).Code)

	err = CanTransition(constants.RoleGuest, model.FulfillmentDelivered, model.FulfillmentReceived)
	require.Equal(t, 403, apperr.From(err).Status)
}
