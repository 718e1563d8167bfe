package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusNew, OrderStatusSalesConfirmed, true},
		{OrderStatusNew, OrderStatusCancelledBySales, true},
		{OrderStatusNew, OrderStatusCancelledBySystem, false},
		{OrderStatusNew, OrderStatusShipped, false},
		{OrderStatusSalesConfirmed, OrderStatusWarehousePreparing, true},
		{OrderStatusSalesConfirmed, OrderStatusCancelledBySystem, true},
		{OrderStatusWarehousePreparing, OrderStatusReadyToShip, true},
		{OrderStatusWarehousePreparing, OrderStatusCancelledBySales, false},
		{OrderStatusReadyToShip, OrderStatusDriverAssigned, true},
		{OrderStatusDriverAssigned, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusCompleted, true},
		{OrderStatusShipped, OrderStatusCancelledBySales, false},
		{OrderStatusCompleted, OrderStatusNew, false},
		{OrderStatusCancelledBySales, OrderStatusSalesConfirmed, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCancelledBySales.IsTerminal())
	assert.True(t, OrderStatusCancelledBySystem.IsTerminal())
	assert.False(t, OrderStatusNew.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
}

func TestOrderStatusCancellable(t *testing.T) {
	assert.True(t, OrderStatusNew.Cancellable())
	assert.True(t, OrderStatusReadyToShip.Cancellable())
	assert.True(t, OrderStatusDriverAssigned.Cancellable())
	assert.False(t, OrderStatusShipped.Cancellable())
	assert.False(t, OrderStatusCompleted.Cancellable())
	assert.False(t, OrderStatusCancelledBySystem.Cancellable())
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("warehouse_preparing")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusWarehousePreparing, status)

	_, err = ParseOrderStatus("preparing")
	assert.Error(t, err)
}
