package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignmentStatusLifecycle(t *testing.T) {
	assert.True(t, AssignmentStatusAllocated.CanTransitionTo(AssignmentStatusReadyToShip))
	assert.True(t, AssignmentStatusReadyToShip.CanTransitionTo(AssignmentStatusShipped))
	assert.True(t, AssignmentStatusShipped.CanTransitionTo(AssignmentStatusReceivedByCustomer))
	assert.True(t, AssignmentStatusReceivedByCustomer.CanTransitionTo(AssignmentStatusReturnedToWarehouse))
	assert.True(t, AssignmentStatusReceivedByCustomer.CanTransitionTo(AssignmentStatusRentalClosed))

	assert.False(t, AssignmentStatusAllocated.CanTransitionTo(AssignmentStatusShipped))
	assert.False(t, AssignmentStatusReturnedToWarehouse.CanTransitionTo(AssignmentStatusAllocated))
	assert.False(t, AssignmentStatusRentalClosed.CanTransitionTo(AssignmentStatusReturnedToWarehouse))
}

func TestAssignmentStatusExclusivityLock(t *testing.T) {
	for _, status := range ActiveAssignmentStatuses() {
		assert.Truef(t, status.IsActive(), "%s", status)
	}
	assert.False(t, AssignmentStatusReturnedToWarehouse.IsActive())
	assert.False(t, AssignmentStatusRentalClosed.IsActive())
}

func TestAssignmentStatusDelivered(t *testing.T) {
	assert.True(t, AssignmentStatusShipped.IsDelivered())
	assert.True(t, AssignmentStatusReceivedByCustomer.IsDelivered())
	assert.False(t, AssignmentStatusAllocated.IsDelivered())
	assert.False(t, AssignmentStatusReadyToShip.IsDelivered())
}

func TestDeliveryStatusLifecycle(t *testing.T) {
	assert.True(t, DeliveryStatusAwaitingPickup.CanTransitionTo(DeliveryStatusInTransit))
	assert.True(t, DeliveryStatusAwaitingPickup.CanTransitionTo(DeliveryStatusFailed))
	assert.True(t, DeliveryStatusInTransit.CanTransitionTo(DeliveryStatusCompleted))
	assert.False(t, DeliveryStatusAwaitingPickup.CanTransitionTo(DeliveryStatusCompleted))
	assert.False(t, DeliveryStatusCompleted.CanTransitionTo(DeliveryStatusFailed))
	assert.False(t, DeliveryStatusFailed.CanTransitionTo(DeliveryStatusInTransit))

	assert.True(t, DeliveryStatusAwaitingPickup.IsActive())
	assert.True(t, DeliveryStatusInTransit.IsActive())
	assert.False(t, DeliveryStatusCompleted.IsActive())
	assert.False(t, DeliveryStatusFailed.IsActive())
}
