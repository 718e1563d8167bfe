package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCylinderStatusGasTypeRules(t *testing.T) {
	assert.True(t, CylinderStatusFullInWarehouse.RequiresGasType())
	assert.True(t, CylinderStatusReservedForOrder.RequiresGasType())
	assert.True(t, CylinderStatusReadyToShip.RequiresGasType())
	assert.False(t, CylinderStatusEmptyInWarehouse.RequiresGasType())
	assert.False(t, CylinderStatusDamaged.RequiresGasType())

	assert.True(t, CylinderStatusEmptyInWarehouse.ClearsGasType())
	assert.False(t, CylinderStatusFullInWarehouse.ClearsGasType())
}

func TestCylinderStatusLocationRules(t *testing.T) {
	assert.True(t, CylinderStatusFullInWarehouse.InWarehouse())
	assert.True(t, CylinderStatusDamaged.InWarehouse())
	assert.False(t, CylinderStatusInTransit.InWarehouse())
	assert.False(t, CylinderStatusLost.InWarehouse())

	assert.True(t, CylinderStatusAtCustomerRented.AtCustomer())
	assert.True(t, CylinderStatusAtCustomerOwned.AtCustomer())
	assert.False(t, CylinderStatusReturningToWarehouse.AtCustomer())
}

func TestCylinderStatusRegisterAndManualChange(t *testing.T) {
	for _, status := range []CylinderStatus{
		CylinderStatusEmptyInWarehouse,
		CylinderStatusFullInWarehouse,
		CylinderStatusNeedsInspection,
		CylinderStatusDamaged,
	} {
		assert.Truef(t, status.RegisterAllowed(), "register %s", status)
		assert.Truef(t, status.ManualChangeAllowed(), "manual %s", status)
	}

	// lost can be set manually but never registered
	assert.True(t, CylinderStatusLost.ManualChangeAllowed())
	assert.False(t, CylinderStatusLost.RegisterAllowed())

	for _, status := range []CylinderStatus{
		CylinderStatusReservedForOrder,
		CylinderStatusReadyToShip,
		CylinderStatusInTransit,
		CylinderStatusAtCustomerRented,
		CylinderStatusAtCustomerOwned,
		CylinderStatusReturningToWarehouse,
	} {
		assert.Falsef(t, status.RegisterAllowed(), "register %s", status)
		assert.Falsef(t, status.ManualChangeAllowed(), "manual %s", status)
	}
}
