package enums

import "fmt"

// MovementType maps to the movement_type enum in Postgres. One stock
// movement row is appended per cylinder per physical or state change.
type MovementType string

const (
	MovementTypeReceivedNew           MovementType = "received_new"
	MovementTypeRefill                MovementType = "refill"
	MovementTypeWarehouseTransfer     MovementType = "warehouse_transfer"
	MovementTypeAllocatedToOrder      MovementType = "allocated_to_order"
	MovementTypeDispatchedForDelivery MovementType = "dispatched_for_delivery"
	MovementTypeHandedToCustomer      MovementType = "handed_to_customer"
	MovementTypePickedUpFromCustomer  MovementType = "picked_up_from_customer"
	MovementTypeReceivedAtWarehouse   MovementType = "received_at_warehouse"
	MovementTypeStatusUpdate          MovementType = "status_update"
)

var validMovementTypes = []MovementType{
	MovementTypeReceivedNew,
	MovementTypeRefill,
	MovementTypeWarehouseTransfer,
	MovementTypeAllocatedToOrder,
	MovementTypeDispatchedForDelivery,
	MovementTypeHandedToCustomer,
	MovementTypePickedUpFromCustomer,
	MovementTypeReceivedAtWarehouse,
	MovementTypeStatusUpdate,
}

// IsValid reports whether the value matches the canonical movement type enum.
func (t MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
