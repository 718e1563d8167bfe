package enums

import "fmt"

// CylinderStatus maps to the cylinder_status enum in Postgres. It tracks
// where a physical cylinder is and what it is doing there.
type CylinderStatus string

const (
	CylinderStatusEmptyInWarehouse     CylinderStatus = "empty_in_warehouse"
	CylinderStatusFullInWarehouse      CylinderStatus = "full_in_warehouse"
	CylinderStatusReservedForOrder     CylinderStatus = "reserved_for_order"
	CylinderStatusReadyToShip          CylinderStatus = "ready_to_ship"
	CylinderStatusInTransit            CylinderStatus = "in_transit"
	CylinderStatusAtCustomerRented     CylinderStatus = "at_customer_rented"
	CylinderStatusAtCustomerOwned      CylinderStatus = "at_customer_owned"
	CylinderStatusReturningToWarehouse CylinderStatus = "returning_to_warehouse"
	CylinderStatusNeedsInspection      CylinderStatus = "needs_inspection"
	CylinderStatusDamaged              CylinderStatus = "damaged"
	CylinderStatusLost                 CylinderStatus = "lost"
)

var validCylinderStatuses = []CylinderStatus{
	CylinderStatusEmptyInWarehouse,
	CylinderStatusFullInWarehouse,
	CylinderStatusReservedForOrder,
	CylinderStatusReadyToShip,
	CylinderStatusInTransit,
	CylinderStatusAtCustomerRented,
	CylinderStatusAtCustomerOwned,
	CylinderStatusReturningToWarehouse,
	CylinderStatusNeedsInspection,
	CylinderStatusDamaged,
	CylinderStatusLost,
}

// IsValid reports whether the value matches the canonical cylinder status enum.
func (s CylinderStatus) IsValid() bool {
	for _, candidate := range validCylinderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCylinderStatus converts raw input into CylinderStatus.
func ParseCylinderStatus(value string) (CylinderStatus, error) {
	for _, candidate := range validCylinderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cylinder status %q", value)
}

// RequiresGasType reports whether entering this status demands a gas type.
func (s CylinderStatus) RequiresGasType() bool {
	switch s {
	case CylinderStatusFullInWarehouse, CylinderStatusReservedForOrder, CylinderStatusReadyToShip:
		return true
	}
	return false
}

// ClearsGasType reports whether entering this status empties the cylinder.
func (s CylinderStatus) ClearsGasType() bool {
	return s == CylinderStatusEmptyInWarehouse
}

// InWarehouse reports whether a cylinder in this status must carry a
// warehouse location and no customer location.
func (s CylinderStatus) InWarehouse() bool {
	switch s {
	case CylinderStatusEmptyInWarehouse, CylinderStatusFullInWarehouse,
		CylinderStatusReservedForOrder, CylinderStatusReadyToShip,
		CylinderStatusNeedsInspection, CylinderStatusDamaged:
		return true
	}
	return false
}

// AtCustomer reports whether a cylinder in this status must carry a customer
// location and no warehouse location.
func (s CylinderStatus) AtCustomer() bool {
	return s == CylinderStatusAtCustomerRented || s == CylinderStatusAtCustomerOwned
}

// RegisterAllowed reports whether a cylinder may be registered directly into
// this status. Workflow-owned statuses are only reachable through the order,
// delivery, and return flows.
func (s CylinderStatus) RegisterAllowed() bool {
	switch s {
	case CylinderStatusEmptyInWarehouse, CylinderStatusFullInWarehouse,
		CylinderStatusNeedsInspection, CylinderStatusDamaged:
		return true
	}
	return false
}

// ManualChangeAllowed reports whether warehouse staff may set this status
// through the registry directly rather than through a workflow entry point.
func (s CylinderStatus) ManualChangeAllowed() bool {
	switch s {
	case CylinderStatusEmptyInWarehouse, CylinderStatusFullInWarehouse,
		CylinderStatusNeedsInspection, CylinderStatusDamaged, CylinderStatusLost:
		return true
	}
	return false
}
