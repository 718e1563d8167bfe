package enums

import "fmt"

// AssignmentStatus maps to the assignment_status enum in Postgres. It tracks
// one cylinder's journey through a single order item.
type AssignmentStatus string

const (
	AssignmentStatusAllocated           AssignmentStatus = "allocated"
	AssignmentStatusReadyToShip         AssignmentStatus = "ready_to_ship"
	AssignmentStatusShipped             AssignmentStatus = "shipped"
	AssignmentStatusReceivedByCustomer  AssignmentStatus = "received_by_customer"
	AssignmentStatusReturnedToWarehouse AssignmentStatus = "returned_to_warehouse"
	AssignmentStatusRentalClosed        AssignmentStatus = "rental_closed"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusAllocated,
	AssignmentStatusReadyToShip,
	AssignmentStatusShipped,
	AssignmentStatusReceivedByCustomer,
	AssignmentStatusReturnedToWarehouse,
	AssignmentStatusRentalClosed,
}

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentStatusAllocated:          {AssignmentStatusReadyToShip},
	AssignmentStatusReadyToShip:        {AssignmentStatusShipped},
	AssignmentStatusShipped:            {AssignmentStatusReceivedByCustomer},
	AssignmentStatusReceivedByCustomer: {AssignmentStatusReturnedToWarehouse, AssignmentStatusRentalClosed},
}

// ActiveAssignmentStatuses lists the statuses that count toward the
// one-active-assignment-per-cylinder exclusivity lock.
func ActiveAssignmentStatuses() []AssignmentStatus {
	return []AssignmentStatus{
		AssignmentStatusAllocated,
		AssignmentStatusReadyToShip,
		AssignmentStatusShipped,
		AssignmentStatusReceivedByCustomer,
	}
}

// IsValid reports whether the value matches the canonical assignment status enum.
func (s AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAssignmentStatus converts raw input into AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}

// CanTransitionTo reports whether advancing to target is legal.
func (s AssignmentStatus) CanTransitionTo(target AssignmentStatus) bool {
	for _, candidate := range assignmentTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// IsActive reports whether this status still holds the exclusivity lock.
func (s AssignmentStatus) IsActive() bool {
	for _, candidate := range ActiveAssignmentStatuses() {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsDelivered reports whether the cylinder reached the customer under this
// assignment.
func (s AssignmentStatus) IsDelivered() bool {
	return s == AssignmentStatusShipped || s == AssignmentStatusReceivedByCustomer
}
