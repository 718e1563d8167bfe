package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusNew                OrderStatus = "new"
	OrderStatusSalesConfirmed     OrderStatus = "sales_confirmed"
	OrderStatusCancelledBySales   OrderStatus = "cancelled_by_sales"
	OrderStatusWarehousePreparing OrderStatus = "warehouse_preparing"
	OrderStatusReadyToShip        OrderStatus = "ready_to_ship"
	OrderStatusDriverAssigned     OrderStatus = "driver_assigned"
	OrderStatusShipped            OrderStatus = "shipped"
	OrderStatusCompleted          OrderStatus = "completed"
	OrderStatusCancelledBySystem  OrderStatus = "cancelled_by_system"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusSalesConfirmed,
	OrderStatusCancelledBySales,
	OrderStatusWarehousePreparing,
	OrderStatusReadyToShip,
	OrderStatusDriverAssigned,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelledBySystem,
}

// orderTransitions is the role-independent transition table. Permission
// checks live with the caller; the core only enforces legality.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:                {OrderStatusSalesConfirmed, OrderStatusCancelledBySales},
	OrderStatusSalesConfirmed:     {OrderStatusWarehousePreparing, OrderStatusCancelledBySales, OrderStatusCancelledBySystem},
	OrderStatusWarehousePreparing: {OrderStatusReadyToShip, OrderStatusCancelledBySystem},
	OrderStatusReadyToShip:        {OrderStatusDriverAssigned, OrderStatusCancelledBySystem},
	OrderStatusDriverAssigned:     {OrderStatusShipped, OrderStatusCancelledBySystem},
	OrderStatusShipped:            {OrderStatusCompleted, OrderStatusCancelledBySystem},
}

// IsValid reports whether the value matches the canonical order status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// CanTransitionTo reports whether the transition table allows moving from
// the current status to the target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from this status.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// Cancellable reports whether an order in this status may still be
// cancelled. Once shipped, cancellation is no longer possible.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case OrderStatusNew, OrderStatusSalesConfirmed, OrderStatusWarehousePreparing,
		OrderStatusReadyToShip, OrderStatusDriverAssigned:
		return true
	}
	return false
}
