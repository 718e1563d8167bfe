package enums

import "fmt"

// DeliveryStatus maps to the delivery_status enum in Postgres.
type DeliveryStatus string

const (
	DeliveryStatusAwaitingPickup DeliveryStatus = "awaiting_pickup"
	DeliveryStatusInTransit      DeliveryStatus = "in_transit"
	DeliveryStatusCompleted      DeliveryStatus = "completed"
	DeliveryStatusFailed         DeliveryStatus = "failed"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusAwaitingPickup,
	DeliveryStatusInTransit,
	DeliveryStatusCompleted,
	DeliveryStatusFailed,
}

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusAwaitingPickup: {DeliveryStatusInTransit, DeliveryStatusFailed},
	DeliveryStatusInTransit:      {DeliveryStatusCompleted, DeliveryStatusFailed},
}

// IsValid reports whether the value matches the canonical delivery status enum.
func (s DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}

// CanTransitionTo reports whether the transition table allows the move.
func (s DeliveryStatus) CanTransitionTo(target DeliveryStatus) bool {
	for _, candidate := range deliveryTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// IsActive reports whether the delivery still has work outstanding.
func (s DeliveryStatus) IsActive() bool {
	return s == DeliveryStatusAwaitingPickup || s == DeliveryStatusInTransit
}
