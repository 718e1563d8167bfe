package enums

import "fmt"

// ReturnStatus maps to the return_status enum in Postgres. A returned
// cylinder record is open while the driver carries the cylinder and closes
// when the destination warehouse receives it.
type ReturnStatus string

const (
	ReturnStatusWithDriver ReturnStatus = "with_driver"
	ReturnStatusReceived   ReturnStatus = "received"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusWithDriver,
	ReturnStatusReceived,
}

// IsValid reports whether the value matches the canonical return status enum.
func (s ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReturnStatus converts raw input into ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}
