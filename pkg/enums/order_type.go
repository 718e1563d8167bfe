package enums

import "fmt"

// OrderType maps to the order_type enum in Postgres. Rentals come back;
// purchases transfer ownership of the cylinder to the customer.
type OrderType string

const (
	OrderTypeRental   OrderType = "rental"
	OrderTypePurchase OrderType = "purchase"
)

var validOrderTypes = []OrderType{OrderTypeRental, OrderTypePurchase}

// IsValid reports whether the value matches the canonical order type enum.
func (t OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOrderType converts raw input into OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
