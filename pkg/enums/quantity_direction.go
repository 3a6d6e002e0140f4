package enums

import "fmt"

// QuantityDirection is the relative change requested for a cart line.
type QuantityDirection string

const (
	QuantityIncrease QuantityDirection = "increase"
	QuantityDecrease QuantityDirection = "decrease"
)

// String implements fmt.Stringer.
func (q QuantityDirection) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuantityDirection.
func (q QuantityDirection) IsValid() bool {
	return q == QuantityIncrease || q == QuantityDecrease
}

// ParseQuantityDirection converts raw input into a QuantityDirection.
func ParseQuantityDirection(value string) (QuantityDirection, error) {
	switch QuantityDirection(value) {
	case QuantityIncrease:
		return QuantityIncrease, nil
	case QuantityDecrease:
		return QuantityDecrease, nil
	}
	return "", fmt.Errorf("invalid quantity direction %q", value)
}
