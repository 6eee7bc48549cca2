package enums

import "fmt"

// ProductKind discriminates the cart's tagged-union line items.
type ProductKind string

const (
	ProductKindTour     ProductKind = "tour"
	ProductKindEvent    ProductKind = "event"
	ProductKindTransfer ProductKind = "transfer"
)

var validProductKinds = []ProductKind{
	ProductKindTour,
	ProductKindEvent,
	ProductKindTransfer,
}

// String implements fmt.Stringer.
func (k ProductKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ProductKind.
func (k ProductKind) IsValid() bool {
	for _, candidate := range validProductKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseProductKind converts raw input into a ProductKind.
func ParseProductKind(value string) (ProductKind, error) {
	for _, candidate := range validProductKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product kind %q", value)
}
