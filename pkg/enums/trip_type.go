package enums

import "fmt"

// TripType distinguishes one-way from round-trip transfer bookings.
type TripType string

const (
	TripTypeOneWay    TripType = "one_way"
	TripTypeRoundTrip TripType = "round_trip"
)

var validTripTypes = []TripType{
	TripTypeOneWay,
	TripTypeRoundTrip,
}

// String implements fmt.Stringer.
func (t TripType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TripType.
func (t TripType) IsValid() bool {
	for _, candidate := range validTripTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTripType converts raw input into a TripType.
func ParseTripType(value string) (TripType, error) {
	for _, candidate := range validTripTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trip type %q", value)
}
