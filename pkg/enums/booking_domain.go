package enums

import "fmt"

// BookingDomain names the product family a booking wizard collects input for.
type BookingDomain string

const (
	BookingDomainTour     BookingDomain = "tour"
	BookingDomainEvent    BookingDomain = "event"
	BookingDomainTransfer BookingDomain = "transfer"
)

var validBookingDomains = []BookingDomain{
	BookingDomainTour,
	BookingDomainEvent,
	BookingDomainTransfer,
}

// String implements fmt.Stringer.
func (d BookingDomain) String() string {
	return string(d)
}

// IsValid reports whether the value is a known BookingDomain.
func (d BookingDomain) IsValid() bool {
	for _, candidate := range validBookingDomains {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseBookingDomain converts raw input into a BookingDomain.
func ParseBookingDomain(value string) (BookingDomain, error) {
	for _, candidate := range validBookingDomains {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking domain %q", value)
}
