package types

import (
	"time"

	"github.com/peykantravel/peykan-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// SelectedOption is a priced add-on chosen for a line item.
type SelectedOption struct {
	OptionID string          `json:"option_id"`
	Name     string          `json:"name,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Total returns price multiplied by quantity.
func (o SelectedOption) Total() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// OptionsTotal sums the selected options of a line item.
func OptionsTotal(options []SelectedOption) decimal.Decimal {
	total := decimal.Zero
	for _, opt := range options {
		total = total.Add(opt.Total())
	}
	return total
}

// ParticipantCounts breaks a tour party down by pricing category.
type ParticipantCounts struct {
	Adult  int `json:"adult"`
	Child  int `json:"child"`
	Infant int `json:"infant"`
}

// Total counts every participant including infants.
func (p ParticipantCounts) Total() int {
	return p.Adult + p.Child + p.Infant
}

// Priced counts the participants that pay the unit price. Infants travel free.
func (p ParticipantCounts) Priced() int {
	return p.Adult + p.Child
}

// Seat is one reserved seat of an event booking.
type Seat struct {
	Row     string          `json:"row"`
	Seat    string          `json:"seat"`
	Section string          `json:"section,omitempty"`
	Price   decimal.Decimal `json:"price"`
}

// TourDetail carries the tour-specific configuration of a cart line item.
type TourDetail struct {
	TourID         string            `json:"tour_id"`
	ScheduleID     string            `json:"schedule_id"`
	VariantID      string            `json:"variant_id"`
	Participants   ParticipantCounts `json:"participants"`
	Options        []SelectedOption  `json:"options,omitempty"`
	SpecialRequest string            `json:"special_request,omitempty"`
}

// EventDetail carries the event-specific configuration of a cart line item.
type EventDetail struct {
	EventID             string           `json:"event_id"`
	PerformanceID       string           `json:"performance_id"`
	TicketTypeID        string           `json:"ticket_type_id"`
	Seats               []Seat           `json:"seats,omitempty"`
	Options             []SelectedOption `json:"options,omitempty"`
	Venue               string           `json:"venue,omitempty"`
	Section             string           `json:"section,omitempty"`
	PerformanceDateTime time.Time        `json:"performance_datetime"`
}

// TransferDetail carries the transfer-specific configuration of a cart line item.
type TransferDetail struct {
	RouteID         string           `json:"route_id"`
	VehicleTypeID   string           `json:"vehicle_type_id"`
	TripType        enums.TripType   `json:"trip_type"`
	PickupLocation  string           `json:"pickup_location"`
	DropoffLocation string           `json:"dropoff_location"`
	PickupDateTime  time.Time        `json:"pickup_datetime"`
	Passengers      int              `json:"passengers"`
	Options         []SelectedOption `json:"options,omitempty"`
}
