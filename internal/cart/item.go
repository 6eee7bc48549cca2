// Package cart implements the storefront cart: a tagged-union line
// item model with exhaustive per-kind dispatch, derived totals, and
// sync against the booking backend with server-wins reconciliation.
package cart

import (
	"fmt"
	"strings"

	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// Item is one cart line. Kind is the discriminant; exactly one of
// Tour, Event and Transfer is non-nil and must match it.
type Item struct {
	ID        string            `json:"id"`
	Kind      enums.ProductKind `json:"product_type"`
	ProductID string            `json:"product_id"`
	Title     string            `json:"title"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Currency  enums.Currency    `json:"currency"`
	Quantity  int               `json:"quantity"`

	// Display-only metadata.
	Image       *string `json:"image,omitempty"`
	Duration    *string `json:"duration,omitempty"`
	Location    *string `json:"location,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	VariantName *string `json:"variant_name,omitempty"`

	Tour     *types.TourDetail     `json:"tour,omitempty"`
	Event    *types.EventDetail    `json:"event,omitempty"`
	Transfer *types.TransferDetail `json:"transfer,omitempty"`
}

// Validate checks the discriminant against the populated detail.
func (i Item) Validate() error {
	if !i.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown product kind %q", i.Kind))
	}
	if strings.TrimSpace(i.ProductID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if i.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be positive")
	}
	if i.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}

	switch i.Kind {
	case enums.ProductKindTour:
		if i.Tour == nil || i.Event != nil || i.Transfer != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "tour item requires exactly the tour detail")
		}
		if i.Tour.Participants.Priced() <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "tour item requires at least one paying participant")
		}
	case enums.ProductKindEvent:
		if i.Event == nil || i.Tour != nil || i.Transfer != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "event item requires exactly the event detail")
		}
		if len(i.Event.Seats) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "event item requires at least one seat")
		}
	case enums.ProductKindTransfer:
		if i.Transfer == nil || i.Tour != nil || i.Event != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "transfer item requires exactly the transfer detail")
		}
		if i.Transfer.Passengers <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "transfer item requires at least one passenger")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unhandled product kind %q", i.Kind))
	}
	return nil
}

// Subtotal prices the line by kind. Tours charge the unit price per
// paying participant (infants free) plus options. Events sum seat
// prices plus options. Transfers charge the unit price per vehicle,
// not per passenger, plus options. Quantity multiplies everything but
// seats, which are already enumerated.
func (i Item) Subtotal() decimal.Decimal {
	qty := decimal.NewFromInt(int64(i.Quantity))

	switch i.Kind {
	case enums.ProductKindTour:
		if i.Tour == nil {
			return decimal.Zero
		}
		perBooking := i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Tour.Participants.Priced())))
		perBooking = perBooking.Add(types.OptionsTotal(i.Tour.Options))
		return perBooking.Mul(qty)
	case enums.ProductKindEvent:
		if i.Event == nil {
			return decimal.Zero
		}
		seats := decimal.Zero
		for _, seat := range i.Event.Seats {
			seats = seats.Add(seat.Price)
		}
		return seats.Add(types.OptionsTotal(i.Event.Options).Mul(qty))
	case enums.ProductKindTransfer:
		if i.Transfer == nil {
			return decimal.Zero
		}
		perTrip := i.UnitPrice.Add(types.OptionsTotal(i.Transfer.Options))
		return perTrip.Mul(qty)
	default:
		return decimal.Zero
	}
}

// UnitCount is the item's contribution to the cart item counter:
// participants for tours, seats for events, quantity for transfers.
func (i Item) UnitCount() int {
	switch i.Kind {
	case enums.ProductKindTour:
		if i.Tour == nil {
			return 0
		}
		return i.Tour.Participants.Total() * i.Quantity
	case enums.ProductKindEvent:
		if i.Event == nil {
			return 0
		}
		return len(i.Event.Seats)
	case enums.ProductKindTransfer:
		return i.Quantity
	default:
		return 0
	}
}

// IdentityKey is the domain identity used for merging. Two adds with
// the same key collapse into one line with a summed quantity.
func (i Item) IdentityKey() string {
	switch i.Kind {
	case enums.ProductKindTour:
		if i.Tour == nil {
			return ""
		}
		return fmt.Sprintf("tour:%s:%s:%s", i.Tour.TourID, i.Tour.ScheduleID, i.Tour.VariantID)
	case enums.ProductKindEvent:
		if i.Event == nil {
			return ""
		}
		return fmt.Sprintf("event:%s:%s:%s", i.Event.EventID, i.Event.PerformanceID, i.Event.TicketTypeID)
	case enums.ProductKindTransfer:
		if i.Transfer == nil {
			return ""
		}
		return fmt.Sprintf("transfer:%s:%s:%s",
			i.Transfer.RouteID, i.Transfer.VehicleTypeID, i.Transfer.PickupDateTime.UTC().Format("2006-01-02T15:04"))
	default:
		return ""
	}
}

// merge absorbs another line with the same identity. Quantities sum;
// event seat lists concatenate since each seat is unique.
func (i *Item) merge(other Item) {
	i.Quantity += other.Quantity
	if i.Kind == enums.ProductKindEvent && i.Event != nil && other.Event != nil {
		i.Event.Seats = append(i.Event.Seats, other.Event.Seats...)
	}
}
