package cart

import (
	"testing"
	"time"

	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/types"
	"github.com/shopspring/decimal"
)

func tourItem(tourID, scheduleID, variantID string, adults, children, infants int, unitPrice string) Item {
	return Item{
		Kind:      enums.ProductKindTour,
		ProductID: tourID,
		Title:     "Tour " + tourID,
		UnitPrice: decimal.RequireFromString(unitPrice),
		Quantity:  1,
		Tour: &types.TourDetail{
			TourID:       tourID,
			ScheduleID:   scheduleID,
			VariantID:    variantID,
			Participants: types.ParticipantCounts{Adult: adults, Child: children, Infant: infants},
		},
	}
}

func transferItem(routeID, vehicleID string, pickup time.Time, passengers int, unitPrice string) Item {
	return Item{
		Kind:      enums.ProductKindTransfer,
		ProductID: routeID,
		Title:     "Transfer " + routeID,
		UnitPrice: decimal.RequireFromString(unitPrice),
		Quantity:  1,
		Transfer: &types.TransferDetail{
			RouteID:        routeID,
			VehicleTypeID:  vehicleID,
			TripType:       enums.TripTypeOneWay,
			PickupDateTime: pickup,
			Passengers:     passengers,
		},
	}
}

func eventItem(eventID, performanceID, ticketTypeID string, seatPrices ...string) Item {
	seats := make([]types.Seat, 0, len(seatPrices))
	for i, price := range seatPrices {
		seats = append(seats, types.Seat{
			Row:   "A",
			Seat:  string(rune('1' + i)),
			Price: decimal.RequireFromString(price),
		})
	}
	return Item{
		Kind:      enums.ProductKindEvent,
		ProductID: eventID,
		Title:     "Event " + eventID,
		UnitPrice: decimal.Zero,
		Quantity:  1,
		Event: &types.EventDetail{
			EventID:       eventID,
			PerformanceID: performanceID,
			TicketTypeID:  ticketTypeID,
			Seats:         seats,
		},
	}
}

func TestTotalsEqualSumOfSubtotalsAcrossOperations(t *testing.T) {
	cart := NewCart("sess-1", enums.CurrencyIRR)
	pickup := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	added, err := cart.AddItem(tourItem("t1", "s1", "v1", 2, 1, 1, "100"))
	if err != nil {
		t.Fatalf("add tour: %v", err)
	}
	if _, err := cart.AddItem(transferItem("r1", "veh1", pickup, 3, "80")); err != nil {
		t.Fatalf("add transfer: %v", err)
	}
	if _, err := cart.AddItem(eventItem("e1", "p1", "tt1", "50", "60")); err != nil {
		t.Fatalf("add event: %v", err)
	}

	// tour: 100 * (2 adults + 1 child) = 300; transfer: 80 per
	// vehicle; event: 50 + 60 seats.
	want := decimal.RequireFromString("490")
	if !cart.Total().Equal(want) {
		t.Fatalf("expected total %s, got %s", want, cart.Total())
	}
	if !cart.Total().Equal(cart.Subtotal()) {
		t.Fatalf("total %s != subtotal %s", cart.Total(), cart.Subtotal())
	}

	// tour party of 4 (infant counts for headcount), 1 transfer, 2 seats.
	if got := cart.TotalItems(); got != 7 {
		t.Fatalf("expected 7 total items, got %d", got)
	}

	cart.RemoveItem(added.ID)
	want = decimal.RequireFromString("190")
	if !cart.Total().Equal(want) {
		t.Fatalf("after remove expected %s, got %s", want, cart.Total())
	}

	sum := decimal.Zero
	for _, item := range cart.Items {
		sum = sum.Add(item.Subtotal())
	}
	if !cart.Total().Equal(sum) {
		t.Fatalf("total %s != item sum %s", cart.Total(), sum)
	}
}

func TestAddItemMergesOnDomainIdentity(t *testing.T) {
	cart := NewCart("sess-1", enums.CurrencyIRR)

	if _, err := cart.AddItem(tourItem("t1", "s1", "v1", 2, 0, 0, "100")); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := cart.AddItem(tourItem("t1", "s1", "v1", 2, 0, 0, "100")); err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected identical identities to merge into 1 line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 2 {
		t.Fatalf("expected merged quantity 2, got %d", cart.Items[0].Quantity)
	}

	// A different variant is a different identity.
	if _, err := cart.AddItem(tourItem("t1", "s1", "v2", 2, 0, 0, "120")); err != nil {
		t.Fatalf("third add: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Fatalf("expected distinct variant to append, got %d lines", len(cart.Items))
	}
}

func TestRemoveMissingItemIsNoOp(t *testing.T) {
	cart := NewCart("sess-1", enums.CurrencyIRR)
	if _, err := cart.AddItem(tourItem("t1", "s1", "v1", 1, 0, 0, "100")); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := cart.Total()

	cart.RemoveItem("no-such-id")

	if len(cart.Items) != 1 || !cart.Total().Equal(before) {
		t.Fatalf("cart changed by removing a missing id")
	}
}

func TestUpdateQuantityZeroRemovesNegativeRejected(t *testing.T) {
	cart := NewCart("sess-1", enums.CurrencyIRR)
	added, err := cart.AddItem(tourItem("t1", "s1", "v1", 1, 0, 0, "100"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	id := added.ID

	if err := cart.UpdateQuantity(id, -1); err == nil {
		t.Fatalf("expected rejection for negative quantity")
	} else if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeInvalidQuantity {
		t.Fatalf("expected INVALID_QUANTITY, got %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("rejected update must not change the cart")
	}

	if err := cart.UpdateQuantity(id, 3); err != nil {
		t.Fatalf("update: %v", err)
	}
	if cart.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", cart.Items[0].Quantity)
	}

	if err := cart.UpdateQuantity(id, 0); err != nil {
		t.Fatalf("zero update: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected zero quantity to remove the line")
	}
}

func TestMixedCurrencyRejected(t *testing.T) {
	cart := NewCart("sess-1", enums.CurrencyIRR)
	item := tourItem("t1", "s1", "v1", 1, 0, 0, "100")
	item.Currency = enums.CurrencyUSD

	if _, err := cart.AddItem(item); err == nil {
		t.Fatalf("expected mixed currency rejection")
	}
	if len(cart.Items) != 0 {
		t.Fatalf("rejected add must not change the cart")
	}
}

func TestEventSubtotalSumsSeatsAndOptions(t *testing.T) {
	item := eventItem("e1", "p1", "tt1", "50", "60")
	item.Event.Options = []types.SelectedOption{
		{OptionID: "opt1", Price: decimal.RequireFromString("10"), Quantity: 2},
	}

	// 50 + 60 seats + 10*2 options.
	want := decimal.RequireFromString("130")
	if !item.Subtotal().Equal(want) {
		t.Fatalf("expected %s, got %s", want, item.Subtotal())
	}
}

func TestTransferSubtotalChargesPerVehicle(t *testing.T) {
	pickup := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	item := transferItem("r1", "veh1", pickup, 4, "80")

	// Passengers ride in one vehicle; price does not scale with them.
	want := decimal.RequireFromString("80")
	if !item.Subtotal().Equal(want) {
		t.Fatalf("expected %s, got %s", want, item.Subtotal())
	}
}

func TestTourSubtotalInfantsFree(t *testing.T) {
	item := tourItem("t1", "s1", "v1", 2, 1, 2, "100")
	item.Tour.Options = []types.SelectedOption{
		{OptionID: "lunch", Price: decimal.RequireFromString("15"), Quantity: 3},
	}

	// (2 adults + 1 child) * 100 + lunch 15*3; infants free.
	want := decimal.RequireFromString("345")
	if !item.Subtotal().Equal(want) {
		t.Fatalf("expected %s, got %s", want, item.Subtotal())
	}
}

func TestItemValidateRequiresMatchingDetail(t *testing.T) {
	item := tourItem("t1", "s1", "v1", 1, 0, 0, "100")
	item.Transfer = &types.TransferDetail{RouteID: "r1"}
	if err := item.Validate(); err == nil {
		t.Fatalf("expected rejection for two details")
	}

	item = Item{Kind: enums.ProductKindTour, ProductID: "t1", Quantity: 1, UnitPrice: decimal.Zero}
	if err := item.Validate(); err == nil {
		t.Fatalf("expected rejection for missing detail")
	}
}
