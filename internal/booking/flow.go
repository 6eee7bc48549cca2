package booking

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

// Draft accumulates validated step input for one booking flow. It is a
// superset of the per-domain fields; only the fields of the draft's
// domain are ever populated.
type Draft struct {
	Domain    enums.BookingDomain `json:"domain"`
	SessionID string              `json:"session_id"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`

	// transfer
	RouteID       string `json:"route_id,omitempty"`
	VehicleTypeID string `json:"vehicle_type_id,omitempty"`
	PickupDate    string `json:"pickup_date,omitempty"`
	PickupTime    string `json:"pickup_time,omitempty"`
	Passengers    int    `json:"passengers,omitempty"`

	// tour
	TourID         string `json:"tour_id,omitempty"`
	ScheduleID     string `json:"schedule_id,omitempty"`
	VariantID      string `json:"variant_id,omitempty"`
	Adults         int    `json:"adults,omitempty"`
	Children       int    `json:"children,omitempty"`
	Infants        int    `json:"infants,omitempty"`
	SpecialRequest string `json:"special_request,omitempty"`

	// event
	EventID       string                   `json:"event_id,omitempty"`
	PerformanceID string                   `json:"performance_id,omitempty"`
	TicketTypeID  string                   `json:"ticket_type_id,omitempty"`
	Seats         []upstream.SeatSelection `json:"seats,omitempty"`

	// shared
	Options []upstream.BookingOption `json:"options,omitempty"`
	Contact *upstream.BookingContact `json:"contact,omitempty"`
}

// Flow is the serializable state of one booking wizard: the draft plus
// the index of the next step to complete.
type Flow struct {
	Domain       enums.BookingDomain `json:"domain"`
	CurrentIndex int                 `json:"current_index"`
	Draft        Draft               `json:"draft"`
	Completed    bool                `json:"completed"`
	BookingID    string              `json:"booking_id,omitempty"`
}

// NewFlow starts an empty flow for a domain.
func NewFlow(domain enums.BookingDomain, sessionID string, now time.Time) (*Flow, error) {
	if _, err := stepDefsFor(domain); err != nil {
		return nil, err
	}
	return &Flow{
		Domain: domain,
		Draft: Draft{
			Domain:    domain,
			SessionID: sessionID,
			CreatedAt: now.UTC(),
			UpdatedAt: now.UTC(),
		},
	}, nil
}

// Steps returns the flow's ordered step keys.
func (f *Flow) Steps() []StepKey {
	keys, _ := StepsFor(f.Domain)
	return keys
}

// CurrentStep returns the key of the next step to complete. Once every
// input step is done this is the summary step.
func (f *Flow) CurrentStep() StepKey {
	steps := f.Steps()
	if f.CurrentIndex >= len(steps) {
		return steps[len(steps)-1]
	}
	return steps[f.CurrentIndex]
}

// AtSummary reports whether every input step has been completed.
func (f *Flow) AtSummary() bool {
	return f.CurrentStep() == StepSummary
}

func (f *Flow) stepIndex(key StepKey) (int, error) {
	for i, s := range f.Steps() {
		if s == key {
			return i, nil
		}
	}
	return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("step %q not part of %s booking", key, f.Domain))
}

// SubmitStep validates and applies one step's payload. Earlier steps
// may be resubmitted; a step past the current one is rejected so input
// cannot skip ahead. On success the flow advances to the step after
// the submitted one, never regressing.
func (f *Flow) SubmitStep(key StepKey, raw json.RawMessage, now time.Time) error {
	if f.Completed {
		return pkgerrors.New(pkgerrors.CodeConflict, "booking already confirmed")
	}
	idx, err := f.stepIndex(key)
	if err != nil {
		return err
	}
	if key == StepSummary {
		return pkgerrors.New(pkgerrors.CodeValidation, "summary accepts no input")
	}
	if idx > f.CurrentIndex {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("step %q is not reachable yet, current step is %q", key, f.CurrentStep()))
	}

	defs, err := stepDefsFor(f.Domain)
	if err != nil {
		return err
	}
	def := defs[idx]
	payload, err := decodeStepPayload(def, raw)
	if err != nil {
		return err
	}
	if def.apply != nil {
		def.apply(&f.Draft, payload)
	}
	f.Draft.UpdatedAt = now.UTC()
	if idx+1 > f.CurrentIndex {
		f.CurrentIndex = idx + 1
	}
	return nil
}

// Back moves the current step one position earlier, keeping all
// collected draft data so the step can be edited and resubmitted.
func (f *Flow) Back() {
	if f.CurrentIndex > 0 {
		f.CurrentIndex--
	}
}

// transferRequest builds the backend request for a completed transfer
// draft.
func (f *Flow) transferRequest() *upstream.TransferBookingRequest {
	options := f.Draft.Options
	if options == nil {
		options = []upstream.BookingOption{}
	}
	return &upstream.TransferBookingRequest{
		Route:      f.Draft.RouteID,
		Vehicle:    f.Draft.VehicleTypeID,
		PickupDate: f.Draft.PickupDate,
		Passengers: f.Draft.Passengers,
		Options:    options,
		Contact:    f.Draft.Contact,
	}
}

func (f *Flow) tourRequest() *upstream.TourBookingRequest {
	options := f.Draft.Options
	if options == nil {
		options = []upstream.BookingOption{}
	}
	return &upstream.TourBookingRequest{
		TourID:         f.Draft.TourID,
		ScheduleID:     f.Draft.ScheduleID,
		VariantID:      f.Draft.VariantID,
		Adults:         f.Draft.Adults,
		Children:       f.Draft.Children,
		Infants:        f.Draft.Infants,
		Options:        options,
		SpecialRequest: f.Draft.SpecialRequest,
		Contact:        f.Draft.Contact,
	}
}

func (f *Flow) eventRequest() *upstream.EventBookingRequest {
	options := f.Draft.Options
	if options == nil {
		options = []upstream.BookingOption{}
	}
	return &upstream.EventBookingRequest{
		EventID:       f.Draft.EventID,
		PerformanceID: f.Draft.PerformanceID,
		TicketTypeID:  f.Draft.TicketTypeID,
		Seats:         f.Draft.Seats,
		Options:       options,
		Contact:       f.Draft.Contact,
	}
}
