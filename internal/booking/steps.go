// Package booking implements the multi-step booking wizard: an ordered
// step list per product domain, a draft accumulating validated input,
// and confirmation against the backend once every step is complete.
package booking

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

// StepKey names one step of a booking flow.
type StepKey string

const (
	StepRoute        StepKey = "route"
	StepVehicle      StepKey = "vehicle"
	StepDatetime     StepKey = "datetime"
	StepPassengers   StepKey = "passengers"
	StepSchedule     StepKey = "schedule"
	StepParticipants StepKey = "participants"
	StepPerformance  StepKey = "performance"
	StepSeats        StepKey = "seats"
	StepOptions      StepKey = "options"
	StepContact      StepKey = "contact"
	StepSummary      StepKey = "summary"
)

// stepDef binds a step key to its payload prototype and the merge into
// the draft. Steps with a nil prototype collect no input (summary).
type stepDef struct {
	key       StepKey
	prototype func() any
	apply     func(draft *Draft, payload any)
}

// StepsFor returns the ordered step list for a domain.
func StepsFor(domain enums.BookingDomain) ([]StepKey, error) {
	defs, err := stepDefsFor(domain)
	if err != nil {
		return nil, err
	}
	keys := make([]StepKey, 0, len(defs))
	for _, def := range defs {
		keys = append(keys, def.key)
	}
	return keys, nil
}

func stepDefsFor(domain enums.BookingDomain) ([]stepDef, error) {
	switch domain {
	case enums.BookingDomainTransfer:
		return transferSteps, nil
	case enums.BookingDomainTour:
		return tourSteps, nil
	case enums.BookingDomainEvent:
		return eventSteps, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown booking domain %q", domain))
	}
}

type routePayload struct {
	Route string `json:"route" validate:"required"`
}

type vehiclePayload struct {
	Vehicle string `json:"vehicle" validate:"required"`
}

type datetimePayload struct {
	PickupDate string `json:"pickup_date" validate:"required,datetime=2006-01-02"`
	PickupTime string `json:"pickup_time,omitempty" validate:"omitempty,datetime=15:04"`
}

type passengersPayload struct {
	Passengers int `json:"passengers" validate:"required,gt=0"`
}

type schedulePayload struct {
	Tour     string `json:"tour" validate:"required"`
	Schedule string `json:"schedule" validate:"required"`
	Variant  string `json:"variant,omitempty"`
}

type participantsPayload struct {
	Adults         int    `json:"adults" validate:"required,gt=0"`
	Children       int    `json:"children" validate:"gte=0"`
	Infants        int    `json:"infants" validate:"gte=0"`
	SpecialRequest string `json:"special_request,omitempty" validate:"omitempty,max=500"`
}

type performancePayload struct {
	Event       string `json:"event" validate:"required"`
	Performance string `json:"performance" validate:"required"`
	TicketType  string `json:"ticket_type" validate:"required"`
}

type seatsPayload struct {
	Seats []upstream.SeatSelection `json:"seats" validate:"required,min=1,dive"`
}

type optionsPayload struct {
	Options []upstream.BookingOption `json:"options" validate:"omitempty,dive"`
}

// Contact fields are optional for transfers (the account profile is
// used when absent) but validated for shape when present.
type contactPayload struct {
	FullName string `json:"full_name,omitempty" validate:"omitempty,min=2,max=128"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,min=5,max=32"`
}

var transferSteps = []stepDef{
	{
		key:       StepRoute,
		prototype: func() any { return &routePayload{} },
		apply: func(d *Draft, p any) {
			d.RouteID = p.(*routePayload).Route
		},
	},
	{
		key:       StepVehicle,
		prototype: func() any { return &vehiclePayload{} },
		apply: func(d *Draft, p any) {
			d.VehicleTypeID = p.(*vehiclePayload).Vehicle
		},
	},
	{
		key:       StepDatetime,
		prototype: func() any { return &datetimePayload{} },
		apply: func(d *Draft, p any) {
			payload := p.(*datetimePayload)
			d.PickupDate = payload.PickupDate
			d.PickupTime = payload.PickupTime
		},
	},
	{
		key:       StepPassengers,
		prototype: func() any { return &passengersPayload{} },
		apply: func(d *Draft, p any) {
			d.Passengers = p.(*passengersPayload).Passengers
		},
	},
	{key: StepOptions, prototype: func() any { return &optionsPayload{} }, apply: applyOptions},
	{key: StepContact, prototype: func() any { return &contactPayload{} }, apply: applyContact},
	{key: StepSummary},
}

var tourSteps = []stepDef{
	{
		key:       StepSchedule,
		prototype: func() any { return &schedulePayload{} },
		apply: func(d *Draft, p any) {
			payload := p.(*schedulePayload)
			d.TourID = payload.Tour
			d.ScheduleID = payload.Schedule
			d.VariantID = payload.Variant
		},
	},
	{
		key:       StepParticipants,
		prototype: func() any { return &participantsPayload{} },
		apply: func(d *Draft, p any) {
			payload := p.(*participantsPayload)
			d.Adults = payload.Adults
			d.Children = payload.Children
			d.Infants = payload.Infants
			d.SpecialRequest = payload.SpecialRequest
		},
	},
	{key: StepOptions, prototype: func() any { return &optionsPayload{} }, apply: applyOptions},
	{key: StepContact, prototype: func() any { return &contactPayload{} }, apply: applyContact},
	{key: StepSummary},
}

var eventSteps = []stepDef{
	{
		key:       StepPerformance,
		prototype: func() any { return &performancePayload{} },
		apply: func(d *Draft, p any) {
			payload := p.(*performancePayload)
			d.EventID = payload.Event
			d.PerformanceID = payload.Performance
			d.TicketTypeID = payload.TicketType
		},
	},
	{
		key:       StepSeats,
		prototype: func() any { return &seatsPayload{} },
		apply: func(d *Draft, p any) {
			d.Seats = p.(*seatsPayload).Seats
		},
	},
	{key: StepOptions, prototype: func() any { return &optionsPayload{} }, apply: applyOptions},
	{key: StepContact, prototype: func() any { return &contactPayload{} }, apply: applyContact},
	{key: StepSummary},
}

func applyOptions(d *Draft, p any) {
	payload := p.(*optionsPayload)
	if payload.Options == nil {
		d.Options = []upstream.BookingOption{}
		return
	}
	d.Options = payload.Options
}

func applyContact(d *Draft, p any) {
	payload := p.(*contactPayload)
	if payload.FullName == "" && payload.Email == "" && payload.Phone == "" {
		return
	}
	d.Contact = &upstream.BookingContact{
		FullName: payload.FullName,
		Email:    payload.Email,
		Phone:    payload.Phone,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// decodeStepPayload decodes and validates one step submission.
// Validation failures carry per-field messages so the caller can keep
// the step active and render them inline.
func decodeStepPayload(def stepDef, raw json.RawMessage) (any, error) {
	if def.prototype == nil {
		return nil, nil
	}
	payload := def.prototype()
	if len(raw) > 0 {
		decoder := json.NewDecoder(strings.NewReader(string(raw)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(payload); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid step payload").
				WithDetails(map[string]any{"error": err.Error()})
		}
	}
	if err := validate.Struct(payload); err != nil {
		return nil, formatValidationErrors(err)
	}
	return payload, nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "datetime":
		return fmt.Sprintf("must match format %s", fe.Param())
	}
	return "is invalid"
}
