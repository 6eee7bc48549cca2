package booking

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
)

var testNow = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

func newTestFlow(t *testing.T, domain enums.BookingDomain) *Flow {
	t.Helper()
	flow, err := NewFlow(domain, "sess-1", testNow)
	if err != nil {
		t.Fatalf("NewFlow: %v", err)
	}
	return flow
}

func submit(t *testing.T, flow *Flow, step StepKey, payload string) {
	t.Helper()
	if err := flow.SubmitStep(step, json.RawMessage(payload), testNow); err != nil {
		t.Fatalf("submit %s: %v", step, err)
	}
}

func TestTransferStepOrder(t *testing.T) {
	steps, err := StepsFor(enums.BookingDomainTransfer)
	if err != nil {
		t.Fatalf("StepsFor: %v", err)
	}
	want := []StepKey{StepRoute, StepVehicle, StepDatetime, StepPassengers, StepOptions, StepContact, StepSummary}
	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}
	for i, key := range want {
		if steps[i] != key {
			t.Fatalf("step %d: expected %q, got %q", i, key, steps[i])
		}
	}
}

func TestSubmitInvalidPayloadKeepsStep(t *testing.T) {
	flow := newTestFlow(t, enums.BookingDomainTransfer)

	err := flow.SubmitStep(StepRoute, json.RawMessage(`{}`), testNow)
	if err == nil {
		t.Fatal("expected validation error for missing route")
	}
	codedErr, ok := err.(*pkgerrors.Error)
	if !ok {
		t.Fatalf("expected coded error, got %T", err)
	}
	if codedErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %s", codedErr.Code())
	}
	details, ok := codedErr.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", codedErr.Details())
	}
	if details["route"] == "" {
		t.Fatalf("expected message for route field, got %v", details)
	}
	if flow.CurrentStep() != StepRoute {
		t.Fatalf("expected flow to stay on route, got %s", flow.CurrentStep())
	}
}

func TestSubmitAdvancesAndPreservesData(t *testing.T) {
	flow := newTestFlow(t, enums.BookingDomainTransfer)

	submit(t, flow, StepRoute, `{"route":"R1"}`)
	if flow.CurrentStep() != StepVehicle {
		t.Fatalf("expected vehicle step, got %s", flow.CurrentStep())
	}
	submit(t, flow, StepVehicle, `{"vehicle":"V1"}`)
	submit(t, flow, StepDatetime, `{"pickup_date":"2025-06-01"}`)

	// resubmitting an earlier step keeps later data and never regresses
	submit(t, flow, StepRoute, `{"route":"R2"}`)
	if flow.Draft.RouteID != "R2" {
		t.Fatalf("expected updated route, got %s", flow.Draft.RouteID)
	}
	if flow.Draft.VehicleTypeID != "V1" {
		t.Fatalf("expected vehicle preserved, got %s", flow.Draft.VehicleTypeID)
	}
	if flow.CurrentStep() != StepPassengers {
		t.Fatalf("expected passengers step, got %s", flow.CurrentStep())
	}
}

func TestSubmitFutureStepRejected(t *testing.T) {
	flow := newTestFlow(t, enums.BookingDomainTransfer)

	err := flow.SubmitStep(StepPassengers, json.RawMessage(`{"passengers":2}`), testNow)
	if err == nil {
		t.Fatal("expected error submitting a future step")
	}
	if flow.CurrentStep() != StepRoute {
		t.Fatalf("expected flow to stay on route, got %s", flow.CurrentStep())
	}
}

func TestSubmitUnknownFieldRejected(t *testing.T) {
	flow := newTestFlow(t, enums.BookingDomainTransfer)

	err := flow.SubmitStep(StepRoute, json.RawMessage(`{"route":"R1","surprise":true}`), testNow)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestBackKeepsDraft(t *testing.T) {
	flow := newTestFlow(t, enums.BookingDomainTransfer)

	submit(t, flow, StepRoute, `{"route":"R1"}`)
	submit(t, flow, StepVehicle, `{"vehicle":"V1"}`)
	flow.Back()
	if flow.CurrentStep() != StepVehicle {
		t.Fatalf("expected vehicle step after back, got %s", flow.CurrentStep())
	}
	if flow.Draft.RouteID != "R1" || flow.Draft.VehicleTypeID != "V1" {
		t.Fatalf("expected draft preserved, got %+v", flow.Draft)
	}
}

func TestPickupDateFormatValidated(t *testing.T) {
	flow := newTestFlow(t, enums.BookingDomainTransfer)

	submit(t, flow, StepRoute, `{"route":"R1"}`)
	submit(t, flow, StepVehicle, `{"vehicle":"V1"}`)
	err := flow.SubmitStep(StepDatetime, json.RawMessage(`{"pickup_date":"01/06/2025"}`), testNow)
	if err == nil {
		t.Fatal("expected error for malformed date")
	}
	codedErr, ok := err.(*pkgerrors.Error)
	if !ok || codedErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestTourFlowReachesSummary(t *testing.T) {
	flow := newTestFlow(t, enums.BookingDomainTour)

	submit(t, flow, StepSchedule, `{"tour":"T1","schedule":"S1","variant":"eco"}`)
	submit(t, flow, StepParticipants, `{"adults":2,"children":1,"infants":1}`)
	submit(t, flow, StepOptions, `{"options":[{"option_id":"meal","quantity":2}]}`)
	submit(t, flow, StepContact, `{"full_name":"Sara Tehrani","email":"sara@example.com","phone":"+98912000000"}`)

	if !flow.AtSummary() {
		t.Fatalf("expected summary step, got %s", flow.CurrentStep())
	}
	req := flow.tourRequest()
	if req.TourID != "T1" || req.ScheduleID != "S1" || req.VariantID != "eco" {
		t.Fatalf("unexpected tour request: %+v", req)
	}
	if req.Adults != 2 || req.Children != 1 || req.Infants != 1 {
		t.Fatalf("unexpected participants: %+v", req)
	}
	if req.Contact == nil || req.Contact.Email != "sara@example.com" {
		t.Fatalf("expected contact carried, got %+v", req.Contact)
	}
}

func TestEventFlowRequiresSeats(t *testing.T) {
	flow := newTestFlow(t, enums.BookingDomainEvent)

	submit(t, flow, StepPerformance, `{"event":"E1","performance":"P1","ticket_type":"VIP"}`)
	err := flow.SubmitStep(StepSeats, json.RawMessage(`{"seats":[]}`), testNow)
	if err == nil {
		t.Fatal("expected error for empty seat list")
	}
	submit(t, flow, StepSeats, `{"seats":[{"row":"A","seat":"12","section":"center"}]}`)
	if len(flow.Draft.Seats) != 1 {
		t.Fatalf("expected one seat, got %d", len(flow.Draft.Seats))
	}
}

func TestSummaryAcceptsNoInput(t *testing.T) {
	flow := newTestFlow(t, enums.BookingDomainTransfer)

	err := flow.SubmitStep(StepSummary, nil, testNow)
	if err == nil {
		t.Fatal("expected error submitting to summary")
	}
}

func TestFlowRoundTripsThroughJSON(t *testing.T) {
	flow := newTestFlow(t, enums.BookingDomainTransfer)
	submit(t, flow, StepRoute, `{"route":"R1"}`)
	submit(t, flow, StepVehicle, `{"vehicle":"V1"}`)

	raw, err := json.Marshal(flow)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored Flow
	if err := json.Unmarshal(raw, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.CurrentStep() != StepDatetime {
		t.Fatalf("expected datetime step after restore, got %s", restored.CurrentStep())
	}
	if restored.Draft.RouteID != "R1" {
		t.Fatalf("expected route preserved, got %s", restored.Draft.RouteID)
	}
}
