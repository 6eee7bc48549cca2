package booking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/peykantravel/peykan-storefront/internal/analytics/payloads"
	"github.com/peykantravel/peykan-storefront/internal/cart"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

type memStore struct {
	flows map[string]*Flow
}

func newMemStore() *memStore {
	return &memStore{flows: map[string]*Flow{}}
}

func (m *memStore) key(sessionID string, domain enums.BookingDomain) string {
	return sessionID + ":" + domain.String()
}

func (m *memStore) Save(_ context.Context, flow *Flow) error {
	clone := *flow
	m.flows[m.key(flow.Draft.SessionID, flow.Domain)] = &clone
	return nil
}

func (m *memStore) Load(_ context.Context, sessionID string, domain enums.BookingDomain) (*Flow, error) {
	flow, ok := m.flows[m.key(sessionID, domain)]
	if !ok {
		return nil, ErrNoDraft
	}
	clone := *flow
	return &clone, nil
}

func (m *memStore) Delete(_ context.Context, sessionID string, domain enums.BookingDomain) error {
	delete(m.flows, m.key(sessionID, domain))
	return nil
}

type fakeBookingBackend struct {
	transferReqs []upstream.TransferBookingRequest
	tourReqs     []upstream.TourBookingRequest
	eventReqs    []upstream.EventBookingRequest
	resp         *upstream.BookingResponse
	err          error
}

func (f *fakeBookingBackend) CreateTransferBooking(_ context.Context, _, _ string, req upstream.TransferBookingRequest) (*upstream.BookingResponse, error) {
	f.transferReqs = append(f.transferReqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeBookingBackend) CreateTourBooking(_ context.Context, _, _ string, req upstream.TourBookingRequest) (*upstream.BookingResponse, error) {
	f.tourReqs = append(f.tourReqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeBookingBackend) CreateEventBooking(_ context.Context, _, _ string, req upstream.EventBookingRequest) (*upstream.BookingResponse, error) {
	f.eventReqs = append(f.eventReqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type recordingCartAdder struct {
	sessions []cart.Session
	items    []cart.Item
	err      error
}

func (r *recordingCartAdder) AddItem(_ context.Context, sess cart.Session, item cart.Item) (*cart.Cart, error) {
	r.sessions = append(r.sessions, sess)
	r.items = append(r.items, item)
	if r.err != nil {
		return nil, r.err
	}
	return cart.NewCart(sess.ID, item.Currency), nil
}

type recordingBookingAnalytics struct {
	confirmed []payloads.BookingConfirmedEvent
}

func (r *recordingBookingAnalytics) BookingConfirmed(_ context.Context, event payloads.BookingConfirmedEvent) {
	r.confirmed = append(r.confirmed, event)
}

func newTestService(t *testing.T, backend *fakeBookingBackend) (*Service, *memStore, *recordingBookingAnalytics) {
	t.Helper()
	store := newMemStore()
	analytics := &recordingBookingAnalytics{}
	svc, err := NewService(store, backend, nil, analytics, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.now = func() time.Time { return testNow }
	return svc, store, analytics
}

func completeTransferFlow(t *testing.T, svc *Service, sess Session) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.Start(ctx, sess, enums.BookingDomainTransfer); err != nil {
		t.Fatalf("Start: %v", err)
	}
	steps := []struct {
		key     StepKey
		payload string
	}{
		{StepRoute, `{"route":"R1"}`},
		{StepVehicle, `{"vehicle":"V1"}`},
		{StepDatetime, `{"pickup_date":"2025-06-01"}`},
		{StepPassengers, `{"passengers":2}`},
		{StepOptions, `{"options":[]}`},
		{StepContact, `{}`},
	}
	for _, step := range steps {
		if _, err := svc.SubmitStep(ctx, sess, enums.BookingDomainTransfer, step.key, json.RawMessage(step.payload)); err != nil {
			t.Fatalf("SubmitStep %s: %v", step.key, err)
		}
	}
}

func TestConfirmSubmitsExactTransferBody(t *testing.T) {
	backend := &fakeBookingBackend{resp: &upstream.BookingResponse{
		BookingID:   "B-42",
		Status:      "confirmed",
		TotalAmount: decimal.RequireFromString("120"),
		Currency:    "USD",
	}}
	svc, store, analytics := newTestService(t, backend)
	sess := Session{ID: "sess-1", Token: "tok", Locale: enums.LocaleEN}
	completeTransferFlow(t, svc, sess)

	flow, resp, err := svc.Confirm(context.Background(), sess, enums.BookingDomainTransfer)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !flow.Completed || flow.BookingID != "B-42" {
		t.Fatalf("expected completed flow with booking id, got %+v", flow)
	}
	if resp.Status != "confirmed" {
		t.Fatalf("expected confirmed status, got %s", resp.Status)
	}
	if len(backend.transferReqs) != 1 {
		t.Fatalf("expected one backend call, got %d", len(backend.transferReqs))
	}
	body, err := json.Marshal(backend.transferReqs[0])
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	want := `{"route":"R1","vehicle":"V1","pickup_date":"2025-06-01","passengers":2,"options":[]}`
	if string(body) != want {
		t.Fatalf("unexpected request body:\n got %s\nwant %s", body, want)
	}
	if _, err := store.Load(context.Background(), sess.ID, enums.BookingDomainTransfer); err != ErrNoDraft {
		t.Fatalf("expected draft removed after confirm, got %v", err)
	}
	if len(analytics.confirmed) != 1 || analytics.confirmed[0].BookingID != "B-42" {
		t.Fatalf("expected confirmed event, got %+v", analytics.confirmed)
	}
	if analytics.confirmed[0].TotalAmount != "120" {
		t.Fatalf("expected total 120, got %s", analytics.confirmed[0].TotalAmount)
	}
}

func TestConfirmAddsBookedLineToCart(t *testing.T) {
	backend := &fakeBookingBackend{resp: &upstream.BookingResponse{
		BookingID:   "B-7",
		Status:      "confirmed",
		TotalAmount: decimal.RequireFromString("950000"),
		Currency:    "IRR",
	}}
	store := newMemStore()
	carts := &recordingCartAdder{}
	svc, err := NewService(store, backend, carts, nil, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.now = func() time.Time { return testNow }
	sess := Session{ID: "sess-1", Token: "tok", Locale: enums.LocaleEN}
	completeTransferFlow(t, svc, sess)

	if _, _, err := svc.Confirm(context.Background(), sess, enums.BookingDomainTransfer); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if len(carts.items) != 1 {
		t.Fatalf("expected one cart line, got %d", len(carts.items))
	}
	line := carts.items[0]
	if err := line.Validate(); err != nil {
		t.Fatalf("cart line does not validate: %v", err)
	}
	if line.Kind != enums.ProductKindTransfer || line.ProductID != "R1" {
		t.Fatalf("unexpected line %+v", line)
	}
	if line.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", line.Quantity)
	}
	if line.Transfer == nil || line.Transfer.Passengers != 2 || line.Transfer.VehicleTypeID != "V1" {
		t.Fatalf("unexpected transfer detail %+v", line.Transfer)
	}
	if !line.Subtotal().Equal(decimal.RequireFromString("950000")) {
		t.Fatalf("expected subtotal 950000, got %s", line.Subtotal())
	}
	if line.Currency != enums.CurrencyIRR {
		t.Fatalf("expected IRR, got %s", line.Currency)
	}
	if carts.sessions[0].ID != sess.ID || carts.sessions[0].Token != sess.Token {
		t.Fatalf("cart session does not match booking session: %+v", carts.sessions[0])
	}
}

func TestConfirmSucceedsWhenCartAddFails(t *testing.T) {
	backend := &fakeBookingBackend{resp: &upstream.BookingResponse{
		BookingID:   "B-8",
		Status:      "confirmed",
		TotalAmount: decimal.RequireFromString("120"),
		Currency:    "USD",
	}}
	store := newMemStore()
	carts := &recordingCartAdder{err: errors.New("cart unavailable")}
	svc, err := NewService(store, backend, carts, nil, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.now = func() time.Time { return testNow }
	sess := Session{ID: "sess-1", Token: "tok", Locale: enums.LocaleEN}
	completeTransferFlow(t, svc, sess)

	flow, _, err := svc.Confirm(context.Background(), sess, enums.BookingDomainTransfer)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !flow.Completed {
		t.Fatal("expected completed flow despite cart failure")
	}
	if len(carts.items) != 1 {
		t.Fatalf("expected the cart add attempt, got %d", len(carts.items))
	}
}

func TestConfirmRefusesIncompleteFlow(t *testing.T) {
	backend := &fakeBookingBackend{}
	svc, _, _ := newTestService(t, backend)
	sess := Session{ID: "sess-1", Token: "tok", Locale: enums.LocaleEN}
	ctx := context.Background()

	if _, err := svc.Start(ctx, sess, enums.BookingDomainTransfer); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.SubmitStep(ctx, sess, enums.BookingDomainTransfer, StepRoute, json.RawMessage(`{"route":"R1"}`)); err != nil {
		t.Fatalf("SubmitStep: %v", err)
	}

	_, _, err := svc.Confirm(ctx, sess, enums.BookingDomainTransfer)
	if err == nil {
		t.Fatal("expected error confirming incomplete flow")
	}
	codedErr, ok := err.(*pkgerrors.Error)
	if !ok || codedErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if len(backend.transferReqs) != 0 {
		t.Fatalf("expected no backend calls, got %d", len(backend.transferReqs))
	}
}

func TestConfirmRequiresAuthentication(t *testing.T) {
	backend := &fakeBookingBackend{}
	svc, _, _ := newTestService(t, backend)
	sess := Session{ID: "sess-1", Locale: enums.LocaleEN}
	completeTransferFlow(t, svc, sess)

	_, _, err := svc.Confirm(context.Background(), sess, enums.BookingDomainTransfer)
	if err == nil {
		t.Fatal("expected error without token")
	}
	codedErr, ok := err.(*pkgerrors.Error)
	if !ok || codedErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	if len(backend.transferReqs) != 0 {
		t.Fatalf("expected no backend calls, got %d", len(backend.transferReqs))
	}
}

func TestConfirmFailureKeepsDraft(t *testing.T) {
	backend := &fakeBookingBackend{err: pkgerrors.New(pkgerrors.CodeUpstream, "backend unavailable")}
	svc, store, analytics := newTestService(t, backend)
	sess := Session{ID: "sess-1", Token: "tok", Locale: enums.LocaleEN}
	completeTransferFlow(t, svc, sess)

	_, _, err := svc.Confirm(context.Background(), sess, enums.BookingDomainTransfer)
	if err == nil {
		t.Fatal("expected error from backend")
	}
	flow, err := store.Load(context.Background(), sess.ID, enums.BookingDomainTransfer)
	if err != nil {
		t.Fatalf("expected draft kept, got %v", err)
	}
	if flow.Completed {
		t.Fatal("expected flow not completed")
	}
	if len(analytics.confirmed) != 0 {
		t.Fatalf("expected no confirmed events, got %d", len(analytics.confirmed))
	}
}

func TestStartReplacesExistingDraft(t *testing.T) {
	backend := &fakeBookingBackend{}
	svc, _, _ := newTestService(t, backend)
	sess := Session{ID: "sess-1", Locale: enums.LocaleEN}
	ctx := context.Background()

	if _, err := svc.Start(ctx, sess, enums.BookingDomainTransfer); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.SubmitStep(ctx, sess, enums.BookingDomainTransfer, StepRoute, json.RawMessage(`{"route":"R1"}`)); err != nil {
		t.Fatalf("SubmitStep: %v", err)
	}
	if _, err := svc.Start(ctx, sess, enums.BookingDomainTransfer); err != nil {
		t.Fatalf("restart: %v", err)
	}
	flow, err := svc.Get(ctx, sess, enums.BookingDomainTransfer)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if flow.Draft.RouteID != "" || flow.CurrentStep() != StepRoute {
		t.Fatalf("expected fresh flow, got %+v", flow)
	}
}

func TestGetWithoutDraftReturnsNotFound(t *testing.T) {
	backend := &fakeBookingBackend{}
	svc, _, _ := newTestService(t, backend)

	_, err := svc.Get(context.Background(), Session{ID: "sess-1"}, enums.BookingDomainTour)
	if err == nil {
		t.Fatal("expected error")
	}
	codedErr, ok := err.(*pkgerrors.Error)
	if !ok || codedErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCancelRemovesDraft(t *testing.T) {
	backend := &fakeBookingBackend{}
	svc, store, _ := newTestService(t, backend)
	sess := Session{ID: "sess-1", Locale: enums.LocaleEN}
	ctx := context.Background()

	if _, err := svc.Start(ctx, sess, enums.BookingDomainEvent); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.Cancel(ctx, sess, enums.BookingDomainEvent); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := store.Load(ctx, sess.ID, enums.BookingDomainEvent); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
}
