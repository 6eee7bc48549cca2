package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/peykantravel/peykan-storefront/internal/analytics/payloads"
	"github.com/peykantravel/peykan-storefront/internal/cart"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
	"github.com/peykantravel/peykan-storefront/pkg/types"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

// backendBooking is the slice of the upstream client bookings need.
type backendBooking interface {
	CreateTourBooking(ctx context.Context, token, locale string, req upstream.TourBookingRequest) (*upstream.BookingResponse, error)
	CreateEventBooking(ctx context.Context, token, locale string, req upstream.EventBookingRequest) (*upstream.BookingResponse, error)
	CreateTransferBooking(ctx context.Context, token, locale string, req upstream.TransferBookingRequest) (*upstream.BookingResponse, error)
}

type analyticsEmitter interface {
	BookingConfirmed(ctx context.Context, event payloads.BookingConfirmedEvent)
}

// cartAdder places a confirmed booking's line into the session cart.
type cartAdder interface {
	AddItem(ctx context.Context, sess cart.Session, item cart.Item) (*cart.Cart, error)
}

type flowStore interface {
	Save(ctx context.Context, flow *Flow) error
	Load(ctx context.Context, sessionID string, domain enums.BookingDomain) (*Flow, error)
	Delete(ctx context.Context, sessionID string, domain enums.BookingDomain) error
}

// Session identifies the caller for booking operations.
type Session struct {
	ID     string
	Token  string
	Locale enums.Locale
}

// Service drives booking flows: one Redis-backed draft per session and
// domain, step submission, and confirmation against the backend.
type Service struct {
	store     flowStore
	backend   backendBooking
	carts     cartAdder
	analytics analyticsEmitter
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the booking service. A nil carts collaborator
// disables cart addition after confirm.
func NewService(store flowStore, backend backendBooking, carts cartAdder, analytics analyticsEmitter, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("booking store required")
	}
	if backend == nil {
		return nil, fmt.Errorf("backend client required")
	}
	return &Service{
		store:     store,
		backend:   backend,
		carts:     carts,
		analytics: analytics,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// Start creates a fresh flow for the domain, replacing any existing
// draft for the same session and domain.
func (s *Service) Start(ctx context.Context, sess Session, domain enums.BookingDomain) (*Flow, error) {
	flow, err := NewFlow(domain, sess.ID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, flow); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "start booking")
	}
	return flow, nil
}

// Get returns the session's flow for the domain.
func (s *Service) Get(ctx context.Context, sess Session, domain enums.BookingDomain) (*Flow, error) {
	flow, err := s.store.Load(ctx, sess.ID, domain)
	if errors.Is(err, ErrNoDraft) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no booking in progress")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking")
	}
	return flow, nil
}

// SubmitStep validates one step's payload against the flow and, on
// success, persists the advanced flow. Validation failures leave the
// stored draft untouched so the client can correct and resubmit.
func (s *Service) SubmitStep(ctx context.Context, sess Session, domain enums.BookingDomain, step StepKey, payload json.RawMessage) (*Flow, error) {
	flow, err := s.Get(ctx, sess, domain)
	if err != nil {
		return nil, err
	}
	if err := flow.SubmitStep(step, payload, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, flow); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save booking step")
	}
	return flow, nil
}

// Back rewinds the flow one step, keeping collected data.
func (s *Service) Back(ctx context.Context, sess Session, domain enums.BookingDomain) (*Flow, error) {
	flow, err := s.Get(ctx, sess, domain)
	if err != nil {
		return nil, err
	}
	flow.Back()
	if err := s.store.Save(ctx, flow); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save booking step")
	}
	return flow, nil
}

// Cancel discards the session's draft for the domain.
func (s *Service) Cancel(ctx context.Context, sess Session, domain enums.BookingDomain) error {
	if err := s.store.Delete(ctx, sess.ID, domain); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel booking")
	}
	return nil
}

// Confirm submits the completed draft to the backend. It refuses to
// touch the backend unless every input step has been completed. On
// success the flow is marked completed, removed from the store, and
// the booked line is added to the session cart; on failure the draft
// stays so the client can retry.
func (s *Service) Confirm(ctx context.Context, sess Session, domain enums.BookingDomain) (*Flow, *upstream.BookingResponse, error) {
	flow, err := s.Get(ctx, sess, domain)
	if err != nil {
		return nil, nil, err
	}
	if flow.Completed {
		return nil, nil, pkgerrors.New(pkgerrors.CodeConflict, "booking already confirmed")
	}
	if !flow.AtSummary() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("booking incomplete, current step is %q", flow.CurrentStep()))
	}
	if sess.Token == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to confirm a booking")
	}

	resp, err := s.submit(ctx, sess, flow)
	if err != nil {
		return nil, nil, err
	}

	flow.Completed = true
	flow.BookingID = resp.BookingID
	if err := s.store.Delete(ctx, sess.ID, domain); err != nil {
		s.logWarn(ctx, "deleting confirmed booking draft", err)
	}
	s.addToCart(ctx, sess, flow, resp)
	s.emitConfirmed(ctx, sess, flow, resp)
	return flow, resp, nil
}

// addToCart mirrors the confirmed booking as a cart line. The booking
// itself already succeeded, so a cart failure is logged, not returned.
func (s *Service) addToCart(ctx context.Context, sess Session, flow *Flow, resp *upstream.BookingResponse) {
	if s.carts == nil {
		return
	}
	line, err := cartLine(flow, resp)
	if err != nil {
		s.logWarn(ctx, "mapping confirmed booking to cart line", err)
		return
	}
	cartSess := cart.Session{ID: sess.ID, Token: sess.Token, Locale: sess.Locale}
	if _, err := s.carts.AddItem(ctx, cartSess, line); err != nil {
		s.logWarn(ctx, "adding confirmed booking to cart", err)
	}
}

// cartLine maps a confirmed draft onto a cart item. Prices come from
// the backend's confirmed total: transfers keep it as the unit price,
// tours spread it over paying participants, events over seats.
func cartLine(flow *Flow, resp *upstream.BookingResponse) (cart.Item, error) {
	var currency enums.Currency
	if resp.Currency != "" {
		parsed, err := enums.ParseCurrency(resp.Currency)
		if err != nil {
			return cart.Item{}, err
		}
		currency = parsed
	}

	item := cart.Item{
		Currency: currency,
		Quantity: 1,
	}
	options := selectedOptions(flow.Draft.Options)

	switch flow.Domain {
	case enums.BookingDomainTransfer:
		item.Kind = enums.ProductKindTransfer
		item.ProductID = flow.Draft.RouteID
		item.UnitPrice = resp.TotalAmount
		item.Transfer = &types.TransferDetail{
			RouteID:        flow.Draft.RouteID,
			VehicleTypeID:  flow.Draft.VehicleTypeID,
			TripType:       enums.TripTypeOneWay,
			PickupDateTime: pickupAt(flow.Draft),
			Passengers:     flow.Draft.Passengers,
			Options:        options,
		}
	case enums.BookingDomainTour:
		item.Kind = enums.ProductKindTour
		item.ProductID = flow.Draft.TourID
		participants := types.ParticipantCounts{
			Adult:  flow.Draft.Adults,
			Child:  flow.Draft.Children,
			Infant: flow.Draft.Infants,
		}
		if priced := participants.Priced(); priced > 0 {
			item.UnitPrice = resp.TotalAmount.Div(decimal.NewFromInt(int64(priced)))
		}
		item.Tour = &types.TourDetail{
			TourID:         flow.Draft.TourID,
			ScheduleID:     flow.Draft.ScheduleID,
			VariantID:      flow.Draft.VariantID,
			Participants:   participants,
			Options:        options,
			SpecialRequest: flow.Draft.SpecialRequest,
		}
	case enums.BookingDomainEvent:
		item.Kind = enums.ProductKindEvent
		item.ProductID = flow.Draft.EventID
		seats := make([]types.Seat, 0, len(flow.Draft.Seats))
		var perSeat decimal.Decimal
		if len(flow.Draft.Seats) > 0 {
			perSeat = resp.TotalAmount.Div(decimal.NewFromInt(int64(len(flow.Draft.Seats))))
		}
		for _, s := range flow.Draft.Seats {
			seats = append(seats, types.Seat{Row: s.Row, Seat: s.Seat, Section: s.Section, Price: perSeat})
		}
		item.Event = &types.EventDetail{
			EventID:       flow.Draft.EventID,
			PerformanceID: flow.Draft.PerformanceID,
			TicketTypeID:  flow.Draft.TicketTypeID,
			Seats:         seats,
			Options:       options,
		}
	default:
		return cart.Item{}, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown booking domain %q", flow.Domain))
	}
	return item, nil
}

// selectedOptions carries the draft's chosen option ids into the cart
// detail. The backend total already includes their price.
func selectedOptions(options []upstream.BookingOption) []types.SelectedOption {
	if len(options) == 0 {
		return nil
	}
	selected := make([]types.SelectedOption, 0, len(options))
	for _, o := range options {
		selected = append(selected, types.SelectedOption{OptionID: o.OptionID, Quantity: o.Quantity})
	}
	return selected
}

func pickupAt(draft Draft) time.Time {
	layout := "2006-01-02"
	value := draft.PickupDate
	if draft.PickupTime != "" {
		layout = "2006-01-02 15:04"
		value = draft.PickupDate + " " + draft.PickupTime
	}
	at, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}
	}
	return at
}

func (s *Service) submit(ctx context.Context, sess Session, flow *Flow) (*upstream.BookingResponse, error) {
	locale := sess.Locale.String()
	switch flow.Domain {
	case enums.BookingDomainTransfer:
		return s.backend.CreateTransferBooking(ctx, sess.Token, locale, *flow.transferRequest())
	case enums.BookingDomainTour:
		return s.backend.CreateTourBooking(ctx, sess.Token, locale, *flow.tourRequest())
	case enums.BookingDomainEvent:
		return s.backend.CreateEventBooking(ctx, sess.Token, locale, *flow.eventRequest())
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown booking domain %q", flow.Domain))
}

func (s *Service) emitConfirmed(ctx context.Context, sess Session, flow *Flow, resp *upstream.BookingResponse) {
	if s.analytics == nil {
		return
	}
	s.analytics.BookingConfirmed(ctx, payloads.BookingConfirmedEvent{
		SessionID:   sess.ID,
		Domain:      flow.Domain.String(),
		BookingID:   resp.BookingID,
		TotalAmount: resp.TotalAmount.String(),
		Currency:    resp.Currency,
		Locale:      sess.Locale.String(),
		ConfirmedAt: s.now().UTC(),
	})
}

func (s *Service) logWarn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
