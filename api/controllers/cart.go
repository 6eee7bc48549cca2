package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/peykantravel/peykan-storefront/api/middleware"
	"github.com/peykantravel/peykan-storefront/api/responses"
	"github.com/peykantravel/peykan-storefront/api/validators"
	cartsvc "github.com/peykantravel/peykan-storefront/internal/cart"
	"github.com/peykantravel/peykan-storefront/internal/session"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
	"github.com/peykantravel/peykan-storefront/pkg/types"
)

// cartSession resolves the cart identity for a request. Authenticated
// sessions carry a backend token; anonymous ones operate locally.
func cartSession(r *http.Request, sessions *session.Service) (cartsvc.Session, error) {
	ctx := r.Context()
	sessionID := middleware.SessionIDFromContext(ctx)
	if sessionID == "" {
		return cartsvc.Session{}, pkgerrors.New(pkgerrors.CodeValidation, "session cookie or credentials required")
	}
	sess := cartsvc.Session{
		ID:     sessionID,
		Locale: middleware.LocaleFromContext(ctx),
	}
	if middleware.UserIDFromContext(ctx) != "" {
		token, err := sessions.UpstreamToken(ctx, sessionID)
		if err != nil {
			return cartsvc.Session{}, err
		}
		sess.Token = token
	}
	return sess, nil
}

// cartResponse is the wire shape of the cart resource: the lines plus
// the derived totals so clients never recompute prices.
type cartResponse struct {
	SessionID  string          `json:"session_id"`
	Currency   enums.Currency  `json:"currency"`
	Items      []cartsvc.Item  `json:"items"`
	TotalItems int             `json:"total_items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Total      decimal.Decimal `json:"total"`
}

func newCartResponse(c *cartsvc.Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []cartsvc.Item{}
	}
	return cartResponse{
		SessionID:  c.SessionID,
		Currency:   c.Currency,
		Items:      items,
		TotalItems: c.TotalItems(),
		Subtotal:   c.Subtotal(),
		Total:      c.Total(),
	}
}

func CartFetch(svc *cartsvc.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cart, err := svc.Get(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

type selectedOptionPayload struct {
	OptionID string `json:"option_id" validate:"required"`
	Name     string `json:"name,omitempty"`
	Price    string `json:"price" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type seatPayload struct {
	Row     string `json:"row" validate:"required"`
	Seat    string `json:"seat" validate:"required"`
	Section string `json:"section,omitempty"`
	Price   string `json:"price" validate:"required"`
}

type tourDetailPayload struct {
	TourID         string                  `json:"tour_id" validate:"required"`
	ScheduleID     string                  `json:"schedule_id" validate:"required"`
	VariantID      string                  `json:"variant_id,omitempty"`
	Adults         int                     `json:"adults" validate:"required,gt=0"`
	Children       int                     `json:"children" validate:"gte=0"`
	Infants        int                     `json:"infants" validate:"gte=0"`
	Options        []selectedOptionPayload `json:"options,omitempty" validate:"omitempty,dive"`
	SpecialRequest string                  `json:"special_request,omitempty" validate:"omitempty,max=500"`
}

type eventDetailPayload struct {
	EventID             string                  `json:"event_id" validate:"required"`
	PerformanceID       string                  `json:"performance_id" validate:"required"`
	TicketTypeID        string                  `json:"ticket_type_id" validate:"required"`
	Seats               []seatPayload           `json:"seats" validate:"required,min=1,dive"`
	Options             []selectedOptionPayload `json:"options,omitempty" validate:"omitempty,dive"`
	Venue               string                  `json:"venue,omitempty"`
	Section             string                  `json:"section,omitempty"`
	PerformanceDateTime time.Time               `json:"performance_datetime"`
}

type transferDetailPayload struct {
	RouteID         string                  `json:"route_id" validate:"required"`
	VehicleTypeID   string                  `json:"vehicle_type_id" validate:"required"`
	TripType        string                  `json:"trip_type,omitempty" validate:"omitempty,oneof=one_way round_trip"`
	PickupLocation  string                  `json:"pickup_location,omitempty"`
	DropoffLocation string                  `json:"dropoff_location,omitempty"`
	PickupDateTime  time.Time               `json:"pickup_datetime" validate:"required"`
	Passengers      int                     `json:"passengers" validate:"required,gt=0"`
	Options         []selectedOptionPayload `json:"options,omitempty" validate:"omitempty,dive"`
}

type addCartItemRequest struct {
	ProductType string `json:"product_type" validate:"required,oneof=tour event transfer"`
	ProductID   string `json:"product_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=256"`
	UnitPrice   string `json:"unit_price" validate:"required"`
	Currency    string `json:"currency" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`

	Image       *string `json:"image,omitempty"`
	Duration    *string `json:"duration,omitempty"`
	Location    *string `json:"location,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	VariantName *string `json:"variant_name,omitempty"`

	Tour     *tourDetailPayload     `json:"tour,omitempty"`
	Event    *eventDetailPayload    `json:"event,omitempty"`
	Transfer *transferDetailPayload `json:"transfer,omitempty"`
}

func parsePrice(field, raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid price").
			WithDetails(map[string]string{field: "must be a decimal number"})
	}
	return price, nil
}

func optionsFromPayload(payloads []selectedOptionPayload) ([]types.SelectedOption, error) {
	if len(payloads) == 0 {
		return nil, nil
	}
	options := make([]types.SelectedOption, 0, len(payloads))
	for _, p := range payloads {
		price, err := parsePrice("options", p.Price)
		if err != nil {
			return nil, err
		}
		options = append(options, types.SelectedOption{
			OptionID: p.OptionID,
			Name:     p.Name,
			Price:    price,
			Quantity: p.Quantity,
		})
	}
	return options, nil
}

func (req addCartItemRequest) toItem() (cartsvc.Item, error) {
	kind, err := enums.ParseProductKind(req.ProductType)
	if err != nil {
		return cartsvc.Item{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type")
	}
	currency, err := enums.ParseCurrency(req.Currency)
	if err != nil {
		return cartsvc.Item{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	unitPrice, err := parsePrice("unit_price", req.UnitPrice)
	if err != nil {
		return cartsvc.Item{}, err
	}

	item := cartsvc.Item{
		Kind:        kind,
		ProductID:   req.ProductID,
		Title:       validators.SanitizeString(req.Title, 256),
		UnitPrice:   unitPrice,
		Currency:    currency,
		Quantity:    req.Quantity,
		Image:       req.Image,
		Duration:    req.Duration,
		Location:    req.Location,
		Date:        req.Date,
		Time:        req.Time,
		VariantName: req.VariantName,
	}

	switch kind {
	case enums.ProductKindTour:
		if req.Tour == nil {
			return cartsvc.Item{}, pkgerrors.New(pkgerrors.CodeValidation, "tour detail required")
		}
		options, err := optionsFromPayload(req.Tour.Options)
		if err != nil {
			return cartsvc.Item{}, err
		}
		item.Tour = &types.TourDetail{
			TourID:     req.Tour.TourID,
			ScheduleID: req.Tour.ScheduleID,
			VariantID:  req.Tour.VariantID,
			Participants: types.ParticipantCounts{
				Adult:  req.Tour.Adults,
				Child:  req.Tour.Children,
				Infant: req.Tour.Infants,
			},
			Options:        options,
			SpecialRequest: validators.SanitizeString(req.Tour.SpecialRequest, 500),
		}
	case enums.ProductKindEvent:
		if req.Event == nil {
			return cartsvc.Item{}, pkgerrors.New(pkgerrors.CodeValidation, "event detail required")
		}
		options, err := optionsFromPayload(req.Event.Options)
		if err != nil {
			return cartsvc.Item{}, err
		}
		seats := make([]types.Seat, 0, len(req.Event.Seats))
		for _, s := range req.Event.Seats {
			price, err := parsePrice("seats", s.Price)
			if err != nil {
				return cartsvc.Item{}, err
			}
			seats = append(seats, types.Seat{Row: s.Row, Seat: s.Seat, Section: s.Section, Price: price})
		}
		item.Event = &types.EventDetail{
			EventID:             req.Event.EventID,
			PerformanceID:       req.Event.PerformanceID,
			TicketTypeID:        req.Event.TicketTypeID,
			Seats:               seats,
			Options:             options,
			Venue:               req.Event.Venue,
			Section:             req.Event.Section,
			PerformanceDateTime: req.Event.PerformanceDateTime,
		}
	case enums.ProductKindTransfer:
		if req.Transfer == nil {
			return cartsvc.Item{}, pkgerrors.New(pkgerrors.CodeValidation, "transfer detail required")
		}
		options, err := optionsFromPayload(req.Transfer.Options)
		if err != nil {
			return cartsvc.Item{}, err
		}
		tripType := enums.TripTypeOneWay
		if req.Transfer.TripType != "" {
			parsed, err := enums.ParseTripType(req.Transfer.TripType)
			if err != nil {
				return cartsvc.Item{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid trip type")
			}
			tripType = parsed
		}
		item.Transfer = &types.TransferDetail{
			RouteID:         req.Transfer.RouteID,
			VehicleTypeID:   req.Transfer.VehicleTypeID,
			TripType:        tripType,
			PickupLocation:  req.Transfer.PickupLocation,
			DropoffLocation: req.Transfer.DropoffLocation,
			PickupDateTime:  req.Transfer.PickupDateTime,
			Passengers:      req.Transfer.Passengers,
			Options:         options,
		}
	}
	return item, nil
}

func CartAddItem(svc *cartsvc.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := payload.toItem()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cart, err := svc.AddItem(r.Context(), sess, item)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(cart))
	}
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// CartUpdateItem sets an item's quantity; zero removes the line.
func CartUpdateItem(svc *cartsvc.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID := chi.URLParam(r, "itemId")
		cart, err := svc.UpdateQuantity(r.Context(), sess, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

func CartRemoveItem(svc *cartsvc.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID := chi.URLParam(r, "itemId")
		cart, err := svc.RemoveItem(r.Context(), sess, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

func CartClear(svc *cartsvc.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), sess); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

// CartSync pushes the local cart to the backend and returns the
// reconciled state. Requires an authenticated session.
func CartSync(svc *cartsvc.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if sess.Token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to sync the cart"))
			return
		}
		cart, err := svc.Save(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

func CartSummary(svc *cartsvc.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func CartCount(svc *cartsvc.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		count, err := svc.Count(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"count": count})
	}
}
