package controllers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/peykantravel/peykan-storefront/api/middleware"
	"github.com/peykantravel/peykan-storefront/api/responses"
	"github.com/peykantravel/peykan-storefront/api/validators"
	"github.com/peykantravel/peykan-storefront/internal/analytics"
	"github.com/peykantravel/peykan-storefront/internal/analytics/payloads"
	"github.com/peykantravel/peykan-storefront/internal/session"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

func orderListQuery(r *http.Request) (url.Values, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1000)
	if err != nil {
		return nil, err
	}
	pageSize, err := validators.ParseQueryInt(r, "page_size", 20, 1, 100)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))
	if status := validators.SanitizeString(r.URL.Query().Get("status"), 32); status != "" {
		query.Set("status", status)
	}
	return query, nil
}

func OrdersList(backend *upstream.Client, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		locale := middleware.LocaleFromContext(ctx).String()
		sessionID := middleware.SessionIDFromContext(ctx)
		query, err := orderListQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var orders *upstream.Paginated[upstream.Order]
		err = sessions.WithUpstreamToken(ctx, sessionID, func(token string) error {
			var callErr error
			orders, callErr = backend.ListOrders(ctx, token, locale, query)
			return callErr
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func OrderDetail(backend *upstream.Client, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		locale := middleware.LocaleFromContext(ctx).String()
		sessionID := middleware.SessionIDFromContext(ctx)
		orderNumber := chi.URLParam(r, "orderNumber")
		var order *upstream.Order
		err := sessions.WithUpstreamToken(ctx, sessionID, func(token string) error {
			var callErr error
			order, callErr = backend.GetOrder(ctx, token, locale, orderNumber)
			return callErr
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type createOrderRequest struct {
	CartID string `json:"cart_id,omitempty"`
	Name   string `json:"name,omitempty" validate:"omitempty,max=128"`
	Email  string `json:"email,omitempty" validate:"omitempty,email"`
	Phone  string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Notes  string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// OrderCreate turns the synced cart into a backend order.
func OrderCreate(backend *upstream.Client, sessions *session.Service, events *analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		req := upstream.CreateOrderRequest{
			CartID: payload.CartID,
			Notes:  validators.SanitizeString(payload.Notes, 500),
		}
		if payload.Name != "" || payload.Email != "" || payload.Phone != "" {
			req.Contact = &upstream.BookingContact{
				FullName: validators.SanitizeString(payload.Name, 128),
				Email:    payload.Email,
				Phone:    payload.Phone,
			}
		}
		locale := middleware.LocaleFromContext(ctx).String()
		sessionID := middleware.SessionIDFromContext(ctx)
		var order *upstream.Order
		err := sessions.WithUpstreamToken(ctx, sessionID, func(token string) error {
			var callErr error
			order, callErr = backend.CreateOrder(ctx, token, locale, req)
			return callErr
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		events.OrderCreated(ctx, payloads.OrderCreatedEvent{
			SessionID:   sessionID,
			OrderNumber: order.OrderNumber,
			Total:       order.Total.String(),
			Currency:    order.Currency,
			CreatedAt:   time.Now().UTC(),
		})
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrderCancel(backend *upstream.Client, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := middleware.SessionIDFromContext(ctx)
		orderNumber := chi.URLParam(r, "orderNumber")
		var order *upstream.Order
		err := sessions.WithUpstreamToken(ctx, sessionID, func(token string) error {
			var callErr error
			order, callErr = backend.CancelOrder(ctx, token, orderNumber)
			return callErr
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
