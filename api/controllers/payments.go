package controllers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/peykantravel/peykan-storefront/api/middleware"
	"github.com/peykantravel/peykan-storefront/api/responses"
	"github.com/peykantravel/peykan-storefront/api/validators"
	"github.com/peykantravel/peykan-storefront/internal/session"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

// pageQuery builds the standard pagination query forwarded upstream.
func pageQuery(r *http.Request) (url.Values, error) {
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
	return query, nil
}

func PaymentsList(backend *upstream.Client, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := middleware.SessionIDFromContext(ctx)
		query, err := pageQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payments *upstream.Paginated[upstream.Payment]
		err = sessions.WithUpstreamToken(ctx, sessionID, func(token string) error {
			var callErr error
			payments, callErr = backend.ListPayments(ctx, token, query)
			return callErr
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments)
	}
}

func PaymentDetail(backend *upstream.Client, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := middleware.SessionIDFromContext(ctx)
		paymentID := chi.URLParam(r, "paymentId")
		var payment *upstream.Payment
		err := sessions.WithUpstreamToken(ctx, sessionID, func(token string) error {
			var callErr error
			payment, callErr = backend.GetPayment(ctx, token, paymentID)
			return callErr
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

type createPaymentRequest struct {
	OrderNumber string `json:"order_number" validate:"required"`
	Method      string `json:"method" validate:"required,oneof=gateway wallet card"`
	ReturnURL   string `json:"return_url,omitempty" validate:"omitempty,url,max=512"`
}

// PaymentCreate starts a payment attempt for an order.
func PaymentCreate(backend *upstream.Client, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload createPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		sessionID := middleware.SessionIDFromContext(ctx)
		var payment *upstream.Payment
		err := sessions.WithUpstreamToken(ctx, sessionID, func(token string) error {
			var callErr error
			payment, callErr = backend.CreatePayment(ctx, token, upstream.CreatePaymentRequest{
				OrderNumber: payload.OrderNumber,
				Method:      payload.Method,
				ReturnURL:   payload.ReturnURL,
			})
			return callErr
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}
