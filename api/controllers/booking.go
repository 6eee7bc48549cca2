package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peykantravel/peykan-storefront/api/middleware"
	"github.com/peykantravel/peykan-storefront/api/responses"
	"github.com/peykantravel/peykan-storefront/internal/booking"
	"github.com/peykantravel/peykan-storefront/internal/session"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
)

const maxStepPayloadBytes = 64 << 10

func bookingSession(r *http.Request, sessions *session.Service) (booking.Session, error) {
	ctx := r.Context()
	sessionID := middleware.SessionIDFromContext(ctx)
	if sessionID == "" {
		return booking.Session{}, pkgerrors.New(pkgerrors.CodeValidation, "session cookie or credentials required")
	}
	sess := booking.Session{
		ID:     sessionID,
		Locale: middleware.LocaleFromContext(ctx),
	}
	if middleware.UserIDFromContext(ctx) != "" {
		token, err := sessions.UpstreamToken(ctx, sessionID)
		if err != nil {
			return booking.Session{}, err
		}
		sess.Token = token
	}
	return sess, nil
}

func bookingDomain(r *http.Request) (enums.BookingDomain, error) {
	domain, err := enums.ParseBookingDomain(chi.URLParam(r, "domain"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking domain")
	}
	return domain, nil
}

func BookingStart(svc *booking.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := bookingSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		domain, err := bookingDomain(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		flow, err := svc.Start(r.Context(), sess, domain)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, flow)
	}
}

func BookingFetch(svc *booking.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := bookingSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		domain, err := bookingDomain(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		flow, err := svc.Get(r.Context(), sess, domain)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, flow)
	}
}

// BookingSubmitStep forwards the raw step payload to the wizard. Payload
// validation happens per step inside the flow.
func BookingSubmitStep(svc *booking.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := bookingSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		domain, err := bookingDomain(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxStepPayloadBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}
		if len(body) == 0 {
			body = []byte("{}")
		}
		step := booking.StepKey(chi.URLParam(r, "step"))
		flow, err := svc.SubmitStep(r.Context(), sess, domain, step, json.RawMessage(body))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, flow)
	}
}

func BookingBack(svc *booking.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := bookingSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		domain, err := bookingDomain(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		flow, err := svc.Back(r.Context(), sess, domain)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, flow)
	}
}

func BookingCancel(svc *booking.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := bookingSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		domain, err := bookingDomain(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Cancel(r.Context(), sess, domain); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

type bookingConfirmResponse struct {
	Flow    *booking.Flow            `json:"flow"`
	Booking *upstreamBookingEnvelope `json:"booking"`
}

type upstreamBookingEnvelope struct {
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	TotalAmount string `json:"total_amount"`
	Currency    string `json:"currency"`
}

func BookingConfirm(svc *booking.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := bookingSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		domain, err := bookingDomain(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		flow, resp, err := svc.Confirm(r.Context(), sess, domain)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bookingConfirmResponse{
			Flow: flow,
			Booking: &upstreamBookingEnvelope{
				BookingID:   resp.BookingID,
				Status:      resp.Status,
				TotalAmount: resp.TotalAmount.String(),
				Currency:    resp.Currency,
			},
		})
	}
}
