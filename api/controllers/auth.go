package controllers

import (
	"net/http"

	"github.com/peykantravel/peykan-storefront/api/middleware"
	"github.com/peykantravel/peykan-storefront/api/responses"
	"github.com/peykantravel/peykan-storefront/api/validators"
	"github.com/peykantravel/peykan-storefront/internal/session"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"first_name,omitempty" validate:"omitempty,max=64"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=64"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type otpRequest struct {
	Phone string `json:"phone" validate:"required,max=20"`
}

type otpVerifyRequest struct {
	Phone string `json:"phone" validate:"required,max=20"`
	Code  string `json:"code" validate:"required,min=4,max=8"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type currencyRequest struct {
	Currency string `json:"currency" validate:"required,oneof=IRR USD EUR TRY"`
}

type authResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"`
	User         upstream.User `json:"user"`
}

func newAuthResponse(auth *session.Auth) authResponse {
	return authResponse{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		ExpiresIn:    auth.ExpiresIn,
		User:         auth.User,
	}
}

func AuthLogin(svc *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auth, err := svc.Login(r.Context(), upstream.LoginRequest{
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAuthResponse(auth))
	}
}

func AuthRegister(svc *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auth, err := svc.Register(r.Context(), upstream.RegisterRequest{
			Email:     payload.Email,
			Password:  payload.Password,
			FirstName: validators.SanitizeString(payload.FirstName, 64),
			LastName:  validators.SanitizeString(payload.LastName, 64),
			Phone:     validators.SanitizeString(payload.Phone, 20),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newAuthResponse(auth))
	}
}

// AuthRefresh exchanges an expired access token plus the rotating refresh
// token for a fresh pair.
func AuthRefresh(svc *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload refreshRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		accessToken := middleware.BearerToken(r)
		if accessToken == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token required"))
			return
		}
		auth, err := svc.Refresh(r.Context(), accessToken, payload.RefreshToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAuthResponse(auth))
	}
}

func AuthLogout(svc *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken := middleware.BearerToken(r)
		if accessToken == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token required"))
			return
		}
		if err := svc.Logout(r.Context(), accessToken); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

func AuthRequestOTP(svc *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload otpRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RequestOTP(r.Context(), upstream.OTPRequest{Phone: payload.Phone}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "otp_sent"})
	}
}

func AuthVerifyOTP(svc *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload otpVerifyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		auth, err := svc.VerifyOTP(r.Context(), upstream.OTPVerifyRequest{
			Phone: payload.Phone,
			Code:  payload.Code,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAuthResponse(auth))
	}
}

func AuthForgotPassword(svc *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload forgotPasswordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ForgotPassword(r.Context(), upstream.ForgotPasswordRequest{Email: payload.Email}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "reset_sent"})
	}
}

func AuthResetPassword(svc *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload resetPasswordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		err := svc.ResetPasswordConfirm(r.Context(), upstream.ResetPasswordConfirmRequest{
			Token:    payload.Token,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "password_reset"})
	}
}

// AuthSetCurrency stores the signed-in user's currency preference.
func AuthSetCurrency(svc *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload currencyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}
		sessionID := middleware.SessionIDFromContext(r.Context())
		if err := svc.SetCurrency(r.Context(), sessionID, currency); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"currency": currency.String()})
	}
}
