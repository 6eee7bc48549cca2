package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peykantravel/peykan-storefront/api/middleware"
	"github.com/peykantravel/peykan-storefront/api/responses"
	"github.com/peykantravel/peykan-storefront/internal/catalog"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
)

func EventsList(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locale := middleware.LocaleFromContext(r.Context())
		res, err := svc.Events(r.Context(), locale, r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		markStale(w, res.Stale)
		responses.WriteSuccess(w, res.Data)
	}
}

func EventDetail(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		locale := middleware.LocaleFromContext(r.Context())
		res, err := svc.Event(r.Context(), locale, slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		markStale(w, res.Stale)
		responses.WriteSuccess(w, res.Data)
	}
}

func EventPerformances(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		locale := middleware.LocaleFromContext(r.Context())
		res, err := svc.EventPerformances(r.Context(), locale, slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		markStale(w, res.Stale)
		responses.WriteSuccess(w, res.Data)
	}
}

// EventSeats always reads through to the backend; seat state is live.
func EventSeats(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		performanceID := chi.URLParam(r, "performanceId")
		locale := middleware.LocaleFromContext(r.Context())
		seats, err := svc.PerformanceSeats(r.Context(), locale, slug, performanceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, seats)
	}
}
