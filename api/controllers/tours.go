package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peykantravel/peykan-storefront/api/middleware"
	"github.com/peykantravel/peykan-storefront/api/responses"
	"github.com/peykantravel/peykan-storefront/api/validators"
	"github.com/peykantravel/peykan-storefront/internal/catalog"
	"github.com/peykantravel/peykan-storefront/internal/session"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

const cacheStatusHeader = "X-Cache-Status"

func markStale(w http.ResponseWriter, stale bool) {
	if stale {
		w.Header().Set(cacheStatusHeader, "stale")
		return
	}
	w.Header().Set(cacheStatusHeader, "fresh")
}

// ToursList serves the cached tour catalog for the request locale.
func ToursList(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locale := middleware.LocaleFromContext(r.Context())
		res, err := svc.Tours(r.Context(), locale, r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		markStale(w, res.Stale)
		responses.WriteSuccess(w, res.Data)
	}
}

func TourDetail(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		locale := middleware.LocaleFromContext(r.Context())
		res, err := svc.Tour(r.Context(), locale, slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		markStale(w, res.Stale)
		responses.WriteSuccess(w, res.Data)
	}
}

func TourSchedules(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		locale := middleware.LocaleFromContext(r.Context())
		res, err := svc.TourSchedules(r.Context(), locale, slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		markStale(w, res.Stale)
		responses.WriteSuccess(w, res.Data)
	}
}

func TourStats(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		locale := middleware.LocaleFromContext(r.Context())
		stats, err := svc.TourStats(r.Context(), locale, slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func TourAvailability(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		locale := middleware.LocaleFromContext(r.Context())
		availability, err := svc.TourAvailability(r.Context(), locale, slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, availability)
	}
}

func TourReviews(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		locale := middleware.LocaleFromContext(r.Context())
		reviews, err := svc.TourReviews(r.Context(), locale, slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reviews)
	}
}

type tourSearchRequest struct {
	Query    string `json:"query,omitempty" validate:"omitempty,max=128"`
	Category string `json:"category,omitempty" validate:"omitempty,max=64"`
	DateFrom string `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MinPrice string `json:"min_price,omitempty"`
	MaxPrice string `json:"max_price,omitempty"`
	SortBy   string `json:"sort_by,omitempty" validate:"omitempty,oneof=price -price rating -rating date"`
}

func ToursSearch(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload tourSearchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locale := middleware.LocaleFromContext(r.Context())
		results, err := svc.SearchTours(r.Context(), locale, upstream.TourSearchRequest{
			Query:    validators.SanitizeString(payload.Query, 128),
			Category: payload.Category,
			DateFrom: payload.DateFrom,
			DateTo:   payload.DateTo,
			MinPrice: payload.MinPrice,
			MaxPrice: payload.MaxPrice,
			SortBy:   payload.SortBy,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

type createReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title   string `json:"title,omitempty" validate:"omitempty,max=128"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

// TourReviewCreate publishes a review on the caller's behalf.
func TourReviewCreate(svc *catalog.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to review"))
			return
		}
		var payload createReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slug := chi.URLParam(r, "slug")
		locale := middleware.LocaleFromContext(r.Context())
		var review *upstream.Review
		err := sessions.WithUpstreamToken(r.Context(), sessionID, func(token string) error {
			var err error
			review, err = svc.CreateTourReview(r.Context(), token, locale, slug, upstream.CreateReviewRequest{
				Rating:  payload.Rating,
				Title:   validators.SanitizeString(payload.Title, 128),
				Comment: validators.SanitizeString(payload.Comment, 2000),
			})
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}
