package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peykantravel/peykan-storefront/api/middleware"
	"github.com/peykantravel/peykan-storefront/api/responses"
	"github.com/peykantravel/peykan-storefront/api/validators"
	"github.com/peykantravel/peykan-storefront/internal/catalog"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

func TransferRoutesList(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locale := middleware.LocaleFromContext(r.Context())
		res, err := svc.TransferRoutes(r.Context(), locale, r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		markStale(w, res.Stale)
		responses.WriteSuccess(w, res.Data)
	}
}

func TransferRouteDetail(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		routeID := chi.URLParam(r, "routeId")
		locale := middleware.LocaleFromContext(r.Context())
		res, err := svc.TransferRoute(r.Context(), locale, routeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		markStale(w, res.Stale)
		responses.WriteSuccess(w, res.Data)
	}
}

func TransferVehicleTypes(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		routeID := chi.URLParam(r, "routeId")
		locale := middleware.LocaleFromContext(r.Context())
		res, err := svc.TransferVehicleTypes(r.Context(), locale, routeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		markStale(w, res.Stale)
		responses.WriteSuccess(w, res.Data)
	}
}

type transferPriceRequest struct {
	RouteID       string `json:"route_id" validate:"required"`
	VehicleTypeID string `json:"vehicle_type_id" validate:"required"`
	TripType      string `json:"trip_type,omitempty" validate:"omitempty,oneof=one_way round_trip"`
	PickupDate    string `json:"pickup_date" validate:"required,datetime=2006-01-02"`
	Passengers    int    `json:"passengers" validate:"required,gt=0"`
}

// TransferPriceCalculate quotes a transfer leg without caching.
func TransferPriceCalculate(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload transferPriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locale := middleware.LocaleFromContext(r.Context())
		price, err := svc.CalculateTransferPrice(r.Context(), locale, upstream.TransferPriceRequest{
			RouteID:       payload.RouteID,
			VehicleTypeID: payload.VehicleTypeID,
			TripType:      payload.TripType,
			PickupDate:    payload.PickupDate,
			Passengers:    payload.Passengers,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, price)
	}
}
