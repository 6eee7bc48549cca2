package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
)

const resourceTransfers = "transfers"

// TransferRoutes fetches the bookable transfer routes.
func (c *Client) TransferRoutes(ctx context.Context, locale string, query url.Values) (*Paginated[TransferRoute], error) {
	var out Paginated[TransferRoute]
	err := c.do(ctx, resourceTransfers, http.MethodGet, "/transfers/routes/", nil, &out,
		withLocale(locale), withQuery(query))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TransferRouteDetail fetches one route by id.
func (c *Client) TransferRouteDetail(ctx context.Context, locale, routeID string) (*TransferRoute, error) {
	if strings.TrimSpace(routeID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "route id is required")
	}
	var out TransferRoute
	path := fmt.Sprintf("/transfers/routes/%s/", url.PathEscape(routeID))
	err := c.do(ctx, resourceTransfers, http.MethodGet, path, nil, &out, withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TransferVehicleTypes fetches the vehicle classes available on a route.
func (c *Client) TransferVehicleTypes(ctx context.Context, locale, routeID string) ([]VehicleType, error) {
	if strings.TrimSpace(routeID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "route id is required")
	}
	var out []VehicleType
	path := fmt.Sprintf("/transfers/routes/%s/vehicles/", url.PathEscape(routeID))
	err := c.do(ctx, resourceTransfers, http.MethodGet, path, nil, &out, withLocale(locale))
	return out, err
}

// CalculateTransferPrice asks the backend to price a transfer leg.
func (c *Client) CalculateTransferPrice(ctx context.Context, locale string, req TransferPriceRequest) (*TransferPrice, error) {
	var out TransferPrice
	err := c.do(ctx, resourceTransfers, http.MethodPost, "/transfers/calculate-price/", req, &out, withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTransferBooking submits a transfer booking.
func (c *Client) CreateTransferBooking(ctx context.Context, token, locale string, req TransferBookingRequest) (*BookingResponse, error) {
	var out BookingResponse
	err := c.do(ctx, resourceTransfers, http.MethodPost, "/transfers/booking/", req, &out, withToken(token), withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}
