package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
)

const resourceEvents = "events"

// ListEvents fetches the event catalog page.
func (c *Client) ListEvents(ctx context.Context, locale string, query url.Values) (*Paginated[Event], error) {
	var out Paginated[Event]
	err := c.do(ctx, resourceEvents, http.MethodGet, "/events/", nil, &out,
		withLocale(locale), withQuery(query))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEvent fetches one event by slug.
func (c *Client) GetEvent(ctx context.Context, locale, slug string) (*Event, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event slug is required")
	}
	var out Event
	path := fmt.Sprintf("/events/%s/", url.PathEscape(slug))
	err := c.do(ctx, resourceEvents, http.MethodGet, path, nil, &out, withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EventPerformances fetches the dated occurrences of an event.
func (c *Client) EventPerformances(ctx context.Context, locale, slug string) ([]Performance, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event slug is required")
	}
	var out []Performance
	path := fmt.Sprintf("/events/%s/performances/", url.PathEscape(slug))
	err := c.do(ctx, resourceEvents, http.MethodGet, path, nil, &out, withLocale(locale))
	return out, err
}

// PerformanceSeats fetches the sellable seats for a performance.
func (c *Client) PerformanceSeats(ctx context.Context, locale, slug, performanceID string) ([]SeatInfo, error) {
	if strings.TrimSpace(slug) == "" || strings.TrimSpace(performanceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event slug and performance id are required")
	}
	var out []SeatInfo
	path := fmt.Sprintf("/events/%s/performances/%s/seats/", url.PathEscape(slug), url.PathEscape(performanceID))
	err := c.do(ctx, resourceEvents, http.MethodGet, path, nil, &out, withLocale(locale))
	return out, err
}

// CreateEventBooking submits an event booking.
func (c *Client) CreateEventBooking(ctx context.Context, token, locale string, req EventBookingRequest) (*BookingResponse, error) {
	var out BookingResponse
	err := c.do(ctx, resourceEvents, http.MethodPost, "/events/booking/", req, &out, withToken(token), withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}
