package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
)

const resourceTours = "tours"

// ListTours fetches the tour catalog page.
func (c *Client) ListTours(ctx context.Context, locale string, query url.Values) (*Paginated[Tour], error) {
	var out Paginated[Tour]
	err := c.do(ctx, resourceTours, http.MethodGet, "/tours/", nil, &out,
		withLocale(locale), withQuery(query))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTour fetches one tour by slug.
func (c *Client) GetTour(ctx context.Context, locale, slug string) (*Tour, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tour slug is required")
	}
	var out Tour
	err := c.do(ctx, resourceTours, http.MethodGet, tourPath(slug, ""), nil, &out, withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TourSchedules fetches the departures for a tour.
func (c *Client) TourSchedules(ctx context.Context, locale, slug string) ([]TourSchedule, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tour slug is required")
	}
	var out []TourSchedule
	err := c.do(ctx, resourceTours, http.MethodGet, tourPath(slug, "schedules"), nil, &out, withLocale(locale))
	return out, err
}

// TourStats fetches rating and booking aggregates for a tour.
func (c *Client) TourStats(ctx context.Context, locale, slug string) (*TourStats, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tour slug is required")
	}
	var out TourStats
	err := c.do(ctx, resourceTours, http.MethodGet, tourPath(slug, "stats"), nil, &out, withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TourAvailability fetches per-date seat availability for a tour.
func (c *Client) TourAvailability(ctx context.Context, locale, slug string) ([]TourAvailability, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tour slug is required")
	}
	var out []TourAvailability
	err := c.do(ctx, resourceTours, http.MethodGet, tourPath(slug, "availability"), nil, &out, withLocale(locale))
	return out, err
}

// TourReviews fetches the published reviews for a tour.
func (c *Client) TourReviews(ctx context.Context, locale, slug string) (*Paginated[Review], error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tour slug is required")
	}
	var out Paginated[Review]
	err := c.do(ctx, resourceTours, http.MethodGet, tourPath(slug, "reviews"), nil, &out, withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchTours runs a filtered catalog search.
func (c *Client) SearchTours(ctx context.Context, locale string, req TourSearchRequest) (*Paginated[Tour], error) {
	var out Paginated[Tour]
	err := c.do(ctx, resourceTours, http.MethodPost, "/tours/search/", req, &out, withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTourReview publishes a review for a tour.
func (c *Client) CreateTourReview(ctx context.Context, token, locale, slug string, req CreateReviewRequest) (*Review, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tour slug is required")
	}
	var out Review
	path := fmt.Sprintf("/tours/%s/reviews/create/", url.PathEscape(slug))
	err := c.do(ctx, resourceTours, http.MethodPost, path, req, &out, withToken(token), withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTourBooking submits a tour booking.
func (c *Client) CreateTourBooking(ctx context.Context, token, locale string, req TourBookingRequest) (*BookingResponse, error) {
	var out BookingResponse
	err := c.do(ctx, resourceTours, http.MethodPost, "/tours/booking/", req, &out, withToken(token), withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func tourPath(slug, suffix string) string {
	escaped := url.PathEscape(slug)
	if suffix == "" {
		return fmt.Sprintf("/tours/%s/", escaped)
	}
	return fmt.Sprintf("/tours/%s/%s/", escaped, suffix)
}
