// Package catalog fronts the backend's read-mostly catalog resources
// with stale-while-revalidate caches. Listings and details are cached
// per locale; volatile data (availability, seat maps, prices) always
// goes to the backend.
package catalog

import (
	"context"
	"fmt"
	"net/url"

	"github.com/peykantravel/peykan-storefront/pkg/config"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	"github.com/peykantravel/peykan-storefront/pkg/metrics"
	"github.com/peykantravel/peykan-storefront/pkg/swr"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

// backendCatalog is the slice of the upstream client catalog reads use.
type backendCatalog interface {
	ListTours(ctx context.Context, locale string, query url.Values) (*upstream.Paginated[upstream.Tour], error)
	GetTour(ctx context.Context, locale, slug string) (*upstream.Tour, error)
	TourSchedules(ctx context.Context, locale, slug string) ([]upstream.TourSchedule, error)
	TourStats(ctx context.Context, locale, slug string) (*upstream.TourStats, error)
	TourAvailability(ctx context.Context, locale, slug string) ([]upstream.TourAvailability, error)
	TourReviews(ctx context.Context, locale, slug string) (*upstream.Paginated[upstream.Review], error)
	SearchTours(ctx context.Context, locale string, req upstream.TourSearchRequest) (*upstream.Paginated[upstream.Tour], error)
	CreateTourReview(ctx context.Context, token, locale, slug string, req upstream.CreateReviewRequest) (*upstream.Review, error)

	ListEvents(ctx context.Context, locale string, query url.Values) (*upstream.Paginated[upstream.Event], error)
	GetEvent(ctx context.Context, locale, slug string) (*upstream.Event, error)
	EventPerformances(ctx context.Context, locale, slug string) ([]upstream.Performance, error)
	PerformanceSeats(ctx context.Context, locale, slug, performanceID string) ([]upstream.SeatInfo, error)

	TransferRoutes(ctx context.Context, locale string, query url.Values) (*upstream.Paginated[upstream.TransferRoute], error)
	TransferRouteDetail(ctx context.Context, locale, routeID string) (*upstream.TransferRoute, error)
	TransferVehicleTypes(ctx context.Context, locale, routeID string) ([]upstream.VehicleType, error)
	CalculateTransferPrice(ctx context.Context, locale string, req upstream.TransferPriceRequest) (*upstream.TransferPrice, error)
}

// Service owns one cache per cached resource family.
type Service struct {
	backend backendCatalog

	tourLists   *swr.Cache[*upstream.Paginated[upstream.Tour]]
	tours       *swr.Cache[*upstream.Tour]
	eventLists  *swr.Cache[*upstream.Paginated[upstream.Event]]
	events      *swr.Cache[*upstream.Event]
	routeLists  *swr.Cache[*upstream.Paginated[upstream.TransferRoute]]
	routes      *swr.Cache[*upstream.TransferRoute]
	vehicles    *swr.Cache[[]upstream.VehicleType]
	schedules   *swr.Cache[[]upstream.TourSchedule]
	performance *swr.Cache[[]upstream.Performance]
}

// NewService builds the catalog service. Metrics may be nil.
func NewService(backend backendCatalog, cfg config.SWRConfig, m *metrics.SWRMetrics) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend client required")
	}
	opts := swr.Options{
		FreshFor:         cfg.FreshFor,
		DedupingInterval: cfg.DedupingInterval,
		RefreshInterval:  cfg.RefreshInterval,
	}
	return &Service{
		backend:     backend,
		tourLists:   swr.New[*upstream.Paginated[upstream.Tour]]("tour_lists", opts, m),
		tours:       swr.New[*upstream.Tour]("tours", opts, m),
		eventLists:  swr.New[*upstream.Paginated[upstream.Event]]("event_lists", opts, m),
		events:      swr.New[*upstream.Event]("events", opts, m),
		routeLists:  swr.New[*upstream.Paginated[upstream.TransferRoute]]("transfer_route_lists", opts, m),
		routes:      swr.New[*upstream.TransferRoute]("transfer_routes", opts, m),
		vehicles:    swr.New[[]upstream.VehicleType]("vehicle_types", opts, m),
		schedules:   swr.New[[]upstream.TourSchedule]("tour_schedules", opts, m),
		performance: swr.New[[]upstream.Performance]("event_performances", opts, m),
	}, nil
}

// Stop terminates any background refresh loops.
func (s *Service) Stop() {
	s.tourLists.Stop()
	s.tours.Stop()
	s.eventLists.Stop()
	s.events.Stop()
	s.routeLists.Stop()
	s.routes.Stop()
	s.vehicles.Stop()
	s.schedules.Stop()
	s.performance.Stop()
}

// cacheKey builds a per-locale key; query order is normalized by Encode.
func cacheKey(locale enums.Locale, parts ...string) string {
	key := locale.String()
	for _, p := range parts {
		key += "|" + p
	}
	return key
}

// Result pairs a value with its staleness so handlers can surface it.
type Result[V any] struct {
	Data  V
	Stale bool
}

func wrap[V any](res swr.Result[V]) (Result[V], error) {
	if res.Err != nil {
		return Result[V]{}, res.Err
	}
	return Result[V]{Data: res.Data, Stale: res.Stale}, nil
}

func (s *Service) Tours(ctx context.Context, locale enums.Locale, query url.Values) (Result[*upstream.Paginated[upstream.Tour]], error) {
	key := cacheKey(locale, "list", query.Encode())
	return wrap(s.tourLists.Get(ctx, key, func(ctx context.Context) (*upstream.Paginated[upstream.Tour], error) {
		return s.backend.ListTours(ctx, locale.String(), query)
	}))
}

func (s *Service) Tour(ctx context.Context, locale enums.Locale, slug string) (Result[*upstream.Tour], error) {
	return wrap(s.tours.Get(ctx, cacheKey(locale, slug), func(ctx context.Context) (*upstream.Tour, error) {
		return s.backend.GetTour(ctx, locale.String(), slug)
	}))
}

func (s *Service) TourSchedules(ctx context.Context, locale enums.Locale, slug string) (Result[[]upstream.TourSchedule], error) {
	return wrap(s.schedules.Get(ctx, cacheKey(locale, slug), func(ctx context.Context) ([]upstream.TourSchedule, error) {
		return s.backend.TourSchedules(ctx, locale.String(), slug)
	}))
}

// TourStats bypasses the cache; ratings move with every review.
func (s *Service) TourStats(ctx context.Context, locale enums.Locale, slug string) (*upstream.TourStats, error) {
	return s.backend.TourStats(ctx, locale.String(), slug)
}

// TourAvailability bypasses the cache; capacity is live data.
func (s *Service) TourAvailability(ctx context.Context, locale enums.Locale, slug string) ([]upstream.TourAvailability, error) {
	return s.backend.TourAvailability(ctx, locale.String(), slug)
}

func (s *Service) TourReviews(ctx context.Context, locale enums.Locale, slug string) (*upstream.Paginated[upstream.Review], error) {
	return s.backend.TourReviews(ctx, locale.String(), slug)
}

func (s *Service) SearchTours(ctx context.Context, locale enums.Locale, req upstream.TourSearchRequest) (*upstream.Paginated[upstream.Tour], error) {
	return s.backend.SearchTours(ctx, locale.String(), req)
}

// CreateTourReview writes through and invalidates the tour detail so
// the next read reflects the new review count.
func (s *Service) CreateTourReview(ctx context.Context, token string, locale enums.Locale, slug string, req upstream.CreateReviewRequest) (*upstream.Review, error) {
	review, err := s.backend.CreateTourReview(ctx, token, locale.String(), slug, req)
	if err != nil {
		return nil, err
	}
	s.tours.Invalidate(cacheKey(locale, slug))
	return review, nil
}

func (s *Service) Events(ctx context.Context, locale enums.Locale, query url.Values) (Result[*upstream.Paginated[upstream.Event]], error) {
	key := cacheKey(locale, "list", query.Encode())
	return wrap(s.eventLists.Get(ctx, key, func(ctx context.Context) (*upstream.Paginated[upstream.Event], error) {
		return s.backend.ListEvents(ctx, locale.String(), query)
	}))
}

func (s *Service) Event(ctx context.Context, locale enums.Locale, slug string) (Result[*upstream.Event], error) {
	return wrap(s.events.Get(ctx, cacheKey(locale, slug), func(ctx context.Context) (*upstream.Event, error) {
		return s.backend.GetEvent(ctx, locale.String(), slug)
	}))
}

func (s *Service) EventPerformances(ctx context.Context, locale enums.Locale, slug string) (Result[[]upstream.Performance], error) {
	return wrap(s.performance.Get(ctx, cacheKey(locale, slug), func(ctx context.Context) ([]upstream.Performance, error) {
		return s.backend.EventPerformances(ctx, locale.String(), slug)
	}))
}

// PerformanceSeats bypasses the cache; seat state changes as others book.
func (s *Service) PerformanceSeats(ctx context.Context, locale enums.Locale, slug, performanceID string) ([]upstream.SeatInfo, error) {
	return s.backend.PerformanceSeats(ctx, locale.String(), slug, performanceID)
}

func (s *Service) TransferRoutes(ctx context.Context, locale enums.Locale, query url.Values) (Result[*upstream.Paginated[upstream.TransferRoute]], error) {
	key := cacheKey(locale, "list", query.Encode())
	return wrap(s.routeLists.Get(ctx, key, func(ctx context.Context) (*upstream.Paginated[upstream.TransferRoute], error) {
		return s.backend.TransferRoutes(ctx, locale.String(), query)
	}))
}

func (s *Service) TransferRoute(ctx context.Context, locale enums.Locale, routeID string) (Result[*upstream.TransferRoute], error) {
	return wrap(s.routes.Get(ctx, cacheKey(locale, routeID), func(ctx context.Context) (*upstream.TransferRoute, error) {
		return s.backend.TransferRouteDetail(ctx, locale.String(), routeID)
	}))
}

func (s *Service) TransferVehicleTypes(ctx context.Context, locale enums.Locale, routeID string) (Result[[]upstream.VehicleType], error) {
	return wrap(s.vehicles.Get(ctx, cacheKey(locale, routeID), func(ctx context.Context) ([]upstream.VehicleType, error) {
		return s.backend.TransferVehicleTypes(ctx, locale.String(), routeID)
	}))
}

// CalculateTransferPrice bypasses the cache; quotes depend on request
// parameters and surge state.
func (s *Service) CalculateTransferPrice(ctx context.Context, locale enums.Locale, req upstream.TransferPriceRequest) (*upstream.TransferPrice, error) {
	return s.backend.CalculateTransferPrice(ctx, locale.String(), req)
}
