package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/peykantravel/peykan-storefront/api/controllers"
	"github.com/peykantravel/peykan-storefront/api/middleware"
	"github.com/peykantravel/peykan-storefront/internal/analytics"
	"github.com/peykantravel/peykan-storefront/internal/booking"
	"github.com/peykantravel/peykan-storefront/internal/cart"
	"github.com/peykantravel/peykan-storefront/internal/catalog"
	localepkg "github.com/peykantravel/peykan-storefront/internal/locale"
	sessionsvc "github.com/peykantravel/peykan-storefront/internal/session"
	authsession "github.com/peykantravel/peykan-storefront/pkg/auth/session"
	"github.com/peykantravel/peykan-storefront/pkg/config"
	"github.com/peykantravel/peykan-storefront/pkg/db"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
	"github.com/peykantravel/peykan-storefront/pkg/redis"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	sessionChecker authsession.AccessSessionChecker,
	resolver *localepkg.Resolver,
	backend *upstream.Client,
	catalogService *catalog.Service,
	cartService *cart.Service,
	bookingService *booking.Service,
	sessionService *sessionsvc.Service,
	analyticsService *analytics.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	otpPolicy := middleware.NewAuthRateLimitPolicy(
		"otp",
		cfg.AuthRateLimit.OTPWindow,
		cfg.AuthRateLimit.OTPIPLimit,
		cfg.AuthRateLimit.OTPPhoneLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/{locale}/api/v1", func(r chi.Router) {
		r.Use(middleware.Locale(resolver, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(sessionService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(sessionService, logg))
			r.Post("/refresh", controllers.AuthRefresh(sessionService, logg))
			r.Post("/logout", controllers.AuthLogout(sessionService, logg))
			r.With(middleware.AuthRateLimit(otpPolicy, redisClient, logg)).Post("/otp/request", controllers.AuthRequestOTP(sessionService, logg))
			r.With(middleware.AuthRateLimit(otpPolicy, redisClient, logg)).Post("/otp/verify", controllers.AuthVerifyOTP(sessionService, logg))
			r.Post("/forgot-password", controllers.AuthForgotPassword(sessionService, logg))
			r.Post("/reset-password", controllers.AuthResetPassword(sessionService, logg))
			r.With(middleware.Auth(cfg.JWT, sessionChecker, logg)).Put("/currency", controllers.AuthSetCurrency(sessionService, logg))
		})

		r.Route("/tours", func(r chi.Router) {
			r.Get("/", controllers.ToursList(catalogService, logg))
			r.Get("/search", controllers.ToursSearch(catalogService, logg))
			r.Get("/{slug}", controllers.TourDetail(catalogService, logg))
			r.Get("/{slug}/schedules", controllers.TourSchedules(catalogService, logg))
			r.Get("/{slug}/stats", controllers.TourStats(catalogService, logg))
			r.Get("/{slug}/availability", controllers.TourAvailability(catalogService, logg))
			r.Get("/{slug}/reviews", controllers.TourReviews(catalogService, logg))
			r.With(middleware.Auth(cfg.JWT, sessionChecker, logg)).
				Post("/{slug}/reviews", controllers.TourReviewCreate(catalogService, sessionService, logg))
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", controllers.EventsList(catalogService, logg))
			r.Get("/{slug}", controllers.EventDetail(catalogService, logg))
			r.Get("/{slug}/performances", controllers.EventPerformances(catalogService, logg))
			r.Get("/{slug}/performances/{performanceId}/seats", controllers.EventSeats(catalogService, logg))
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Get("/routes", controllers.TransferRoutesList(catalogService, logg))
			r.Get("/routes/{routeId}", controllers.TransferRouteDetail(catalogService, logg))
			r.Get("/routes/{routeId}/vehicle-types", controllers.TransferVehicleTypes(catalogService, logg))
			r.Post("/calculate-price", controllers.TransferPriceCalculate(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, sessionChecker, logg))
			r.Get("/", controllers.CartFetch(cartService, sessionService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, sessionService, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, sessionService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, sessionService, logg))
			r.Delete("/", controllers.CartClear(cartService, sessionService, logg))
			r.Get("/summary", controllers.CartSummary(cartService, sessionService, logg))
			r.Get("/count", controllers.CartCount(cartService, sessionService, logg))
			r.With(middleware.Auth(cfg.JWT, sessionChecker, logg)).Post("/sync", controllers.CartSync(cartService, sessionService, logg))
		})

		r.Route("/booking/{domain}", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, sessionChecker, logg))
			r.Post("/", controllers.BookingStart(bookingService, sessionService, logg))
			r.Get("/", controllers.BookingFetch(bookingService, sessionService, logg))
			r.Post("/steps/{step}", controllers.BookingSubmitStep(bookingService, sessionService, logg))
			r.Post("/back", controllers.BookingBack(bookingService, sessionService, logg))
			r.Delete("/", controllers.BookingCancel(bookingService, sessionService, logg))
			r.With(middleware.Auth(cfg.JWT, sessionChecker, logg)).Post("/confirm", controllers.BookingConfirm(bookingService, sessionService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(backend, sessionService, logg))
				r.Post("/", controllers.OrderCreate(backend, sessionService, analyticsService, logg))
				r.Get("/{orderNumber}", controllers.OrderDetail(backend, sessionService, logg))
				r.Post("/{orderNumber}/cancel", controllers.OrderCancel(backend, sessionService, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Get("/", controllers.PaymentsList(backend, sessionService, logg))
				r.Post("/", controllers.PaymentCreate(backend, sessionService, logg))
				r.Get("/{paymentId}", controllers.PaymentDetail(backend, sessionService, logg))
			})

			r.Route("/agent", func(r chi.Router) {
				r.Use(middleware.RequireAgent(logg))
				r.Get("/dashboard", controllers.AgentDashboard(backend, sessionService, logg))
				r.Get("/orders", controllers.AgentOrdersList(backend, sessionService, logg))
				r.Get("/commissions", controllers.AgentCommissionsList(backend, sessionService, logg))
			})
		})
	})

	return r
}
