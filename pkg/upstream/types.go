package upstream

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Paginated wraps backend list responses.
type Paginated[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Tour is the catalog representation of a tour product.
type Tour struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Duration    string          `json:"duration"`
	Location    string          `json:"location"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Currency    string          `json:"currency"`
	Rating      float64         `json:"rating"`
	ReviewCount int             `json:"review_count"`
}

// TourSchedule is one departure of a tour.
type TourSchedule struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Available bool   `json:"available"`
}

// TourVariant is a priced variation of a tour (eco, vip, ...).
type TourVariant struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Capacity int             `json:"capacity"`
}

// TourStats aggregates ratings and booking counts for a tour.
type TourStats struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
	BookingCount  int     `json:"booking_count"`
}

// TourAvailability reports per-date seat availability.
type TourAvailability struct {
	Date      string `json:"date"`
	Available int    `json:"available"`
}

// Review is a published tour review.
type Review struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Rating    int    `json:"rating"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
}

// CreateReviewRequest is the payload for publishing a review.
type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title,omitempty"`
	Comment string `json:"comment"`
}

// TourSearchRequest filters the tour catalog.
type TourSearchRequest struct {
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
	MinPrice string `json:"min_price,omitempty"`
	MaxPrice string `json:"max_price,omitempty"`
	SortBy   string `json:"sort_by,omitempty"`
}

// TourBookingRequest creates a tour booking.
type TourBookingRequest struct {
	TourID         string          `json:"tour_id"`
	ScheduleID     string          `json:"schedule_id"`
	VariantID      string          `json:"variant_id,omitempty"`
	Adults         int             `json:"adults"`
	Children       int             `json:"children"`
	Infants        int             `json:"infants"`
	Options        []BookingOption `json:"options"`
	SpecialRequest string          `json:"special_request,omitempty"`
	Contact        *BookingContact `json:"contact,omitempty"`
}

// BookingOption selects a priced add-on on any booking request.
type BookingOption struct {
	OptionID string `json:"option_id"`
	Quantity int    `json:"quantity"`
}

// BookingContact carries the lead passenger details.
type BookingContact struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// BookingResponse is the backend acknowledgement of a created booking.
type BookingResponse struct {
	BookingID   string          `json:"booking_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
}

// Event is the catalog representation of an event product.
type Event struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Venue       string          `json:"venue"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Currency    string          `json:"currency"`
}

// Performance is one dated occurrence of an event.
type Performance struct {
	ID       string `json:"id"`
	DateTime string `json:"date_time"`
	Venue    string `json:"venue"`
	OnSale   bool   `json:"on_sale"`
}

// SeatInfo describes one sellable seat for a performance.
type SeatInfo struct {
	Row       string          `json:"row"`
	Seat      string          `json:"seat"`
	Section   string          `json:"section"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
}

// EventBookingRequest creates an event booking.
type EventBookingRequest struct {
	EventID       string          `json:"event_id"`
	PerformanceID string          `json:"performance_id"`
	TicketTypeID  string          `json:"ticket_type_id"`
	Seats         []SeatSelection `json:"seats"`
	Options       []BookingOption `json:"options"`
	Contact       *BookingContact `json:"contact,omitempty"`
}

// SeatSelection identifies one requested seat.
type SeatSelection struct {
	Row     string `json:"row"`
	Seat    string `json:"seat"`
	Section string `json:"section"`
}

// TransferRoute is a bookable origin/destination pair.
type TransferRoute struct {
	ID          string `json:"id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Distance    string `json:"distance"`
	Duration    string `json:"duration"`
}

// VehicleType is a priced vehicle class on a route.
type VehicleType struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Capacity  int             `json:"capacity"`
	BasePrice decimal.Decimal `json:"base_price"`
	Currency  string          `json:"currency"`
}

// TransferPriceRequest asks the backend to price a transfer leg.
type TransferPriceRequest struct {
	RouteID       string `json:"route_id"`
	VehicleTypeID string `json:"vehicle_type_id"`
	TripType      string `json:"trip_type"`
	PickupDate    string `json:"pickup_date"`
	Passengers    int    `json:"passengers"`
}

// TransferPrice is the priced transfer leg.
type TransferPrice struct {
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// TransferBookingRequest creates a transfer booking. Field names match
// the backend contract exactly.
type TransferBookingRequest struct {
	Route      string          `json:"route"`
	Vehicle    string          `json:"vehicle"`
	PickupDate string          `json:"pickup_date"`
	Passengers int             `json:"passengers"`
	Options    []BookingOption `json:"options"`
	Contact    *BookingContact `json:"contact,omitempty"`
}

// RemoteCart mirrors the backend cart document.
type RemoteCart struct {
	ID         string           `json:"id"`
	Currency   string           `json:"currency"`
	Items      []RemoteCartItem `json:"items"`
	Subtotal   decimal.Decimal  `json:"subtotal"`
	Total      decimal.Decimal  `json:"total"`
	TotalItems int              `json:"total_items"`
}

// RemoteCartItem is one backend cart line. Detail is the per-kind
// payload, decoded by the cart layer.
type RemoteCartItem struct {
	ID        string          `json:"id"`
	Kind      string          `json:"product_type"`
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Detail    json.RawMessage `json:"detail"`
}

// CartSummary is the lightweight totals view.
type CartSummary struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Total      decimal.Decimal `json:"total"`
	TotalItems int             `json:"total_items"`
	Currency   string          `json:"currency"`
}

// AddCartItemRequest adds one line to the backend cart.
type AddCartItemRequest struct {
	Kind      string          `json:"product_type"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Detail    json.RawMessage `json:"detail,omitempty"`
}

// UpdateCartItemRequest changes one line's quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// Order is a placed order.
type Order struct {
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	CreatedAt   string          `json:"created_at"`
}

// CreateOrderRequest turns the server cart into an order.
type CreateOrderRequest struct {
	CartID  string          `json:"cart_id,omitempty"`
	Contact *BookingContact `json:"contact,omitempty"`
	Notes   string          `json:"notes,omitempty"`
}

// Payment is one payment attempt against an order.
type Payment struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"order_number"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Method      string          `json:"method"`
}

// CreatePaymentRequest starts a payment for an order.
type CreatePaymentRequest struct {
	OrderNumber string `json:"order_number"`
	Method      string `json:"method"`
	ReturnURL   string `json:"return_url,omitempty"`
}

// LoginRequest authenticates a user against the backend.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest creates a backend account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// TokenPair is the backend-issued access/refresh pair. It never leaves
// the server side of the storefront.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthResponse is the login/register acknowledgement.
type AuthResponse struct {
	Tokens TokenPair `json:"tokens"`
	User   User      `json:"user"`
}

// User is the backend account profile.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	IsAgent   bool   `json:"is_agent"`
}

// OTPRequest asks the backend to send a one-time code.
type OTPRequest struct {
	Phone string `json:"phone"`
}

// OTPVerifyRequest exchanges a one-time code for tokens.
type OTPVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordConfirmRequest completes a password reset.
type ResetPasswordConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AgentDashboard is the agent home summary.
type AgentDashboard struct {
	TotalOrders       int             `json:"total_orders"`
	TotalCommission   decimal.Decimal `json:"total_commission"`
	PendingOrders     int             `json:"pending_orders"`
	MonthlyCommission decimal.Decimal `json:"monthly_commission"`
}

// Commission is one earned agent commission line.
type Commission struct {
	OrderNumber string          `json:"order_number"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	EarnedAt    string          `json:"earned_at"`
}
