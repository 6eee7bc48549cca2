package payloads

import "time"

// Event names carried in the message attributes.
const (
	EventCartItemAdded    = "cart_item_added"
	EventBookingConfirmed = "booking_confirmed"
	EventOrderCreated     = "order_created"
)

// CartItemAddedEvent records one line entering a cart.
type CartItemAddedEvent struct {
	SessionID   string    `json:"session_id"`
	ProductType string    `json:"product_type"`
	ProductID   string    `json:"product_id"`
	Title       string    `json:"title"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Currency    string    `json:"currency"`
	Locale      string    `json:"locale"`
	AddedAt     time.Time `json:"added_at"`
}

// BookingConfirmedEvent records a completed booking flow.
type BookingConfirmedEvent struct {
	SessionID   string    `json:"session_id"`
	Domain      string    `json:"domain"`
	BookingID   string    `json:"booking_id"`
	TotalAmount string    `json:"total_amount"`
	Currency    string    `json:"currency"`
	Locale      string    `json:"locale"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// OrderCreatedEvent records a cart turning into an order.
type OrderCreatedEvent struct {
	SessionID   string    `json:"session_id"`
	OrderNumber string    `json:"order_number"`
	Total       string    `json:"total"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}
