// Package analytics publishes storefront events to Pub/Sub. Publishing
// is best effort: a failure is logged and never surfaces to the request
// that produced the event.
package analytics

import (
	"context"
	"encoding/json"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/peykantravel/peykan-storefront/internal/analytics/payloads"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
)

const publishTimeout = 10 * time.Second

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

// Service emits typed storefront events.
type Service struct {
	pub  publisher
	logg *logger.Logger
}

// NewService builds the analytics emitter. A nil publisher yields a
// no-op service so callers never need to branch on configuration.
func NewService(pub *gcppubsub.Publisher, logg *logger.Logger) *Service {
	return &Service{
		pub:  newGCPPublisher(pub),
		logg: logg,
	}
}

// CartItemAdded emits a cart_item_added event.
func (s *Service) CartItemAdded(ctx context.Context, event payloads.CartItemAddedEvent) {
	s.emit(ctx, payloads.EventCartItemAdded, event)
}

// BookingConfirmed emits a booking_confirmed event.
func (s *Service) BookingConfirmed(ctx context.Context, event payloads.BookingConfirmedEvent) {
	s.emit(ctx, payloads.EventBookingConfirmed, event)
}

// OrderCreated emits an order_created event.
func (s *Service) OrderCreated(ctx context.Context, event payloads.OrderCreatedEvent) {
	s.emit(ctx, payloads.EventOrderCreated, event)
}

func (s *Service) emit(ctx context.Context, eventType string, payload any) {
	if s == nil || s.pub == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logError(ctx, eventType, err)
		return
	}

	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id":   uuid.NewString(),
			"event_type": eventType,
			"emitted_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}

	// Detached from the request context so a finished request does
	// not cancel the publish.
	go func() {
		publishCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		result := s.pub.Publish(publishCtx, msg)
		if result == nil {
			return
		}
		if _, err := result.Get(publishCtx); err != nil {
			s.logError(publishCtx, eventType, err)
		}
	}()
}

func (s *Service) logError(ctx context.Context, eventType string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(s.logg.WithField(ctx, "event_type", eventType), "publish analytics event", err)
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
