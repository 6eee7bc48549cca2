package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/peykantravel/peykan-storefront/internal/analytics/payloads"
)

type fakeResult struct {
	err error
}

func (r *fakeResult) Get(ctx context.Context) (string, error) {
	return "msg-1", r.err
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []*gcppubsub.Message
	err      error
	notify   chan struct{}
}

func (p *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	if p.notify != nil {
		p.notify <- struct{}{}
	}
	return &fakeResult{err: p.err}
}

func TestCartItemAddedPublishesTypedPayload(t *testing.T) {
	fake := &fakePublisher{notify: make(chan struct{}, 1)}
	svc := &Service{pub: fake}

	svc.CartItemAdded(context.Background(), payloads.CartItemAddedEvent{
		SessionID:   "sess-1",
		ProductType: "tour",
		ProductID:   "t1",
		Quantity:    2,
	})

	select {
	case <-fake.notify:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish never happened")
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.messages))
	}
	msg := fake.messages[0]
	if msg.Attributes["event_type"] != payloads.EventCartItemAdded {
		t.Fatalf("unexpected event_type %q", msg.Attributes["event_type"])
	}
	if msg.Attributes["event_id"] == "" {
		t.Fatalf("expected event_id attribute")
	}

	var decoded payloads.CartItemAddedEvent
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded.SessionID != "sess-1" || decoded.ProductID != "t1" || decoded.Quantity != 2 {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestEmitIsBestEffort(t *testing.T) {
	fake := &fakePublisher{err: errors.New("topic gone"), notify: make(chan struct{}, 1)}
	svc := &Service{pub: fake}

	// Must not panic or surface the error.
	svc.BookingConfirmed(context.Background(), payloads.BookingConfirmedEvent{SessionID: "s"})

	select {
	case <-fake.notify:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish never happened")
	}
}

func TestNilServiceAndNilPublisherAreNoOps(t *testing.T) {
	var svc *Service
	svc.OrderCreated(context.Background(), payloads.OrderCreatedEvent{})

	empty := NewService(nil, nil)
	empty.OrderCreated(context.Background(), payloads.OrderCreatedEvent{OrderNumber: "o1"})
}
