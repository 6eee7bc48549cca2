package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/peykantravel/peykan-storefront/pkg/enums"
	redislib "github.com/redis/go-redis/v9"
)

// ErrNoDraft is returned when no flow exists for a session and domain.
var ErrNoDraft = errors.New("booking: no draft for session")

type draftStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	BookingDraftKey(sessionID, domain string) string
}

// Store persists booking flows in Redis as JSON, one entry per session
// and domain, expiring after the configured draft TTL.
type Store struct {
	store draftStore
	ttl   time.Duration
}

func NewStore(store draftStore, ttl time.Duration) *Store {
	return &Store{store: store, ttl: ttl}
}

// Save writes the flow, resetting its TTL.
func (s *Store) Save(ctx context.Context, flow *Flow) error {
	payload, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("encoding booking draft: %w", err)
	}
	key := s.store.BookingDraftKey(flow.Draft.SessionID, flow.Domain.String())
	if err := s.store.Set(ctx, key, payload, s.ttl); err != nil {
		return fmt.Errorf("storing booking draft: %w", err)
	}
	return nil
}

// Load returns the flow for a session and domain, or ErrNoDraft.
func (s *Store) Load(ctx context.Context, sessionID string, domain enums.BookingDomain) (*Flow, error) {
	key := s.store.BookingDraftKey(sessionID, domain.String())
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrNoDraft
		}
		return nil, fmt.Errorf("loading booking draft: %w", err)
	}
	var flow Flow
	if err := json.Unmarshal([]byte(raw), &flow); err != nil {
		return nil, fmt.Errorf("decoding booking draft: %w", err)
	}
	return &flow, nil
}

// Delete removes the flow for a session and domain.
func (s *Store) Delete(ctx context.Context, sessionID string, domain enums.BookingDomain) error {
	key := s.store.BookingDraftKey(sessionID, domain.String())
	return s.store.Del(ctx, key)
}
