package booking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/peykantravel/peykan-storefront/pkg/enums"
	redislib "github.com/redis/go-redis/v9"
)

type fakeDraftStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeDraftStore() *fakeDraftStore {
	return &fakeDraftStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeDraftStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case string:
		f.values[key] = v
	case []byte:
		f.values[key] = string(v)
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeDraftStore) Get(_ context.Context, key string) (string, error) {
	val, ok := f.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (f *fakeDraftStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeDraftStore) BookingDraftKey(sessionID, domain string) string {
	return "peykan:draft:" + sessionID + ":" + domain
}

func TestStoreSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDraftStore()
	store := NewStore(fake, 24*time.Hour)

	flow := newTestFlow(t, enums.BookingDomainTransfer)
	if err := flow.SubmitStep(StepRoute, json.RawMessage(`{"route":"R1"}`), testNow); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := store.Save(ctx, flow); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := fake.ttls["peykan:draft:sess-1:transfer"]; ttl != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %v", ttl)
	}

	loaded, err := store.Load(ctx, "sess-1", enums.BookingDomainTransfer)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Draft.RouteID != "R1" || loaded.CurrentStep() != StepVehicle {
		t.Fatalf("unexpected restored flow: %+v", loaded)
	}

	if err := store.Delete(ctx, "sess-1", enums.BookingDomainTransfer); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "sess-1", enums.BookingDomainTransfer); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
}

func TestStoreLoadCorruptPayload(t *testing.T) {
	fake := newFakeDraftStore()
	store := NewStore(fake, time.Hour)
	fake.values["peykan:draft:sess-1:tour"] = "{not json"

	if _, err := store.Load(context.Background(), "sess-1", enums.BookingDomainTour); err == nil {
		t.Fatal("expected decode error")
	}
}
