package swr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestColdMissFetchesSynchronously(t *testing.T) {
	cache := New[string]("test", Options{FreshFor: time.Minute}, nil)

	res := cache.Get(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "v1", nil
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Data != "v1" {
		t.Fatalf("expected v1, got %q", res.Data)
	}
	if res.Stale {
		t.Fatalf("cold fetch must not be stale")
	}
}

func TestFreshHitSkipsFetch(t *testing.T) {
	cache := New[string]("test", Options{FreshFor: time.Minute}, nil)
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "v1", nil
	}

	cache.Get(context.Background(), "k", fetch)
	res := cache.Get(context.Background(), "k", fetch)
	if res.Data != "v1" {
		t.Fatalf("expected cached v1, got %q", res.Data)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 fetch, got %d", got)
	}
}

func TestEmptyKeyDisablesFetching(t *testing.T) {
	cache := New[string]("test", Options{}, nil)
	called := false

	res := cache.Get(context.Background(), "", func(ctx context.Context) (string, error) {
		called = true
		return "v", nil
	})
	if called {
		t.Fatalf("fetch must not run for empty key")
	}
	if res.Data != "" || res.Err != nil {
		t.Fatalf("expected zero result, got %+v", res)
	}
}

func TestNewerRequestWinsRegardlessOfResolutionOrder(t *testing.T) {
	cache := New[string]("test", Options{}, nil)

	releaseA := make(chan struct{})
	fetchA := func(ctx context.Context) (string, error) {
		<-releaseA
		return "A", nil
	}
	fetchB := func(ctx context.Context) (string, error) {
		return "B", nil
	}

	// Issue A, then B before A resolves. B resolves immediately;
	// A resolves afterwards and must be discarded.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cache.Get(context.Background(), "k", fetchA)
	}()

	// Give A's goroutine time to be issued first.
	waitForInFlight(t, cache, "k")

	resB := cache.Revalidate(context.Background(), "k", fetchB)
	if resB.Data != "B" {
		t.Fatalf("expected B, got %q", resB.Data)
	}

	close(releaseA)
	wg.Wait()

	// A has resolved by now; the cached value must still be B.
	got, ok := cache.Peek("k")
	if !ok {
		t.Fatalf("expected cached value")
	}
	if got != "B" {
		t.Fatalf("late resolution of older fetch overwrote newer result: got %q", got)
	}
}

func TestStaleOnErrorKeepsPriorValue(t *testing.T) {
	cache := New[string]("test", Options{}, nil)

	res := cache.Get(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "v1", nil
	})
	if res.Data != "v1" {
		t.Fatalf("seed fetch failed: %+v", res)
	}

	fetchErr := errors.New("backend down")
	res = cache.Revalidate(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "", fetchErr
	})
	if !errors.Is(res.Err, fetchErr) {
		t.Fatalf("expected captured error, got %v", res.Err)
	}
	if res.Data != "v1" {
		t.Fatalf("prior data must survive a failed fetch, got %q", res.Data)
	}
}

func TestDedupJoinsInFlightFetch(t *testing.T) {
	cache := New[string]("test", Options{DedupingInterval: time.Minute}, nil)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	results := make([]Result[string], 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Get(context.Background(), "k", fetch)
		}(i)
	}

	waitForInFlight(t, cache, "k")
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single deduped fetch, got %d", got)
	}
	for i, res := range results {
		if res.Data != "v" || res.Err != nil {
			t.Fatalf("caller %d got %+v", i, res)
		}
	}
}

func TestRevalidateBypassesFreshness(t *testing.T) {
	cache := New[string]("test", Options{FreshFor: time.Hour}, nil)

	var version atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		if version.Add(1) == 1 {
			return "v1", nil
		}
		return "v2", nil
	}

	cache.Get(context.Background(), "k", fetch)
	res := cache.Revalidate(context.Background(), "k", fetch)
	if res.Data != "v2" {
		t.Fatalf("expected forced refetch to return v2, got %q", res.Data)
	}
}

func TestInvalidateDropsValue(t *testing.T) {
	cache := New[string]("test", Options{FreshFor: time.Hour}, nil)

	cache.Get(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "v1", nil
	})
	cache.Invalidate("k")

	if _, ok := cache.Peek("k"); ok {
		t.Fatalf("expected value dropped")
	}
}

func TestBackgroundRefreshUpdatesKnownKeys(t *testing.T) {
	cache := New[string]("test", Options{FreshFor: time.Hour, RefreshInterval: 5 * time.Millisecond}, nil)
	defer cache.Stop()

	var version atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		if version.Add(1) == 1 {
			return "v1", nil
		}
		return "v2", nil
	}

	res := cache.Get(context.Background(), "k", fetch)
	if res.Data != "v1" {
		t.Fatalf("seed fetch failed: %+v", res)
	}

	cache.StartRefresh(func(key string) Fetcher[string] {
		if key != "k" {
			t.Errorf("refresh asked for unknown key %q", key)
			return nil
		}
		return fetch
	})

	// The value is fresh for an hour, so only the refresh loop can
	// replace it.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got, ok := cache.Peek("k"); ok && got == "v2" {
			return
		}
		time.Sleep(time.Millisecond)
	}
	got, _ := cache.Peek("k")
	t.Fatalf("refresh loop never replaced the value, still %q", got)
}

func TestStopTerminatesRefreshLoop(t *testing.T) {
	cache := New[string]("test", Options{FreshFor: time.Hour, RefreshInterval: time.Millisecond}, nil)

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "v", nil
	}

	cache.Get(context.Background(), "k", fetch)
	cache.StartRefresh(func(string) Fetcher[string] { return fetch })

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if calls.Load() < 2 {
		t.Fatal("refresh loop never ran")
	}

	cache.Stop()
	// Let any in-flight tick drain, then verify the loop is quiet.
	time.Sleep(20 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != settled {
		t.Fatalf("refresh loop kept running after Stop: %d then %d", settled, calls.Load())
	}
}

// waitForInFlight polls until a fetch is in flight for key.
func waitForInFlight(t *testing.T, cache *Cache[string], key string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cache.mu.Lock()
		ent, ok := cache.entries[key]
		inFlight := ok && ent.inFlight
		cache.mu.Unlock()
		if inFlight {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("fetch for %q never started", key)
}
