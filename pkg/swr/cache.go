// Package swr implements a stale-while-revalidate cache for backend
// reads. Cached values are served immediately; a background fetch
// refreshes them once they age past the freshness window. Request ids
// are issued monotonically per key so that a slow, older fetch can
// never overwrite the result of a newer one, regardless of which
// resolves first.
package swr

import (
	"context"
	"sync"
	"time"

	"github.com/peykantravel/peykan-storefront/pkg/metrics"
)

// Options tunes cache behaviour. The zero value disables dedup and the
// refresh loop and treats every entry as immediately stale.
type Options struct {
	// FreshFor is how long a fetched value is served without
	// triggering revalidation.
	FreshFor time.Duration
	// DedupingInterval joins a Get to an in-flight fetch for the
	// same key instead of issuing a second request.
	DedupingInterval time.Duration
	// RefreshInterval, when positive, enables the background
	// refresh loop started by StartRefresh.
	RefreshInterval time.Duration
}

// Fetcher loads the value for a key from the source of truth.
type Fetcher[V any] func(ctx context.Context) (V, error)

// Result is what a lookup returns. Data may be stale when Err is set;
// callers decide whether stale data is acceptable.
type Result[V any] struct {
	Data  V
	Err   error
	Stale bool
}

type entry[V any] struct {
	value     V
	hasValue  bool
	fetchedAt time.Time
	lastErr   error

	// lastIssuedID is the id of the newest fetch issued for this
	// key. A resolution whose id is older is discarded.
	lastIssuedID uint64

	inFlight   bool
	inFlightID uint64
	startedAt  time.Time
	done       chan struct{}
}

// Cache is a keyed stale-while-revalidate cache. Safe for concurrent
// use. The name labels metrics only.
type Cache[V any] struct {
	name    string
	opts    Options
	metrics *metrics.SWRMetrics

	mu      sync.Mutex
	entries map[string]*entry[V]
	nextID  uint64

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New builds a cache with the given metrics sink. Metrics may be nil.
func New[V any](name string, opts Options, m *metrics.SWRMetrics) *Cache[V] {
	return &Cache[V]{
		name:    name,
		opts:    opts,
		metrics: m,
		entries: make(map[string]*entry[V]),
		stopCh:  make(chan struct{}),
	}
}

// Get returns the cached value for key, fetching when absent or stale.
// A fresh hit returns immediately. A stale hit returns the cached value
// and kicks off a background revalidation. An empty key disables
// fetching and returns a zero Result.
func (c *Cache[V]) Get(ctx context.Context, key string, fetch Fetcher[V]) Result[V] {
	if c == nil || key == "" || fetch == nil {
		return Result[V]{}
	}

	c.mu.Lock()
	ent, ok := c.entries[key]
	if !ok {
		ent = &entry[V]{}
		c.entries[key] = ent
	}

	now := time.Now()
	if ent.hasValue && now.Sub(ent.fetchedAt) < c.opts.FreshFor {
		res := Result[V]{Data: ent.value, Err: ent.lastErr}
		c.mu.Unlock()
		c.metrics.IncHit(c.name, "fresh")
		return res
	}

	// Join an in-flight fetch inside the dedup window instead of
	// starting another one.
	if ent.inFlight && now.Sub(ent.startedAt) < c.opts.DedupingInterval {
		done := ent.done
		c.mu.Unlock()
		c.metrics.IncHit(c.name, "dedup")
		return c.waitFor(ctx, key, done)
	}

	if ent.hasValue {
		// Serve stale now, revalidate in the background.
		res := Result[V]{Data: ent.value, Err: ent.lastErr, Stale: true}
		c.startFetchLocked(key, ent, fetch)
		c.mu.Unlock()
		c.metrics.IncHit(c.name, "stale")
		c.metrics.IncStaleServed(c.name)
		return res
	}

	// Cold miss: fetch synchronously.
	done := c.startFetchLocked(key, ent, fetch)
	c.mu.Unlock()
	return c.waitFor(ctx, key, done)
}

// Revalidate forces a fetch for key regardless of freshness and waits
// for it to resolve.
func (c *Cache[V]) Revalidate(ctx context.Context, key string, fetch Fetcher[V]) Result[V] {
	if c == nil || key == "" || fetch == nil {
		return Result[V]{}
	}

	c.mu.Lock()
	ent, ok := c.entries[key]
	if !ok {
		ent = &entry[V]{}
		c.entries[key] = ent
	}
	done := c.startFetchLocked(key, ent, fetch)
	c.mu.Unlock()

	return c.waitFor(ctx, key, done)
}

// Peek returns the cached value without triggering any fetch.
func (c *Cache[V]) Peek(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.entries[key]
	if !ok || !ent.hasValue {
		return zero, false
	}
	return ent.value, true
}

// Invalidate drops the cached value for key. An in-flight fetch for the
// key still resolves and stores its result.
func (c *Cache[V]) Invalidate(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.entries[key]
	if !ok {
		return
	}
	var zero V
	ent.value = zero
	ent.hasValue = false
	ent.fetchedAt = time.Time{}
	ent.lastErr = nil
}

// startFetchLocked issues a new fetch id for key and launches the
// fetch. The caller holds c.mu. Returns a channel closed when the fetch
// resolves.
func (c *Cache[V]) startFetchLocked(key string, ent *entry[V], fetch Fetcher[V]) chan struct{} {
	c.nextID++
	id := c.nextID
	ent.lastIssuedID = id
	ent.inFlight = true
	ent.inFlightID = id
	ent.startedAt = time.Now()
	done := make(chan struct{})
	ent.done = done

	go c.runFetch(key, id, fetch, done)
	return done
}

// runFetch executes one fetch and applies its result only if no newer
// fetch was issued for the key while it was running.
func (c *Cache[V]) runFetch(key string, id uint64, fetch Fetcher[V], done chan struct{}) {
	defer close(done)

	// Fetches outlive the request that triggered them; a caller
	// navigating away must not cancel a shared revalidation.
	ctx := context.Background()

	start := time.Now()
	value, err := fetch(ctx)
	c.metrics.ObserveFetch(c.name, time.Since(start))

	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		return
	}
	if id < ent.lastIssuedID {
		// A newer fetch was issued; this resolution is obsolete
		// no matter what it carries.
		c.metrics.IncRevalidation(c.name, "discarded")
		return
	}
	if ent.inFlightID == id {
		ent.inFlight = false
	}
	if err != nil {
		// Stale-on-error: keep the prior value, record the error.
		ent.lastErr = err
		c.metrics.IncRevalidation(c.name, "error")
		return
	}
	ent.value = value
	ent.hasValue = true
	ent.fetchedAt = time.Now()
	ent.lastErr = nil
	c.metrics.IncRevalidation(c.name, "success")
}

// waitFor blocks until the fetch behind done resolves, then reads the
// entry state. Context expiry returns the current (possibly empty)
// state without cancelling the shared fetch.
func (c *Cache[V]) waitFor(ctx context.Context, key string, done chan struct{}) Result[V] {
	select {
	case <-done:
	case <-ctx.Done():
		c.mu.Lock()
		defer c.mu.Unlock()
		ent, ok := c.entries[key]
		if !ok || !ent.hasValue {
			return Result[V]{Err: ctx.Err()}
		}
		return Result[V]{Data: ent.value, Err: ctx.Err(), Stale: true}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.entries[key]
	if !ok {
		return Result[V]{}
	}
	return Result[V]{Data: ent.value, Err: ent.lastErr, Stale: !ent.hasValue}
}

// StartRefresh launches the background refresh loop. Every
// RefreshInterval each known key is revalidated with the provided
// fetcher factory. No-op when RefreshInterval is zero.
func (c *Cache[V]) StartRefresh(fetchFor func(key string) Fetcher[V]) {
	if c == nil || c.opts.RefreshInterval <= 0 || fetchFor == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(c.opts.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.refreshAll(fetchFor)
			}
		}
	}()
}

// Stop terminates the refresh loop. Safe to call more than once.
func (c *Cache[V]) Stop() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Cache[V]) refreshAll(fetchFor func(key string) Fetcher[V]) {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for key, ent := range c.entries {
		if ent.hasValue && !ent.inFlight {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()

	for _, key := range keys {
		fetch := fetchFor(key)
		if fetch == nil {
			continue
		}
		c.mu.Lock()
		ent, ok := c.entries[key]
		if ok && !ent.inFlight {
			c.startFetchLocked(key, ent, fetch)
		}
		c.mu.Unlock()
	}
}
