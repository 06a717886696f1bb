// Package cache provides a TTL result cache with per-key single-flight
// computation.
//
// Keys are spread over independent shards so that unrelated keys never
// contend on the same lock. For a given key at most one computation runs at
// a time; concurrent callers attach to it and all receive its result. The
// computation is detached from any single caller's context and is cancelled
// only when every attached caller has gone away.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	serrors "github.com/Aman-CERP/hybridsearch/internal/errors"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultTTL      = time.Hour
	DefaultCapacity = 1000
	DefaultShards   = 16
)

// ComputeFunc produces the value for a key on a miss.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// Config configures a Cache.
type Config struct {
	// TTL is the lifetime of each entry from the moment it is stored.
	TTL time.Duration
	// Shards is the number of independent lock domains.
	Shards int
	// Now overrides time.Now, for tests.
	Now func() time.Time
}

// Stats counts cache activity since construction.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Computes uint64
	Shared   uint64
}

// Cache is a sharded TTL cache with single-flight computation.
// The zero value is not usable; construct with New.
type Cache[V any] struct {
	backend Backend[V]
	shards  []*shard[V]
	ttl     time.Duration
	now     func() time.Time

	// gen is bumped by Clear. A computation stores its result only if the
	// generation it started under is still current.
	gen atomic.Uint64

	hits, misses, computes, shared atomic.Uint64

	closeOnce sync.Once
}

type shard[V any] struct {
	// rw orders backend reads and writes against Clear. When both locks are
	// taken, rw comes first.
	rw sync.RWMutex

	// mu guards calls and is held for every store.
	mu    sync.Mutex
	calls map[string]*call[V]
}

// call is one in-flight computation and the callers waiting on it.
type call[V any] struct {
	done    chan struct{}
	val     V
	err     error
	waiters int
	cancel  context.CancelFunc
}

// New creates a cache over backend. The cache owns backend and closes it
// on Close.
func New[V any](backend Backend[V], cfg Config) *Cache[V] {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Shards <= 0 {
		cfg.Shards = DefaultShards
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Cache[V]{
		backend: backend,
		shards:  make([]*shard[V], cfg.Shards),
		ttl:     cfg.TTL,
		now:     cfg.Now,
	}
	for i := range c.shards {
		c.shards[i] = &shard[V]{calls: make(map[string]*call[V])}
	}
	return c
}

// NewMemory creates a cache over a sharded in-memory LRU backend.
func NewMemory[V any](capacity int, cfg Config) (*Cache[V], error) {
	backend, err := NewMemoryBackend[V](capacity, cfg.Shards)
	if err != nil {
		return nil, err
	}
	return New[V](backend, cfg), nil
}

func (c *Cache[V]) shardFor(key string) *shard[V] {
	return c.shards[shardIndex(key, len(c.shards))]
}

// Get returns the live value for key, if any. Expired entries are removed.
func (c *Cache[V]) Get(key string) (V, bool, error) {
	var zero V
	s := c.shardFor(key)

	s.rw.RLock()
	entry, ok, err := c.backend.Get(key)
	s.rw.RUnlock()
	if err != nil {
		return zero, false, serrors.CacheUnavailable("get", err)
	}
	if !ok {
		return zero, false, nil
	}
	if !entry.Expired(c.now()) {
		return entry.Value, true, nil
	}

	// Re-read under the call lock so a value stored since the read above is
	// not the one deleted.
	s.rw.RLock()
	s.mu.Lock()
	v, ok, err := c.lookupLocked(key)
	s.mu.Unlock()
	s.rw.RUnlock()
	return v, ok, err
}

// lookupLocked reads key and removes it if it has expired. The caller holds
// the shard's rw read lock and mu, which every store also holds.
func (c *Cache[V]) lookupLocked(key string) (V, bool, error) {
	var zero V
	entry, ok, err := c.backend.Get(key)
	if err != nil {
		return zero, false, serrors.CacheUnavailable("get", err)
	}
	if !ok {
		return zero, false, nil
	}
	if entry.Expired(c.now()) {
		if delErr := c.backend.Delete(key); delErr != nil {
			slog.Debug("cache_expired_delete_failed", slog.String("error", delErr.Error()))
		}
		return zero, false, nil
	}
	return entry.Value, true, nil
}

// GetOrCompute returns the cached value for key, or runs compute once for
// all concurrent callers of the same key and stores its result.
//
// The bool result is true when the value came from a stored entry. A backend
// read failure is returned as a CacheBackendUnavailable error without running
// compute, so the caller can decide to bypass the cache. Compute errors are
// returned to every attached caller and are not stored.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, compute ComputeFunc[V]) (V, bool, error) {
	var zero V

	if v, ok, err := c.Get(key); err != nil {
		return zero, false, err
	} else if ok {
		c.hits.Add(1)
		return v, true, nil
	}

	s := c.shardFor(key)

	s.rw.RLock()
	s.mu.Lock()
	cl, inFlight := s.calls[key]
	if inFlight {
		c.shared.Add(1)
	} else {
		// A flight may have stored its value and finished since the read above.
		v, ok, err := c.lookupLocked(key)
		if err != nil || ok {
			s.mu.Unlock()
			s.rw.RUnlock()
			if ok {
				c.hits.Add(1)
			}
			return v, ok, err
		}
		flightCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		cl = &call[V]{done: make(chan struct{}), cancel: cancel}
		s.calls[key] = cl
		c.computes.Add(1)
		go c.run(flightCtx, s, key, cl, compute, c.gen.Load())
	}
	c.misses.Add(1)
	cl.waiters++
	s.mu.Unlock()
	s.rw.RUnlock()

	select {
	case <-cl.done:
		s.mu.Lock()
		cl.waiters--
		s.mu.Unlock()
		return cl.val, false, cl.err

	case <-ctx.Done():
		s.mu.Lock()
		cl.waiters--
		if cl.waiters == 0 {
			// Last waiter gone: stop the work and let the next caller start fresh.
			cl.cancel()
			if s.calls[key] == cl {
				delete(s.calls, key)
			}
		}
		s.mu.Unlock()
		return zero, false, ctx.Err()
	}
}

func (c *Cache[V]) run(ctx context.Context, s *shard[V], key string, cl *call[V], compute ComputeFunc[V], gen uint64) {
	defer cl.cancel()

	val, err := c.safeCompute(ctx, compute)

	// Store and retire the call in one critical section, so a caller either
	// joins this call or finds its stored value.
	s.rw.RLock()
	s.mu.Lock()
	if err == nil && c.gen.Load() == gen {
		now := c.now()
		setErr := c.backend.Set(key, Entry[V]{Value: val, CreatedAt: now, ExpiresAt: now.Add(c.ttl)})
		if setErr != nil {
			slog.Warn("cache_store_failed",
				slog.String("error", setErr.Error()),
				slog.String("code", serrors.ErrCodeCacheBackendUnavailable))
		}
	}
	cl.val, cl.err = val, err
	if s.calls[key] == cl {
		delete(s.calls, key)
	}
	s.mu.Unlock()
	s.rw.RUnlock()
	close(cl.done)
}

// safeCompute converts a panic in compute into an error so waiters are
// always released.
func (c *Cache[V]) safeCompute(ctx context.Context, compute ComputeFunc[V]) (val V, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("cache_compute_panic", slog.Any("panic", r))
			err = serrors.InternalError("cache computation panicked", errors.New("panic"))
		}
	}()
	return compute(ctx)
}

// Clear invalidates every entry. Lookups that begin after Clear returns never
// observe an entry stored before it, and computations already in flight do
// not store their results. Clear is idempotent.
func (c *Cache[V]) Clear() error {
	for _, s := range c.shards {
		s.rw.Lock()
	}
	defer func() {
		for _, s := range c.shards {
			s.rw.Unlock()
		}
	}()

	c.gen.Add(1)

	// Detach in-flight calls so new callers start a fresh computation.
	// Existing waiters keep waiting on the call they joined.
	for _, s := range c.shards {
		s.mu.Lock()
		clear(s.calls)
		s.mu.Unlock()
	}

	if err := c.backend.Purge(); err != nil {
		return serrors.CacheUnavailable("purge", err)
	}
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// removed.
func (c *Cache[V]) Len() int {
	return c.backend.Len()
}

// Stats returns a snapshot of the activity counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Computes: c.computes.Load(),
		Shared:   c.shared.Load(),
	}
}

// Close releases all entries and the backend.
func (c *Cache[V]) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.backend.Close()
	})
	return err
}
