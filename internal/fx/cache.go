package fx

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultTTL is how long a fetched snapshot stays fresh.
const DefaultTTL = 12 * time.Hour

// Cache is a process-wide, time-boxed cache of the provider's rate table.
//
// There is deliberately no refresh lock: the snapshot is swapped atomically
// as a whole, so concurrent misses at worst trigger duplicate upstream
// fetches whose idempotent writes race benignly (last writer wins). A failed
// refresh never clears the existing snapshot.
type Cache struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time

	snapshot atomic.Pointer[Snapshot]
}

// NewCache wraps a provider with a freshness window. A non-positive ttl uses
// DefaultTTL.
func NewCache(provider Provider, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetRates returns the cached snapshot when it is younger than the TTL
// (cached=true), otherwise fetches a fresh one and swaps it in. On fetch
// failure the previous snapshot is left in place and the provider error is
// returned to the caller.
func (c *Cache) GetRates(ctx context.Context) (*Snapshot, bool, error) {
	if snap := c.snapshot.Load(); snap != nil && c.now().Sub(snap.FetchedAt) < c.ttl {
		return snap, true, nil
	}

	fresh, err := c.provider.FetchLatest(ctx)
	if err != nil {
		return nil, false, err
	}
	c.snapshot.Store(fresh)
	return fresh, false, nil
}
