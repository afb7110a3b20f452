package gate

import (
	"context"
	"sync"
	"time"
)

// CachedResolver memoizes another resolver for a fixed TTL.
type CachedResolver[U comparable] struct {
	inner ProfileResolver[U]
	ttl   time.Duration
	now   func() time.Time

	mu    sync.RWMutex
	cache map[U]cacheEntry
}

type cacheEntry struct {
	profile   Profile
	expiresAt time.Time
}

// NewCachedResolver caches inner's answers for ttl.
func NewCachedResolver[U comparable](inner ProfileResolver[U], ttl time.Duration) *CachedResolver[U] {
	return &CachedResolver[U]{inner: inner, ttl: ttl, now: time.Now, cache: make(map[U]cacheEntry)}
}

// Resolve returns the cached profile or asks inner. Errors are not cached.
func (r *CachedResolver[U]) Resolve(ctx context.Context, subject U) (Profile, error) {
	r.mu.RLock()
	entry, ok := r.cache[subject]
	r.mu.RUnlock()
	if ok && r.now().Before(entry.expiresAt) {
		return entry.profile, nil
	}

	profile, err := r.inner.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cache[subject] = cacheEntry{profile: profile, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return profile, nil
}

// Invalidate drops subject's entry. Call it after a role change or deletion.
func (r *CachedResolver[U]) Invalidate(subject U) {
	r.mu.Lock()
	delete(r.cache, subject)
	r.mu.Unlock()
}

// InvalidateAll empties the cache.
func (r *CachedResolver[U]) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[U]cacheEntry)
	r.mu.Unlock()
}
