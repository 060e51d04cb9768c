package memcache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// LRU is an in-process ports.Cache used when no shared cache is configured.
// Entries expire by TTL; the LRU bound only protects memory.
type LRU struct {
	cache *lru.Cache[string, entry]
	now   func() time.Time
}

// Option customises an LRU.
type Option func(*LRU)

// WithClock overrides the time source; tests use it to step past TTLs.
func WithClock(now func() time.Time) Option {
	return func(l *LRU) { l.now = now }
}

// DefaultSize applies when a non-positive size is requested.
const DefaultSize = 5000

// MustNewLRU builds a cache holding at most size entries.
func MustNewLRU(size int, opts ...Option) *LRU {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, entry](size)
	if err != nil {
		panic(err)
	}
	l := &LRU{cache: cache, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get implements ports.Cache.
func (l *LRU) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := l.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !l.now().Before(e.expiresAt) {
		l.cache.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set implements ports.Cache.
func (l *LRU) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	l.cache.Add(key, entry{value: buf, expiresAt: l.now().Add(ttl)})
	return nil
}

// Len returns the number of stored entries, expired or not.
func (l *LRU) Len() int {
	return l.cache.Len()
}
