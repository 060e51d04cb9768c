package render

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type page struct {
	renderedAt time.Time
	stale      bool
}

// Registry tracks when each path was last rendered and whether it has been
// invalidated since. A path is stale when it was never rendered, was
// invalidated, or is older than the ISR interval. Invalidation only sets a
// flag, so repeating it has no further effect.
type Registry struct {
	mu       sync.Mutex
	pages    *lru.Cache[string, page]
	interval time.Duration
	now      func() time.Time
}

// DefaultSize applies when a non-positive size is requested.
const DefaultSize = 10000

// NewRegistry tracks at most size paths; interval <= 0 disables time-based staleness.
func NewRegistry(size int, interval time.Duration) (*Registry, error) {
	if size <= 0 {
		size = DefaultSize
	}
	pages, err := lru.New[string, page](size)
	if err != nil {
		return nil, err
	}
	return &Registry{pages: pages, interval: interval, now: time.Now}, nil
}

// SetClock replaces the time source.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// MarkRendered records a fresh render of path.
func (r *Registry) MarkRendered(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages.Add(path, page{renderedAt: r.now()})
}

// IsStale reports whether path must be re-rendered before it is served.
func (r *Registry) IsStale(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pages.Peek(path)
	if !ok || p.stale {
		return true
	}
	return r.interval > 0 && r.now().Sub(p.renderedAt) >= r.interval
}

// InvalidatePaths implements ports.RenderCache.
func (r *Registry) InvalidatePaths(_ context.Context, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, path := range paths {
		r.markStale(path)
	}
	return nil
}

// InvalidateAll implements ports.RenderCache.
func (r *Registry) InvalidateAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, path := range r.pages.Keys() {
		r.markStale(path)
	}
	return nil
}

// caller holds r.mu
func (r *Registry) markStale(path string) {
	p, ok := r.pages.Peek(path)
	if !ok || p.stale {
		return
	}
	p.stale = true
	r.pages.Add(path, p)
}
