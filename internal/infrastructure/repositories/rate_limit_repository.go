package repositories

import (
	"sync"
	"time"
)

// RateLimitMemoryRepository keeps a sliding log of request timestamps per key.
// It is process-local: two gateway instances do not share budgets.
type RateLimitMemoryRepository struct {
	mu  sync.Mutex
	log map[string][]time.Time
}

func NewRateLimitMemoryRepository() *RateLimitMemoryRepository {
	return &RateLimitMemoryRepository{log: make(map[string][]time.Time)}
}

// Record implements ports.RateLimitStore.
func (repo *RateLimitMemoryRepository) Record(key string, now time.Time, window time.Duration, max int) ([]time.Time, bool) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	kept := prune(repo.log[key], now.Add(-window))
	appended := len(kept) < max
	if appended {
		kept = append(kept, now)
	}
	if len(kept) == 0 {
		delete(repo.log, key)
		return nil, false
	}
	repo.log[key] = kept

	out := make([]time.Time, len(kept))
	copy(out, kept)
	return out, appended
}

// Sweep implements ports.RateLimitStore.
func (repo *RateLimitMemoryRepository) Sweep(now time.Time, maxAge time.Duration) int {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	cutoff := now.Add(-maxAge)
	removed := 0
	for key, ts := range repo.log {
		kept := prune(ts, cutoff)
		if len(kept) == 0 {
			delete(repo.log, key)
			removed++
			continue
		}
		repo.log[key] = kept
	}
	return removed
}

// Len implements ports.RateLimitStore.
func (repo *RateLimitMemoryRepository) Len() int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return len(repo.log)
}

// prune drops timestamps at or before cutoff. Timestamps are appended in order,
// so the retained ones are a suffix.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0:0], ts[i:]...)
}
