package ports

import (
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/domain/ratelimit"
)

// RateLimitStore holds per-identity request timestamps for sliding-window limiting.
// Implementations MUST be safe for concurrent use. The in-memory store is
// single-process only; it gives no cross-instance guarantee.
type RateLimitStore interface {
	// Record prunes timestamps older than now-window for key and, if fewer than max remain,
	// appends now. It returns the retained timestamps (oldest first) and whether now was appended.
	Record(key string, now time.Time, window time.Duration, max int) (timestamps []time.Time, appended bool)
	// Sweep drops timestamps older than now-maxAge across all keys and deletes empty keys.
	// It returns the number of keys removed.
	Sweep(now time.Time, maxAge time.Duration) int
	// Len returns the number of tracked keys.
	Len() int
}

// RateLimiterService checks request budgets for (limiter, identity) pairs.
type RateLimiterService interface {
	// Check consumes one request unit for identity under rule and reports whether it is permitted.
	Check(identity string, rule ratelimit.Rule) ratelimit.Result
}
