package ports

import (
	"context"
	"time"
)

// Cache defines a minimal key-value cache contract for serialized GraphQL responses.
// Implementations should degrade gracefully (returning an error without crashing callers)
// so that the proxy can fall back to the origin.
type Cache interface {
	// Get returns the raw bytes for key. ok=false if not found or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for key with TTL. Eviction is TTL-only.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
