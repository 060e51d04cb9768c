package health

import (
	"context"
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/ports"
	"github.com/go-redis/redis/v8"
)

// originHealthChecker probes the CMS with a trivial query.
type originHealthChecker struct {
	origin  ports.GraphQLOrigin
	timeout time.Duration
}

func (o *originHealthChecker) Name() string   { return "wordpress" }
func (o *originHealthChecker) Critical() bool { return true }
func (o *originHealthChecker) Check(ctx context.Context) error {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return o.origin.Ping(ctx)
}

// redisHealthChecker wraps the redis client for health checks. The cache is
// optional, so a failure is reported but does not fail the overall check.
type redisHealthChecker struct{ client redis.Cmdable }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Critical() bool                  { return false }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// NewOriginHealthChecker creates the health checker for the CMS origin.
func NewOriginHealthChecker(origin ports.GraphQLOrigin, timeout time.Duration) ports.HealthChecker {
	return &originHealthChecker{origin: origin, timeout: timeout}
}

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client redis.Cmdable) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}
