package ports

import "context"

// HealthChecker abstracts a dependency health probe.
// Implementations should return error if unhealthy. Only critical checkers
// turn the overall status into 503; the rest are reported for diagnostics.
type HealthChecker interface {
	Name() string
	Critical() bool
	Check(ctx context.Context) error
}
