package services

import (
	"context"
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/domain/ratelimit"
	"github.com/avatarctic/headless-gateway/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// RateLimiterService implements a sliding-log limiter over an injected store.
type RateLimiterService struct {
	store  ports.RateLimitStore
	now    func() time.Time
	logger *logrus.Logger
}

// RateLimiterConfig groups configuration parameters for the rate limiter.
type RateLimiterConfig struct {
	// SweepInterval is how often idle identities are dropped; 0 means one minute.
	SweepInterval time.Duration
	// MaxWindow is the retention used by the sweep; it must cover the largest rule window.
	MaxWindow time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

func NewRateLimiterService(store ports.RateLimitStore, cfg *RateLimiterConfig, logger *logrus.Logger) *RateLimiterService {
	now := time.Now
	if cfg != nil && cfg.Now != nil {
		now = cfg.Now
	}
	return &RateLimiterService{store: store, now: now, logger: logger}
}

// Check implements ports.RateLimiterService. Rejected attempts are not recorded,
// so hammering a closed window does not extend it.
func (s *RateLimiterService) Check(identity string, rule ratelimit.Rule) ratelimit.Result {
	now := s.now()
	key := rule.Name + ":" + identity
	timestamps, allowed := s.store.Record(key, now, rule.Window, rule.MaxRequests)

	if allowed {
		return ratelimit.Result{Allowed: true, Remaining: rule.MaxRequests - len(timestamps)}
	}

	retry := time.Second
	if len(timestamps) > 0 {
		if d := timestamps[0].Add(rule.Window).Sub(now); d > retry {
			retry = d
		}
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"limiter": rule.Name, "ip": identity, "retry_after": retry}).Info("rate limit exceeded")
	}
	return ratelimit.Result{Allowed: false, Remaining: 0, RetryAfter: retry}
}

// Sweep drops identities whose timestamps are all older than maxAge.
func (s *RateLimiterService) Sweep(maxAge time.Duration) int {
	removed := s.store.Sweep(s.now(), maxAge)
	if removed > 0 && s.logger != nil {
		s.logger.WithField("removed", removed).Debug("rate limiter sweep")
	}
	return removed
}

// StartSweeper runs Sweep on every tick until ctx is cancelled.
func (s *RateLimiterService) StartSweeper(ctx context.Context, cfg *RateLimiterConfig) {
	interval := time.Minute
	maxAge := 2 * time.Minute
	if cfg != nil {
		if cfg.SweepInterval > 0 {
			interval = cfg.SweepInterval
		}
		if cfg.MaxWindow > 0 {
			maxAge = cfg.MaxWindow
		}
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(maxAge)
			}
		}
	}()
}
