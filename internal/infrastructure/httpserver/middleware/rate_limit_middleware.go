package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/headless-gateway/internal/core/domain/ratelimit"
	"github.com/avatarctic/headless-gateway/internal/core/ports"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/httpserver/helpers"
)

type RateLimitMiddleware struct {
	rateLimiter ports.RateLimiterService
	rejections  *prometheus.CounterVec
	logger      *logrus.Logger
}

func NewRateLimitMiddleware(rateLimiter ports.RateLimiterService, rejections *prometheus.CounterVec, logger *logrus.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{rateLimiter: rateLimiter, rejections: rejections, logger: logger}
}

// Limit guards a route with rule, keyed by client IP. message is returned in
// the 429 body.
func (r *RateLimitMiddleware) Limit(rule ratelimit.Rule, message string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r.rateLimiter == nil {
				return next(c)
			}

			ip := helpers.ClientIP(c)
			res := r.rateLimiter.Check(ip, rule)
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(rule.MaxRequests))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				if r.rejections != nil {
					r.rejections.WithLabelValues(rule.Name).Inc()
				}
				if r.logger != nil {
					r.logger.WithFields(logrus.Fields{"limiter": rule.Name, "ip": ip}).Debug("request rejected by rate limiter")
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(res.RetryAfterSeconds()))
				return helpers.ErrorJSON(c, http.StatusTooManyRequests, message)
			}
			return next(c)
		}
	}
}
