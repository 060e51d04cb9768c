package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const originCheckerName = "wordpress"

// Health check handler. Checks run concurrently, each bounded by its own
// timeout; only critical dependencies decide between 200 and 503.
func (s *Server) healthCheck(c echo.Context) error {
	if !s.config.OriginConfigured {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "error",
			"wordpress": "not configured",
		})
	}

	ctx := c.Request().Context()
	results := make([]error, len(s.healthCheckers))
	var g errgroup.Group
	for i, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		i, hc := i, hc
		g.Go(func() error {
			results[i] = hc.Check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	deps := make(map[string]string)
	overall := "ok"
	wordpress := "connected"
	for i, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		if results[i] == nil {
			deps[hc.Name()] = "healthy"
			continue
		}
		deps[hc.Name()] = "unhealthy"
		if hc.Name() == originCheckerName {
			wordpress = "unreachable"
		}
		if hc.Critical() {
			overall = "degraded"
		}
		if s.logger != nil {
			s.logger.WithField("dependency", hc.Name()).WithError(results[i]).Warn("health check failed")
		}
	}

	health := map[string]interface{}{
		"status":       overall,
		"wordpress":    wordpress,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"service":      "headless-gateway",
		"dependencies": deps,
	}
	code := http.StatusOK
	if overall != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, health)
}
