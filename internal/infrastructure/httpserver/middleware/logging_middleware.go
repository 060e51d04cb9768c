package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/headless-gateway/internal/infrastructure/httpserver/helpers"
)

type LoggingMiddleware struct {
	logger *logrus.Logger
}

func NewLoggingMiddleware(logger *logrus.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

func (m *LoggingMiddleware) RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			if m.logger != nil {
				fields := logrus.Fields{
					"method":     c.Request().Method,
					"path":       c.Path(),
					"status":     c.Response().Status,
					"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				}
				if status, ok := helpers.GetCacheStatusRaw(c); ok {
					fields["cache"] = status
				}
				entry := m.logger.WithFields(fields)
				if err != nil {
					entry = entry.WithError(err)
				}
				if c.Response().Status >= http.StatusInternalServerError {
					entry.Warn("request failed")
				} else {
					entry.Debug("request handled")
				}
			}
			return err
		}
	}
}
