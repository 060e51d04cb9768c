package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/headless-gateway/internal/core/domain/apperr"
	"github.com/avatarctic/headless-gateway/internal/core/domain/graphql"
	"github.com/avatarctic/headless-gateway/internal/core/ports"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/httpserver/helpers"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/wordpress"
)

const maxGraphQLBody = 1 << 20

func graphqlError(c echo.Context, code int, message string) error {
	return c.JSON(code, graphql.Response{Errors: []graphql.Error{{Message: message}}})
}

func (s *Server) graphql(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxGraphQLBody))
	if err != nil {
		return graphqlError(c, http.StatusBadRequest, "Invalid request body")
	}
	var req graphql.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return graphqlError(c, http.StatusBadRequest, "Invalid request body")
	}

	res, err := s.proxy.Execute(c.Request().Context(), &ports.ProxyRequest{
		Body:          body,
		GraphQL:       req,
		Authorization: helpers.Authorization(c),
		WooSession:    c.Request().Header.Get(wordpress.WooSessionHeader),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotConfigured) {
			return graphqlError(c, http.StatusInternalServerError, "GraphQL endpoint not configured")
		}
		if s.logger != nil {
			s.logger.WithField("operation", graphql.OperationName(req.Query)).WithError(err).Error("graphql proxy error")
		}
		return graphqlError(c, http.StatusInternalServerError, "Failed to fetch from WordPress")
	}

	h := c.Response().Header()
	h.Set("X-Cache", string(res.Status))
	if ttl := int(res.TTL.Seconds()); res.Cacheable && ttl > 0 {
		h.Set("Cache-Control", fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=%d", ttl, ttl*2))
		if res.OperationName != "" {
			h.Set("Cache-Tag", "graphql,"+res.OperationName)
		}
	} else {
		h.Set("Cache-Control", "private, no-store")
	}
	if res.WooSession != "" {
		h.Set(wordpress.WooSessionHeader, res.WooSession)
	}

	graphqlCacheLookups.WithLabelValues(string(res.Status)).Inc()
	helpers.SetCacheStatus(c, string(res.Status))

	code := res.StatusCode
	if code == 0 {
		code = http.StatusOK
	}
	return c.Blob(code, echo.MIMEApplicationJSON, res.Body)
}
