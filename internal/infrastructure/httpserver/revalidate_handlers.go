package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/headless-gateway/internal/core/domain/apperr"
	"github.com/avatarctic/headless-gateway/internal/core/domain/revalidation"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/httpserver/helpers"
)

// authorizeWebhook checks the shared secret header and writes the error
// response itself; ok is false when the caller must stop.
func (s *Server) authorizeWebhook(c echo.Context) (ok bool, err error) {
	authErr := s.revalidateSvc.Authorize(c.Request().Header.Get(revalidation.SecretHeader))
	if authErr == nil {
		return true, nil
	}
	if errors.Is(authErr, apperr.ErrNotConfigured) {
		return false, helpers.ErrorJSON(c, http.StatusInternalServerError, "REVALIDATE_SECRET not configured")
	}
	if s.logger != nil {
		s.logger.WithField("ip", helpers.ClientIP(c)).Warn("revalidation request with invalid secret")
	}
	return false, helpers.ErrorJSON(c, http.StatusUnauthorized, "Invalid secret")
}

func (s *Server) revalidate(c echo.Context) error {
	if ok, err := s.authorizeWebhook(c); !ok {
		return err
	}

	var req revalidation.Request
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("malformed revalidation body")
		}
		return helpers.ErrorJSON(c, http.StatusInternalServerError, "Revalidation failed")
	}

	res, err := s.revalidateSvc.Revalidate(c.Request().Context(), &req)
	if err != nil {
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			return helpers.ErrorJSON(c, http.StatusBadRequest, ve.Message)
		}
		if s.logger != nil {
			s.logger.WithError(err).Error("revalidation failed")
		}
		return helpers.ErrorJSON(c, http.StatusInternalServerError, "Revalidation failed")
	}

	scope := "paths"
	if res.Scope == revalidation.ScopeAll {
		scope = revalidation.ScopeAll
	}
	revalidationsTotal.WithLabelValues(scope).Inc()
	return c.JSON(http.StatusOK, res)
}

type renderState struct {
	Path  string `json:"path"`
	Stale bool   `json:"stale"`
}

// renderStatus tells the renderer whether a path must be regenerated.
func (s *Server) renderStatus(c echo.Context) error {
	if ok, err := s.authorizeWebhook(c); !ok {
		return err
	}
	path := c.QueryParam("path")
	if path == "" {
		return helpers.ErrorJSON(c, http.StatusBadRequest, "No path provided")
	}
	return c.JSON(http.StatusOK, renderState{Path: path, Stale: s.renders.IsStale(path)})
}

// markRendered records that the renderer produced a fresh copy of a path.
func (s *Server) markRendered(c echo.Context) error {
	if ok, err := s.authorizeWebhook(c); !ok {
		return err
	}
	var req struct {
		Path string `json:"path"`
	}
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return helpers.ErrorJSON(c, http.StatusBadRequest, "No path provided")
	}
	s.renders.MarkRendered(req.Path)
	return c.JSON(http.StatusOK, renderState{Path: req.Path, Stale: false})
}
