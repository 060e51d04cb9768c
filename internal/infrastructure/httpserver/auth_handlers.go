package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/headless-gateway/internal/core/domain/apperr"
	"github.com/avatarctic/headless-gateway/internal/core/domain/session"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/httpserver/helpers"
)

// authFailure maps a session service error to a JSON error response. Origin
// rejections use rejectCode and carry the origin's message verbatim.
func (s *Server) authFailure(c echo.Context, err error, rejectCode int, fallback string) error {
	var (
		ve *apperr.ValidationError
		oe *apperr.OriginError
		ae *apperr.AuthError
	)
	switch {
	case errors.As(err, &ve):
		return helpers.ErrorJSON(c, http.StatusBadRequest, ve.Message)
	case errors.Is(err, apperr.ErrNotConfigured):
		return helpers.ErrorJSON(c, http.StatusInternalServerError, "GraphQL endpoint not configured")
	case errors.As(err, &ae):
		return helpers.ErrorJSON(c, http.StatusUnauthorized, ae.Message)
	case errors.As(err, &oe):
		return helpers.ErrorJSON(c, rejectCode, oe.Message)
	}
	if s.logger != nil {
		s.logger.WithField("path", c.Path()).WithError(err).Error("auth request failed")
	}
	return helpers.ErrorJSON(c, http.StatusInternalServerError, fallback)
}

func (s *Server) setSessionCookies(c echo.Context, tokens session.TokenPair, lifetimes session.Lifetimes) {
	helpers.SetTokenCookie(c, session.AuthTokenCookie, tokens.AccessToken, lifetimes.Auth, s.secureCookies())
	helpers.SetTokenCookie(c, session.RefreshTokenCookie, tokens.RefreshToken, lifetimes.Refresh, s.secureCookies())
}

func (s *Server) login(c echo.Context) error {
	var req session.LoginRequest
	if err := c.Bind(&req); err != nil {
		return helpers.ErrorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	res, err := s.sessionSvc.Login(c.Request().Context(), &req)
	if err != nil {
		return s.authFailure(c, err, http.StatusUnauthorized, "Login failed")
	}

	s.setSessionCookies(c, res.Tokens, res.Lifetimes)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":              res.User,
		"authTokenLifetime": int(res.Lifetimes.Auth.Seconds()),
	})
}

func (s *Server) register(c echo.Context) error {
	var req session.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return helpers.ErrorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	res, err := s.sessionSvc.Register(c.Request().Context(), &req)
	if err != nil {
		return s.authFailure(c, err, http.StatusBadRequest, "Registration failed")
	}

	body := map[string]interface{}{"user": res.User}
	if res.Tokens != nil {
		s.setSessionCookies(c, *res.Tokens, res.Lifetimes)
		body["authTokenLifetime"] = int(res.Lifetimes.Auth.Seconds())
	}
	return c.JSON(http.StatusOK, body)
}

func (s *Server) changePassword(c echo.Context) error {
	var req session.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return helpers.ErrorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	accessToken := helpers.CookieValue(c, session.AuthTokenCookie)
	if err := s.sessionSvc.ChangePassword(c.Request().Context(), &req, accessToken); err != nil {
		return s.authFailure(c, err, http.StatusBadRequest, "Failed to change password")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// session never clears cookies on an availability failure; the client keeps
// its previous state and retries.
func (s *Server) session(c echo.Context) error {
	access := helpers.CookieValue(c, session.AuthTokenCookie)
	refresh := helpers.CookieValue(c, session.RefreshTokenCookie)

	st, err := s.sessionSvc.Session(c.Request().Context(), access, refresh)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("session check failed; keeping cookies")
		}
		return helpers.ErrorJSON(c, http.StatusServiceUnavailable, "Session check failed")
	}

	if st.RefreshedAccessToken != "" {
		helpers.SetTokenCookie(c, session.AuthTokenCookie, st.RefreshedAccessToken, st.Lifetimes.Auth, s.secureCookies())
	}
	if st.ClearCookies {
		helpers.ClearTokenCookies(c, s.secureCookies())
	}
	if st.State != session.Authenticated {
		return c.JSON(http.StatusOK, map[string]interface{}{"user": nil})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":              st.User,
		"authTokenLifetime": int(st.Lifetimes.Auth.Seconds()),
	})
}

func (s *Server) logout(c echo.Context) error {
	helpers.ClearTokenCookies(c, s.secureCookies())
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
