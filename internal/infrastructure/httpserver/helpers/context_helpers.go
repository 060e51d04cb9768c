package helpers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/headless-gateway/internal/core/domain/session"
)

// UnknownClient is the identity used when no client address can be determined.
const UnknownClient = "unknown"

// ClientIP returns the caller's address as resolved by the server's
// IPExtractor. Forwarded headers only count when they arrive from a trusted proxy.
func ClientIP(c echo.Context) string {
	if ip, ok := GetClientIPRaw(c); ok {
		return ip
	}
	ip := c.RealIP()
	if ip == "" {
		ip = UnknownClient
	}
	SetClientIP(c, ip)
	return ip
}

// Authorization returns the Authorization header to forward to the origin.
// An explicit header wins; otherwise the auth_token cookie becomes a bearer token.
func Authorization(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		return h
	}
	if token := CookieValue(c, session.AuthTokenCookie); token != "" {
		return "Bearer " + token
	}
	return ""
}

// CookieValue returns the named cookie's value or "".
func CookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// SetTokenCookie writes an httpOnly, SameSite=Lax cookie scoped to the whole site.
func SetTokenCookie(c echo.Context, name, value string, maxAge time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookies expires both session cookies.
func ClearTokenCookies(c echo.Context, secure bool) {
	for _, name := range []string{session.AuthTokenCookie, session.RefreshTokenCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ErrorJSON writes {"error": message} with the given status.
func ErrorJSON(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]string{"error": message})
}
