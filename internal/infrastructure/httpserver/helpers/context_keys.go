package helpers

import "github.com/labstack/echo/v4"

type ctxKey string

const (
	keyClientIP    ctxKey = "client_ip"
	keyCacheStatus ctxKey = "cache_status"
)

func SetClientIP(c echo.Context, ip string) { c.Set(string(keyClientIP), ip) }
func GetClientIPRaw(c echo.Context) (string, bool) {
	v := c.Get(string(keyClientIP))
	s, ok := v.(string)
	return s, ok
}

func SetCacheStatus(c echo.Context, status string) { c.Set(string(keyCacheStatus), status) }
func GetCacheStatusRaw(c echo.Context) (string, bool) {
	v := c.Get(string(keyCacheStatus))
	s, ok := v.(string)
	return s, ok
}
