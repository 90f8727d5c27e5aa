package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/service"
)

// SessionFrom returns the session injected by JWTAuth, or nil on public
// routes.
func SessionFrom(c echo.Context) *service.Session {
	s, _ := c.Get(CtxSession).(*service.Session)
	return s
}

// userID returns the authenticated user id, or "anon" when there is none.
func userID(c echo.Context) string {
	if v, ok := c.Get(CtxUserID).(string); ok && v != "" {
		return v
	}
	return "anon"
}
