package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/service"
	"github.com/iliyamo/carpool-gateway/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxSession = "session"
	CtxUserID  = "user_id"
	CtxRole    = "role"
)

// JWTAuth validates the Bearer session token, opens the session it names
// and injects it into the request context. Handlers read it back with
// SessionFrom. A token whose session is no longer signed in as its
// subject is rejected the same way as a bad signature: 401 with
// {"error":"unauthorized"}.
func JWTAuth(secret string, sessions *service.SessionManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			raw := strings.TrimPrefix(auth, "Bearer ")
			if raw == auth || raw == "" {
				// Browsers cannot set headers on websocket upgrades.
				raw = c.QueryParam("token")
			}
			if raw == "" {
				return unauthorized(c)
			}

			claims, err := utils.ParseToken(secret, raw)
			if err != nil || claims.SessionID == "" {
				return unauthorized(c)
			}

			sess := sessions.Open(c.Request().Context(), claims.SessionID)
			u := sess.Auth.CurrentUser()
			if u == nil {
				// Signed out since the token was issued.
				sessions.Close(claims.SessionID)
				return unauthorized(c)
			}
			if u.ID != claims.Subject {
				return unauthorized(c)
			}

			c.Set(CtxSession, sess)
			c.Set(CtxUserID, u.ID)
			c.Set(CtxRole, string(u.Role))
			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
