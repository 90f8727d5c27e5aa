package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/handler"
	"github.com/iliyamo/carpool-gateway/internal/middleware"
	"github.com/iliyamo/carpool-gateway/internal/model"
)

// RegisterAdmin registers the ADMIN console under /v1/admin.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, g guards) {
	a := e.Group("/v1/admin", g.auth, middleware.RequireRole(model.RoleAdmin), g.limit)
	a.GET("/overview", h.Overview)
	a.GET("/users", h.Users)
	a.PUT("/users/:id/ban", h.Ban)
	a.PUT("/users/:id/unban", h.Unban)
	a.GET("/rides", h.Rides)
	a.GET("/reports", h.Reports)
	a.PUT("/reports/:id/status", h.UpdateReportStatus)
}
