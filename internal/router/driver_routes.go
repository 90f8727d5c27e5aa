package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/handler"
	"github.com/iliyamo/carpool-gateway/internal/middleware"
	"github.com/iliyamo/carpool-gateway/internal/model"
)

// RegisterDriver registers the DRIVER section under /v1/driver.
func RegisterDriver(e *echo.Echo, h *handler.DriverHandler, g guards) {
	d := e.Group("/v1/driver", g.auth, middleware.RequireRole(model.RoleDriver), g.limit)
	d.GET("/dashboard", h.Dashboard)
	d.GET("/rides", h.Rides)
	d.POST("/rides", h.PublishRide, g.invalidate)
	d.DELETE("/rides/:id", h.DeleteRide, g.invalidate)
	d.GET("/bookings", h.Bookings)
	d.POST("/bookings/:id/accept", h.Accept)
	d.POST("/bookings/:id/reject", h.Reject, g.invalidate)
}
