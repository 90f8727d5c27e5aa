package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/handler"
	"github.com/iliyamo/carpool-gateway/internal/middleware"
	"github.com/iliyamo/carpool-gateway/internal/model"
)

// RegisterPassenger registers the PASSENGER section under /v1/passenger.
// Ride search responses are cached per user in Redis; booking and
// cancelling invalidate them.
func RegisterPassenger(e *echo.Echo, h *handler.PassengerHandler, g guards) {
	p := e.Group("/v1/passenger", g.auth, middleware.RequireRole(model.RolePassenger), g.limit)
	p.GET("/dashboard", h.Dashboard)
	p.GET("/rides/search", h.SearchRides, g.cache)
	p.GET("/rides/:id", h.Ride)
	p.POST("/rides/:id/book", h.Book, g.invalidate)
	p.GET("/bookings", h.Bookings)
	p.DELETE("/bookings/:id", h.CancelBooking, g.invalidate)
}
