package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/service"
)

// DriverHandler serves the DRIVER section.
type DriverHandler struct{ base }

func NewDriverHandler(log logger.ILogger) *DriverHandler {
	return &DriverHandler{base: newBase(log, "driver")}
}

func (h *DriverHandler) Dashboard(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	d, err := sess.DriverDashboard(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DriverHandler) Rides(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	list, err := sess.MyRides(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *DriverHandler) PublishRide(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req service.PublishRideRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	r, err := sess.PublishRide(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *DriverHandler) DeleteRide(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := sess.DeleteRide(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Bookings lists the pending requests on the driver's rides.
func (h *DriverHandler) Bookings(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	list, err := sess.DriverBookings(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *DriverHandler) Accept(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := sess.AcceptBooking(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *DriverHandler) Reject(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := sess.RejectBooking(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
