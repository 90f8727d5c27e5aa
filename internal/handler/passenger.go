package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/service"
)

// PassengerHandler serves the PASSENGER section. Role enforcement happens
// in the router; the workflows check it again.
type PassengerHandler struct{ base }

func NewPassengerHandler(log logger.ILogger) *PassengerHandler {
	return &PassengerHandler{base: newBase(log, "passenger")}
}

func (h *PassengerHandler) Dashboard(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	d, err := sess.PassengerDashboard(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// SearchRides handles GET /v1/passenger/rides/search with the query
// parameters departureCity, destinationCity, date (YYYY-MM-DD) and gender.
func (h *PassengerHandler) SearchRides(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	req := service.SearchRequest{
		DepartureCity:   c.QueryParam("departureCity"),
		DestinationCity: c.QueryParam("destinationCity"),
	}
	if req.Date, err = parseDay(c.QueryParam("date")); err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	if g := strings.ToUpper(strings.TrimSpace(c.QueryParam("gender"))); g != "" {
		gender := model.Gender(g)
		req.DriverGender = &gender
	}
	list, err := sess.SearchRides(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Ride returns the booking form data of one ride.
func (h *PassengerHandler) Ride(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	form, err := sess.LoadRideForBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, form)
}

// Book handles POST /v1/passenger/rides/:id/book. When the booking was
// created but the seat counter could not be lowered the response is 502
// with the support message and the booking that does exist.
func (h *PassengerHandler) Book(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req service.BookRideRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	b, err := sess.BookRide(c.Request().Context(), c.Param("id"), req)
	if errors.Is(err, service.ErrSeatSyncFailed) {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": service.MsgSeatSyncFailed, "booking": b})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *PassengerHandler) Bookings(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	list, err := sess.PassengerBookings(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *PassengerHandler) CancelBooking(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := sess.CancelBooking(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
