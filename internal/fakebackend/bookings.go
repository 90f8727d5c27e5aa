package fakebackend

import (
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

// The booking service does not touch ride seat counters; clients adjust
// them with a separate ride modification.
func (s *Server) registerBookings(g *echo.Group) {
	g.POST("/create", s.createBooking)
	g.GET("/passenger/:id", s.bookingsByPassenger)
	g.GET("/driver/:id/pending", s.pendingForDriver)
	g.GET("/ride/:id", s.bookingsByRide)
	g.POST("/:id/accept", s.decideBooking(model.BookingAccepted))
	g.POST("/:id/reject", s.decideBooking(model.BookingRejected))
	g.DELETE("/:id", s.cancelBooking)
}

func bookingJSON(b *booking) echo.Map {
	return echo.Map{
		"id":          b.ID,
		"rideId":      b.RideID,
		"passengerId": b.PassengerID,
		"seatsBooked": b.Seats,
		"status":      string(b.Status),
		"createdAt":   stamp(b.CreatedAt),
	}
}

// bookingsWhere lists matching bookings in id order; mu must be held.
func (s *Server) bookingsWhere(keep func(*booking) bool) []echo.Map {
	ids := make([]int64, 0)
	for id, b := range s.bookings {
		if keep(b) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]echo.Map, 0, len(ids))
	for _, id := range ids {
		out = append(out, bookingJSON(s.bookings[id]))
	}
	return out
}

func (s *Server) createBooking(c echo.Context) error {
	var req struct {
		RideID      any `json:"rideId"`
		PassengerID any `json:"passengerId"`
		Seats       int `json:"seats"`
	}
	if err := c.Bind(&req); err != nil {
		return msg(c, http.StatusBadRequest, "invalid body")
	}
	rideID, passengerID := anyID(req.RideID), anyID(req.PassengerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[rideID]
	if !ok {
		return msg(c, http.StatusNotFound, "Ride not found")
	}
	if _, ok := s.users[passengerID]; !ok {
		return msg(c, http.StatusBadRequest, "Unknown passenger")
	}
	if req.Seats < 1 || req.Seats > r.AvailableSeats {
		return msg(c, http.StatusBadRequest, "Not enough seats available")
	}
	b := &booking{
		ID:          s.nextID(),
		RideID:      rideID,
		PassengerID: passengerID,
		Seats:       req.Seats,
		Status:      model.BookingPending,
		CreatedAt:   time.Now().UTC(),
	}
	s.bookings[b.ID] = b
	return c.JSON(http.StatusCreated, echo.Map{
		"bookingId":   b.ID,
		"rideId":      b.RideID,
		"passengerId": b.PassengerID,
		"seatsBooked": b.Seats,
		"status":      string(b.Status),
		"createdAt":   stamp(b.CreatedAt),
	})
}

func (s *Server) bookingsByPassenger(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.bookingsWhere(func(b *booking) bool { return b.PassengerID == id }))
}

func (s *Server) pendingForDriver(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.bookingsWhere(func(b *booking) bool {
		r, ok := s.rides[b.RideID]
		return ok && r.DriverID == id && b.Status == model.BookingPending
	}))
}

func (s *Server) bookingsByRide(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.bookingsWhere(func(b *booking) bool { return b.RideID == id }))
}

func (s *Server) decideBooking(to model.BookingStatus) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := idParam(c, "id")
		if !ok {
			return notFound(c)
		}
		driverID := idQuery(c, "driverId")
		s.mu.Lock()
		defer s.mu.Unlock()
		b, ok := s.bookings[id]
		if !ok {
			return msg(c, http.StatusNotFound, "Booking not found")
		}
		if r, ok := s.rides[b.RideID]; !ok || r.DriverID != driverID {
			return msg(c, http.StatusForbidden, "Not your ride")
		}
		if b.Status != model.BookingPending {
			return msg(c, http.StatusConflict, "Booking is not pending")
		}
		b.Status = to
		return c.JSON(http.StatusOK, echo.Map{"message": "Booking " + string(to)})
	}
}

func (s *Server) cancelBooking(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	passengerID := idQuery(c, "passengerId")
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return msg(c, http.StatusNotFound, "Booking not found")
	}
	if b.PassengerID != passengerID {
		return msg(c, http.StatusForbidden, "Not your booking")
	}
	b.Status = model.BookingCancelled
	return c.NoContent(http.StatusNoContent)
}
