package fakebackend

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

func (s *Server) registerRides(g *echo.Group) {
	g.GET("", s.listRides)
	g.GET("/search", s.searchRides)
	g.GET("/driver/:id", s.ridesByDriver)
	g.POST("/create", s.createRide)
	g.GET("/:id", s.getRide)
	g.PUT("/:id", s.modifyRide)
	g.DELETE("/:id", s.deleteRide)
}

type cityJSON struct {
	Name       string `json:"name"`
	PostalCode string `json:"postalCode,omitempty"`
}

func rideJSON(r *ride) echo.Map {
	return echo.Map{
		"id":              r.ID,
		"driverId":        r.DriverID,
		"departureCity":   cityJSON{Name: r.DepartureCity},
		"destinationCity": cityJSON{Name: r.DestinationCity},
		"departureDate":   r.DepartureDate.Format("2006-01-02"),
		"departureTime":   r.DepartureTime,
		"availableSeats":  r.AvailableSeats,
		"totalSeats":      r.TotalSeats,
		"pricePerSeat":    r.PricePerSeat,
		"status":          string(r.Status),
		"createdAt":       stamp(r.CreatedAt),
	}
}

// ridesWhere lists rides matching keep in id order; mu must be held.
func (s *Server) ridesWhere(keep func(*ride) bool) []echo.Map {
	ids := make([]int64, 0, len(s.rides))
	for id, r := range s.rides {
		if keep(r) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]echo.Map, 0, len(ids))
	for _, id := range ids {
		out = append(out, rideJSON(s.rides[id]))
	}
	return out
}

func (s *Server) listRides(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.ridesWhere(func(*ride) bool { return true }))
}

// searchRides matches cities case-insensitively and the date by day.
func (s *Server) searchRides(c echo.Context) error {
	from := strings.ToLower(strings.TrimSpace(c.QueryParam("departureCity")))
	to := strings.ToLower(strings.TrimSpace(c.QueryParam("destinationCity")))
	date := c.QueryParam("date")
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.ridesWhere(func(r *ride) bool {
		if from != "" && strings.ToLower(r.DepartureCity) != from {
			return false
		}
		if to != "" && strings.ToLower(r.DestinationCity) != to {
			return false
		}
		return date == "" || r.DepartureDate.Format("2006-01-02") == date
	}))
}

func (s *Server) ridesByDriver(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.ridesWhere(func(r *ride) bool { return r.DriverID == id }))
}

func (s *Server) getRide(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return msg(c, http.StatusNotFound, "Ride not found")
	}
	return c.JSON(http.StatusOK, rideJSON(r))
}

type rideBody struct {
	DriverID        any       `json:"driverId"`
	DepartureCity   *cityJSON `json:"departureCity"`
	DestinationCity *cityJSON `json:"destinationCity"`
	DepartureDate   *string   `json:"departureDate"`
	AvailableSeats  *int      `json:"availableSeats"`
	PricePerSeat    *float64  `json:"pricePerSeat"`
}

func (s *Server) createRide(c echo.Context) error {
	var req rideBody
	if err := c.Bind(&req); err != nil {
		return msg(c, http.StatusBadRequest, "invalid body")
	}
	if req.DepartureCity == nil || req.DestinationCity == nil || req.DepartureDate == nil || req.AvailableSeats == nil {
		return msg(c, http.StatusBadRequest, "missing ride fields")
	}
	date, err := time.Parse("2006-01-02", *req.DepartureDate)
	if err != nil {
		return msg(c, http.StatusBadRequest, "invalid departure date")
	}
	driverID := anyID(req.DriverID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[driverID]; !ok || u.Role != model.RoleDriver {
		return msg(c, http.StatusBadRequest, "Unknown driver")
	}
	r := &ride{
		ID:              s.nextID(),
		DriverID:        driverID,
		DepartureCity:   req.DepartureCity.Name,
		DestinationCity: req.DestinationCity.Name,
		DepartureDate:   date,
		DepartureTime:   model.DefaultDepartureTime,
		AvailableSeats:  *req.AvailableSeats,
		TotalSeats:      *req.AvailableSeats,
		Status:          model.RideScheduled,
		CreatedAt:       time.Now().UTC(),
	}
	if req.PricePerSeat != nil {
		r.PricePerSeat = *req.PricePerSeat
	}
	s.rides[r.ID] = r
	return c.JSON(http.StatusCreated, rideJSON(r))
}

// modifyRide applies the fields present in the body.
func (s *Server) modifyRide(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var req rideBody
	if err := c.Bind(&req); err != nil {
		return msg(c, http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return msg(c, http.StatusNotFound, "Ride not found")
	}
	if req.DepartureCity != nil {
		r.DepartureCity = req.DepartureCity.Name
	}
	if req.DestinationCity != nil {
		r.DestinationCity = req.DestinationCity.Name
	}
	if req.DepartureDate != nil {
		d, err := time.Parse("2006-01-02", *req.DepartureDate)
		if err != nil {
			return msg(c, http.StatusBadRequest, "invalid departure date")
		}
		r.DepartureDate = d
	}
	if req.AvailableSeats != nil {
		if *req.AvailableSeats < 0 {
			return msg(c, http.StatusBadRequest, "seats cannot be negative")
		}
		r.AvailableSeats = *req.AvailableSeats
		if r.AvailableSeats > r.TotalSeats {
			r.TotalSeats = r.AvailableSeats
		}
	}
	if req.PricePerSeat != nil {
		r.PricePerSeat = *req.PricePerSeat
	}
	return c.JSON(http.StatusOK, rideJSON(r))
}

func (s *Server) deleteRide(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	driverID := idQuery(c, "driverId")
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return msg(c, http.StatusNotFound, "Ride not found")
	}
	if r.DriverID != driverID {
		return msg(c, http.StatusForbidden, "Not your ride")
	}
	delete(s.rides, id)
	return c.NoContent(http.StatusNoContent)
}
