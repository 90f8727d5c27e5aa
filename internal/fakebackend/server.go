// Package fakebackend is an in-memory stand-in for the six backend services
// (auth, rides, bookings, reviews, reports, notifications). It speaks the
// same wire shapes as the real services and backs development runs and
// tests of the gateway.
package fakebackend

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/config"
	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/utils"
)

// Service path prefixes.
const (
	AuthPrefix          = "/api/auth"
	RidesPrefix         = "/api/rides"
	BookingsPrefix      = "/api/bookings"
	ReviewsPrefix       = "/api/reviews"
	ReportsPrefix       = "/api/reports"
	NotificationsPrefix = "/api/notifications"
)

// URLs returns the service base URLs of a fake backend served at base.
func URLs(base string) config.BackendURLs {
	base = strings.TrimRight(base, "/")
	return config.BackendURLs{
		Auth:          base + AuthPrefix,
		Rides:         base + RidesPrefix,
		Bookings:      base + BookingsPrefix,
		Reviews:       base + ReviewsPrefix,
		Reports:       base + ReportsPrefix,
		Notifications: base + NotificationsPrefix,
	}
}

type user struct {
	ID        int64
	Email     string
	Hash      string
	Phone     string
	Gender    model.Gender
	Role      model.Role
	License   string
	CreatedAt time.Time
	Banned    bool
}

type ride struct {
	ID              int64
	DriverID        int64
	DepartureCity   string
	DestinationCity string
	DepartureDate   time.Time
	DepartureTime   string
	AvailableSeats  int
	TotalSeats      int
	PricePerSeat    float64
	Status          model.RideStatus
	CreatedAt       time.Time
}

type booking struct {
	ID          int64
	RideID      int64
	PassengerID int64
	Seats       int
	Status      model.BookingStatus
	CreatedAt   time.Time
}

type review struct {
	ID         int64
	ReviewerID int64
	ReviewedID int64
	RideID     int64
	Rating     int
	Comment    string
	Type       model.ReviewType
	CreatedAt  time.Time
}

type report struct {
	ID             int64
	ReporterID     int64
	ReportedUserID int64
	RideID         int64
	Reason         string
	Description    string
	Status         model.ReportStatus
	CreatedAt      time.Time
}

type notification struct {
	ID        string
	UserID    int64
	Type      string
	Title     string
	Message   string
	RelatedID string
	Read      bool
	CreatedAt time.Time
}

// Server holds the state of every fake service behind one mutex.
type Server struct {
	Secret   string
	TokenTTL time.Duration
	Log      logger.ILogger

	mu            sync.Mutex
	seq           int64
	users         map[int64]*user
	rides         map[int64]*ride
	bookings      map[int64]*booking
	reviews       map[int64]*review
	reports       map[int64]*report
	notifications map[string]*notification
	faults        map[string]int
	calls         map[string]int
}

func New(secret string, log logger.ILogger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		Secret:        secret,
		TokenTTL:      24 * time.Hour,
		Log:           log.Named("fakebackend"),
		users:         make(map[int64]*user),
		rides:         make(map[int64]*ride),
		bookings:      make(map[int64]*booking),
		reviews:       make(map[int64]*review),
		reports:       make(map[int64]*report),
		notifications: make(map[string]*notification),
		faults:        make(map[string]int),
		calls:         make(map[string]int),
	}
}

// Echo builds the HTTP app serving all six services.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.faultInjector)

	s.registerAuth(e.Group(AuthPrefix))
	s.registerRides(e.Group(RidesPrefix))
	s.registerBookings(e.Group(BookingsPrefix))
	s.registerReviews(e.Group(ReviewsPrefix))
	s.registerReports(e.Group(ReportsPrefix))
	s.registerNotifications(e.Group(NotificationsPrefix))
	return e
}

// Fail makes every request matching "METHOD /route/pattern" answer status
// until Heal is called, e.g. Fail("PUT /api/rides/:id", 500).
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = status
}

func (s *Server) Heal(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, route)
}

// Calls reports how many requests matched route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) faultInjector(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		route := c.Request().Method + " " + c.Path()
		s.mu.Lock()
		s.calls[route]++
		status, failing := s.faults[route]
		s.mu.Unlock()
		if failing {
			return c.JSON(status, echo.Map{"message": "injected failure"})
		}
		return next(c)
	}
}

// nextID must be called with mu held.
func (s *Server) nextID() int64 {
	s.seq++
	return s.seq
}

// SeedUser creates an account directly and returns its id.
func (s *Server) SeedUser(email, password string, role model.Role, gender model.Gender) (string, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{
		ID:        s.nextID(),
		Email:     strings.ToLower(email),
		Hash:      hash,
		Phone:     "00000000",
		Gender:    gender,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	s.users[u.ID] = u
	return strconv.FormatInt(u.ID, 10), nil
}

// SeedRide offers a ride directly and returns its id.
func (s *Server) SeedRide(driverID, from, to string, date time.Time, seats int, price float64) string {
	did, _ := strconv.ParseInt(driverID, 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &ride{
		ID:              s.nextID(),
		DriverID:        did,
		DepartureCity:   from,
		DestinationCity: to,
		DepartureDate:   date,
		DepartureTime:   model.DefaultDepartureTime,
		AvailableSeats:  seats,
		TotalSeats:      seats,
		PricePerSeat:    price,
		Status:          model.RideScheduled,
		CreatedAt:       time.Now().UTC(),
	}
	s.rides[r.ID] = r
	return strconv.FormatInt(r.ID, 10)
}

// RideSeats returns the stored seat counter of a ride, -1 when unknown.
func (s *Server) RideSeats(rideID string) int {
	id, _ := strconv.ParseInt(rideID, 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rides[id]; ok {
		return r.AvailableSeats
	}
	return -1
}

// NotificationsFor returns the number of notifications stored for userID.
func (s *Server) NotificationsFor(userID string) int {
	id, _ := strconv.ParseInt(userID, 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, nt := range s.notifications {
		if nt.UserID == id {
			n++
		}
	}
	return n
}

func idParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func idQuery(c echo.Context, name string) int64 {
	id, _ := strconv.ParseInt(c.QueryParam(name), 10, 64)
	return id
}

// anyID accepts an id sent as a JSON number or a string.
func anyID(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

func msg(c echo.Context, status int, m string) error {
	return c.JSON(status, echo.Map{"message": m})
}

func notFound(c echo.Context) error { return msg(c, http.StatusNotFound, "not found") }

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
