package service

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/queue"
	"github.com/iliyamo/carpool-gateway/internal/repository"
)

// pendingBooking finds a booking among the driver's pending requests,
// re-fetching them once when the store does not know it.
func (s *Session) pendingBooking(ctx context.Context, u model.User, id string) (model.Booking, error) {
	b, ok := s.Bookings.Booking(id)
	if !ok {
		if err := s.loadDriverPending(ctx, u); err != nil {
			return model.Booking{}, backendErr(err, "Failed to fetch booking requests")
		}
		if b, ok = s.Bookings.Booking(id); !ok {
			return model.Booking{}, userErr("Booking not found", ErrNotFound)
		}
	}
	if d := b.DriverID(); d != "" && d != u.ID {
		return model.Booking{}, ErrForbidden
	}
	return b, nil
}

// AcceptBooking accepts a pending request on one of the driver's rides,
// tells the passenger, and reloads the pending list from the backend.
func (s *Session) AcceptBooking(ctx context.Context, bookingID string) error {
	u, err := s.requireRole(model.RoleDriver)
	if err != nil {
		return err
	}
	b, err := s.pendingBooking(ctx, u, bookingID)
	if err != nil {
		return err
	}

	if _, err := s.be.Bookings.Accept(s.withToken(ctx), bookingID, u.ID); err != nil {
		return backendErr(err, "Failed to accept booking")
	}
	s.Bookings.AcceptBooking(bookingID)

	s.notify(ctx, queue.BookingEvent{
		Kind:        queue.BookingAccepted,
		BookingID:   bookingID,
		RideID:      b.RideID,
		PassengerID: b.PassengerID,
		DriverID:    u.ID,
		Seats:       b.SeatsRequested,
		ActorName:   u.DisplayName("A driver"),
	})

	if err := s.loadDriverPending(ctx, u); err != nil {
		s.log.Warning("reload pending bookings after accept", logger.Error(err))
	}
	return nil
}

// RejectBooking rejects a pending request and gives its seats back to the
// ride. The rejection stands even when the ride cannot be re-fetched or
// its seats cannot be restored; those failures are logged and the ride is
// queued for reconciliation.
func (s *Session) RejectBooking(ctx context.Context, bookingID string) error {
	u, err := s.requireRole(model.RoleDriver)
	if err != nil {
		return err
	}
	b, err := s.pendingBooking(ctx, u, bookingID)
	if err != nil {
		return err
	}
	tctx := s.withToken(ctx)

	if _, err := s.be.Bookings.Reject(tctx, bookingID, u.ID); err != nil {
		return backendErr(err, "Failed to reject booking")
	}
	s.Bookings.RejectBooking(bookingID)

	s.notify(ctx, queue.BookingEvent{
		Kind:        queue.BookingRejected,
		BookingID:   bookingID,
		RideID:      b.RideID,
		PassengerID: b.PassengerID,
		DriverID:    u.ID,
		Seats:       b.SeatsRequested,
		ActorName:   u.DisplayName("A driver"),
	})

	ride, err := s.be.Rides.Get(tctx, b.RideID)
	switch {
	case err != nil:
		s.log.Warning("ride re-fetch failed after reject",
			logger.String("booking_id", bookingID), logger.String("ride_id", b.RideID), logger.Error(err))
		s.RequestReconcile(b.RideID)
	case ride == nil:
		s.log.Warning("ride gone after reject", logger.String("ride_id", b.RideID))
		s.Rides.RemoveRide(b.RideID)
		s.rideByID.Invalidate(b.RideID)
	default:
		s.restoreSeats(tctx, *ride, b)
	}

	if err := s.loadDriverPending(ctx, u); err != nil {
		s.log.Warning("reload pending bookings after reject", logger.Error(err))
	}
	return nil
}

// loadDriverPending replaces the bookings store with the driver's pending
// requests, joined with rides and passengers.
func (s *Session) loadDriverPending(ctx context.Context, u model.User) error {
	list, err := s.be.Bookings.ListPendingForDriver(s.withToken(ctx), u.ID)
	if err != nil {
		return err
	}
	s.Bookings.SetBookings(s.joinBookings(ctx, list, true))
	return nil
}

// DriverBookings are the driver's pending requests enriched with ride and
// passenger, oldest first so requests are answered in order.
func (s *Session) DriverBookings(ctx context.Context) ([]model.Booking, error) {
	u, err := s.requireRole(model.RoleDriver)
	if err != nil {
		return nil, err
	}
	if err := s.loadDriverPending(ctx, u); err != nil {
		return nil, backendErr(err, "Failed to fetch booking requests")
	}
	list := append([]model.Booking(nil), s.Bookings.Bookings()...)
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

type DriverDashboard struct {
	TotalRides      int             `json:"totalRides"`
	PendingRequests int             `json:"pendingRequests"`
	RecentRides     []model.Ride    `json:"recentRides"`
	RecentRequests  []model.Booking `json:"recentRequests"`
	AverageRating   *float64        `json:"averageRating"`
}

const dashboardRecent = 3

// DriverDashboard summarizes the driver's rides and pending requests.
// Pieces that fail to load are left empty and logged.
func (s *Session) DriverDashboard(ctx context.Context) (DriverDashboard, error) {
	u, err := s.requireRole(model.RoleDriver)
	if err != nil {
		return DriverDashboard{}, err
	}
	tctx := s.withToken(ctx)
	var dash DriverDashboard

	rides, err := s.be.Rides.ListByDriver(tctx, u.ID)
	if err != nil {
		return DriverDashboard{}, backendErr(err, "Failed to fetch driver rides")
	}
	for _, r := range rides {
		s.rememberRide(r)
	}
	dash.TotalRides = len(rides)
	dash.RecentRides = newestRides(rides, dashboardRecent)

	if err := s.loadDriverPending(ctx, u); err != nil {
		s.log.Warning("dashboard pending requests", logger.Error(err))
	} else {
		pending := s.Bookings.Bookings()
		dash.PendingRequests = len(pending)
		dash.RecentRequests = newestBookings(pending, dashboardRecent)
	}

	if avg, err := s.be.Reviews.AverageRating(tctx, u.ID); err != nil {
		s.log.Warning("dashboard average rating", logger.Error(err))
	} else if avg > 0 {
		dash.AverageRating = &avg
		s.User.UpdateProfile(model.UserPatch{Rating: &avg, TotalRides: &dash.TotalRides})
	}
	return dash, nil
}

type PublishRideRequest struct {
	DepartureCity   string    `json:"departureCity"`
	DestinationCity string    `json:"destinationCity"`
	DepartureDate   time.Time `json:"departureDate"`
	AvailableSeats  int       `json:"availableSeats"`
	PricePerSeat    float64   `json:"pricePerSeat"`
}

// PublishRide offers a new ride from the signed-in driver.
func (s *Session) PublishRide(ctx context.Context, req PublishRideRequest) (model.Ride, error) {
	u, err := s.requireRole(model.RoleDriver)
	if err != nil {
		return model.Ride{}, err
	}
	create := repository.CreateRideRequest{
		DriverID:        u.ID,
		DepartureCity:   req.DepartureCity,
		DestinationCity: req.DestinationCity,
		DepartureDate:   req.DepartureDate,
		AvailableSeats:  req.AvailableSeats,
		PricePerSeat:    req.PricePerSeat,
	}
	if err := s.validate.Struct(create); err != nil {
		return model.Ride{}, validationErr(err)
	}
	if y, m, d := req.DepartureDate.Date(); time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Before(today()) {
		return model.Ride{}, invalid("Departure date cannot be in the past")
	}

	ride, err := s.be.Rides.Create(s.withToken(ctx), create)
	if err != nil {
		return model.Ride{}, backendErr(err, "Failed to create ride")
	}
	if ride.TotalSeats == 0 {
		ride.TotalSeats = req.AvailableSeats
	}
	me := u
	ride.Driver = &me
	s.rideByID.Put(ride.ID, ride)
	s.Rides.AddRide(ride)
	return ride, nil
}

// DeleteRide removes one of the driver's rides.
func (s *Session) DeleteRide(ctx context.Context, rideID string) error {
	u, err := s.requireRole(model.RoleDriver)
	if err != nil {
		return err
	}
	if err := s.be.Rides.Delete(s.withToken(ctx), rideID, u.ID); err != nil {
		return backendErr(err, "Failed to delete ride")
	}
	s.Rides.RemoveRide(rideID)
	s.rideByID.Invalidate(rideID)
	return nil
}

// MyRides loads the driver's rides, newest departure first.
func (s *Session) MyRides(ctx context.Context) ([]model.Ride, error) {
	u, err := s.requireRole(model.RoleDriver)
	if err != nil {
		return nil, err
	}
	rides, err := s.be.Rides.ListByDriver(s.withToken(ctx), u.ID)
	if err != nil {
		return nil, backendErr(err, "Failed to fetch driver rides")
	}
	me := u
	for i := range rides {
		rides[i].Driver = &me
		s.rememberRide(rides[i])
	}
	return newestRides(rides, 0), nil
}

// newestRides sorts by creation time, newest first, keeping at most n
// (all when n is 0).
func newestRides(in []model.Ride, n int) []model.Ride {
	out := append([]model.Ride(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func newestBookings(in []model.Booking, n int) []model.Booking {
	out := append([]model.Booking(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
