package service

import (
	"context"
	"errors"
	"sort"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/queue"
	"github.com/iliyamo/carpool-gateway/internal/repository"
)

// BookingForm is what a passenger sees before booking: the ride, its
// driver and the allowed seat range.
type BookingForm struct {
	Ride         model.Ride  `json:"ride"`
	Driver       *model.User `json:"driver"`
	DriverRating float64     `json:"driverRating"`
	MinSeats     int         `json:"minSeats"`
	MaxSeats     int         `json:"maxSeats"`
}

// LoadRideForBooking fetches the ride, its driver and the driver's average
// rating, and selects the ride.
func (s *Session) LoadRideForBooking(ctx context.Context, rideID string) (BookingForm, error) {
	if _, err := s.requireUser(); err != nil {
		return BookingForm{}, err
	}
	tctx := s.withToken(ctx)
	r, err := s.be.Rides.Get(tctx, rideID)
	if err != nil {
		return BookingForm{}, backendErr(err, "Failed to fetch ride")
	}
	if r == nil {
		return BookingForm{}, userErr("Ride not found", ErrNotFound)
	}
	ride := *r

	form := BookingForm{MinSeats: 1, MaxSeats: ride.AvailableSeats}
	if driver, ok, _ := s.users.One(ctx, ride.DriverID); ok {
		d := driver
		ride.Driver = &d
		form.Driver = &d
	} else {
		s.log.Warning("driver not loaded for booking form", logger.String("ride_id", rideID), logger.String("driver_id", ride.DriverID))
	}
	if avg, err := s.be.Reviews.AverageRating(tctx, ride.DriverID); err == nil {
		form.DriverRating = avg
	} else {
		s.log.Warning("driver rating not loaded", logger.String("driver_id", ride.DriverID), logger.Error(err))
	}

	form.Ride = ride
	s.rememberRide(ride)
	s.Rides.SetSelectedRide(&ride)
	return form, nil
}

type BookRideRequest struct {
	Seats int `json:"seats" validate:"min=1"`
}

// BookRide requests seats on a ride for the signed-in passenger.
//
// The ride is re-read first. The booking is then created and the ride's
// seat counter lowered with a separate call. If that call fails the
// booking still exists, is kept in the store and the ride is queued for
// reconciliation; the returned error carries the support message and
// wraps ErrSeatSyncFailed.
func (s *Session) BookRide(ctx context.Context, rideID string, req BookRideRequest) (model.Booking, error) {
	u, err := s.requireRole(model.RolePassenger)
	if err != nil {
		return model.Booking{}, err
	}
	tctx := s.withToken(ctx)

	// Seat arithmetic runs on the backend's current count, not on a
	// snapshot left by an earlier search.
	r, err := s.be.Rides.Get(tctx, rideID)
	if err != nil {
		return model.Booking{}, backendErr(err, "Failed to fetch ride")
	}
	if r == nil {
		s.Rides.RemoveRide(rideID)
		s.rideByID.Invalidate(rideID)
		return model.Booking{}, userErr("Ride not found", ErrNotFound)
	}
	ride := *r
	if known, ok := s.Rides.Ride(rideID); ok && ride.Driver == nil {
		ride.Driver = known.Driver
	}
	s.rememberRide(ride)
	if !ride.Bookable() {
		return model.Booking{}, invalid("This ride is no longer available")
	}
	if req.Seats < 1 || req.Seats > ride.AvailableSeats {
		return model.Booking{}, invalid("Please select between 1 and %d seats", ride.AvailableSeats)
	}

	booking, err := s.be.Bookings.Create(tctx, rideID, u.ID, req.Seats, &ride)
	if err != nil {
		return model.Booking{}, backendErr(err, "Failed to create booking")
	}
	if booking.Status == "" {
		booking.Status = model.BookingPending
	}
	if booking.SeatsRequested == 0 {
		booking.SeatsRequested = req.Seats
	}
	booking.Passenger = &u

	remaining := ride.ClampSeats(ride.AvailableSeats - req.Seats)
	updated, err := s.be.Rides.Modify(tctx, rideID, repository.SeatChanges(remaining))
	if err != nil {
		s.log.Warning("booking created but seats not updated",
			logger.String("booking_id", booking.ID), logger.String("ride_id", rideID), logger.Error(err))
		s.Bookings.AddBooking(booking)
		s.RequestReconcile(rideID)
		s.notifyCreated(ctx, booking, ride, u)
		return booking, userErr(MsgSeatSyncFailed, errors.Join(ErrSeatSyncFailed, err))
	}

	updated.Driver = ride.Driver
	booking.Ride = &updated
	s.Bookings.AddBooking(booking)
	s.rememberRide(updated)
	s.notifyCreated(ctx, booking, ride, u)
	return booking, nil
}

func (s *Session) notifyCreated(ctx context.Context, b model.Booking, ride model.Ride, passenger model.User) {
	s.notify(ctx, queue.BookingEvent{
		Kind:        queue.BookingCreated,
		BookingID:   b.ID,
		RideID:      ride.ID,
		PassengerID: passenger.ID,
		DriverID:    ride.DriverID,
		Seats:       b.SeatsRequested,
		ActorName:   passenger.DisplayName("A passenger"),
	})
}

// CancelBooking cancels one of the passenger's pending bookings and gives
// the seats back to the ride. The booking list is reloaded whatever
// happens; a failed seat restore is logged and queued for reconciliation.
func (s *Session) CancelBooking(ctx context.Context, bookingID string) error {
	u, err := s.requireRole(model.RolePassenger)
	if err != nil {
		return err
	}
	tctx := s.withToken(ctx)

	b, ok := s.Bookings.Booking(bookingID)
	if !ok {
		if err := s.loadPassengerBookings(ctx, u); err != nil {
			return backendErr(err, "Failed to fetch bookings")
		}
		if b, ok = s.Bookings.Booking(bookingID); !ok {
			return userErr("Booking not found", ErrNotFound)
		}
	}
	if b.PassengerID != "" && b.PassengerID != u.ID {
		return ErrForbidden
	}
	if b.Status != model.BookingPending {
		return invalid("Only pending bookings can be cancelled")
	}

	if err := s.be.Bookings.Cancel(tctx, bookingID, u.ID); err != nil {
		if rerr := s.loadPassengerBookings(ctx, u); rerr != nil {
			s.log.Warning("reload bookings after failed cancel", logger.Error(rerr))
		}
		return backendErr(err, "Failed to cancel booking")
	}
	s.Bookings.CancelBooking(bookingID)

	driverID := b.DriverID()
	if ride, found, err := s.rideByID.One(ctx, b.RideID); found {
		driverID = ride.DriverID
		s.restoreSeats(tctx, ride, b)
	} else {
		s.log.Warning("ride not found for seat restore",
			logger.String("booking_id", bookingID), logger.String("ride_id", b.RideID), logger.Error(err))
		s.RequestReconcile(b.RideID)
	}

	s.notify(ctx, queue.BookingEvent{
		Kind:        queue.BookingCancelled,
		BookingID:   bookingID,
		RideID:      b.RideID,
		PassengerID: u.ID,
		DriverID:    driverID,
		Seats:       b.SeatsRequested,
		ActorName:   u.DisplayName("A passenger"),
	})

	if err := s.loadPassengerBookings(ctx, u); err != nil {
		s.log.Warning("reload bookings after cancel", logger.Error(err))
	}
	return nil
}

// restoreSeats gives b's seats back to ride, clamped to the ride's total.
// Failures are logged and the ride is queued for reconciliation.
func (s *Session) restoreSeats(ctx context.Context, ride model.Ride, b model.Booking) {
	seats := ride.ClampSeats(ride.AvailableSeats + b.SeatsRequested)
	updated, err := s.be.Rides.Modify(ctx, ride.ID, repository.SeatChanges(seats))
	if err != nil {
		s.log.Warning("seat restore failed",
			logger.String("booking_id", b.ID), logger.String("ride_id", ride.ID), logger.Int("seats", seats), logger.Error(err))
		s.RequestReconcile(ride.ID)
		return
	}
	s.rememberRide(updated)
}

// PassengerBooking is a booking joined with its ride and driver.
type PassengerBooking struct {
	model.Booking
	DriverName string `json:"driverName"`
}

// PassengerBookings loads the passenger's bookings with ride and driver
// joins, newest first.
func (s *Session) PassengerBookings(ctx context.Context) ([]PassengerBooking, error) {
	u, err := s.requireRole(model.RolePassenger)
	if err != nil {
		return nil, err
	}
	if err := s.loadPassengerBookings(ctx, u); err != nil {
		return nil, backendErr(err, "Failed to fetch bookings")
	}
	list := s.Bookings.ByPassenger(u.ID)

	driverIDs := make([]string, 0, len(list))
	for _, b := range list {
		driverIDs = append(driverIDs, b.DriverID())
	}
	drivers := s.resolveUsers(ctx, uniq(driverIDs))

	out := make([]PassengerBooking, 0, len(list))
	for _, b := range list {
		pb := PassengerBooking{Booking: b, DriverName: "Unknown driver"}
		if d, ok := drivers[b.DriverID()]; ok {
			pb.DriverName = d.DisplayName("Unknown driver")
			if pb.Ride != nil {
				r := withDriver(*pb.Ride, drivers)
				pb.Ride = &r
			}
		}
		out = append(out, pb)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// loadPassengerBookings replaces the bookings store with the passenger's
// bookings, each joined with its ride.
func (s *Session) loadPassengerBookings(ctx context.Context, u model.User) error {
	list, err := s.be.Bookings.ListByPassenger(s.withToken(ctx), u.ID)
	if err != nil {
		return err
	}
	list = s.joinBookings(ctx, list, false)
	s.Bookings.SetBookings(list)
	return nil
}

// joinBookings attaches ride snapshots and, when withPassengers is set,
// passenger profiles.
func (s *Session) joinBookings(ctx context.Context, list []model.Booking, withPassengers bool) []model.Booking {
	rideIDs := make([]string, 0, len(list))
	userIDs := make([]string, 0, len(list))
	for _, b := range list {
		rideIDs = append(rideIDs, b.RideID)
		userIDs = append(userIDs, b.PassengerID)
	}
	rides := s.resolveRides(ctx, uniq(rideIDs))
	var users map[string]model.User
	if withPassengers {
		users = s.resolveUsers(ctx, uniq(userIDs))
	}

	out := make([]model.Booking, len(list))
	for i, b := range list {
		if r, ok := rides[b.RideID]; ok {
			rc := r
			b.Ride = &rc
		}
		if p, ok := users[b.PassengerID]; ok {
			pc := p
			b.Passenger = &pc
		}
		out[i] = b
	}
	return out
}
