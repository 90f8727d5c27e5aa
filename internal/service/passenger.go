package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/store"
)

// SearchRequest is a passenger's ride search. Empty fields do not filter.
type SearchRequest struct {
	DepartureCity   string        `json:"departureCity" query:"departureCity"`
	DestinationCity string        `json:"destinationCity" query:"destinationCity"`
	Date            *time.Time    `json:"date,omitempty"`
	DriverGender    *model.Gender `json:"gender,omitempty"`
}

// RideListing is a bookable ride joined with its driver.
type RideListing struct {
	model.Ride
	DriverName      string `json:"driverName"`
	DriverRideCount int    `json:"driverRideCount"`
}

// SearchRides queries the ride service, joins drivers and their ride
// counts, and applies the passenger filters of the rides store (the
// driver gender filter only applies to female passengers).
func (s *Session) SearchRides(ctx context.Context, req SearchRequest) ([]RideListing, error) {
	u, err := s.requireRole(model.RolePassenger)
	if err != nil {
		return nil, err
	}

	dep := strings.TrimSpace(req.DepartureCity)
	dst := strings.TrimSpace(req.DestinationCity)
	s.Rides.SetFilters(store.FiltersPatch{
		DepartureCity:   &dep,
		DestinationCity: &dst,
		Date:            &model.DateFilter{Value: req.Date},
		Gender:          &model.GenderFilter{Value: req.DriverGender},
		PassengerGender: &model.GenderFilter{Value: u.Gender},
	})
	filters := s.Rides.Filters()

	rides, err := s.be.Rides.Search(s.withToken(ctx), filters)
	if err != nil {
		return nil, backendErr(err, "Failed to search rides")
	}

	driverIDs := make([]string, 0, len(rides))
	for _, r := range rides {
		driverIDs = append(driverIDs, r.DriverID)
	}
	driverIDs = uniq(driverIDs)
	drivers := s.resolveUsers(ctx, driverIDs)
	counts, err := s.rideCounts.Get(ctx, driverIDs...)
	if err != nil {
		s.log.Warning("driver ride counts incomplete", logger.Error(err))
	}

	joined := make([]model.Ride, 0, len(rides))
	for _, r := range rides {
		r = withDriver(r, drivers)
		s.rideByID.Put(r.ID, r)
		joined = append(joined, r)
	}
	s.Rides.SetRides(joined)

	visible := s.Rides.FilteredRides()
	out := make([]RideListing, 0, len(visible))
	for _, r := range visible {
		out = append(out, RideListing{
			Ride:            r,
			DriverName:      r.Driver.DisplayName("Unknown driver"),
			DriverRideCount: counts[r.DriverID],
		})
	}
	return out, nil
}

type PassengerDashboard struct {
	Rides          []RideListing `json:"rides"`
	AvailableRides int           `json:"availableRides"`
	PendingCount   int           `json:"pendingBookings"`
	AcceptedCount  int           `json:"acceptedBookings"`
}

// PassengerDashboard lists every bookable ride without filters, plus the
// passenger's booking counts.
func (s *Session) PassengerDashboard(ctx context.Context) (PassengerDashboard, error) {
	u, err := s.requireRole(model.RolePassenger)
	if err != nil {
		return PassengerDashboard{}, err
	}
	s.Rides.ClearFilters()
	rides, err := s.SearchRides(ctx, SearchRequest{})
	if err != nil {
		return PassengerDashboard{}, err
	}
	dash := PassengerDashboard{Rides: rides, AvailableRides: s.Rides.AvailableRidesCount()}
	if err := s.loadPassengerBookings(ctx, u); err != nil {
		s.log.Warning("dashboard bookings", logger.Error(err))
		return dash, nil
	}
	dash.PendingCount = s.Bookings.PendingCount()
	dash.AcceptedCount = s.Bookings.AcceptedCount()
	return dash, nil
}
