package repository

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

type backendBooking struct {
	ID          flexID `json:"id"`
	BookingID   flexID `json:"bookingId"`
	RideID      flexID `json:"rideId"`
	PassengerID flexID `json:"passengerId"`
	SeatsBooked int    `json:"seatsBooked"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

// toDomain maps both the listing shape (id) and the creation response
// (bookingId). ride, when given, becomes the denormalized snapshot.
func (b backendBooking) toDomain(ride *model.Ride) model.Booking {
	id := b.ID
	if b.BookingID != "" {
		id = b.BookingID
	}
	created := parseTime(b.CreatedAt)
	if created.IsZero() {
		created = time.Now().UTC()
	}
	out := model.Booking{
		ID:             string(id),
		RideID:         string(b.RideID),
		PassengerID:    string(b.PassengerID),
		SeatsRequested: b.SeatsBooked,
		Status:         model.BookingStatus(b.Status),
		CreatedAt:      created,
	}
	if ride != nil {
		snap := *ride
		out.Ride = &snap
	}
	return out
}

func bookingsToDomain(list []backendBooking) []model.Booking {
	out := make([]model.Booking, 0, len(list))
	for _, b := range list {
		out = append(out, b.toDomain(nil))
	}
	return out
}

type BookingRepo struct{ c *Client }

func NewBookingRepo(c *Client) *BookingRepo { return &BookingRepo{c: c} }

// Create books seats on rideID for passengerID. The returned booking
// carries ride as its snapshot since the backend does not echo it.
func (r *BookingRepo) Create(ctx context.Context, rideID, passengerID string, seats int, ride *model.Ride) (model.Booking, error) {
	body := map[string]any{"rideId": rideID, "passengerId": passengerID, "seats": seats}
	var bb backendBooking
	if err := r.c.call(ctx, "bookings.create", "Failed to create booking", http.MethodPost, "/create", nil, body, &bb); err != nil {
		return model.Booking{}, err
	}
	return bb.toDomain(ride), nil
}

func (r *BookingRepo) list(ctx context.Context, op, msg, path string) ([]model.Booking, error) {
	var list []backendBooking
	if err := r.c.call(ctx, op, msg, http.MethodGet, path, nil, nil, &list); err != nil {
		return nil, err
	}
	return bookingsToDomain(list), nil
}

func (r *BookingRepo) ListByPassenger(ctx context.Context, passengerID string) ([]model.Booking, error) {
	return r.list(ctx, "bookings.list_by_passenger", "Failed to fetch bookings", "/passenger/"+url.PathEscape(passengerID))
}

func (r *BookingRepo) ListPendingForDriver(ctx context.Context, driverID string) ([]model.Booking, error) {
	return r.list(ctx, "bookings.list_pending", "Failed to fetch booking requests", "/driver/"+url.PathEscape(driverID)+"/pending")
}

func (r *BookingRepo) ListByRide(ctx context.Context, rideID string) ([]model.Booking, error) {
	return r.list(ctx, "bookings.list_by_ride", "Failed to fetch ride bookings", "/ride/"+url.PathEscape(rideID))
}

// Accept and Reject return a minimal booking: the backend answers with a
// plain confirmation, so only the id and the new status are known.
func (r *BookingRepo) Accept(ctx context.Context, id, driverID string) (model.Booking, error) {
	return r.decide(ctx, "bookings.accept", "Failed to accept booking", id, driverID, "accept", model.BookingAccepted)
}

func (r *BookingRepo) Reject(ctx context.Context, id, driverID string) (model.Booking, error) {
	return r.decide(ctx, "bookings.reject", "Failed to reject booking", id, driverID, "reject", model.BookingRejected)
}

func (r *BookingRepo) decide(ctx context.Context, op, msg, id, driverID, verb string, status model.BookingStatus) (model.Booking, error) {
	q := url.Values{"driverId": {driverID}}
	if err := r.c.call(ctx, op, msg, http.MethodPost, "/"+url.PathEscape(id)+"/"+verb, q, nil, nil); err != nil {
		return model.Booking{}, err
	}
	return model.Booking{ID: id, Status: status, CreatedAt: time.Now().UTC()}, nil
}

func (r *BookingRepo) Cancel(ctx context.Context, id, passengerID string) error {
	q := url.Values{"passengerId": {passengerID}}
	return r.c.call(ctx, "bookings.cancel", "Failed to cancel booking", http.MethodDelete, "/"+url.PathEscape(id), q, nil, nil)
}
