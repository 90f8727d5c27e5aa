package service

import (
	"context"

	"github.com/iliyamo/carpool-gateway/internal/config"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/repository"
)

// The backend ports below are satisfied by the repository adapters; tests
// wrap them to inject failures.

type AuthBackend interface {
	Login(ctx context.Context, email, password string) (repository.AuthResult, error)
	Register(ctx context.Context, req repository.RegisterRequest) (repository.AuthResult, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	Ban(ctx context.Context, id string) (model.User, error)
	Unban(ctx context.Context, id string) (model.User, error)
	UpdateEmail(ctx context.Context, id, email string) (model.User, error)
	UpdatePassword(ctx context.Context, id, password string) (model.User, error)
}

type RideBackend interface {
	List(ctx context.Context) ([]model.Ride, error)
	Search(ctx context.Context, f model.RideFilters) ([]model.Ride, error)
	Get(ctx context.Context, id string) (*model.Ride, error)
	Create(ctx context.Context, req repository.CreateRideRequest) (model.Ride, error)
	Modify(ctx context.Context, id string, ch repository.RideChanges) (model.Ride, error)
	ListByDriver(ctx context.Context, driverID string) ([]model.Ride, error)
	Delete(ctx context.Context, id, driverID string) error
}

type BookingBackend interface {
	Create(ctx context.Context, rideID, passengerID string, seats int, ride *model.Ride) (model.Booking, error)
	ListByPassenger(ctx context.Context, passengerID string) ([]model.Booking, error)
	ListPendingForDriver(ctx context.Context, driverID string) ([]model.Booking, error)
	ListByRide(ctx context.Context, rideID string) ([]model.Booking, error)
	Accept(ctx context.Context, id, driverID string) (model.Booking, error)
	Reject(ctx context.Context, id, driverID string) (model.Booking, error)
	Cancel(ctx context.Context, id, passengerID string) error
}

type ReviewBackend interface {
	Create(ctx context.Context, req repository.CreateReviewRequest) (model.Review, error)
	ListForUser(ctx context.Context, userID string) ([]model.Review, error)
	ListForUserByType(ctx context.Context, userID string, t model.ReviewType) ([]model.Review, error)
	ListForRide(ctx context.Context, rideID string) ([]model.Review, error)
	AverageRating(ctx context.Context, userID string) (float64, error)
}

type ReportBackend interface {
	Create(ctx context.Context, req repository.CreateReportRequest) (model.Report, error)
	List(ctx context.Context) ([]model.Report, error)
	ListByStatus(ctx context.Context, s model.ReportStatus) ([]model.Report, error)
	ListByReporter(ctx context.Context, reporterID string) ([]model.Report, error)
	UpdateStatus(ctx context.Context, id string, s model.ReportStatus) (model.Report, error)
}

type NotificationBackend interface {
	ListForUser(ctx context.Context, userID string) ([]model.Notification, error)
	Create(ctx context.Context, userID string, t model.NotificationType, title, message, relatedID string) (model.Notification, error)
	UpdateStatus(ctx context.Context, id string, read bool) (model.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
}

// Backends groups one adapter per backend service.
type Backends struct {
	Auth          AuthBackend
	Rides         RideBackend
	Bookings      BookingBackend
	Reviews       ReviewBackend
	Reports       ReportBackend
	Notifications NotificationBackend
}

// NewHTTPBackends builds the HTTP adapters. Each call carries the bearer
// token found in its context.
func NewHTTPBackends(urls config.BackendURLs, client func(base string) *repository.Client) Backends {
	return Backends{
		Auth:          repository.NewAuthRepo(client(urls.Auth)),
		Rides:         repository.NewRideRepo(client(urls.Rides)),
		Bookings:      repository.NewBookingRepo(client(urls.Bookings)),
		Reviews:       repository.NewReviewRepo(client(urls.Reviews)),
		Reports:       repository.NewReportRepo(client(urls.Reports)),
		Notifications: repository.NewNotificationRepo(client(urls.Notifications)),
	}
}
