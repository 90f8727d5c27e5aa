package repository

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

type city struct {
	Name       string `json:"name"`
	PostalCode string `json:"postalCode,omitempty"`
}

type backendRide struct {
	ID              flexID  `json:"id"`
	DriverID        flexID  `json:"driverId"`
	DepartureCity   city    `json:"departureCity"`
	DestinationCity city    `json:"destinationCity"`
	DepartureDate   string  `json:"departureDate"`
	DepartureTime   string  `json:"departureTime"`
	AvailableSeats  int     `json:"availableSeats"`
	TotalSeats      int     `json:"totalSeats"`
	PricePerSeat    float64 `json:"pricePerSeat"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"createdAt"`
}

// toDomain maps a backend ride. The driver is left as an empty user keyed
// by id; workflows join the real profile through the entity cache.
func (b backendRide) toDomain() model.Ride {
	dt := b.DepartureTime
	if dt == "" {
		dt = model.DefaultDepartureTime
	}
	return model.Ride{
		ID:              string(b.ID),
		DriverID:        string(b.DriverID),
		Driver:          &model.User{ID: string(b.DriverID)},
		DepartureCity:   b.DepartureCity.Name,
		DestinationCity: b.DestinationCity.Name,
		DepartureDate:   parseTime(b.DepartureDate),
		DepartureTime:   dt,
		AvailableSeats:  b.AvailableSeats,
		TotalSeats:      b.TotalSeats,
		PricePerSeat:    b.PricePerSeat,
		Status:          model.RideStatus(b.Status),
		CreatedAt:       parseTime(b.CreatedAt),
	}
}

func ridesToDomain(list []backendRide) []model.Ride {
	out := make([]model.Ride, 0, len(list))
	for _, r := range list {
		out = append(out, r.toDomain())
	}
	return out
}

// CreateRideRequest is a new ride offered by DriverID.
type CreateRideRequest struct {
	DriverID        string    `json:"driverId" validate:"required"`
	DepartureCity   string    `json:"departureCity" validate:"required"`
	DestinationCity string    `json:"destinationCity" validate:"required,nefield=DepartureCity"`
	DepartureDate   time.Time `json:"departureDate" validate:"required"`
	AvailableSeats  int       `json:"availableSeats" validate:"min=1,max=8"`
	PricePerSeat    float64   `json:"pricePerSeat" validate:"gte=0"`
}

// RideChanges is a partial ride modification; nil fields are not sent.
type RideChanges struct {
	DepartureCity   *string
	DestinationCity *string
	DepartureDate   *time.Time
	AvailableSeats  *int
	PricePerSeat    *float64
}

// SeatChanges is the modification that only sets the seat counter.
func SeatChanges(n int) RideChanges { return RideChanges{AvailableSeats: &n} }

type RideRepo struct{ c *Client }

func NewRideRepo(c *Client) *RideRepo { return &RideRepo{c: c} }

func (r *RideRepo) List(ctx context.Context) ([]model.Ride, error) {
	var list []backendRide
	if err := r.c.call(ctx, "rides.list", "Failed to fetch rides", http.MethodGet, "", nil, nil, &list); err != nil {
		return nil, err
	}
	return ridesToDomain(list), nil
}

// Search asks the ride service for matches and keeps only bookable rides.
// Gender filtering is not supported server side and happens in the store.
func (r *RideRepo) Search(ctx context.Context, f model.RideFilters) ([]model.Ride, error) {
	q := url.Values{}
	if f.DepartureCity != "" {
		q.Set("departureCity", f.DepartureCity)
	}
	if f.DestinationCity != "" {
		q.Set("destinationCity", f.DestinationCity)
	}
	if f.Date != nil {
		q.Set("date", day(*f.Date))
	}
	var list []backendRide
	if err := r.c.call(ctx, "rides.search", "Failed to search rides", http.MethodGet, "/search", q, nil, &list); err != nil {
		return nil, err
	}
	out := make([]model.Ride, 0, len(list))
	for _, br := range list {
		if ride := br.toDomain(); ride.Bookable() {
			out = append(out, ride)
		}
	}
	return out, nil
}

// Get returns nil without error when the ride does not exist.
func (r *RideRepo) Get(ctx context.Context, id string) (*model.Ride, error) {
	var br backendRide
	err := r.c.call(ctx, "rides.get", "Failed to fetch ride", http.MethodGet, "/"+url.PathEscape(id), nil, nil, &br)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ride := br.toDomain()
	return &ride, nil
}

func (r *RideRepo) Create(ctx context.Context, req CreateRideRequest) (model.Ride, error) {
	date := req.DepartureDate
	if date.IsZero() {
		date = time.Now()
	}
	body := map[string]any{
		"departureCity":   city{Name: req.DepartureCity},
		"destinationCity": city{Name: req.DestinationCity},
		"departureDate":   day(date),
		"availableSeats":  req.AvailableSeats,
		"driverId":        req.DriverID,
	}
	if req.PricePerSeat > 0 {
		body["pricePerSeat"] = req.PricePerSeat
	}
	var br backendRide
	if err := r.c.call(ctx, "rides.create", "Failed to create ride", http.MethodPost, "/create", nil, body, &br); err != nil {
		return model.Ride{}, err
	}
	return br.toDomain(), nil
}

// Modify sends only the fields set in ch and returns the updated ride.
func (r *RideRepo) Modify(ctx context.Context, id string, ch RideChanges) (model.Ride, error) {
	body := map[string]any{}
	if ch.DepartureCity != nil && *ch.DepartureCity != "" {
		body["departureCity"] = city{Name: *ch.DepartureCity}
	}
	if ch.DestinationCity != nil && *ch.DestinationCity != "" {
		body["destinationCity"] = city{Name: *ch.DestinationCity}
	}
	if ch.DepartureDate != nil {
		body["departureDate"] = day(*ch.DepartureDate)
	}
	if ch.AvailableSeats != nil {
		body["availableSeats"] = *ch.AvailableSeats
	}
	if ch.PricePerSeat != nil {
		body["pricePerSeat"] = *ch.PricePerSeat
	}
	var br backendRide
	if err := r.c.call(ctx, "rides.modify", "Failed to modify ride", http.MethodPut, "/"+url.PathEscape(id), nil, body, &br); err != nil {
		return model.Ride{}, err
	}
	return br.toDomain(), nil
}

func (r *RideRepo) ListByDriver(ctx context.Context, driverID string) ([]model.Ride, error) {
	var list []backendRide
	if err := r.c.call(ctx, "rides.list_by_driver", "Failed to fetch driver rides", http.MethodGet,
		"/driver/"+url.PathEscape(driverID), nil, nil, &list); err != nil {
		return nil, err
	}
	return ridesToDomain(list), nil
}

func (r *RideRepo) Delete(ctx context.Context, id, driverID string) error {
	q := url.Values{"driverId": {driverID}}
	return r.c.call(ctx, "rides.delete", "Failed to delete ride", http.MethodDelete, "/"+url.PathEscape(id), q, nil, nil)
}
