package model

import "time"

type RideStatus string

const (
	RideScheduled  RideStatus = "SCHEDULED"
	RideInProgress RideStatus = "IN_PROGRESS"
	RideCompleted  RideStatus = "COMPLETED"
	RideCancelled  RideStatus = "CANCELLED"
)

// DefaultDepartureTime is used when the backend does not report a time.
const DefaultDepartureTime = "08:00"

// Ride is a trip published by a driver. AvailableSeats stays within
// [0, TotalSeats]; it is decremented on booking and incremented again when
// a booking is rejected or cancelled.
type Ride struct {
	ID              string     `json:"id"`
	DriverID        string     `json:"driverId"`
	Driver          *User      `json:"driver,omitempty"`
	DepartureCity   string     `json:"departureCity"`
	DestinationCity string     `json:"destinationCity"`
	DepartureDate   time.Time  `json:"departureDate"`
	DepartureTime   string     `json:"departureTime"`
	AvailableSeats  int        `json:"availableSeats"`
	TotalSeats      int        `json:"totalSeats"`
	PricePerSeat    float64    `json:"pricePerSeat,omitempty"`
	Status          RideStatus `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Bookable reports whether passengers can still request seats on the ride.
func (r Ride) Bookable() bool {
	return r.AvailableSeats > 0 && r.Status == RideScheduled
}

// ClampSeats bounds n into [0, TotalSeats]. A ride whose total is unknown
// (zero) only gets the lower bound.
func (r Ride) ClampSeats(n int) int {
	if n < 0 {
		return 0
	}
	if r.TotalSeats > 0 && n > r.TotalSeats {
		return r.TotalSeats
	}
	return n
}

// RidePatch is a shallow update of a Ride; nil fields are left untouched.
type RidePatch struct {
	DepartureCity   *string     `json:"departureCity,omitempty"`
	DestinationCity *string     `json:"destinationCity,omitempty"`
	DepartureDate   *time.Time  `json:"departureDate,omitempty"`
	DepartureTime   *string     `json:"departureTime,omitempty"`
	AvailableSeats  *int        `json:"availableSeats,omitempty"`
	TotalSeats      *int        `json:"totalSeats,omitempty"`
	PricePerSeat    *float64    `json:"pricePerSeat,omitempty"`
	Status          *RideStatus `json:"status,omitempty"`
	Driver          *User       `json:"driver,omitempty"`
}

// Apply returns a copy of r with the patch merged in.
func (p RidePatch) Apply(r Ride) Ride {
	if p.DepartureCity != nil {
		r.DepartureCity = *p.DepartureCity
	}
	if p.DestinationCity != nil {
		r.DestinationCity = *p.DestinationCity
	}
	if p.DepartureDate != nil {
		r.DepartureDate = *p.DepartureDate
	}
	if p.DepartureTime != nil {
		r.DepartureTime = *p.DepartureTime
	}
	if p.AvailableSeats != nil {
		r.AvailableSeats = *p.AvailableSeats
	}
	if p.TotalSeats != nil {
		r.TotalSeats = *p.TotalSeats
	}
	if p.PricePerSeat != nil {
		r.PricePerSeat = *p.PricePerSeat
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Driver != nil {
		d := *p.Driver
		r.Driver = &d
	}
	return r
}

// WithSeats returns a copy of r whose available seats are n clamped into
// [0, TotalSeats].
func (r Ride) WithSeats(n int) Ride {
	r.AvailableSeats = r.ClampSeats(n)
	return r
}

// SeatsPatch is the common patch that only moves the seat counter.
func SeatsPatch(n int) RidePatch {
	return RidePatch{AvailableSeats: &n}
}

// RideFilters narrows the rides shown to a passenger. An empty field does
// not filter. Gender only applies when PassengerGender is FEMALE.
type RideFilters struct {
	DepartureCity   string     `json:"departureCity"`
	DestinationCity string     `json:"destinationCity"`
	Date            *time.Time `json:"date,omitempty"`
	Gender          *Gender    `json:"gender,omitempty"`
	PassengerGender *Gender    `json:"passengerGender,omitempty"`
}

// SameDay reports whether a and b carry the same calendar date. Departure
// dates are day values, so each is read in its own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateFilter sets (non-nil Value) or clears (nil Value) the date filter.
type DateFilter struct{ Value *time.Time }

// GenderFilter sets or clears a gender filter.
type GenderFilter struct{ Value *Gender }
