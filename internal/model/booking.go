package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingAccepted  BookingStatus = "ACCEPTED"
	BookingRejected  BookingStatus = "REJECTED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// Terminal reports whether no further transition is expected.
func (s BookingStatus) Terminal() bool {
	return s != BookingPending
}

// Booking is a passenger's seat request on a ride. It is created PENDING
// by the passenger; the ride's driver accepts or rejects it, and the
// passenger may cancel it while it is still pending.
type Booking struct {
	ID             string        `json:"id"`
	RideID         string        `json:"rideId"`
	Ride           *Ride         `json:"ride,omitempty"`
	PassengerID    string        `json:"passengerId"`
	Passenger      *User         `json:"passenger,omitempty"`
	SeatsRequested int           `json:"seatsRequested"`
	Status         BookingStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// DriverID reads the driver through the denormalized ride snapshot; empty
// when the snapshot is missing.
func (b Booking) DriverID() string {
	if b.Ride == nil {
		return ""
	}
	return b.Ride.DriverID
}

// BookingPatch is a shallow update of a Booking; nil fields are left untouched.
type BookingPatch struct {
	Status         *BookingStatus `json:"status,omitempty"`
	SeatsRequested *int           `json:"seatsRequested,omitempty"`
	Ride           *Ride          `json:"ride,omitempty"`
	Passenger      *User          `json:"passenger,omitempty"`
}

// Apply returns a copy of b with the patch merged in.
func (p BookingPatch) Apply(b Booking) Booking {
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.SeatsRequested != nil {
		b.SeatsRequested = *p.SeatsRequested
	}
	if p.Ride != nil {
		r := *p.Ride
		b.Ride = &r
	}
	if p.Passenger != nil {
		u := *p.Passenger
		b.Passenger = &u
	}
	return b
}

// StatusPatch is the patch that only changes the status.
func StatusPatch(s BookingStatus) BookingPatch {
	return BookingPatch{Status: &s}
}
