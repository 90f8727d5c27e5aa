// Package queue carries booking lifecycle events over RabbitMQ. The gateway
// publishes one event per booking decision; the consumer turns each event
// into a notification for the other party.
package queue

import (
	"fmt"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

// BookingQueue is the durable queue booking events travel on.
const BookingQueue = "booking.events"

type EventKind string

const (
	BookingCreated   EventKind = "created"
	BookingAccepted  EventKind = "accepted"
	BookingRejected  EventKind = "rejected"
	BookingCancelled EventKind = "cancelled"
)

// BookingEvent is published when a booking changes hands between passenger
// and driver. ActorName is the display name of whoever caused the change.
type BookingEvent struct {
	Kind        EventKind `json:"kind"`
	BookingID   string    `json:"booking_id"`
	RideID      string    `json:"ride_id"`
	PassengerID string    `json:"passenger_id"`
	DriverID    string    `json:"driver_id"`
	Seats       int       `json:"seats"`
	ActorName   string    `json:"actor_name"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Recipient is the user the event must be told to: the driver for
// passenger actions, the passenger for driver decisions.
func (e BookingEvent) Recipient() string {
	switch e.Kind {
	case BookingCreated, BookingCancelled:
		return e.DriverID
	}
	return e.PassengerID
}

func (e BookingEvent) NotificationType() model.NotificationType {
	switch e.Kind {
	case BookingCreated:
		return model.NotifBookingCreated
	case BookingAccepted:
		return model.NotifBookingAccepted
	case BookingRejected:
		return model.NotifBookingRejected
	case BookingCancelled:
		return model.NotifBookingCancelled
	}
	return model.NotifSystem
}

func (e BookingEvent) Title() string {
	switch e.Kind {
	case BookingCreated:
		return "New booking request"
	case BookingAccepted:
		return "Booking accepted"
	case BookingRejected:
		return "Booking rejected"
	case BookingCancelled:
		return "Booking cancelled"
	}
	return "Booking update"
}

func (e BookingEvent) Message() string {
	switch e.Kind {
	case BookingCreated:
		return fmt.Sprintf("%s has booked your ride!", e.actor("A passenger"))
	case BookingAccepted:
		return fmt.Sprintf("%s has accepted your booking!", e.actor("A driver"))
	case BookingRejected:
		return fmt.Sprintf("%s has rejected your booking", e.actor("A driver"))
	case BookingCancelled:
		return fmt.Sprintf("%s has cancelled their booking", e.actor("A passenger"))
	}
	return "Your booking was updated"
}

func (e BookingEvent) actor(fallback string) string {
	if e.ActorName != "" {
		return e.ActorName
	}
	return fallback
}
