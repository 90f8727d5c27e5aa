package model

import "time"

type NotificationType string

const (
	NotifBookingCreated   NotificationType = "BOOKING_CREATED"
	NotifBookingAccepted  NotificationType = "BOOKING_ACCEPTED"
	NotifBookingRejected  NotificationType = "BOOKING_REJECTED"
	NotifBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotifRideUpdated      NotificationType = "RIDE_UPDATED"
	NotifSystem           NotificationType = "SYSTEM"
)

// Notification is a message addressed to one user. Read is the only field
// that changes after creation.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	RelatedID string           `json:"relatedId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NotificationPatch is a shallow update of a Notification.
type NotificationPatch struct {
	Read *bool `json:"read,omitempty"`
}

func (p NotificationPatch) Apply(n Notification) Notification {
	if p.Read != nil {
		n.Read = *p.Read
	}
	return n
}
