package model

import "time"

// ReviewType tells whether the reviewed user acted as driver or passenger.
type ReviewType string

const (
	ReviewOfDriver    ReviewType = "DRIVER"
	ReviewOfPassenger ReviewType = "PASSENGER"
)

// Review is a 1–5 rating left by one user about another after a ride.
type Review struct {
	ID         string     `json:"id"`
	ReviewerID string     `json:"reviewerId"`
	ReviewedID string     `json:"reviewedId"`
	RideID     string     `json:"rideId"`
	Rating     int        `json:"rating"`
	Comment    string     `json:"comment"`
	Type       ReviewType `json:"type"`
	CreatedAt  time.Time  `json:"createdAt"`
}
