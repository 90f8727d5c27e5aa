package model

import "time"

type ReportReason string

const (
	ReasonInappropriateBehavior ReportReason = "INAPPROPRIATE_BEHAVIOR"
	ReasonNoShow                ReportReason = "NO_SHOW"
	ReasonUnsafeDriving         ReportReason = "UNSAFE_DRIVING"
	ReasonOther                 ReportReason = "OTHER"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReasonInappropriateBehavior, ReasonNoShow, ReasonUnsafeDriving, ReasonOther:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportPending   ReportStatus = "PENDING"
	ReportReviewed  ReportStatus = "REVIEWED"
	ReportResolved  ReportStatus = "RESOLVED"
	ReportDismissed ReportStatus = "DISMISSED"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportReviewed, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

// CanTransition reports whether an admin may move a report from one status
// to another. Reports only leave PENDING and never return to it.
func CanTransition(from, to ReportStatus) bool {
	return from == ReportPending && to != ReportPending && to.Valid()
}

// Report is a complaint filed by one user about another, optionally tied
// to a ride.
type Report struct {
	ID             string       `json:"id"`
	ReporterID     string       `json:"reporterId"`
	ReportedUserID string       `json:"reportedUserId"`
	Reason         ReportReason `json:"reason"`
	Description    string       `json:"description"`
	Status         ReportStatus `json:"status"`
	RideID         string       `json:"rideId,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}
