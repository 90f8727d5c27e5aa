package service

import (
	"context"
	"strings"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/moderation"
	"github.com/iliyamo/carpool-gateway/internal/repository"
)

const minReportDescription = 10

type ReportRequest struct {
	ReportedUserID string             `json:"reportedUserId"`
	RideID         string             `json:"rideId"`
	Reason         model.ReportReason `json:"reason"`
	Description    string             `json:"description"`
}

// SubmitReport files a complaint. The description must pass moderation
// first: only a Safe verdict reaches the report service.
func (s *Session) SubmitReport(ctx context.Context, req ReportRequest) (model.Report, error) {
	u, err := s.requireUser()
	if err != nil {
		return model.Report{}, err
	}
	req.Description = strings.TrimSpace(req.Description)
	switch {
	case req.ReportedUserID == "":
		return model.Report{}, invalid("Please select the user you want to report")
	case req.ReportedUserID == u.ID:
		return model.Report{}, invalid("You cannot report yourself")
	case !req.Reason.Valid():
		return model.Report{}, invalid("Please select a valid reason")
	case len([]rune(req.Description)) < minReportDescription:
		return model.Report{}, invalid("Description must be at least %d characters", minReportDescription)
	}

	verdict, err := s.mod.Check(ctx, req.Description)
	switch verdict {
	case moderation.Safe:
	case moderation.Unsafe:
		s.log.Info("report blocked by moderation", logger.String("reporter_id", u.ID))
		return model.Report{}, userErr(MsgContentRejected, ErrContentRejected)
	default:
		s.log.Warning("report blocked, moderation unavailable", logger.String("reporter_id", u.ID), logger.Error(err))
		return model.Report{}, userErr(MsgModerationUnavailable, ErrModerationUnavailable)
	}

	rep, err := s.be.Reports.Create(s.withToken(ctx), repository.CreateReportRequest{
		ReporterID:     u.ID,
		ReportedUserID: req.ReportedUserID,
		RideID:         req.RideID,
		Reason:         req.Reason,
		Description:    req.Description,
	})
	if err != nil {
		return model.Report{}, backendErr(err, "Failed to create report")
	}
	return rep, nil
}

// MyReports lists the reports the signed-in user has filed.
func (s *Session) MyReports(ctx context.Context) ([]model.Report, error) {
	u, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	list, err := s.be.Reports.ListByReporter(s.withToken(ctx), u.ID)
	if err != nil {
		return nil, backendErr(err, "Failed to fetch reports")
	}
	return list, nil
}

type ReviewRequest struct {
	ReviewedID string           `json:"reviewedId"`
	RideID     string           `json:"rideId"`
	Rating     int              `json:"rating"`
	Comment    string           `json:"comment"`
	Type       model.ReviewType `json:"type"`
}

// SubmitReview posts a review; there is no moderation step.
func (s *Session) SubmitReview(ctx context.Context, req ReviewRequest) (model.Review, error) {
	u, err := s.requireUser()
	if err != nil {
		return model.Review{}, err
	}
	req.Comment = strings.TrimSpace(req.Comment)
	switch {
	case req.Rating < 1 || req.Rating > 5:
		return model.Review{}, invalid("Rating must be between 1 and 5")
	case req.Comment == "":
		return model.Review{}, invalid("Please write a comment")
	case req.ReviewedID == "":
		return model.Review{}, invalid("Please select the user you want to review")
	case req.ReviewedID == u.ID:
		return model.Review{}, invalid("You cannot review yourself")
	}
	create := repository.CreateReviewRequest{
		ReviewerID: u.ID,
		ReviewedID: req.ReviewedID,
		RideID:     req.RideID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		Type:       req.Type,
	}
	if err := s.validate.Struct(create); err != nil {
		return model.Review{}, validationErr(err)
	}
	rev, err := s.be.Reviews.Create(s.withToken(ctx), create)
	if err != nil {
		return model.Review{}, backendErr(err, "Failed to create review")
	}
	return rev, nil
}

// ReviewsForUser lists reviews about userID, optionally of one type.
func (s *Session) ReviewsForUser(ctx context.Context, userID string, t model.ReviewType) ([]model.Review, error) {
	if _, err := s.requireUser(); err != nil {
		return nil, err
	}
	tctx := s.withToken(ctx)
	var (
		list []model.Review
		err  error
	)
	if t == "" {
		list, err = s.be.Reviews.ListForUser(tctx, userID)
	} else {
		list, err = s.be.Reviews.ListForUserByType(tctx, userID, t)
	}
	if err != nil {
		return nil, backendErr(err, "Failed to fetch reviews")
	}
	return list, nil
}

type Profile struct {
	User          model.User        `json:"user"`
	Reviews       []model.Review    `json:"reviews"`
	AverageRating float64           `json:"averageRating"`
	Reviewers     map[string]string `json:"reviewers"`
}

// Profile shows a user with the reviews written about them.
func (s *Session) Profile(ctx context.Context, userID string) (Profile, error) {
	if _, err := s.requireUser(); err != nil {
		return Profile{}, err
	}
	u, ok, err := s.users.One(ctx, userID)
	if !ok {
		if err == nil {
			err = ErrNotFound
		}
		return Profile{}, backendErr(err, "Failed to get user")
	}
	tctx := s.withToken(ctx)
	p := Profile{User: u, Reviewers: map[string]string{}}

	if p.Reviews, err = s.be.Reviews.ListForUser(tctx, userID); err != nil {
		s.log.Warning("profile reviews", logger.String("user_id", userID), logger.Error(err))
	}
	if p.AverageRating, err = s.be.Reviews.AverageRating(tctx, userID); err != nil {
		s.log.Warning("profile rating", logger.String("user_id", userID), logger.Error(err))
	}
	p.User.Rating = p.AverageRating

	ids := make([]string, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		ids = append(ids, r.ReviewerID)
	}
	for id, rev := range s.resolveUsers(ctx, uniq(ids)) {
		p.Reviewers[id] = rev.DisplayName("")
	}
	return p, nil
}
