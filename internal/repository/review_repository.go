package repository

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

type backendReview struct {
	ID         flexID `json:"id"`
	ReviewerID flexID `json:"reviewerId"`
	ReviewedID flexID `json:"reviewedId"`
	RideID     flexID `json:"rideId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	Type       string `json:"type"`
	CreatedAt  string `json:"createdAt"`
}

func (b backendReview) toDomain() model.Review {
	return model.Review{
		ID:         string(b.ID),
		ReviewerID: string(b.ReviewerID),
		ReviewedID: string(b.ReviewedID),
		RideID:     string(b.RideID),
		Rating:     b.Rating,
		Comment:    b.Comment,
		Type:       model.ReviewType(b.Type),
		CreatedAt:  parseTime(b.CreatedAt),
	}
}

// CreateReviewRequest is a review left by ReviewerID about ReviewedID.
type CreateReviewRequest struct {
	ReviewerID string           `json:"reviewerId"`
	ReviewedID string           `json:"reviewedId" validate:"required"`
	RideID     string           `json:"rideId,omitempty"`
	Rating     int              `json:"rating" validate:"min=1,max=5"`
	Comment    string           `json:"comment" validate:"required"`
	Type       model.ReviewType `json:"type" validate:"omitempty,oneof=DRIVER PASSENGER"`
}

type ReviewRepo struct{ c *Client }

func NewReviewRepo(c *Client) *ReviewRepo { return &ReviewRepo{c: c} }

func (r *ReviewRepo) Create(ctx context.Context, req CreateReviewRequest) (model.Review, error) {
	if req.Type == "" {
		req.Type = model.ReviewOfPassenger
	}
	var br backendReview
	if err := r.c.call(ctx, "reviews.create", "Failed to create review", http.MethodPost, "/create", nil, req, &br); err != nil {
		return model.Review{}, err
	}
	return br.toDomain(), nil
}

func (r *ReviewRepo) list(ctx context.Context, op, msg, path string) ([]model.Review, error) {
	var list []backendReview
	if err := r.c.call(ctx, op, msg, http.MethodGet, path, nil, nil, &list); err != nil {
		return nil, err
	}
	out := make([]model.Review, 0, len(list))
	for _, br := range list {
		out = append(out, br.toDomain())
	}
	return out, nil
}

func (r *ReviewRepo) ListForUser(ctx context.Context, userID string) ([]model.Review, error) {
	return r.list(ctx, "reviews.list_for_user", "Failed to fetch reviews", "/user/"+url.PathEscape(userID))
}

func (r *ReviewRepo) ListForUserByType(ctx context.Context, userID string, t model.ReviewType) ([]model.Review, error) {
	return r.list(ctx, "reviews.list_for_user_by_type", "Failed to fetch reviews by type",
		"/user/"+url.PathEscape(userID)+"/type/"+url.PathEscape(string(t)))
}

func (r *ReviewRepo) ListForRide(ctx context.Context, rideID string) ([]model.Review, error) {
	return r.list(ctx, "reviews.list_for_ride", "Failed to fetch ride reviews", "/ride/"+url.PathEscape(rideID))
}

// AverageRating is 0 when the user has no reviews yet.
func (r *ReviewRepo) AverageRating(ctx context.Context, userID string) (float64, error) {
	var resp struct {
		UserID        flexID  `json:"userId"`
		AverageRating float64 `json:"averageRating"`
	}
	if err := r.c.call(ctx, "reviews.average", "Failed to get average rating", http.MethodGet,
		"/user/"+url.PathEscape(userID)+"/average", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.AverageRating, nil
}
