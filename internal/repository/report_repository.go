package repository

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

type backendReport struct {
	ID             flexID `json:"id"`
	ReporterID     flexID `json:"reporterId"`
	ReportedUserID flexID `json:"reportedUserId"`
	RideID         flexID `json:"rideId"`
	Reason         string `json:"reason"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
}

func (b backendReport) toDomain() model.Report {
	return model.Report{
		ID:             string(b.ID),
		ReporterID:     string(b.ReporterID),
		ReportedUserID: string(b.ReportedUserID),
		RideID:         string(b.RideID),
		Reason:         model.ReportReason(b.Reason),
		Description:    b.Description,
		Status:         model.ReportStatus(b.Status),
		CreatedAt:      parseTime(b.CreatedAt),
	}
}

// CreateReportRequest is a complaint about ReportedUserID.
type CreateReportRequest struct {
	ReporterID     string             `json:"reporterId"`
	ReportedUserID string             `json:"reportedUserId"`
	RideID         string             `json:"rideId,omitempty"`
	Reason         model.ReportReason `json:"reason"`
	Description    string             `json:"description"`
}

type ReportRepo struct{ c *Client }

func NewReportRepo(c *Client) *ReportRepo { return &ReportRepo{c: c} }

func (r *ReportRepo) Create(ctx context.Context, req CreateReportRequest) (model.Report, error) {
	reason := req.Reason
	if reason == "" {
		reason = model.ReasonOther
	}
	body := map[string]any{
		"reporterId":     req.ReporterID,
		"reportedUserId": req.ReportedUserID,
		"reason":         reason,
		"description":    req.Description,
	}
	if id := numericOrString(req.RideID); id != nil {
		body["rideId"] = id
	}
	var br backendReport
	if err := r.c.call(ctx, "reports.create", "Failed to create report", http.MethodPost, "/create", nil, body, &br); err != nil {
		return model.Report{}, err
	}
	return br.toDomain(), nil
}

func (r *ReportRepo) list(ctx context.Context, op, path string) ([]model.Report, error) {
	var list []backendReport
	if err := r.c.call(ctx, op, "Failed to fetch reports", http.MethodGet, path, nil, nil, &list); err != nil {
		return nil, err
	}
	out := make([]model.Report, 0, len(list))
	for _, br := range list {
		out = append(out, br.toDomain())
	}
	return out, nil
}

func (r *ReportRepo) List(ctx context.Context) ([]model.Report, error) {
	return r.list(ctx, "reports.list", "")
}

func (r *ReportRepo) ListByStatus(ctx context.Context, s model.ReportStatus) ([]model.Report, error) {
	return r.list(ctx, "reports.list_by_status", "/status/"+url.PathEscape(string(s)))
}

func (r *ReportRepo) ListByReporter(ctx context.Context, reporterID string) ([]model.Report, error) {
	return r.list(ctx, "reports.list_by_reporter", "/reporter/"+url.PathEscape(reporterID))
}

func (r *ReportRepo) UpdateStatus(ctx context.Context, id string, s model.ReportStatus) (model.Report, error) {
	q := url.Values{"status": {string(s)}}
	var br backendReport
	if err := r.c.call(ctx, "reports.update_status", "Failed to update report status", http.MethodPut,
		"/"+url.PathEscape(id)+"/status", q, nil, &br); err != nil {
		return model.Report{}, err
	}
	return br.toDomain(), nil
}
