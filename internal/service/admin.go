package service

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

type AdminOverview struct {
	TotalUsers     int `json:"totalUsers"`
	TotalDrivers   int `json:"totalDrivers"`
	TotalRides     int `json:"totalRides"`
	PendingReports int `json:"pendingReports"`
	BannedUsers    int `json:"bannedUsers"`
}

// AdminOverview counts users, rides and pending reports, loading the three
// lists in parallel.
func (s *Session) AdminOverview(ctx context.Context) (AdminOverview, error) {
	if _, err := s.requireRole(model.RoleAdmin); err != nil {
		return AdminOverview{}, err
	}
	tctx := s.withToken(ctx)

	var (
		users   []model.User
		rides   []model.Ride
		reports []model.Report
	)
	g, gctx := errgroup.WithContext(tctx)
	g.Go(func() (err error) {
		if users, err = s.be.Auth.ListUsers(gctx); err != nil {
			return backendErr(err, "Failed to get users")
		}
		return nil
	})
	g.Go(func() (err error) {
		if rides, err = s.be.Rides.List(gctx); err != nil {
			return backendErr(err, "Failed to fetch rides")
		}
		return nil
	})
	g.Go(func() (err error) {
		if reports, err = s.be.Reports.ListByStatus(gctx, model.ReportPending); err != nil {
			return backendErr(err, "Failed to fetch reports")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return AdminOverview{}, err
	}

	ov := AdminOverview{TotalUsers: len(users), TotalRides: len(rides), PendingReports: len(reports)}
	for _, u := range users {
		if u.Role == model.RoleDriver {
			ov.TotalDrivers++
		}
		if u.IsBanned {
			ov.BannedUsers++
		}
	}
	return ov, nil
}

func (s *Session) ListUsers(ctx context.Context) ([]model.User, error) {
	if _, err := s.requireRole(model.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.be.Auth.ListUsers(s.withToken(ctx))
	if err != nil {
		return nil, backendErr(err, "Failed to get users")
	}
	for _, u := range users {
		s.users.Put(u.ID, u)
	}
	return users, nil
}

func (s *Session) BanUser(ctx context.Context, userID string) (model.User, error) {
	admin, err := s.requireRole(model.RoleAdmin)
	if err != nil {
		return model.User{}, err
	}
	if userID == admin.ID {
		return model.User{}, invalid("You cannot ban yourself")
	}
	u, err := s.be.Auth.Ban(s.withToken(ctx), userID)
	if err != nil {
		return model.User{}, backendErr(err, "Failed to ban user")
	}
	s.users.Put(u.ID, u)
	return u, nil
}

func (s *Session) UnbanUser(ctx context.Context, userID string) (model.User, error) {
	if _, err := s.requireRole(model.RoleAdmin); err != nil {
		return model.User{}, err
	}
	u, err := s.be.Auth.Unban(s.withToken(ctx), userID)
	if err != nil {
		return model.User{}, backendErr(err, "Failed to unban user")
	}
	s.users.Put(u.ID, u)
	return u, nil
}

// ListAllRides lists every ride with its driver joined, newest first.
func (s *Session) ListAllRides(ctx context.Context) ([]model.Ride, error) {
	if _, err := s.requireRole(model.RoleAdmin); err != nil {
		return nil, err
	}
	rides, err := s.be.Rides.List(s.withToken(ctx))
	if err != nil {
		return nil, backendErr(err, "Failed to fetch rides")
	}
	ids := make([]string, 0, len(rides))
	for _, r := range rides {
		ids = append(ids, r.DriverID)
	}
	drivers := s.resolveUsers(ctx, uniq(ids))
	for i := range rides {
		rides[i] = withDriver(rides[i], drivers)
	}
	return newestRides(rides, 0), nil
}

// AdminReport is a report with both parties' names resolved.
type AdminReport struct {
	model.Report
	ReporterName     string `json:"reporterName"`
	ReportedUserName string `json:"reportedUserName"`
}

// ListReports lists reports, all of them when status is empty.
func (s *Session) ListReports(ctx context.Context, status model.ReportStatus) ([]AdminReport, error) {
	if _, err := s.requireRole(model.RoleAdmin); err != nil {
		return nil, err
	}
	tctx := s.withToken(ctx)
	var (
		list []model.Report
		err  error
	)
	switch {
	case status == "":
		list, err = s.be.Reports.List(tctx)
	case status.Valid():
		list, err = s.be.Reports.ListByStatus(tctx, status)
	default:
		return nil, invalid("Unknown report status %q", status)
	}
	if err != nil {
		return nil, backendErr(err, "Failed to fetch reports")
	}

	ids := make([]string, 0, 2*len(list))
	for _, r := range list {
		ids = append(ids, r.ReporterID, r.ReportedUserID)
	}
	users := s.resolveUsers(ctx, uniq(ids))

	out := make([]AdminReport, 0, len(list))
	for _, r := range list {
		ar := AdminReport{Report: r, ReporterName: "Unknown", ReportedUserName: "Unknown"}
		if u, ok := users[r.ReporterID]; ok {
			ar.ReporterName = u.DisplayName("Unknown")
		}
		if u, ok := users[r.ReportedUserID]; ok {
			ar.ReportedUserName = u.DisplayName("Unknown")
		}
		out = append(out, ar)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateReportStatus moves a report out of PENDING. Reports never return
// to PENDING and a decided report is not decided again; the current status
// is read from the report service first.
func (s *Session) UpdateReportStatus(ctx context.Context, reportID string, to model.ReportStatus) (model.Report, error) {
	if _, err := s.requireRole(model.RoleAdmin); err != nil {
		return model.Report{}, err
	}
	tctx := s.withToken(ctx)
	all, err := s.be.Reports.List(tctx)
	if err != nil {
		return model.Report{}, backendErr(err, "Failed to fetch reports")
	}
	var current *model.Report
	for i := range all {
		if all[i].ID == reportID {
			current = &all[i]
			break
		}
	}
	if current == nil {
		return model.Report{}, userErr("Report not found", ErrNotFound)
	}
	if !model.CanTransition(current.Status, to) {
		return model.Report{}, userErr(
			fmt.Sprintf("Cannot change a %s report to %s", current.Status, to), ErrInvalidTransition)
	}
	rep, err := s.be.Reports.UpdateStatus(tctx, reportID, to)
	if err != nil {
		return model.Report{}, backendErr(err, "Failed to update report status")
	}
	return rep, nil
}
