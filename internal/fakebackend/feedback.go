package fakebackend

import (
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

func (s *Server) registerReviews(g *echo.Group) {
	g.POST("/create", s.createReview)
	g.GET("/user/:id", s.reviewsForUser)
	g.GET("/user/:id/type/:type", s.reviewsForUser)
	g.GET("/user/:id/average", s.averageRating)
	g.GET("/ride/:id", s.reviewsForRide)
}

func (s *Server) registerReports(g *echo.Group) {
	g.POST("/create", s.createReport)
	g.GET("", s.listReports)
	g.GET("/status/:status", s.listReports)
	g.GET("/reporter/:id", s.reportsByReporter)
	g.PUT("/:id/status", s.updateReportStatus)
}

func reviewJSON(r *review) echo.Map {
	out := echo.Map{
		"id":         r.ID,
		"reviewerId": r.ReviewerID,
		"reviewedId": r.ReviewedID,
		"rating":     r.Rating,
		"comment":    r.Comment,
		"type":       string(r.Type),
		"createdAt":  stamp(r.CreatedAt),
	}
	if r.RideID != 0 {
		out["rideId"] = r.RideID
	}
	return out
}

func (s *Server) reviewsWhere(keep func(*review) bool) []echo.Map {
	ids := make([]int64, 0)
	for id, r := range s.reviews {
		if keep(r) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]echo.Map, 0, len(ids))
	for _, id := range ids {
		out = append(out, reviewJSON(s.reviews[id]))
	}
	return out
}

func (s *Server) createReview(c echo.Context) error {
	var req struct {
		ReviewerID any    `json:"reviewerId"`
		ReviewedID any    `json:"reviewedId"`
		RideID     any    `json:"rideId"`
		Rating     int    `json:"rating"`
		Comment    string `json:"comment"`
		Type       string `json:"type"`
	}
	if err := c.Bind(&req); err != nil {
		return msg(c, http.StatusBadRequest, "invalid body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return msg(c, http.StatusBadRequest, "Rating must be between 1 and 5")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &review{
		ID:         s.nextID(),
		ReviewerID: anyID(req.ReviewerID),
		ReviewedID: anyID(req.ReviewedID),
		RideID:     anyID(req.RideID),
		Rating:     req.Rating,
		Comment:    req.Comment,
		Type:       model.ReviewType(req.Type),
		CreatedAt:  time.Now().UTC(),
	}
	if _, ok := s.users[r.ReviewedID]; !ok {
		return msg(c, http.StatusBadRequest, "Unknown user")
	}
	s.reviews[r.ID] = r
	return c.JSON(http.StatusCreated, reviewJSON(r))
}

func (s *Server) reviewsForUser(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	t := model.ReviewType(c.Param("type"))
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.reviewsWhere(func(r *review) bool {
		return r.ReviewedID == id && (t == "" || r.Type == t)
	}))
}

func (s *Server) reviewsForRide(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.reviewsWhere(func(r *review) bool { return r.RideID == id }))
}

func (s *Server) averageRating(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, n := 0, 0
	for _, r := range s.reviews {
		if r.ReviewedID == id {
			sum += r.Rating
			n++
		}
	}
	avg := 0.0
	if n > 0 {
		avg = float64(sum) / float64(n)
	}
	return c.JSON(http.StatusOK, echo.Map{"userId": id, "averageRating": avg})
}

func reportJSON(r *report) echo.Map {
	out := echo.Map{
		"id":             r.ID,
		"reporterId":     r.ReporterID,
		"reportedUserId": r.ReportedUserID,
		"reason":         r.Reason,
		"description":    r.Description,
		"status":         string(r.Status),
		"createdAt":      stamp(r.CreatedAt),
	}
	if r.RideID != 0 {
		out["rideId"] = r.RideID
	}
	return out
}

func (s *Server) reportsWhere(keep func(*report) bool) []echo.Map {
	ids := make([]int64, 0)
	for id, r := range s.reports {
		if keep(r) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]echo.Map, 0, len(ids))
	for _, id := range ids {
		out = append(out, reportJSON(s.reports[id]))
	}
	return out
}

func (s *Server) createReport(c echo.Context) error {
	var req struct {
		ReporterID     any    `json:"reporterId"`
		ReportedUserID any    `json:"reportedUserId"`
		RideID         any    `json:"rideId"`
		Reason         string `json:"reason"`
		Description    string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return msg(c, http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &report{
		ID:             s.nextID(),
		ReporterID:     anyID(req.ReporterID),
		ReportedUserID: anyID(req.ReportedUserID),
		RideID:         anyID(req.RideID),
		Reason:         req.Reason,
		Description:    req.Description,
		Status:         model.ReportPending,
		CreatedAt:      time.Now().UTC(),
	}
	if _, ok := s.users[r.ReportedUserID]; !ok {
		return msg(c, http.StatusBadRequest, "Unknown user")
	}
	s.reports[r.ID] = r
	return c.JSON(http.StatusCreated, reportJSON(r))
}

func (s *Server) listReports(c echo.Context) error {
	status := model.ReportStatus(c.Param("status"))
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.reportsWhere(func(r *report) bool {
		return status == "" || r.Status == status
	}))
}

func (s *Server) reportsByReporter(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.reportsWhere(func(r *report) bool { return r.ReporterID == id }))
}

func (s *Server) updateReportStatus(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	to := model.ReportStatus(c.QueryParam("status"))
	if !to.Valid() {
		return msg(c, http.StatusBadRequest, "Unknown status")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return msg(c, http.StatusNotFound, "Report not found")
	}
	r.Status = to
	return c.JSON(http.StatusOK, reportJSON(r))
}
