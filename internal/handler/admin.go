package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
)

// AdminHandler serves the ADMIN console.
type AdminHandler struct{ base }

func NewAdminHandler(log logger.ILogger) *AdminHandler {
	return &AdminHandler{base: newBase(log, "admin")}
}

func (h *AdminHandler) Overview(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	o, err := sess.AdminOverview(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) Users(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	list, err := sess.ListUsers(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) Ban(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	u, err := sess.BanUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AdminHandler) Unban(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	u, err := sess.UnbanUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AdminHandler) Rides(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	list, err := sess.ListAllRides(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Reports handles GET /v1/admin/reports?status=PENDING; all reports when
// status is absent.
func (h *AdminHandler) Reports(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	status := model.ReportStatus(strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))))
	if status != "" && !status.Valid() {
		return badRequest(c, "unknown report status")
	}
	list, err := sess.ListReports(c.Request().Context(), status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

type reportStatusReq struct {
	Status model.ReportStatus `json:"status"`
}

// UpdateReportStatus moves a PENDING report to REVIEWED, RESOLVED or
// DISMISSED. Other transitions answer 409.
func (h *AdminHandler) UpdateReportStatus(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req reportStatusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	rp, err := sess.UpdateReportStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rp)
}
