package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/service"
)

// AccountHandler serves the endpoints every signed-in user shares:
// preferences, profiles, notifications, reviews and reports.
type AccountHandler struct{ base }

func NewAccountHandler(log logger.ILogger) *AccountHandler {
	return &AccountHandler{base: newBase(log, "account")}
}

func (h *AccountHandler) GetPreferences(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"preferences": sess.User.Preferences(),
		"settings":    sess.User.Settings(),
	})
}

func (h *AccountHandler) UpdatePreferences(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	var patch model.PreferencesPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	prefs, err := sess.UpdatePreferences(patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, prefs)
}

func (h *AccountHandler) UpdateSettings(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	var patch model.SettingsPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	settings, err := sess.UpdateSettings(patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

// Profile handles GET /v1/profile/:id.
func (h *AccountHandler) Profile(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	p, err := sess.Profile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Notifications returns the user's notifications, newest first, with the
// unread count.
func (h *AccountHandler) Notifications(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	list, unread, err := sess.ListNotifications(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": list, "unread": unread})
}

func (h *AccountHandler) MarkNotificationRead(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := sess.MarkNotificationRead(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) MarkAllNotificationsRead(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := sess.MarkAllNotificationsRead(c.Request().Context()); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) SubmitReview(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req service.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	rv, err := sess.SubmitReview(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, rv)
}

// ReviewsForUser handles GET /v1/reviews/user/:id?type=DRIVER|PASSENGER.
func (h *AccountHandler) ReviewsForUser(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	t := model.ReviewType(strings.ToUpper(strings.TrimSpace(c.QueryParam("type"))))
	list, err := sess.ReviewsForUser(c.Request().Context(), c.Param("id"), t)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// SubmitReport files a report. The description goes through moderation
// first: 422 when it is rejected, 503 when moderation cannot answer.
func (h *AccountHandler) SubmitReport(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req service.ReportRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	rp, err := sess.SubmitReport(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, rp)
}

func (h *AccountHandler) MyReports(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	list, err := sess.MyReports(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
