package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/config"
	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/repository"
	"github.com/iliyamo/carpool-gateway/internal/service"
	"github.com/iliyamo/carpool-gateway/internal/utils"
)

// AuthHandler signs sessions in and out and serves the account endpoints.
type AuthHandler struct {
	base
	Cfg      config.Config
	Sessions *service.SessionManager
}

func NewAuthHandler(cfg config.Config, sessions *service.SessionManager, log logger.ILogger) *AuthHandler {
	if sessions == nil {
		panic("nil session manager passed to NewAuthHandler")
	}
	return &AuthHandler{base: newBase(log, "auth"), Cfg: cfg, Sessions: sessions}
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User   model.User `json:"user"`
	Access tokenPart  `json:"access"`
}

// Login opens a fresh session, authenticates it against the auth service
// and returns a session token. A failed login discards the session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx := c.Request().Context()
	sess := h.Sessions.New(ctx)
	u, err := sess.Login(ctx, req)
	if err != nil {
		h.Sessions.Close(sess.ID)
		return h.fail(c, err)
	}
	return h.issue(c, http.StatusOK, sess, u)
}

// Register creates the account and signs a fresh session in as the new
// user.
func (h *AuthHandler) Register(c echo.Context) error {
	var req repository.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Role == "" {
		req.Role = model.RolePassenger
	}
	ctx := c.Request().Context()
	sess := h.Sessions.New(ctx)
	u, err := sess.Register(ctx, req)
	if err != nil {
		h.Sessions.Close(sess.ID)
		return h.fail(c, err)
	}
	return h.issue(c, http.StatusCreated, sess, u)
}

func (h *AuthHandler) issue(c echo.Context, status int, sess *service.Session, u model.User) error {
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.ID, sess.ID, string(u.Role), h.Cfg.SessionTTL)
	if err != nil {
		sess.Logout()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token issue failed"})
	}
	return c.JSON(status, authResp{User: u, Access: tokenPart{Token: tok.Token, Expires: tok.Exp}})
}

// Logout clears every store of the session and forgets it.
func (h *AuthHandler) Logout(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	sess.Logout()
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	u, err := sess.Me()
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) UpdateEmail(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req service.UpdateEmailRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	u, err := sess.UpdateEmail(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req service.UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := sess.UpdatePassword(c.Request().Context(), req); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
