package handler // handler exposes the session workflows over HTTP

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/middleware"
	"github.com/iliyamo/carpool-gateway/internal/repository"
	"github.com/iliyamo/carpool-gateway/internal/service"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	V *validator.Validate
}

func (v *Validator) Validate(i interface{}) error { return v.V.Struct(i) }

// session returns the session loaded by JWTAuth. Routes that call it are
// always mounted behind JWTAuth, so a nil session is a wiring error.
func session(c echo.Context) (*service.Session, error) {
	s := middleware.SessionFrom(c)
	if s == nil {
		return nil, service.ErrNotAuthenticated
	}
	return s, nil
}

// base carries what every handler shares.
type base struct {
	log logger.ILogger
}

func newBase(log logger.ILogger, name string) base {
	if log == nil {
		log = logger.NewNop()
	}
	return base{log: log.Named(name)}
}

// fail writes err as {"error": msg} with a status derived from its kind.
// UserError messages are shown as is; anything else gets a generic text.
// Server-side failures are logged with the underlying cause.
func (b base) fail(c echo.Context, err error) error {
	status := statusOf(err)
	msg := http.StatusText(status)
	var ue *service.UserError
	if errors.As(err, &ue) {
		msg = ue.Message
	} else {
		switch status {
		case http.StatusUnauthorized:
			msg = "unauthorized"
		case http.StatusForbidden:
			msg = "forbidden"
		case http.StatusNotFound:
			msg = "not found"
		}
	}
	if status >= 500 {
		b.log.Error("request failed",
			logger.String("method", c.Request().Method),
			logger.String("path", c.Path()),
			logger.Int("status", status),
			logger.Error(err))
	}
	return c.JSON(status, echo.Map{"error": msg})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden), errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrContentRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrModerationUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrSeatSyncFailed):
		return http.StatusBadGateway
	}
	var apiErr *repository.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// parseDay reads a YYYY-MM-DD value; empty input yields nil.
func parseDay(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
