// Package service implements the client workflows on top of a per-user
// Session: login and registration, booking and its seat bookkeeping,
// driver decisions, moderated reports, reviews, dashboards and the admin
// console.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/carpool-gateway/internal/repository"
)

var (
	ErrNotAuthenticated      = errors.New("not authenticated")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrInvalid               = errors.New("invalid input")
	ErrSeatSyncFailed        = errors.New("seat count not updated")
	ErrContentRejected       = errors.New("content rejected by moderation")
	ErrModerationUnavailable = errors.New("moderation unavailable")
	ErrInvalidTransition     = errors.New("invalid status transition")
)

const (
	MsgSeatSyncFailed        = "Booking created but failed to update seats. Please contact support."
	MsgContentRejected       = "Your report contains inappropriate content and cannot be submitted."
	MsgModerationUnavailable = "Content moderation is currently unavailable. Please try again later."
)

// UserError is a failure whose Message can be shown as is. Cause keeps
// the underlying error for errors.Is / errors.As and for logs.
type UserError struct {
	Message string
	Cause   error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Cause }

func userErr(msg string, cause error) *UserError {
	return &UserError{Message: msg, Cause: cause}
}

func invalid(format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...), Cause: ErrInvalid}
}

// backendErr turns an adapter failure into a UserError carrying the
// backend's message, or fallback when it had none.
func backendErr(err error, fallback string) *UserError {
	return &UserError{Message: repository.MessageOf(err, fallback), Cause: err}
}

// validationErr renders validator failures as one readable sentence.
func validationErr(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &UserError{Message: "Invalid input", Cause: errors.Join(ErrInvalid, err)}
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, describe(fe))
	}
	return &UserError{Message: strings.Join(parts, "; "), Cause: errors.Join(ErrInvalid, err)}
}

func describe(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return f + " must be a valid email"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "eqfield":
		return f + " must match " + fe.Param()
	case "nefield":
		return f + " must differ from " + fe.Param()
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", f, fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", f, fe.Tag())
}
