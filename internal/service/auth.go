package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/repository"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates the session. On success the AuthStore is
// authenticated, the profile store holds the user and the user's
// notifications are loaded best effort.
func (s *Session) Login(ctx context.Context, req LoginRequest) (model.User, error) {
	s.touch()
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := s.validate.Struct(req); err != nil {
		return model.User{}, validationErr(err)
	}

	res, err := s.be.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return model.User{}, backendErr(err, "Login failed")
	}
	if res.User.IsBanned {
		return model.User{}, userErr("Your account has been banned", ErrForbidden)
	}

	s.establish(ctx, res)
	return res.User, nil
}

// Register creates the account and signs the session in as the new user.
func (s *Session) Register(ctx context.Context, req repository.RegisterRequest) (model.User, error) {
	s.touch()
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := s.validate.Struct(req); err != nil {
		return model.User{}, validationErr(err)
	}
	if req.Role == model.RoleDriver && strings.TrimSpace(req.CIN) == "" {
		return model.User{}, invalid("Driver licence number is required")
	}

	res, err := s.be.Auth.Register(ctx, req)
	if err != nil {
		return model.User{}, backendErr(err, "Registration failed")
	}
	if res.Token == "" {
		// Some deployments do not sign in on registration.
		login, lerr := s.be.Auth.Login(ctx, req.Email, req.Password)
		if lerr != nil {
			return res.User, backendErr(lerr, "Login failed")
		}
		res = login
	}
	if req.Phone != "" && res.User.Phone == "" {
		res.User.Phone = req.Phone
	}
	if req.Vehicle != nil && res.User.Vehicle == nil {
		v := *req.Vehicle
		res.User.Vehicle = &v
	}
	if req.CIN != "" {
		res.User.CIN = req.CIN
	}

	s.establish(ctx, res)
	return res.User, nil
}

func (s *Session) establish(ctx context.Context, res repository.AuthResult) {
	s.Auth.SetAuthenticatedUser(res.User, res.Token)
	s.User.SetProfile(ctx, res.User)
	s.users.Put(res.User.ID, res.User)
	if err := s.LoadNotifications(ctx); err != nil {
		s.log.Warning("notifications not loaded at login", logger.String("user_id", res.User.ID), logger.Error(err))
	}
	s.log.Info("session authenticated", logger.String("sid", s.ID), logger.String("user_id", res.User.ID),
		logger.String("role", string(res.User.Role)))
}

// Logout clears every store of the session and returns it to anonymous.
func (s *Session) Logout() {
	s.touch()
	s.Bookings.ClearBookings()
	s.Rides.ClearRides()
	s.Notifications.ClearNotifications()
	s.User.ClearProfile()
	s.users.Reset()
	s.rideByID.Reset()
	s.rideCounts.Reset()
	s.mu.Lock()
	s.touched = make(map[string]struct{})
	s.mu.Unlock()
	s.Auth.Logout()
}

// Me is the signed-in user.
func (s *Session) Me() (model.User, error) {
	return s.requireUser()
}

type UpdateEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (s *Session) UpdateEmail(ctx context.Context, req UpdateEmailRequest) (model.User, error) {
	u, err := s.requireUser()
	if err != nil {
		return model.User{}, err
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := s.validate.Struct(req); err != nil {
		return model.User{}, validationErr(err)
	}
	updated, err := s.be.Auth.UpdateEmail(s.withToken(ctx), u.ID, req.Email)
	if err != nil {
		return model.User{}, backendErr(err, "Failed to update email")
	}
	patch := model.UserPatch{Email: &updated.Email, Name: &updated.Name}
	s.Auth.UpdateUser(patch)
	s.User.UpdateProfile(patch)
	s.users.Invalidate(u.ID)
	return patch.Apply(u), nil
}

type UpdatePasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
	Confirm  string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func (s *Session) UpdatePassword(ctx context.Context, req UpdatePasswordRequest) error {
	u, err := s.requireUser()
	if err != nil {
		return err
	}
	if err := s.validate.Struct(req); err != nil {
		return validationErr(err)
	}
	if _, err := s.be.Auth.UpdatePassword(s.withToken(ctx), u.ID, req.Password); err != nil {
		return backendErr(err, "Failed to update password")
	}
	return nil
}

// IsUserError reports whether err carries a message meant for the user.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}
