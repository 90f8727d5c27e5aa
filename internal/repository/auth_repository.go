package repository

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

// backendUser is the auth service's account shape.
type backendUser struct {
	ID          flexID `json:"id"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Gender      string `json:"gender"`
	UserType    string `json:"userType"`
	CreatedAt   string `json:"createdAt"`
	IsBanned    bool   `json:"isBanned"`
}

func (b backendUser) toDomain() model.User {
	role := model.RolePassenger
	switch b.UserType {
	case string(model.RoleAdmin):
		role = model.RoleAdmin
	case string(model.RoleDriver):
		role = model.RoleDriver
	}
	gender := model.GenderFemale
	if b.Gender == string(model.GenderMale) {
		gender = model.GenderMale
	}
	return model.User{
		ID:        string(b.ID),
		Name:      model.EmailLocalPart(b.Email),
		Email:     b.Email,
		Phone:     b.PhoneNumber,
		Role:      role,
		Gender:    &gender,
		CreatedAt: parseTime(b.CreatedAt),
		IsBanned:  b.IsBanned,
	}
}

// RegisterRequest is what a new account is created from.
type RegisterRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Confirm  string         `json:"confirmPassword" validate:"required,eqfield=Password"`
	Phone    string         `json:"phone" validate:"required"`
	Gender   model.Gender   `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	Role     model.Role     `json:"role" validate:"required,oneof=PASSENGER DRIVER ADMIN"`
	CIN      string         `json:"cin"`
	Vehicle  *model.Vehicle `json:"vehicle,omitempty"`
}

// AuthResult is a successful login or registration.
type AuthResult struct {
	User  model.User
	Token string
}

type AuthRepo struct{ c *Client }

func NewAuthRepo(c *Client) *AuthRepo { return &AuthRepo{c: c} }

type authResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *backendUser `json:"user"`
}

// Login authenticates against the auth service. The backend must answer
// status "success" with a user for the login to count.
func (r *AuthRepo) Login(ctx context.Context, email, password string) (AuthResult, error) {
	const op, msg = "auth.login", "Login failed"
	var resp authResponse
	err := r.c.call(ctx, op, msg, http.MethodPost, "/authenticate", nil,
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return AuthResult{}, err
	}
	if resp.Status != "success" || resp.User == nil {
		return AuthResult{}, &APIError{Op: op, Status: http.StatusOK, Message: "Authentication failed"}
	}
	return AuthResult{User: resp.User.toDomain(), Token: resp.Token}, nil
}

// Register creates an account. A 400 is reported as invalid data whatever
// the backend said.
func (r *AuthRepo) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	const op, msg = "auth.register", "Registration failed"
	gender := req.Gender
	if gender == "" {
		gender = model.GenderMale
	}
	body := map[string]string{
		"email":                  req.Email,
		"password":               req.Password,
		"phoneNumber":            req.Phone,
		"gender":                 string(gender),
		"userType":               string(req.Role),
		"licenseNumber":          req.CIN,
		"vehicleNumber":          "",
		"vehiclePlate":           "",
		"preferredPaymentMethod": "",
	}
	if req.Vehicle != nil {
		body["vehicleNumber"] = req.Vehicle.Model
		body["vehiclePlate"] = req.Vehicle.LicensePlate
	}

	var resp authResponse
	err := r.c.call(ctx, op, msg, http.MethodPost, "/createAccount", nil, body, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			apiErr.Message = "Invalid registration data"
		}
		return AuthResult{}, err
	}
	if resp.User == nil {
		m := resp.Message
		if m == "" {
			m = msg
		}
		return AuthResult{}, &APIError{Op: op, Status: http.StatusOK, Message: m}
	}
	return AuthResult{User: resp.User.toDomain(), Token: resp.Token}, nil
}

func (r *AuthRepo) getUser(ctx context.Context, op, path string) (model.User, error) {
	var u backendUser
	if err := r.c.call(ctx, op, "Failed to get user", http.MethodGet, path, nil, nil, &u); err != nil {
		return model.User{}, err
	}
	return u.toDomain(), nil
}

func (r *AuthRepo) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return r.getUser(ctx, "auth.get_user", "/users/"+url.PathEscape(id))
}

func (r *AuthRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getUser(ctx, "auth.get_user_by_email", "/users/email/"+url.PathEscape(email))
}

func (r *AuthRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	var list []backendUser
	if err := r.c.call(ctx, "auth.list_users", "Failed to get users", http.MethodGet, "/users", nil, nil, &list); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(list))
	for _, u := range list {
		out = append(out, u.toDomain())
	}
	return out, nil
}

func (r *AuthRepo) putUser(ctx context.Context, op, msg, path string, body any) (model.User, error) {
	if body == nil {
		body = struct{}{}
	}
	var u backendUser
	if err := r.c.call(ctx, op, msg, http.MethodPut, path, nil, body, &u); err != nil {
		return model.User{}, err
	}
	return u.toDomain(), nil
}

func (r *AuthRepo) Ban(ctx context.Context, id string) (model.User, error) {
	return r.putUser(ctx, "auth.ban", "Failed to ban user", "/users/"+url.PathEscape(id)+"/ban", nil)
}

func (r *AuthRepo) Unban(ctx context.Context, id string) (model.User, error) {
	return r.putUser(ctx, "auth.unban", "Failed to unban user", "/users/"+url.PathEscape(id)+"/unban", nil)
}

func (r *AuthRepo) UpdateEmail(ctx context.Context, id, email string) (model.User, error) {
	return r.putUser(ctx, "auth.update_email", "Failed to update email",
		"/users/"+url.PathEscape(id)+"/email", map[string]string{"email": email})
}

func (r *AuthRepo) UpdatePassword(ctx context.Context, id, password string) (model.User, error) {
	return r.putUser(ctx, "auth.update_password", "Failed to update password",
		"/users/"+url.PathEscape(id)+"/password", map[string]string{"password": password})
}
