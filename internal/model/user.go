package model

import "time"

// Role decides which workflows a user can reach.
type Role string

const (
	RolePassenger Role = "PASSENGER"
	RoleDriver    Role = "DRIVER"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePassenger, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// User is a marketplace account. Identity is the ID; users are never deleted
// by the gateway, only mutated (ban flag, role, contact details).
//
// Fields:
//
//	Gender  – optional; drives the female-only driver filter.
//	CIN     – national id, drivers only.
//	Vehicle – drivers only.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Role       Role      `json:"role"`
	Gender     *Gender   `json:"gender,omitempty"`
	CIN        string    `json:"cin,omitempty"`
	Vehicle    *Vehicle  `json:"vehicle,omitempty"`
	Rating     float64   `json:"rating"`
	TotalRides int       `json:"totalRides"`
	CreatedAt  time.Time `json:"createdAt"`
	IsBanned   bool      `json:"isBanned"`
}

// DisplayName is the name shown next to bookings and rides: the user's name,
// else the local part of the email, else fallback.
func (u *User) DisplayName(fallback string) string {
	if u == nil {
		return fallback
	}
	if u.Name != "" {
		return u.Name
	}
	if local := EmailLocalPart(u.Email); local != "" {
		return local
	}
	return fallback
}

// Vehicle is the car a driver offers seats in.
type Vehicle struct {
	ID           string `json:"id"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	LicensePlate string `json:"licensePlate"`
	Color        string `json:"color"`
	Seats        int    `json:"seats"`
}

// UserPatch is a shallow update of a User; nil fields are left untouched.
type UserPatch struct {
	Name       *string  `json:"name,omitempty"`
	Email      *string  `json:"email,omitempty"`
	Phone      *string  `json:"phone,omitempty"`
	Role       *Role    `json:"role,omitempty"`
	Gender     *Gender  `json:"gender,omitempty"`
	Vehicle    *Vehicle `json:"vehicle,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
	TotalRides *int     `json:"totalRides,omitempty"`
	IsBanned   *bool    `json:"isBanned,omitempty"`
}

// Apply returns a copy of u with the patch merged in.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Gender != nil {
		g := *p.Gender
		u.Gender = &g
	}
	if p.Vehicle != nil {
		v := *p.Vehicle
		u.Vehicle = &v
	}
	if p.Rating != nil {
		u.Rating = *p.Rating
	}
	if p.TotalRides != nil {
		u.TotalRides = *p.TotalRides
	}
	if p.IsBanned != nil {
		u.IsBanned = *p.IsBanned
	}
	return u
}

// EmailLocalPart returns the part of an email address before '@'.
func EmailLocalPart(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}
