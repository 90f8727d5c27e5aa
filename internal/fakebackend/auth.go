package fakebackend

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/utils"
)

func (s *Server) registerAuth(g *echo.Group) {
	g.POST("/authenticate", s.authenticate)
	g.POST("/createAccount", s.createAccount)
	g.GET("/users", s.listUsers, s.requireAdmin)
	g.GET("/users/email/:email", s.userByEmail)
	g.GET("/users/:id", s.userByID)
	g.PUT("/users/:id/ban", s.setBanned(true), s.requireAdmin)
	g.PUT("/users/:id/unban", s.setBanned(false), s.requireAdmin)
	g.PUT("/users/:id/email", s.updateEmail)
	g.PUT("/users/:id/password", s.updatePassword)
}

func userJSON(u *user) echo.Map {
	return echo.Map{
		"id":          u.ID,
		"email":       u.Email,
		"phoneNumber": u.Phone,
		"gender":      string(u.Gender),
		"userType":    string(u.Role),
		"createdAt":   stamp(u.CreatedAt),
		"isBanned":    u.Banned,
	}
}

// requireAdmin accepts only bearer tokens issued to an ADMIN account.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		claims, err := utils.ParseToken(s.Secret, raw)
		if err != nil {
			return msg(c, http.StatusUnauthorized, "Unauthorized")
		}
		if claims.Role != string(model.RoleAdmin) {
			return msg(c, http.StatusForbidden, "Admin access required")
		}
		return next(c)
	}
}

func (s *Server) token(u *user) (string, error) {
	tok, err := utils.NewAccessToken(s.Secret, strconv.FormatInt(u.ID, 10), string(u.Role), s.TokenTTL)
	if err != nil {
		return "", err
	}
	return tok.Token, nil
}

func (s *Server) findByEmail(email string) *user {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *Server) authenticate(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return msg(c, http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	u := s.findByEmail(req.Email)
	s.mu.Unlock()
	if u == nil || !utils.VerifyPassword(u.Hash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "Invalid email or password"})
	}
	tok, err := s.token(u)
	if err != nil {
		return msg(c, http.StatusInternalServerError, "token issue failed")
	}
	s.mu.Lock()
	body := userJSON(u)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "token": tok, "user": body})
}

func (s *Server) createAccount(c echo.Context) error {
	var req struct {
		Email         string `json:"email"`
		Password      string `json:"password"`
		PhoneNumber   string `json:"phoneNumber"`
		Gender        string `json:"gender"`
		UserType      string `json:"userType"`
		LicenseNumber string `json:"licenseNumber"`
	}
	if err := c.Bind(&req); err != nil {
		return msg(c, http.StatusBadRequest, "invalid body")
	}
	role := model.Role(req.UserType)
	if req.Email == "" || len(req.Password) < 6 || !role.Valid() {
		return msg(c, http.StatusBadRequest, "invalid account data")
	}
	if role == model.RoleDriver && req.LicenseNumber == "" {
		return msg(c, http.StatusBadRequest, "licence number required")
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return msg(c, http.StatusInternalServerError, "hash failed")
	}

	s.mu.Lock()
	if s.findByEmail(req.Email) != nil {
		s.mu.Unlock()
		return msg(c, http.StatusConflict, "Email already registered")
	}
	u := &user{
		ID:        s.nextID(),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Hash:      hash,
		Phone:     req.PhoneNumber,
		Gender:    model.Gender(req.Gender),
		Role:      role,
		License:   req.LicenseNumber,
		CreatedAt: time.Now().UTC(),
	}
	s.users[u.ID] = u
	body := userJSON(u)
	s.mu.Unlock()

	tok, err := s.token(u)
	if err != nil {
		return msg(c, http.StatusInternalServerError, "token issue failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"status": "success", "token": tok, "user": body})
}

func (s *Server) listUsers(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]echo.Map, 0, len(s.users))
	for id := int64(1); id <= s.seq; id++ {
		if u, ok := s.users[id]; ok {
			out = append(out, userJSON(u))
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) userByID(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return msg(c, http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, userJSON(u))
}

func (s *Server) userByEmail(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findByEmail(c.Param("email"))
	if u == nil {
		return msg(c, http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, userJSON(u))
}

func (s *Server) setBanned(banned bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := idParam(c, "id")
		if !ok {
			return notFound(c)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		u, ok := s.users[id]
		if !ok {
			return msg(c, http.StatusNotFound, "User not found")
		}
		u.Banned = banned
		return c.JSON(http.StatusOK, userJSON(u))
	}
}

func (s *Server) updateEmail(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return msg(c, http.StatusBadRequest, "email required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return msg(c, http.StatusNotFound, "User not found")
	}
	if other := s.findByEmail(req.Email); other != nil && other.ID != id {
		return msg(c, http.StatusConflict, "Email already registered")
	}
	u.Email = strings.ToLower(strings.TrimSpace(req.Email))
	return c.JSON(http.StatusOK, userJSON(u))
}

func (s *Server) updatePassword(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil || len(req.Password) < 6 {
		return msg(c, http.StatusBadRequest, "password too short")
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return msg(c, http.StatusInternalServerError, "hash failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return msg(c, http.StatusNotFound, "User not found")
	}
	u.Hash = hash
	return c.JSON(http.StatusOK, userJSON(u))
}
