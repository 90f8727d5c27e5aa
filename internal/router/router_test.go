package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/carpool-gateway/internal/config"
	"github.com/iliyamo/carpool-gateway/internal/fakebackend"
	"github.com/iliyamo/carpool-gateway/internal/handler"
	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/moderation"
	"github.com/iliyamo/carpool-gateway/internal/repository"
	"github.com/iliyamo/carpool-gateway/internal/service"
	"github.com/iliyamo/carpool-gateway/internal/utils"
)

type gateway struct {
	e        *echo.Echo
	fb       *fakebackend.Server
	driverID string
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	utils.PasswordCost = bcrypt.MinCost

	fb := fakebackend.New("backend-secret", logger.NewNop())
	backend := httptest.NewServer(fb.Echo())
	t.Cleanup(backend.Close)

	driverID, err := fb.SeedUser("driver@x.tn", "password", model.RoleDriver, model.GenderMale)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fb.SeedUser("passenger@x.tn", "password", model.RolePassenger, model.GenderFemale); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{JWTSecret: "gateway-secret", SessionTTL: time.Hour}
	sessions := service.NewSessionManager(service.Deps{
		Backends: service.NewHTTPBackends(fakebackend.URLs(backend.URL), func(base string) *repository.Client {
			return repository.NewClient(base, 5*time.Second, nil)
		}),
		Moderation: &moderation.Static{Verdict: moderation.Safe},
	})

	e := echo.New()
	e.Validator = &handler.Validator{V: validator.New()}
	Register(e, Deps{Cfg: cfg, Sessions: sessions, Log: logger.NewNop()})
	return &gateway{e: e, fb: fb, driverID: driverID}
}

func (g *gateway) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	g.e.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func (g *gateway) login(t *testing.T, email string) string {
	t.Helper()
	rec, body := g.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"`+email+`","password":"password"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, rec.Code, rec.Body.String())
	}
	access, _ := body["access"].(map[string]any)
	tok, _ := access["token"].(string)
	if tok == "" {
		t.Fatalf("no token in %s", rec.Body.String())
	}
	return tok
}

func TestHealthz(t *testing.T) {
	g := newGateway(t)
	rec, _ := g.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthGuards(t *testing.T) {
	g := newGateway(t)

	rec, body := g.do(t, http.MethodGet, "/v1/me", "", "")
	if rec.Code != http.StatusUnauthorized || body["error"] != "unauthorized" {
		t.Fatalf("no token: %d %v", rec.Code, body)
	}
	rec, _ = g.do(t, http.MethodGet, "/v1/me", "garbage", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", rec.Code)
	}

	tok := g.login(t, "passenger@x.tn")
	rec, body = g.do(t, http.MethodGet, "/v1/me", tok, "")
	if rec.Code != http.StatusOK || body["role"] != "PASSENGER" {
		t.Fatalf("me: %d %v", rec.Code, body)
	}

	rec, body = g.do(t, http.MethodGet, "/v1/driver/rides", tok, "")
	if rec.Code != http.StatusForbidden || body["error"] != "forbidden" {
		t.Fatalf("wrong role: %d %v", rec.Code, body)
	}
	rec, _ = g.do(t, http.MethodGet, "/v1/admin/users", tok, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin as passenger: %d", rec.Code)
	}

	rec, _ = g.do(t, http.MethodPost, "/v1/auth/logout", tok, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", rec.Code)
	}
	rec, _ = g.do(t, http.MethodGet, "/v1/me", tok, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("token reused after logout: %d", rec.Code)
	}
}

func TestLoginFailure(t *testing.T) {
	g := newGateway(t)
	rec, body := g.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"passenger@x.tn","password":"wrong"}`)
	if rec.Code != http.StatusBadRequest || body["error"] != "Invalid email or password" {
		t.Fatalf("%d %v", rec.Code, body)
	}
	rec, _ = g.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"not-an-email","password":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid email: %d", rec.Code)
	}
}

func TestBookOverHTTP(t *testing.T) {
	g := newGateway(t)
	rideID := g.fb.SeedRide(g.driverID, "Tunis", "Sousse", time.Now().AddDate(0, 0, 2), 2, 10)
	tok := g.login(t, "passenger@x.tn")

	rec, body := g.do(t, http.MethodPost, "/v1/passenger/rides/"+rideID+"/book", tok, `{"seats":1}`)
	if rec.Code != http.StatusCreated || body["status"] != "PENDING" {
		t.Fatalf("book: %d %s", rec.Code, rec.Body.String())
	}

	g.fb.Fail("PUT /api/rides/:id", http.StatusInternalServerError)
	rec, body = g.do(t, http.MethodPost, "/v1/passenger/rides/"+rideID+"/book", tok, `{"seats":1}`)
	if rec.Code != http.StatusBadGateway || body["error"] != service.MsgSeatSyncFailed || body["booking"] == nil {
		t.Fatalf("seat sync failure: %d %s", rec.Code, rec.Body.String())
	}
	g.fb.Heal("PUT /api/rides/:id")

	rec, _ = g.do(t, http.MethodPost, "/v1/passenger/rides/"+rideID+"/book", tok, `{"seats":5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("too many seats: %d %s", rec.Code, rec.Body.String())
	}
}

func TestReportRejectedByModeration(t *testing.T) {
	g := newGateway(t)
	tok := g.login(t, "passenger@x.tn")
	rec, _ := g.do(t, http.MethodPost, "/v1/reports", tok,
		`{"reportedUserId":"`+g.driverID+`","reason":"OTHER","description":"short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short description: %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = g.do(t, http.MethodPost, "/v1/reports", tok,
		`{"reportedUserId":"`+g.driverID+`","reason":"OTHER","description":"Was very late and rude"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("report: %d %s", rec.Code, rec.Body.String())
	}
}
