package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/repository"
	"github.com/iliyamo/carpool-gateway/internal/service"
)

// recorder keeps the messages logged at error level.
type recorder struct {
	mu     sync.Mutex
	errors []string
}

func (r *recorder) Debug(string, ...logger.Field)   {}
func (r *recorder) Info(string, ...logger.Field)    {}
func (r *recorder) Warning(string, ...logger.Field) {}
func (r *recorder) Error(msg string, _ ...logger.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}
func (r *recorder) Named(string) logger.ILogger { return r }

func TestFailStatusAndLogging(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		logged bool
	}{
		{"not authenticated", service.ErrNotAuthenticated, http.StatusUnauthorized, false},
		{"invalid", &service.UserError{Message: "bad", Cause: service.ErrInvalid}, http.StatusBadRequest, false},
		{"backend conflict", &repository.APIError{Status: http.StatusConflict}, http.StatusConflict, false},
		{"backend rejects input", &repository.APIError{Status: http.StatusUnprocessableEntity}, http.StatusBadRequest, false},
		{"moderation down", service.ErrModerationUnavailable, http.StatusServiceUnavailable, true},
		{"backend down", &repository.APIError{Status: http.StatusInternalServerError}, http.StatusBadGateway, true},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, true},
	}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			b := newBase(rec, "test")
			w := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/x", nil), w)

			if err := b.fail(c, tc.err); err != nil {
				t.Fatal(err)
			}
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
			if got := len(rec.errors) == 1; got != tc.logged {
				t.Fatalf("logged = %v, want %v", rec.errors, tc.logged)
			}
		})
	}
}
