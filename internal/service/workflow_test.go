package service

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/carpool-gateway/internal/fakebackend"
	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/moderation"
	"github.com/iliyamo/carpool-gateway/internal/repository"
	"github.com/iliyamo/carpool-gateway/internal/utils"
)

const pw = "password"

type harness struct {
	fb  *fakebackend.Server
	mgr *SessionManager
	mod *moderation.Static

	driverID, passengerID, adminID string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	utils.PasswordCost = bcrypt.MinCost

	fb := fakebackend.New("backend-secret", logger.NewNop())
	srv := httptest.NewServer(fb.Echo())
	t.Cleanup(srv.Close)

	be := NewHTTPBackends(fakebackend.URLs(srv.URL), func(base string) *repository.Client {
		return repository.NewClient(base, 5*time.Second, nil)
	})
	mod := &moderation.Static{Verdict: moderation.Safe}
	direct := &DirectNotifier{Notifications: be.Notifications, Log: logger.NewNop()}
	mgr := NewSessionManager(Deps{Backends: be, Moderation: mod, Notifier: direct})
	direct.Sink = mgr

	h := &harness{fb: fb, mgr: mgr, mod: mod}
	var err error
	if h.driverID, err = fb.SeedUser("driver@x.tn", pw, model.RoleDriver, model.GenderMale); err != nil {
		t.Fatal(err)
	}
	if h.passengerID, err = fb.SeedUser("passenger@x.tn", pw, model.RolePassenger, model.GenderFemale); err != nil {
		t.Fatal(err)
	}
	if h.adminID, err = fb.SeedUser("admin@x.tn", pw, model.RoleAdmin, model.GenderMale); err != nil {
		t.Fatal(err)
	}
	return h
}

func (h *harness) login(t *testing.T, email string) *Session {
	t.Helper()
	s := h.mgr.New(context.Background())
	if _, err := s.Login(context.Background(), LoginRequest{Email: email, Password: pw}); err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return s
}

func (h *harness) ride(seats int) string {
	return h.fb.SeedRide(h.driverID, "Tunis", "Sousse", time.Now().AddDate(0, 0, 3), seats, 12)
}

func TestLoginRoles(t *testing.T) {
	h := newHarness(t)

	admin := h.login(t, "ADMIN@x.tn ")
	if !admin.Auth.IsAdmin() || admin.Auth.Token() == "" {
		t.Fatalf("admin state = %+v", admin.Auth.State())
	}
	if p := admin.User.Profile(); p == nil || p.ID != h.adminID {
		t.Fatal("profile store not filled at login")
	}

	s := h.mgr.New(context.Background())
	_, err := s.Login(context.Background(), LoginRequest{Email: "driver@x.tn", Password: "nope"})
	if err == nil || !IsUserError(err) || s.Auth.IsAuthenticated() {
		t.Fatalf("bad password: err=%v authenticated=%v", err, s.Auth.IsAuthenticated())
	}
	if err.Error() != "Invalid email or password" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestRegisterDriverNeedsLicence(t *testing.T) {
	h := newHarness(t)
	s := h.mgr.New(context.Background())
	req := repository.RegisterRequest{
		Email: "new@x.tn", Password: "secret1", Confirm: "secret1", Phone: "22111222", Role: model.RoleDriver,
	}
	if _, err := s.Register(context.Background(), req); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v", err)
	}

	req.CIN = "LIC-1"
	u, err := s.Register(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Auth.IsDriver() || u.CIN != "LIC-1" {
		t.Fatalf("registered %+v", u)
	}
}

func TestBookAndRejectRestoresSeats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rideID := h.ride(2)

	driver := h.login(t, "driver@x.tn")
	passenger := h.login(t, "passenger@x.tn")

	b, err := passenger.BookRide(ctx, rideID, BookRideRequest{Seats: 2})
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != model.BookingPending || b.SeatsRequested != 2 {
		t.Fatalf("booking = %+v", b)
	}
	if got := h.fb.RideSeats(rideID); got != 0 {
		t.Fatalf("seats after booking = %d, want 0", got)
	}
	if r, ok := passenger.Rides.Ride(rideID); !ok || r.AvailableSeats != 0 {
		t.Fatal("passenger view of the ride not updated")
	}
	if h.fb.NotificationsFor(h.driverID) != 1 {
		t.Fatal("driver was not notified")
	}
	if driver.Notifications.UnreadCount() != 1 {
		t.Fatalf("live driver session unread = %d", driver.Notifications.UnreadCount())
	}

	if _, err := passenger.BookRide(ctx, rideID, BookRideRequest{Seats: 1}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("full ride: err = %v", err)
	}

	if err := driver.RejectBooking(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if got := h.fb.RideSeats(rideID); got != 2 {
		t.Fatalf("seats after reject = %d, want 2", got)
	}
	if h.fb.NotificationsFor(h.passengerID) != 1 {
		t.Fatal("passenger was not notified")
	}
	if err := driver.RejectBooking(ctx, b.ID); err == nil {
		t.Fatal("second reject of the same booking succeeded")
	}
}

func TestAcceptKeepsSeats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rideID := h.ride(3)
	passenger := h.login(t, "passenger@x.tn")
	driver := h.login(t, "driver@x.tn")

	b, err := passenger.BookRide(ctx, rideID, BookRideRequest{Seats: 1})
	if err != nil {
		t.Fatal(err)
	}
	pending, err := driver.DriverBookings(ctx)
	if err != nil || len(pending) != 1 || pending[0].Passenger == nil {
		t.Fatalf("pending = %+v, err = %v", pending, err)
	}
	if err := driver.AcceptBooking(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if got := h.fb.RideSeats(rideID); got != 2 {
		t.Fatalf("seats = %d, want 2", got)
	}
	if driver.Bookings.TotalCount() != 0 {
		t.Fatal("accepted booking still listed as pending")
	}
}

func TestBookSeatSyncFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rideID := h.ride(2)
	passenger := h.login(t, "passenger@x.tn")

	h.fb.Fail("PUT /api/rides/:id", 500)
	b, err := passenger.BookRide(ctx, rideID, BookRideRequest{Seats: 1})
	if !errors.Is(err, ErrSeatSyncFailed) || err.Error() != MsgSeatSyncFailed {
		t.Fatalf("err = %v", err)
	}
	if b.ID == "" {
		t.Fatal("booking must be returned with the error")
	}
	if _, ok := passenger.Bookings.Booking(b.ID); !ok {
		t.Fatal("booking not kept in the store")
	}
	if got := passenger.PendingReconcile(); len(got) != 1 || got[0] != rideID {
		t.Fatalf("pending reconcile = %v", got)
	}

	h.fb.Heal("PUT /api/rides/:id")
	if err := passenger.Reconcile(ctx); err != nil {
		t.Fatal(err)
	}
	if len(passenger.PendingReconcile()) != 0 {
		t.Fatal("reconcile left rides pending")
	}
	if r, ok := passenger.Rides.Ride(rideID); !ok || r.AvailableSeats != 2 {
		t.Fatalf("reconciled ride = %+v", r)
	}
}

func TestCancelRestoresSeats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rideID := h.ride(3)
	passenger := h.login(t, "passenger@x.tn")

	b, err := passenger.BookRide(ctx, rideID, BookRideRequest{Seats: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := passenger.CancelBooking(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if got := h.fb.RideSeats(rideID); got != 3 {
		t.Fatalf("seats = %d, want 3", got)
	}
	got, _ := passenger.Bookings.Booking(b.ID)
	if got.Status != model.BookingCancelled {
		t.Fatalf("status = %s", got.Status)
	}
	if err := passenger.CancelBooking(ctx, b.ID); !errors.Is(err, ErrInvalid) {
		t.Fatalf("second cancel: err = %v", err)
	}
}

func TestReportModeration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	passenger := h.login(t, "passenger@x.tn")
	req := ReportRequest{
		ReportedUserID: h.driverID,
		Reason:         model.ReasonUnsafeDriving,
		Description:    "Drove far too fast on the highway",
	}

	h.mod.Verdict = moderation.Unsafe
	_, err := passenger.SubmitReport(ctx, req)
	if !errors.Is(err, ErrContentRejected) || err.Error() != MsgContentRejected {
		t.Fatalf("unsafe: err = %v", err)
	}

	h.mod.Verdict = moderation.Unavailable
	_, err = passenger.SubmitReport(ctx, req)
	if !errors.Is(err, ErrModerationUnavailable) || err.Error() != MsgModerationUnavailable {
		t.Fatalf("unavailable: err = %v", err)
	}
	if n := h.fb.Calls("POST /api/reports/create"); n != 0 {
		t.Fatalf("report service called %d times before a safe verdict", n)
	}

	h.mod.Verdict = moderation.Safe
	rep, err := passenger.SubmitReport(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != model.ReportPending {
		t.Fatalf("status = %s", rep.Status)
	}
	if n := h.fb.Calls("POST /api/reports/create"); n != 1 {
		t.Fatalf("report service calls = %d", n)
	}

	req.ReportedUserID = h.passengerID
	if _, err := passenger.SubmitReport(ctx, req); !errors.Is(err, ErrInvalid) {
		t.Fatalf("self report: err = %v", err)
	}
}

func TestRoleGuards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	anon := h.mgr.New(ctx)
	if _, err := anon.PassengerBookings(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("anonymous: err = %v", err)
	}
	passenger := h.login(t, "passenger@x.tn")
	if err := passenger.AcceptBooking(ctx, "1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("passenger accept: err = %v", err)
	}
	if _, err := passenger.ListUsers(ctx); !errors.Is(err, ErrForbidden) {
		t.Fatalf("passenger admin call: err = %v", err)
	}
}

func TestSessionSurvivesEviction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.login(t, "driver@x.tn")
	sid := s.ID

	h.mgr.Close(sid)
	if _, ok := h.mgr.Get(sid); ok {
		t.Fatal("session still live after Close")
	}
	back := h.mgr.Open(ctx, sid)
	if !back.Auth.IsDriver() || back.Auth.Token() == "" {
		t.Fatal("session not rehydrated from storage")
	}

	back.Logout()
	if _, ok := h.mgr.Get(sid); ok {
		t.Fatal("logout should drop the session")
	}
	if h.mgr.Open(ctx, sid).Auth.IsAuthenticated() {
		t.Fatal("logged-out session came back authenticated")
	}
}

func TestRejectStandsWhenSeatRestoreFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rideID := h.ride(2)
	passenger := h.login(t, "passenger@x.tn")
	driver := h.login(t, "driver@x.tn")

	b, err := passenger.BookRide(ctx, rideID, BookRideRequest{Seats: 2})
	if err != nil {
		t.Fatal(err)
	}

	h.fb.Fail("PUT /api/rides/:id", 500)
	if err := driver.RejectBooking(ctx, b.ID); err != nil {
		t.Fatalf("reject must stand when the seat restore fails: %v", err)
	}
	if got := h.fb.RideSeats(rideID); got != 0 {
		t.Fatalf("seats = %d, want 0 until reconciled", got)
	}
	if got := driver.PendingReconcile(); len(got) != 1 || got[0] != rideID {
		t.Fatalf("pending reconcile = %v", got)
	}
	if driver.Bookings.PendingCount() != 0 {
		t.Fatal("rejected booking still pending")
	}
	if h.fb.NotificationsFor(h.passengerID) != 1 {
		t.Fatal("passenger was not notified")
	}
}

func TestRejectStandsWhenRideRefetchFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rideID := h.ride(3)
	passenger := h.login(t, "passenger@x.tn")
	driver := h.login(t, "driver@x.tn")

	b, err := passenger.BookRide(ctx, rideID, BookRideRequest{Seats: 1})
	if err != nil {
		t.Fatal(err)
	}

	h.fb.Fail("GET /api/rides/:id", 500)
	if err := driver.RejectBooking(ctx, b.ID); err != nil {
		t.Fatalf("reject must stand when the ride cannot be re-fetched: %v", err)
	}
	if n := h.fb.Calls("PUT /api/rides/:id"); n != 1 {
		t.Fatalf("ride updates = %d, want only the one from booking", n)
	}
	if got := driver.PendingReconcile(); len(got) != 1 || got[0] != rideID {
		t.Fatalf("pending reconcile = %v", got)
	}
}

func TestCancelStandsWhenSeatRestoreFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rideID := h.ride(3)
	passenger := h.login(t, "passenger@x.tn")

	b, err := passenger.BookRide(ctx, rideID, BookRideRequest{Seats: 1})
	if err != nil {
		t.Fatal(err)
	}

	h.fb.Fail("PUT /api/rides/:id", 500)
	if err := passenger.CancelBooking(ctx, b.ID); err != nil {
		t.Fatalf("cancel must stand when the seat restore fails: %v", err)
	}
	if got := h.fb.RideSeats(rideID); got != 2 {
		t.Fatalf("seats = %d, want 2 until reconciled", got)
	}
	got, ok := passenger.Bookings.Booking(b.ID)
	if !ok || got.Status != model.BookingCancelled {
		t.Fatalf("bookings not reloaded: %+v", got)
	}
	if p := passenger.PendingReconcile(); len(p) != 1 || p[0] != rideID {
		t.Fatalf("pending reconcile = %v", p)
	}
}

func TestBookRideUsesCurrentSeats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rideID := h.ride(3)
	passenger := h.login(t, "passenger@x.tn")

	form, err := passenger.LoadRideForBooking(ctx, rideID)
	if err != nil || form.MaxSeats != 3 {
		t.Fatalf("form = %+v, err = %v", form, err)
	}
	if _, err := passenger.BookRide(ctx, rideID, BookRideRequest{Seats: 2}); err != nil {
		t.Fatal(err)
	}

	// A stale search result still shows three free seats.
	stale := form.Ride
	passenger.Rides.SetRides([]model.Ride{stale})

	if _, err := passenger.BookRide(ctx, rideID, BookRideRequest{Seats: 2}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("overbooking on a stale snapshot: err = %v", err)
	}
	if got := h.fb.RideSeats(rideID); got != 1 {
		t.Fatalf("seats = %d, want 1", got)
	}
	if r, ok := passenger.Rides.Ride(rideID); !ok || r.AvailableSeats != 1 {
		t.Fatalf("store not refreshed: %+v", r)
	}
}

func TestReviewValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	passenger := h.login(t, "passenger@x.tn")

	cases := []struct {
		name string
		req  ReviewRequest
	}{
		{"rating too low", ReviewRequest{ReviewedID: h.driverID, Rating: 0, Comment: "fine"}},
		{"rating too high", ReviewRequest{ReviewedID: h.driverID, Rating: 6, Comment: "fine"}},
		{"blank comment", ReviewRequest{ReviewedID: h.driverID, Rating: 4, Comment: "   "}},
		{"no reviewed user", ReviewRequest{Rating: 4, Comment: "fine"}},
		{"self review", ReviewRequest{ReviewedID: h.passengerID, Rating: 4, Comment: "fine"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := passenger.SubmitReview(ctx, tc.req); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v", err)
			}
		})
	}
	if n := h.fb.Calls("POST /api/reviews/create"); n != 0 {
		t.Fatalf("review service called %d times for invalid input", n)
	}

	rev, err := passenger.SubmitReview(ctx, ReviewRequest{
		ReviewedID: h.driverID, Rating: 5, Comment: "Smooth ride", Type: model.ReviewOfDriver,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rev.Rating != 5 || h.fb.Calls("POST /api/reviews/create") != 1 {
		t.Fatalf("review = %+v", rev)
	}
}

func TestUpdateReportStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	passenger := h.login(t, "passenger@x.tn")
	admin := h.login(t, "admin@x.tn")

	rep, err := passenger.SubmitReport(ctx, ReportRequest{
		ReportedUserID: h.driverID,
		Reason:         model.ReasonNoShow,
		Description:    "Never showed up at the meeting point",
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := admin.UpdateReportStatus(ctx, rep.ID, model.ReportResolved)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.ReportResolved {
		t.Fatalf("status = %s", got.Status)
	}

	for _, to := range []model.ReportStatus{model.ReportDismissed, model.ReportPending} {
		if _, err := admin.UpdateReportStatus(ctx, rep.ID, to); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("RESOLVED -> %s: err = %v", to, err)
		}
	}
	if n := h.fb.Calls("PUT /api/reports/:id/status"); n != 1 {
		t.Fatalf("report status updates = %d, want 1", n)
	}
	if _, err := admin.UpdateReportStatus(ctx, "9999", model.ReportResolved); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown report: err = %v", err)
	}
	if _, err := passenger.UpdateReportStatus(ctx, rep.ID, model.ReportDismissed); !errors.Is(err, ErrForbidden) {
		t.Fatalf("passenger: err = %v", err)
	}
}
