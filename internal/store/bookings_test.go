package store

import (
	"testing"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

func sampleBookings() []model.Booking {
	ride := &model.Ride{ID: "r1", DriverID: "d1"}
	return []model.Booking{
		{ID: "b1", RideID: "r1", PassengerID: "p1", SeatsRequested: 2, Status: model.BookingPending, Ride: ride},
		{ID: "b2", RideID: "r1", PassengerID: "p2", SeatsRequested: 1, Status: model.BookingAccepted, Ride: ride},
		{ID: "b3", RideID: "r9", PassengerID: "p1", SeatsRequested: 1, Status: model.BookingPending},
	}
}

func TestBookingsStoreAcceptMatchesStatusUpdate(t *testing.T) {
	a := NewBookingsStore()
	a.SetBookings(sampleBookings())
	a.AcceptBooking("b1")

	b := NewBookingsStore()
	b.SetBookings(sampleBookings())
	b.UpdateBookingStatus("b1", model.BookingAccepted)

	for i := range a.Bookings() {
		if a.Bookings()[i].Status != b.Bookings()[i].Status {
			t.Fatalf("booking %d: %s vs %s", i, a.Bookings()[i].Status, b.Bookings()[i].Status)
		}
	}
	if got, _ := a.Booking("b1"); got.Status != model.BookingAccepted {
		t.Fatalf("b1 status = %s", got.Status)
	}
	if got, _ := a.Booking("b3"); got.Status != model.BookingPending {
		t.Fatalf("unrelated booking changed: %s", got.Status)
	}
}

func TestBookingsStoreDerivedViews(t *testing.T) {
	s := NewBookingsStore()
	s.SetBookings(sampleBookings())

	if n := len(s.ByPassenger("p1")); n != 2 {
		t.Fatalf("ByPassenger = %d, want 2", n)
	}
	if n := len(s.ByDriver("d1")); n != 2 {
		t.Fatalf("ByDriver = %d, want 2 (b3 has no ride snapshot)", n)
	}
	if n := len(s.PendingForDriver("d1")); n != 1 {
		t.Fatalf("PendingForDriver = %d, want 1", n)
	}
	if s.TotalCount() != 3 || s.PendingCount() != 2 || s.AcceptedCount() != 1 {
		t.Fatalf("counts = %d/%d/%d", s.TotalCount(), s.PendingCount(), s.AcceptedCount())
	}
}

func TestBookingsStoreSelection(t *testing.T) {
	s := NewBookingsStore()
	s.SetBookings(sampleBookings())
	b, _ := s.Booking("b1")
	s.SetSelectedBooking(&b)

	s.RejectBooking("b1")
	if s.SelectedBooking().Status != model.BookingRejected {
		t.Fatal("selection should follow the update")
	}

	s.RemoveBooking("b1")
	if s.SelectedBooking() != nil {
		t.Fatal("selection should be cleared with the removed booking")
	}
	if s.TotalCount() != 2 {
		t.Fatalf("TotalCount = %d", s.TotalCount())
	}

	s.ClearBookings()
	if s.TotalCount() != 0 {
		t.Fatal("ClearBookings left bookings")
	}
}
