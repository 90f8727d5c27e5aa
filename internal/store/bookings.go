package store

import "github.com/iliyamo/carpool-gateway/internal/model"

type BookingsState struct {
	Bookings []model.Booking
	Selected *model.Booking
}

type BookingsStore struct {
	cell *Cell[BookingsState]
}

func NewBookingsStore() *BookingsStore {
	return &BookingsStore{cell: NewCell(BookingsState{})}
}

func (s *BookingsStore) Subscribe(fn func(BookingsState)) func() { return s.cell.Subscribe(fn) }

func (s *BookingsStore) Bookings() []model.Booking { return s.cell.Get().Bookings }

func (s *BookingsStore) SelectedBooking() *model.Booking { return s.cell.Get().Selected }

func (s *BookingsStore) Booking(id string) (model.Booking, bool) {
	for _, b := range s.cell.Get().Bookings {
		if b.ID == id {
			return b, true
		}
	}
	return model.Booking{}, false
}

func (s *BookingsStore) filter(pred func(model.Booking) bool) []model.Booking {
	var out []model.Booking
	for _, b := range s.cell.Get().Bookings {
		if pred(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s *BookingsStore) ByPassenger(passengerID string) []model.Booking {
	return s.filter(func(b model.Booking) bool { return b.PassengerID == passengerID })
}

// ByDriver goes through each booking's ride snapshot; bookings without one
// never match.
func (s *BookingsStore) ByDriver(driverID string) []model.Booking {
	return s.filter(func(b model.Booking) bool { return b.DriverID() == driverID })
}

func (s *BookingsStore) PendingForDriver(driverID string) []model.Booking {
	return s.filter(func(b model.Booking) bool {
		return b.DriverID() == driverID && b.Status == model.BookingPending
	})
}

func (s *BookingsStore) ByStatus(st model.BookingStatus) []model.Booking {
	return s.filter(func(b model.Booking) bool { return b.Status == st })
}

func (s *BookingsStore) TotalCount() int    { return len(s.cell.Get().Bookings) }
func (s *BookingsStore) PendingCount() int  { return len(s.ByStatus(model.BookingPending)) }
func (s *BookingsStore) AcceptedCount() int { return len(s.ByStatus(model.BookingAccepted)) }

func (s *BookingsStore) SetBookings(list []model.Booking) {
	cp := make([]model.Booking, len(list))
	copy(cp, list)
	s.cell.Update(func(st BookingsState) BookingsState {
		st.Bookings = cp
		return st
	})
}

func (s *BookingsStore) AddBooking(b model.Booking) {
	s.cell.Update(func(st BookingsState) BookingsState {
		st.Bookings = appended(st.Bookings, b)
		return st
	})
}

// UpdateBooking shallow-merges patch into the booking with id. Every other
// booking is left untouched.
func (s *BookingsStore) UpdateBooking(id string, patch model.BookingPatch) {
	s.cell.Update(func(st BookingsState) BookingsState {
		list, ok := replaceFirst(st.Bookings, func(b model.Booking) bool { return b.ID == id }, patch.Apply)
		if !ok {
			return st
		}
		st.Bookings = list
		if st.Selected != nil && st.Selected.ID == id {
			sel := patch.Apply(*st.Selected)
			st.Selected = &sel
		}
		return st
	})
}

func (s *BookingsStore) UpdateBookingStatus(id string, status model.BookingStatus) {
	s.UpdateBooking(id, model.StatusPatch(status))
}

func (s *BookingsStore) AcceptBooking(id string) { s.UpdateBookingStatus(id, model.BookingAccepted) }
func (s *BookingsStore) RejectBooking(id string) { s.UpdateBookingStatus(id, model.BookingRejected) }
func (s *BookingsStore) CancelBooking(id string) { s.UpdateBookingStatus(id, model.BookingCancelled) }

func (s *BookingsStore) RemoveBooking(id string) {
	s.cell.Update(func(st BookingsState) BookingsState {
		st.Bookings = without(st.Bookings, func(b model.Booking) bool { return b.ID == id })
		if st.Selected != nil && st.Selected.ID == id {
			st.Selected = nil
		}
		return st
	})
}

func (s *BookingsStore) SetSelectedBooking(b *model.Booking) {
	var sel *model.Booking
	if b != nil {
		cp := *b
		sel = &cp
	}
	s.cell.Update(func(st BookingsState) BookingsState {
		st.Selected = sel
		return st
	})
}

// ClearBookings resets the list and the selection.
func (s *BookingsStore) ClearBookings() {
	s.cell.Set(BookingsState{})
}
