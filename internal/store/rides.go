package store

import (
	"strings"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

type RidesState struct {
	Rides    []model.Ride
	Selected *model.Ride
	Filters  model.RideFilters
}

// FiltersPatch merges into the active filters. A nil field keeps the
// current value; a DateFilter or GenderFilter with a nil Value clears it.
type FiltersPatch struct {
	DepartureCity   *string
	DestinationCity *string
	Date            *model.DateFilter
	Gender          *model.GenderFilter
	PassengerGender *model.GenderFilter
}

// RidesStore holds every ride the session has seen, a selected ride and
// the passenger's filters.
type RidesStore struct {
	cell *Cell[RidesState]
}

func NewRidesStore() *RidesStore {
	return &RidesStore{cell: NewCell(RidesState{})}
}

func (s *RidesStore) Subscribe(fn func(RidesState)) func() { return s.cell.Subscribe(fn) }

func (s *RidesStore) Rides() []model.Ride { return s.cell.Get().Rides }

func (s *RidesStore) SelectedRide() *model.Ride { return s.cell.Get().Selected }

func (s *RidesStore) Filters() model.RideFilters { return s.cell.Get().Filters }

// Ride looks a ride up by id in the current snapshot.
func (s *RidesStore) Ride(id string) (model.Ride, bool) {
	for _, r := range s.cell.Get().Rides {
		if r.ID == id {
			return r, true
		}
	}
	return model.Ride{}, false
}

func (s *RidesStore) FilteredRides() []model.Ride {
	st := s.cell.Get()
	return FilterRides(st.Rides, st.Filters)
}

func (s *RidesStore) AvailableRidesCount() int { return len(s.FilteredRides()) }

func (s *RidesStore) RidesByDriver(driverID string) []model.Ride {
	var out []model.Ride
	for _, r := range s.cell.Get().Rides {
		if r.DriverID == driverID {
			out = append(out, r)
		}
	}
	return out
}

// FilterRides keeps the bookable rides matching f: case-insensitive
// substring on both cities, same calendar day, and driver gender when the
// passenger is FEMALE and a gender filter is set.
func FilterRides(rides []model.Ride, f model.RideFilters) []model.Ride {
	dep := strings.ToLower(f.DepartureCity)
	dst := strings.ToLower(f.DestinationCity)
	out := make([]model.Ride, 0, len(rides))
	for _, r := range rides {
		if dep != "" && !strings.Contains(strings.ToLower(r.DepartureCity), dep) {
			continue
		}
		if dst != "" && !strings.Contains(strings.ToLower(r.DestinationCity), dst) {
			continue
		}
		if f.Date != nil && !model.SameDay(*f.Date, r.DepartureDate) {
			continue
		}
		if f.PassengerGender != nil && *f.PassengerGender == model.GenderFemale && f.Gender != nil {
			if r.Driver == nil || r.Driver.Gender == nil || *r.Driver.Gender != *f.Gender {
				continue
			}
		}
		if !r.Bookable() {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *RidesStore) SetRides(rides []model.Ride) {
	cp := make([]model.Ride, len(rides))
	copy(cp, rides)
	s.cell.Update(func(st RidesState) RidesState {
		st.Rides = cp
		return st
	})
}

func (s *RidesStore) AddRide(r model.Ride) {
	s.cell.Update(func(st RidesState) RidesState {
		st.Rides = appended(st.Rides, r)
		return st
	})
}

// UpdateRide shallow-merges patch into the ride with id, refreshing the
// selection when it is the same ride. Unknown ids are ignored.
func (s *RidesStore) UpdateRide(id string, patch model.RidePatch) {
	s.cell.Update(func(st RidesState) RidesState {
		list, ok := replaceFirst(st.Rides, func(r model.Ride) bool { return r.ID == id }, patch.Apply)
		if !ok {
			return st
		}
		st.Rides = list
		if st.Selected != nil && st.Selected.ID == id {
			for _, r := range list {
				if r.ID == id {
					sel := r
					st.Selected = &sel
					break
				}
			}
		}
		return st
	})
}

// PutRide replaces the ride with the same id, or appends it.
func (s *RidesStore) PutRide(r model.Ride) {
	s.cell.Update(func(st RidesState) RidesState {
		list, ok := replaceFirst(st.Rides, func(x model.Ride) bool { return x.ID == r.ID }, func(model.Ride) model.Ride { return r })
		if !ok {
			list = appended(st.Rides, r)
		}
		st.Rides = list
		if st.Selected != nil && st.Selected.ID == r.ID {
			sel := r
			st.Selected = &sel
		}
		return st
	})
}

func (s *RidesStore) RemoveRide(id string) {
	s.cell.Update(func(st RidesState) RidesState {
		st.Rides = without(st.Rides, func(r model.Ride) bool { return r.ID == id })
		if st.Selected != nil && st.Selected.ID == id {
			st.Selected = nil
		}
		return st
	})
}

func (s *RidesStore) SetSelectedRide(r *model.Ride) {
	var sel *model.Ride
	if r != nil {
		cp := *r
		sel = &cp
	}
	s.cell.Update(func(st RidesState) RidesState {
		st.Selected = sel
		return st
	})
}

func (s *RidesStore) SetFilters(p FiltersPatch) {
	s.cell.Update(func(st RidesState) RidesState {
		f := st.Filters
		if p.DepartureCity != nil {
			f.DepartureCity = *p.DepartureCity
		}
		if p.DestinationCity != nil {
			f.DestinationCity = *p.DestinationCity
		}
		if p.Date != nil {
			f.Date = p.Date.Value
		}
		if p.Gender != nil {
			f.Gender = p.Gender.Value
		}
		if p.PassengerGender != nil {
			f.PassengerGender = p.PassengerGender.Value
		}
		st.Filters = f
		return st
	})
}

func (s *RidesStore) ClearFilters() {
	s.cell.Update(func(st RidesState) RidesState {
		st.Filters = model.RideFilters{}
		return st
	})
}

// ClearRides empties the store; used on logout.
func (s *RidesStore) ClearRides() {
	s.cell.Set(RidesState{})
}
