package store

import (
	"testing"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

func gender(g model.Gender) *model.Gender { return &g }

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func sampleRides() []model.Ride {
	male := &model.User{ID: "d1", Gender: gender(model.GenderMale)}
	female := &model.User{ID: "d2", Gender: gender(model.GenderFemale)}
	return []model.Ride{
		{ID: "r1", DriverID: "d1", Driver: male, DepartureCity: "Tunis", DestinationCity: "Sousse",
			DepartureDate: day(2030, 5, 1), AvailableSeats: 3, TotalSeats: 3, Status: model.RideScheduled},
		{ID: "r2", DriverID: "d2", Driver: female, DepartureCity: "Tunis", DestinationCity: "Sfax",
			DepartureDate: day(2030, 5, 2), AvailableSeats: 2, TotalSeats: 4, Status: model.RideScheduled},
		{ID: "r3", DriverID: "d2", Driver: female, DepartureCity: "Bizerte", DestinationCity: "Sousse",
			DepartureDate: day(2030, 5, 1), AvailableSeats: 0, TotalSeats: 4, Status: model.RideScheduled},
		{ID: "r4", DriverID: "d1", Driver: male, DepartureCity: "Tunis", DestinationCity: "Sousse",
			DepartureDate: day(2030, 5, 1), AvailableSeats: 2, TotalSeats: 2, Status: model.RideCancelled},
	}
}

func ids(rides []model.Ride) []string {
	out := make([]string, 0, len(rides))
	for _, r := range rides {
		out = append(out, r.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterRides(t *testing.T) {
	date := day(2030, 5, 1)
	cases := []struct {
		name string
		f    model.RideFilters
		want []string
	}{
		{"no filters keeps bookable rides", model.RideFilters{}, []string{"r1", "r2"}},
		{"departure substring is case-insensitive", model.RideFilters{DepartureCity: "tun"}, []string{"r1", "r2"}},
		{"destination", model.RideFilters{DestinationCity: "SFAX"}, []string{"r2"}},
		{"date", model.RideFilters{Date: &date}, []string{"r1"}},
		{"gender ignored for male passenger",
			model.RideFilters{Gender: gender(model.GenderFemale), PassengerGender: gender(model.GenderMale)},
			[]string{"r1", "r2"}},
		{"gender applies for female passenger",
			model.RideFilters{Gender: gender(model.GenderFemale), PassengerGender: gender(model.GenderFemale)},
			[]string{"r2"}},
		{"female passenger without gender filter sees all",
			model.RideFilters{PassengerGender: gender(model.GenderFemale)},
			[]string{"r1", "r2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(FilterRides(sampleRides(), tc.f))
			if !equalIDs(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterRidesDateAcrossLocations(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	f := time.Date(2030, 5, 1, 0, 0, 0, 0, loc)
	got := ids(FilterRides(sampleRides(), model.RideFilters{Date: &f}))
	if !equalIDs(got, []string{"r1"}) {
		t.Fatalf("got %v, want [r1]", got)
	}
}

func TestRidesStoreRemoveClearsSelection(t *testing.T) {
	s := NewRidesStore()
	s.SetRides(sampleRides())
	r, _ := s.Ride("r1")
	s.SetSelectedRide(&r)

	s.RemoveRide("r1")

	if s.SelectedRide() != nil {
		t.Fatal("selection should be cleared with the removed ride")
	}
	if _, ok := s.Ride("r1"); ok {
		t.Fatal("ride still present")
	}
}

func TestRidesStoreUpdateRefreshesSelection(t *testing.T) {
	s := NewRidesStore()
	s.SetRides(sampleRides())
	r, _ := s.Ride("r2")
	s.SetSelectedRide(&r)

	s.UpdateRide("r2", model.SeatsPatch(1))

	if got := s.SelectedRide().AvailableSeats; got != 1 {
		t.Fatalf("selected seats = %d, want 1", got)
	}
	s.UpdateRide("missing", model.SeatsPatch(9))
	if len(s.Rides()) != 4 {
		t.Fatalf("unknown id changed the list: %d rides", len(s.Rides()))
	}
}

func TestRidesStoreSetFiltersMerges(t *testing.T) {
	s := NewRidesStore()
	dep := "Tunis"
	date := day(2030, 5, 1)
	s.SetFilters(FiltersPatch{DepartureCity: &dep, Date: &model.DateFilter{Value: &date}})
	dst := "Sousse"
	s.SetFilters(FiltersPatch{DestinationCity: &dst})

	f := s.Filters()
	if f.DepartureCity != "Tunis" || f.DestinationCity != "Sousse" || f.Date == nil {
		t.Fatalf("filters not merged: %+v", f)
	}

	s.SetFilters(FiltersPatch{Date: &model.DateFilter{}})
	if s.Filters().Date != nil {
		t.Fatal("an empty DateFilter should clear the date")
	}

	s.ClearFilters()
	if s.Filters() != (model.RideFilters{}) {
		t.Fatalf("filters not cleared: %+v", s.Filters())
	}
}

func TestRidesStoreNotifiesSubscribers(t *testing.T) {
	s := NewRidesStore()
	calls := 0
	unsub := s.Subscribe(func(RidesState) { calls++ })
	s.AddRide(sampleRides()[0])
	s.PutRide(sampleRides()[0])
	unsub()
	s.ClearRides()
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
