package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientForwardsTokenAndMapsErrors(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/9":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Ride not found"}`))
		case "/5":
			_, _ = w.Write([]byte(`{"id":5,"driverId":"7","departureCity":{"name":"Tunis"},
				"destinationCity":{"name":"Sfax"},"departureDate":"2030-01-02","availableSeats":3,
				"totalSeats":4,"status":"SCHEDULED"}`))
		case "/create":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"duplicate"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`oops`))
		}
	}))
	defer srv.Close()

	repo := NewRideRepo(NewClient(srv.URL+"/", time.Second, nil))
	ctx := WithToken(context.Background(), "tok")

	ride, err := repo.Get(ctx, "5")
	if err != nil || ride == nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if ride.ID != "5" || ride.DriverID != "7" || ride.DepartureCity != "Tunis" || ride.DepartureTime == "" {
		t.Fatalf("ride = %+v", ride)
	}
	if ride.DepartureDate.Format("2006-01-02") != "2030-01-02" {
		t.Fatalf("date = %v", ride.DepartureDate)
	}

	missing, err := repo.Get(ctx, "9")
	if err != nil || missing != nil {
		t.Fatalf("missing ride: %v, %v", missing, err)
	}

	_, err = repo.Create(ctx, CreateRideRequest{DriverID: "7"})
	if !errors.Is(err, ErrConflict) || MessageOf(err, "x") != "duplicate" {
		t.Fatalf("create: %v", err)
	}

	_, err = repo.ListByDriver(context.Background(), "7")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 500 || apiErr.Message != "Failed to fetch driver rides" {
		t.Fatalf("list: %v", err)
	}
	if gotAuth != "" {
		t.Fatal("anonymous call carried a token")
	}
}

func TestTransportFailureHasNoStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRideRepo(NewClient(url, time.Second, nil)).List(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 0 || apiErr.Message != "Failed to fetch rides" {
		t.Fatalf("err = %v", err)
	}
}

func TestFlexID(t *testing.T) {
	var v struct {
		A flexID `json:"a"`
		B flexID `json:"b"`
		C flexID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":12,"b":"x-1","c":null}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A != "12" || v.B != "x-1" || v.C != "" {
		t.Fatalf("got %+v", v)
	}
	if numericOrString("42") != int64(42) || numericOrString("abc") != "abc" || numericOrString("") != nil {
		t.Fatal("numericOrString")
	}
}
