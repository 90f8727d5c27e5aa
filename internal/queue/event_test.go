package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
)

func TestBookingEventRecipient(t *testing.T) {
	ev := BookingEvent{PassengerID: "p", DriverID: "d"}
	for kind, want := range map[EventKind]string{
		BookingCreated:   "d",
		BookingCancelled: "d",
		BookingAccepted:  "p",
		BookingRejected:  "p",
	} {
		ev.Kind = kind
		if got := ev.Recipient(); got != want {
			t.Errorf("%s: recipient = %q, want %q", kind, got, want)
		}
	}
}

func TestBookingEventMessage(t *testing.T) {
	ev := BookingEvent{Kind: BookingAccepted, ActorName: "Sami"}
	if got := ev.Message(); got != "Sami has accepted your booking!" {
		t.Fatalf("message = %q", got)
	}
	ev.ActorName = ""
	if got := ev.Message(); got != "A driver has accepted your booking!" {
		t.Fatalf("fallback message = %q", got)
	}
	if ev.NotificationType() != model.NotifBookingAccepted {
		t.Fatal("wrong notification type")
	}
}

func TestConsumerHandleMessage(t *testing.T) {
	var got BookingEvent
	c := &Consumer{Log: logger.NewNop(), Handle: func(_ context.Context, ev BookingEvent) error {
		got = ev
		return nil
	}}

	body, _ := json.Marshal(BookingEvent{Kind: BookingCreated, BookingID: "b1", DriverID: "d1", Seats: 2})
	if err := c.handleMessage(context.Background(), body); err != nil {
		t.Fatal(err)
	}
	if got.BookingID != "b1" || got.Seats != 2 {
		t.Fatalf("handled %+v", got)
	}

	if err := c.handleMessage(context.Background(), []byte("{")); err == nil {
		t.Fatal("malformed body accepted")
	}
	noRecipient, _ := json.Marshal(BookingEvent{Kind: BookingCreated, BookingID: "b2"})
	if err := c.handleMessage(context.Background(), noRecipient); err == nil {
		t.Fatal("event without recipient accepted")
	}

	boom := errors.New("boom")
	c.Handle = func(context.Context, BookingEvent) error { return boom }
	if err := c.handleMessage(context.Background(), body); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestPublisherWithoutBroker(t *testing.T) {
	p := NewPublisher("", logger.NewNop())
	if err := p.Publish(context.Background(), BookingEvent{}); !errors.Is(err, ErrNoBroker) {
		t.Fatalf("err = %v", err)
	}
}
