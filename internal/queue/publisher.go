package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/carpool-gateway/internal/logger"
)

// ErrNoBroker is returned by a Publisher built without a broker URL.
var ErrNoBroker = errors.New("queue: no broker configured")

// Publisher sends booking events to the booking queue. Each Publish dials,
// declares the queue and publishes one persistent message; errors are logged
// and returned so callers can ignore them without failing the request.
type Publisher struct {
	URL string
	Log logger.ILogger
}

func NewPublisher(url string, log logger.ILogger) *Publisher {
	return &Publisher{URL: url, Log: log}
}

func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
	if p.URL == "" {
		return ErrNoBroker
	}
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Error("rabbitmq dial failed", logger.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Error("rabbitmq channel open failed", logger.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch); err != nil {
		p.Log.Error("rabbitmq queue declare failed", logger.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", BookingQueue, false, false, pub); err != nil {
		p.Log.Error("rabbitmq publish failed", logger.Error(err), logger.String("booking_id", ev.BookingID))
		return err
	}
	return nil
}

// declare makes sure the durable booking queue exists.
func declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(BookingQueue, true, false, false, false, nil)
	return err
}
