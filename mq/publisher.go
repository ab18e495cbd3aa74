// Package mq publishes booking changes to a RabbitMQ topic exchange.
package mq

import (
	"context"
	"court-booking-bot/booking"
	"encoding/json"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"time"
)

const routingKeyPrefix = "booking."

// Event is the JSON body of every published message.
type Event struct {
	CourtId  int64     `json:"court_id"`
	ThreadId int64     `json:"thread_id"`
	UserId   int64     `json:"user_id"`
	Date     string    `json:"date"`
	Hours    []int     `json:"hours"`
	At       time.Time `json:"at"`
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Notify publishes change with routing key booking.granted or booking.cancelled.
func (p *Publisher) Notify(ctx context.Context, change booking.Change) error {
	return p.PublishJSON(ctx, routingKeyPrefix+change.Kind, NewEvent(change))
}

func NewEvent(change booking.Change) Event {
	return Event{
		CourtId:  change.CourtId,
		ThreadId: change.ThreadId,
		UserId:   change.UserId,
		Date:     change.Day.Date.Format("2006-01-02"),
		Hours:    change.Hours,
		At:       change.At.UTC(),
	}
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
	return errors.Wrapf(err, "publish %v", key)
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
