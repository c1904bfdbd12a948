// Package events publishes ledger notifications to a message bus so other
// services (mail, analytics, the UI push channel) can react to balance
// changes. Publishing is best-effort and never blocks a ledger mutation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/baharkarakas/resumeforge/internal/worker"
	"github.com/nats-io/nats.go"
	"github.com/streadway/amqp"
)

const (
	SubjectPrefix = "ledger"
	Exchange      = "ledger_events"
)

type Kind string

const (
	KindDebited   Kind = "debited"
	KindRefunded  Kind = "refunded"
	KindPurchased Kind = "purchased"
	KindGranted   Kind = "granted"
)

type LedgerEvent struct {
	Kind    Kind      `json:"kind"`
	UserID  string    `json:"userId"`
	Amount  int64     `json:"amount"`
	EventID string    `json:"eventId,omitempty"`
	At      time.Time `json:"at"`
}

// Topic is the subject / routing key, e.g. "ledger.purchased".
func (e LedgerEvent) Topic() string { return SubjectPrefix + "." + string(e.Kind) }

type Publisher interface {
	Publish(topic string, data []byte) error
	Close() error
}

type Noop struct{}

func (Noop) Publish(string, []byte) error { return nil }
func (Noop) Close() error                 { return nil }

type NatsPublisher struct {
	nc *nats.Conn
}

func NewNats(url string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("resumeforge"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NatsPublisher{nc: nc}, nil
}

func (p *NatsPublisher) Publish(topic string, data []byte) error {
	return p.nc.Publish(topic, data)
}

func (p *NatsPublisher) Close() error {
	return p.nc.Drain()
}

type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQP dials RabbitMQ and declares the topic exchange ledger events are
// routed through.
func NewAMQP(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) Publish(topic string, data []byte) error {
	return p.ch.Publish(Exchange, topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         data,
	})
}

func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// New picks a publisher by provider name: none, nats or amqp.
func New(provider, natsURL, amqpURL string) (Publisher, error) {
	switch provider {
	case "", "none":
		return Noop{}, nil
	case "nats":
		return NewNats(natsURL)
	case "amqp":
		return NewAMQP(amqpURL)
	default:
		return nil, fmt.Errorf("unknown bus provider %q", provider)
	}
}

// Dispatcher hands events to the worker pool for publishing.
type Dispatcher struct {
	pub  Publisher
	pool *worker.Pool
}

func NewDispatcher(pub Publisher, pool *worker.Pool) *Dispatcher {
	return &Dispatcher{pub: pub, pool: pool}
}

// Notify enqueues evt. A full queue drops the event with a warning.
func (d *Dispatcher) Notify(ctx context.Context, evt LedgerEvent) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	body, err := json.Marshal(evt)
	if err != nil {
		slog.ErrorContext(ctx, "marshal ledger event", "err", err)
		return
	}
	topic := evt.Topic()
	ok := d.pool.TrySubmit(func() {
		if err := d.pub.Publish(topic, body); err != nil {
			slog.Warn("publish ledger event", "topic", topic, "user_id", evt.UserID, "err", err)
		}
	})
	if !ok {
		slog.WarnContext(ctx, "ledger event dropped, queue full", "topic", topic, "user_id", evt.UserID)
	}
}
