package broker

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultDialTimeout bounds the TCP connect plus the AMQP handshake.
const DefaultDialTimeout = 2 * time.Second

// AMQPPublisher publishes to a durable queue on the default exchange.
// One connection and channel are kept open and shared; after any failure
// both are dropped and the next publish dials again.
type AMQPPublisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	dial        func(ctx context.Context, url string, timeout time.Duration) (*amqp.Connection, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher creates a publisher for the given broker URL and queue.
// PRE: url is an amqp:// or amqps:// URL
// POST: Returns a publisher; no connection is made until the first publish
func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPPublisher{url: url, queue: queue, dialTimeout: DefaultDialTimeout, dial: dialContext}
}

// dialContext opens a connection whose connect and handshake stop at the
// earlier of ctx's deadline and timeout. amqp.Dial alone waits up to 30s.
func dialContext(ctx context.Context, url string, timeout time.Duration) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Dial: func(network, addr string) (net.Conn, error) {
			deadline := time.Now().Add(timeout)
			if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
				deadline = d
			}
			d := net.Dialer{Deadline: deadline}
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			// Cleared by the client once the handshake completes.
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	})
}

// channel returns the shared channel, dialing and declaring the queue if needed.
// PRE: p.mu is held
func (p *AMQPPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := p.dial(ctx, p.url, p.dialTimeout)
	if err != nil {
		slog.Warn("amqp_dial_failed", "error", err)
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare %s: %w", p.queue, err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// reset drops the shared connection.
// PRE: p.mu is held
func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// PublishAttendanceRecorded sends msg as a persistent JSON message.
// POST: Message is on the queue, or an error describing the failed step is returned
func (p *AMQPPublisher) PublishAttendanceRecorded(ctx context.Context, msg AttendanceRecorded) error {
	pub, err := publishing(msg, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.reset()
		return fmt.Errorf("amqp publish: %w", err)
	}

	slog.Info("attendance_published", "queue", p.queue, "event_id", msg.EventID, "patron_id", msg.PatronID)
	return nil
}

// Close releases the shared connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// publishing builds the AMQP envelope for msg.
func publishing(msg AttendanceRecorded, now time.Time) (amqp.Publishing, error) {
	body, err := encode(msg)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.AttendanceID,
		Type:         "attendance.recorded",
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}
