package broker

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func sampleMessage() AttendanceRecorded {
	return AttendanceRecorded{
		AttendanceID: "h1",
		EventID:      "42",
		EventTitle:   "Spring Gala",
		PatronID:     "7",
		PatronName:   "Alice Adams",
		CheckedInAt:  time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC),
	}
}

func TestPublishing_Envelope(t *testing.T) {
	now := time.Date(2026, 4, 1, 21, 0, 0, 0, time.FixedZone("NZST", 12*3600))
	pub, err := publishing(sampleMessage(), now)
	if err != nil {
		t.Fatalf("publishing: %v", err)
	}
	if pub.DeliveryMode != amqp.Persistent {
		t.Errorf("DeliveryMode = %d, want persistent", pub.DeliveryMode)
	}
	if pub.ContentType != "application/json" || pub.MessageId != "h1" {
		t.Errorf("ContentType, MessageId = %q, %q", pub.ContentType, pub.MessageId)
	}
	if pub.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp not UTC: %v", pub.Timestamp)
	}

	var got map[string]any
	if err := json.Unmarshal(pub.Body, &got); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	for _, key := range []string{"attendance_id", "event_id", "event_title", "patron_id", "patron_name", "checked_in_at"} {
		if _, ok := got[key]; !ok {
			t.Errorf("body missing %q: %s", key, pub.Body)
		}
	}
}

func TestAMQPPublisher_DialFailure(t *testing.T) {
	p := NewAMQPPublisher("amqp://nowhere/", "")
	if p.queue != DefaultQueue {
		t.Errorf("queue = %q, want %q", p.queue, DefaultQueue)
	}
	dialErr := errors.New("connection refused")
	dials := 0
	p.dial = func(context.Context, string, time.Duration) (*amqp.Connection, error) {
		dials++
		return nil, dialErr
	}

	for i := 0; i < 2; i++ {
		err := p.PublishAttendanceRecorded(context.Background(), sampleMessage())
		if !errors.Is(err, dialErr) {
			t.Errorf("publish %d: err = %v, want wrapped dial error", i, err)
		}
	}
	if dials != 2 {
		t.Errorf("dials = %d, want a fresh dial after each failure", dials)
	}
}

// silentBroker accepts TCP connections and never writes, like a hung broker.
// It returns an AMQP URL pointing at it.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	accepted := make(chan net.Conn, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				close(accepted)
				return
			}
			accepted <- conn
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		for conn := range accepted {
			conn.Close()
		}
	})
	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

// TestAMQPPublisher_SilentBrokerHonoursDeadline tests that a broker which
// accepts the TCP connection but never answers the handshake cannot hold a
// publish past the caller's deadline.
func TestAMQPPublisher_SilentBrokerHonoursDeadline(t *testing.T) {
	p := NewAMQPPublisher(silentBroker(t), "")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.PublishAttendanceRecorded(ctx, sampleMessage())
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("publish to a silent broker succeeded")
	}
	if elapsed > 2*time.Second {
		t.Errorf("publish returned after %v, want it bounded by the 200ms deadline", elapsed)
	}
}

func TestAMQPPublisher_DialTimeoutWithoutDeadline(t *testing.T) {
	p := NewAMQPPublisher(silentBroker(t), "")
	p.dialTimeout = 150 * time.Millisecond

	start := time.Now()
	if err := p.PublishAttendanceRecorded(context.Background(), sampleMessage()); err == nil {
		t.Fatal("publish to a silent broker succeeded")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("publish returned after %v, want it bounded by the dial timeout", elapsed)
	}
}

func TestNoopPublisher_Records(t *testing.T) {
	p := NewNoopPublisher()
	if err := p.PublishAttendanceRecorded(context.Background(), sampleMessage()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := p.Published(); len(got) != 1 || got[0].PatronID != "7" {
		t.Errorf("Published() = %+v", got)
	}
}
