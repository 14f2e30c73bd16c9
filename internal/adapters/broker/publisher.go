// Package broker announces recorded attendance to downstream consumers over
// a message queue. Publishing is best effort: callers log failures and carry on.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultQueue is the queue AttendanceRecorded messages are routed to.
const DefaultQueue = "attendance.recorded"

// AttendanceRecorded is published once per (event, patron) pair, on the
// first check-in only.
type AttendanceRecorded struct {
	AttendanceID string    `json:"attendance_id"`
	EventID      string    `json:"event_id"`
	EventTitle   string    `json:"event_title"`
	PatronID     string    `json:"patron_id"`
	PatronName   string    `json:"patron_name"`
	CheckedInAt  time.Time `json:"checked_in_at"`
}

// Publisher sends attendance messages to the broker.
type Publisher interface {
	PublishAttendanceRecorded(ctx context.Context, msg AttendanceRecorded) error
}

func encode(msg AttendanceRecorded) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal attendance message: %w", err)
	}
	return body, nil
}

// NoopPublisher logs messages instead of sending them. It is used when no
// broker URL is configured.
type NoopPublisher struct {
	mu        sync.Mutex
	published []AttendanceRecorded
}

// NewNoopPublisher creates a new NoopPublisher.
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// PublishAttendanceRecorded records and logs the message.
func (p *NoopPublisher) PublishAttendanceRecorded(_ context.Context, msg AttendanceRecorded) error {
	p.mu.Lock()
	p.published = append(p.published, msg)
	p.mu.Unlock()
	slog.Info("noop_attendance_published", "event_id", msg.EventID, "patron_id", msg.PatronID)
	return nil
}

// Published returns a copy of every message accepted so far.
func (p *NoopPublisher) Published() []AttendanceRecorded {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]AttendanceRecorded, len(p.published))
	copy(out, p.published)
	return out
}
