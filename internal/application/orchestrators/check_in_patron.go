package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventdesk/internal/adapters/broker"
	"eventdesk/internal/adapters/email"
	"eventdesk/internal/domain/attendance"
	"eventdesk/internal/domain/checkin"
	"eventdesk/internal/domain/event"
	"eventdesk/internal/domain/patron"
)

// EventLookupStore defines the event store interface needed for check-in.
type EventLookupStore interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

// PatronLookupStore defines the patron store interface needed for check-in.
type PatronLookupStore interface {
	GetByID(ctx context.Context, id string) (patron.Patron, error)
}

// AttendanceRecorder defines the attendance store interface needed for check-in.
type AttendanceRecorder interface {
	Record(ctx context.Context, a attendance.Attendance) (bool, error)
	GetByEventAndPatron(ctx context.Context, eventID, patronID string) (attendance.Attendance, error)
}

// CheckInPatronInput carries the raw check-in token posted by the roster.
type CheckInPatronInput struct {
	Token string // action:email:patronId:eventId
}

// CheckInPatronResult describes what the check-in did.
type CheckInPatronResult struct {
	Event      event.Event
	Patron     patron.Patron
	Attendance attendance.Attendance // the stored record, original on a repeat
	Created    bool                  // false when the patron was already checked in
}

// Message is the operator-facing confirmation shown verbatim by the roster.
func (r CheckInPatronResult) Message() string {
	if r.Created {
		return fmt.Sprintf("Checked in %s for %s.", r.Patron.DisplayName(), r.Event.Title)
	}
	return fmt.Sprintf("%s was already checked in for %s.", r.Patron.DisplayName(), r.Event.Title)
}

// CheckInPatronDeps holds dependencies for CheckInPatron.
type CheckInPatronDeps struct {
	EventStore      EventLookupStore
	PatronStore     PatronLookupStore
	AttendanceStore AttendanceRecorder
	Publisher       broker.Publisher // optional
	EmailSender     email.Sender     // optional
	GenerateID      func() string
	Now             func() time.Time
	PublishTimeout  time.Duration // bound on the broker publish; DefaultPublishTimeout when zero
}

// DefaultPublishTimeout keeps a slow broker from outlasting the client's
// check-in timeout after the record is already written.
const DefaultPublishTimeout = 2 * time.Second

// ExecuteCheckInPatron records that a patron attended an event.
// PRE: Token is in wire format; event is published; patron is active and owns the token's email
// POST: Exactly one Attendance Record exists for (event, patron)
// INVARIANT: A repeated check-in succeeds without creating a second record,
// publishing a message or sending mail
func ExecuteCheckInPatron(ctx context.Context, input CheckInPatronInput, deps CheckInPatronDeps) (CheckInPatronResult, error) {
	tok, err := checkin.Parse(input.Token)
	if err != nil {
		return CheckInPatronResult{}, err
	}

	e, err := deps.EventStore.GetByID(ctx, tok.EventID)
	if errors.Is(err, sql.ErrNoRows) {
		return CheckInPatronResult{}, ErrEventNotFound
	}
	if err != nil {
		return CheckInPatronResult{}, err
	}
	if !e.IsPublished() {
		return CheckInPatronResult{}, ErrEventNotOpen
	}

	p, err := deps.PatronStore.GetByID(ctx, tok.PatronID)
	if errors.Is(err, sql.ErrNoRows) {
		return CheckInPatronResult{}, ErrPatronNotFound
	}
	if err != nil {
		return CheckInPatronResult{}, err
	}
	if !p.IsActive() {
		return CheckInPatronResult{}, ErrPatronInactive
	}
	if !strings.EqualFold(strings.TrimSpace(p.Email), tok.Email) {
		return CheckInPatronResult{}, ErrTokenMismatch
	}

	a := attendance.Attendance{
		ID:          deps.GenerateID(),
		EventID:     e.ID,
		PatronID:    p.ID,
		CheckedInAt: deps.Now(),
	}
	if err := a.Validate(); err != nil {
		return CheckInPatronResult{}, err
	}

	created, err := deps.AttendanceStore.Record(ctx, a)
	if err != nil {
		return CheckInPatronResult{}, err
	}
	result := CheckInPatronResult{Event: e, Patron: p, Attendance: a, Created: created}
	if !created {
		existing, err := deps.AttendanceStore.GetByEventAndPatron(ctx, e.ID, p.ID)
		if err != nil {
			return CheckInPatronResult{}, err
		}
		result.Attendance = existing
		slog.Info("checkin_event", "event", "patron_already_checked_in", "event_id", e.ID, "patron_id", p.ID, "checked_in_at", existing.CheckedInAt)
		return result, nil
	}

	slog.Info("checkin_event", "event", "patron_checked_in", "event_id", e.ID, "patron_id", p.ID, "name", p.DisplayName())

	if deps.Publisher != nil {
		msg := broker.AttendanceRecorded{
			AttendanceID: a.ID,
			EventID:      e.ID,
			EventTitle:   e.Title,
			PatronID:     p.ID,
			PatronName:   p.DisplayName(),
			CheckedInAt:  a.CheckedInAt,
		}
		timeout := deps.PublishTimeout
		if timeout <= 0 {
			timeout = DefaultPublishTimeout
		}
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err := deps.Publisher.PublishAttendanceRecorded(pctx, msg)
		cancel()
		if err != nil {
			slog.Warn("attendance_publish_failed", "error", err, "event_id", e.ID, "patron_id", p.ID)
		}
	}

	req, buildErr := CheckinConfirmation(p, e)
	sendBestEffort(ctx, deps.EmailSender, req, buildErr)

	return result, nil
}
