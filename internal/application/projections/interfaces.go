package projections

import (
	"context"
	"database/sql"
	"errors"

	domainAttendance "eventdesk/internal/domain/attendance"
	domainEvent "eventdesk/internal/domain/event"
	domainPatron "eventdesk/internal/domain/patron"
)

// EventStore interface for event queries.
type EventStore interface {
	GetByID(ctx context.Context, id string) (domainEvent.Event, error)
	ListPublished(ctx context.Context) ([]domainEvent.Event, error)
}

// PatronStore interface for patron queries.
type PatronStore interface {
	ListActive(ctx context.Context) ([]domainPatron.Patron, error)
	ListByEvent(ctx context.Context, eventID string) ([]domainPatron.Patron, error)
}

// AttendanceStore interface for attendance queries.
type AttendanceStore interface {
	ListByEvent(ctx context.Context, eventID string) ([]domainAttendance.Attendance, error)
}

// InitialSelector is the selector value that means "no event chosen yet".
const InitialSelector = "initial"

// IsSelection reports whether selector asks for the event picker rather than an event.
func IsSelection(selector string) bool {
	return selector == "" || selector == InitialSelector
}

// EventOption is one entry of the event picker.
type EventOption struct {
	ID    string
	Title string
}

// listEventOptions loads the picker entries in store order (title, then id).
func listEventOptions(ctx context.Context, store EventStore) ([]EventOption, error) {
	events, err := store.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]EventOption, 0, len(events))
	for _, e := range events {
		options = append(options, EventOption{ID: e.ID, Title: e.Title})
	}
	return options, nil
}

// lookupEvent returns the event, or found=false when it does not exist.
// A missing event degrades to an empty heading instead of failing the view.
func lookupEvent(ctx context.Context, store EventStore, id string) (domainEvent.Event, bool, error) {
	e, err := store.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domainEvent.Event{}, false, nil
	}
	if err != nil {
		return domainEvent.Event{}, false, err
	}
	return e, true, nil
}
