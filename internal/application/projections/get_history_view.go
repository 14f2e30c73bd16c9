package projections

import (
	"context"

	domainEvent "eventdesk/internal/domain/event"
	"eventdesk/internal/domain/roster"
)

// GetHistoryViewQuery carries query parameters.
type GetHistoryViewQuery struct {
	EventSelector string // custom-form query value: empty, "initial" or an event id
}

// Attendee is one line of the history list.
type Attendee struct {
	PatronID string
	Name     string
}

// GetHistoryViewResult carries the query result.
type GetHistoryViewResult struct {
	Selecting bool
	Events    []EventOption

	EventID    string
	Event      domainEvent.Event
	EventFound bool
	Attendees  []Attendee
}

// GetHistoryViewDeps holds dependencies for GetHistoryView.
type GetHistoryViewDeps struct {
	EventStore  EventStore
	PatronStore PatronStore
}

// QueryGetHistoryView builds either the event picker or the list of patrons
// with an Attendance Record for the event.
// PRE: none
// POST: Attendees are exactly the patrons recorded present, ascending by name
func QueryGetHistoryView(ctx context.Context, query GetHistoryViewQuery, deps GetHistoryViewDeps) (GetHistoryViewResult, error) {
	if IsSelection(query.EventSelector) {
		options, err := listEventOptions(ctx, deps.EventStore)
		if err != nil {
			return GetHistoryViewResult{}, err
		}
		return GetHistoryViewResult{Selecting: true, Events: options}, nil
	}

	eventID := query.EventSelector
	e, found, err := lookupEvent(ctx, deps.EventStore, eventID)
	if err != nil {
		return GetHistoryViewResult{}, err
	}

	patrons, err := deps.PatronStore.ListByEvent(ctx, eventID)
	if err != nil {
		return GetHistoryViewResult{}, err
	}

	attendees := make([]Attendee, 0, len(patrons))
	for _, p := range roster.Sort(patrons) {
		attendees = append(attendees, Attendee{PatronID: p.ID, Name: p.DisplayName()})
	}
	return GetHistoryViewResult{
		EventID:    eventID,
		Event:      e,
		EventFound: found,
		Attendees:  attendees,
	}, nil
}
