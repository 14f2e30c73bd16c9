package projections

import (
	"context"

	"eventdesk/internal/domain/checkin"
	domainEvent "eventdesk/internal/domain/event"
	"eventdesk/internal/domain/roster"
)

// GetCheckinViewQuery carries query parameters.
type GetCheckinViewQuery struct {
	EventSelector string // custom-form query value: empty, "initial" or an event id
}

// RosterEntry is one patron line with its check-in control.
type RosterEntry struct {
	PatronID  string
	Name      string
	Email     string
	Token     string // check-in request token carried by the button
	CheckedIn bool
}

// RosterGroup is a run of entries sharing a first letter.
type RosterGroup struct {
	Initial string
	Entries []RosterEntry
}

// GetCheckinViewResult carries the query result.
// Exactly one of the two modes is populated, chosen by Selecting.
type GetCheckinViewResult struct {
	Selecting bool
	Events    []EventOption

	EventID    string
	Event      domainEvent.Event
	EventFound bool
	Letters    []string
	Groups     []RosterGroup
	Total      int
	Present    int
}

// GetCheckinViewDeps holds dependencies for GetCheckinView.
type GetCheckinViewDeps struct {
	EventStore      EventStore
	PatronStore     PatronStore
	AttendanceStore AttendanceStore // optional: nil leaves every entry unchecked
}

// QueryGetCheckinView builds either the event picker or the grouped roster.
// PRE: none
// POST: Groups are in strictly ascending initial order, entries ascending by name
// INVARIANT: Read-only; identical store state yields an identical result
func QueryGetCheckinView(ctx context.Context, query GetCheckinViewQuery, deps GetCheckinViewDeps) (GetCheckinViewResult, error) {
	if IsSelection(query.EventSelector) {
		options, err := listEventOptions(ctx, deps.EventStore)
		if err != nil {
			return GetCheckinViewResult{}, err
		}
		return GetCheckinViewResult{Selecting: true, Events: options}, nil
	}

	eventID := query.EventSelector
	e, found, err := lookupEvent(ctx, deps.EventStore, eventID)
	if err != nil {
		return GetCheckinViewResult{}, err
	}

	patrons, err := deps.PatronStore.ListActive(ctx)
	if err != nil {
		return GetCheckinViewResult{}, err
	}

	present := map[string]bool{}
	if deps.AttendanceStore != nil {
		records, err := deps.AttendanceStore.ListByEvent(ctx, eventID)
		if err != nil {
			return GetCheckinViewResult{}, err
		}
		for _, a := range records {
			present[a.PatronID] = true
		}
	}

	result := GetCheckinViewResult{
		EventID:    eventID,
		Event:      e,
		EventFound: found,
		Letters:    roster.Letters(),
		Groups:     []RosterGroup{},
		Total:      len(patrons),
	}
	for _, g := range roster.GroupByInitial(patrons) {
		group := RosterGroup{Initial: g.Initial, Entries: make([]RosterEntry, 0, len(g.Patrons))}
		for _, p := range g.Patrons {
			entry := RosterEntry{
				PatronID:  p.ID,
				Name:      p.DisplayName(),
				Email:     p.Email,
				Token:     checkin.NewToken(p.Email, p.ID, eventID).String(),
				CheckedIn: present[p.ID],
			}
			if entry.CheckedIn {
				result.Present++
			}
			group.Entries = append(group.Entries, entry)
		}
		result.Groups = append(result.Groups, group)
	}
	return result, nil
}
