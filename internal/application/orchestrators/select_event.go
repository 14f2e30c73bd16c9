package orchestrators

import (
	"log/slog"
	"net/url"
)

// EventSelectorParam is the query parameter that carries the chosen event
// back to the page hosting the view.
const EventSelectorParam = "custom-form"

// SelectEventInput carries the posted event-picker fields.
// The anti-forgery token has already been verified by the time this runs.
type SelectEventInput struct {
	SelectedEvent string // selected_event
	ReturnURL     string // event_redirect_url
}

// SelectEventResult carries the redirect target.
type SelectEventResult struct {
	EventID  string
	Location string
}

// ExecuteSelectEvent turns an event-picker post into a redirect that carries
// the chosen event id in the return page's query string.
// PRE: anti-forgery token verified
// POST: Location is ReturnURL with custom-form=<event> appended; no store is touched
func ExecuteSelectEvent(input SelectEventInput) (SelectEventResult, error) {
	eventID := SanitizeTextField(input.SelectedEvent)
	if eventID == "" {
		return SelectEventResult{}, ErrNoEventSelected
	}
	u, err := SanitizeReturnURL(input.ReturnURL)
	if err != nil {
		return SelectEventResult{}, err
	}

	param := EventSelectorParam + "=" + url.QueryEscape(eventID)
	q := u.Query()
	switch {
	case q.Has(EventSelectorParam):
		q.Set(EventSelectorParam, eventID)
		u.RawQuery = q.Encode()
	case u.RawQuery == "":
		u.RawQuery = param
	default:
		u.RawQuery += "&" + param
	}

	slog.Info("checkin_event", "event", "event_selected", "event_id", eventID)
	return SelectEventResult{EventID: eventID, Location: u.String()}, nil
}
