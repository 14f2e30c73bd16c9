package event

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength = 200
)

// Publication states shared with the host content store.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
)

// Event holds state for the concept.
type Event struct {
	ID          string
	Title       string
	Date        string // YYYY-MM-DD, free-form in legacy rows
	Time        string // HH:MM, free-form in legacy rows
	Description string // markdown
	Status      string
}

// Validate checks if the Event has valid data.
// PRE: Event struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: ID and Title must not be empty
func (e *Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("event id cannot be empty")
	}
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("event title cannot be empty")
	}
	if len(e.Title) > MaxTitleLength {
		return errors.New("event title cannot exceed 200 characters")
	}
	if e.Status != StatusPublish && e.Status != StatusDraft {
		return errors.New("status must be 'publish' or 'draft'")
	}
	return nil
}

// IsPublished reports whether the event is offered for check-in.
func (e *Event) IsPublished() bool {
	return e.Status == StatusPublish
}
