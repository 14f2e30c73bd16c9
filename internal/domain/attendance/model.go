package attendance

import (
	"errors"
	"time"
)

// Attendance records that a patron was present at an event.
// Records are created once and never updated by this system.
type Attendance struct {
	ID          string
	EventID     string
	PatronID    string
	CheckedInAt time.Time
}

// Validate checks if the Attendance has valid data.
// PRE: Attendance struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: EventID and PatronID must not be empty, CheckedInAt must be set
func (a *Attendance) Validate() error {
	if a.ID == "" {
		return errors.New("attendance id cannot be empty")
	}
	if a.EventID == "" {
		return errors.New("attendance must be associated with an event")
	}
	if a.PatronID == "" {
		return errors.New("attendance must be associated with a patron")
	}
	if a.CheckedInAt.IsZero() {
		return errors.New("check-in time must be set")
	}
	return nil
}
