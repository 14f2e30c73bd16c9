package patron

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Publication states shared with the host content store.
// Only published patrons appear on the check-in roster.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
	StatusTrash   = "trash"
)

// Patron holds state for the concept.
type Patron struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Title     string // stored display name, may be empty for legacy rows
	Status    string
}

// DisplayName returns the stored title, falling back to "first last".
// INVARIANT: Patron fields are not mutated
func (p *Patron) DisplayName() string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// Validate checks if the Patron has valid data.
// PRE: Patron struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Display name must not be empty, Email must contain '@'
func (p *Patron) Validate() error {
	if p.ID == "" {
		return errors.New("patron id cannot be empty")
	}
	if p.DisplayName() == "" {
		return errors.New("patron name cannot be empty")
	}
	if len(p.FirstName) > MaxNameLength || len(p.LastName) > MaxNameLength {
		return errors.New("patron names cannot exceed 100 characters")
	}
	if !strings.Contains(p.Email, "@") {
		return errors.New("patron email must be valid")
	}
	if strings.Contains(p.Email, ":") {
		return errors.New("patron email cannot contain ':'")
	}
	if p.Status != StatusPublish && p.Status != StatusDraft && p.Status != StatusTrash {
		return errors.New("status must be 'publish', 'draft', or 'trash'")
	}
	return nil
}

// IsActive returns true if the patron appears on check-in rosters.
// INVARIANT: Status field is not mutated
func (p *Patron) IsActive() bool {
	return p.Status == StatusPublish
}
