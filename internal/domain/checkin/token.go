// Package checkin models the payload a check-in button sends to record attendance.
//
// The wire format is four colon-separated fields in fixed order:
//
//	action:email:patronId:eventId
//
// No escaping is applied. Parsing rejects anything that does not split into
// exactly four non-empty fields, so a value containing a colon makes the token
// unparseable rather than silently shifting fields.
package checkin

import (
	"errors"
	"fmt"
	"strings"
)

// ActionCheckin is the only action the check-in endpoint accepts.
const ActionCheckin = "checkin"

const separator = ":"

// Domain errors
var (
	ErrMalformedToken = errors.New("malformed check-in token")
	ErrUnknownAction  = errors.New("unknown check-in action")
)

// Token is a parsed check-in request.
type Token struct {
	Action   string
	Email    string
	PatronID string
	EventID  string
}

// NewToken builds a check-in token for the given patron and event.
func NewToken(email, patronID, eventID string) Token {
	return Token{
		Action:   ActionCheckin,
		Email:    email,
		PatronID: patronID,
		EventID:  eventID,
	}
}

// String renders the token in wire format.
// INVARIANT: Token fields are not mutated
func (t Token) String() string {
	return strings.Join([]string{t.Action, t.Email, t.PatronID, t.EventID}, separator)
}

// Parse reads a token from its wire format.
// PRE: none
// POST: Returns the four fields in order, or ErrMalformedToken / ErrUnknownAction
func Parse(raw string) (Token, error) {
	parts := strings.Split(strings.TrimSpace(raw), separator)
	if len(parts) != 4 {
		return Token{}, fmt.Errorf("%w: want 4 fields, got %d", ErrMalformedToken, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return Token{}, fmt.Errorf("%w: empty field", ErrMalformedToken)
		}
	}
	t := Token{Action: parts[0], Email: parts[1], PatronID: parts[2], EventID: parts[3]}
	if t.Action != ActionCheckin {
		return Token{}, fmt.Errorf("%w: %q", ErrUnknownAction, t.Action)
	}
	return t, nil
}
