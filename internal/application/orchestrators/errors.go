package orchestrators

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Workflow errors. The HTTP adapter maps these onto status codes.
var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventNotOpen     = errors.New("event is not open for check-in")
	ErrPatronNotFound   = errors.New("patron not found")
	ErrPatronInactive   = errors.New("patron is not active")
	ErrTokenMismatch    = errors.New("check-in token does not match the patron")
	ErrDuplicateEmail   = errors.New("a patron with this email already exists")
	ErrNoEventSelected  = errors.New("no event selected")
	ErrInvalidReturnURL = errors.New("invalid return url")
)

// ValidationError lists the form fields that failed validation and the rule each broke.
type ValidationError struct {
	Fields map[string]string
}

// Error renders the failures in field order so the message is stable.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (%s)", name, e.Fields[name]))
	}
	return "invalid " + strings.Join(parts, ", ")
}
