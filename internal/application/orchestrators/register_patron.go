package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"eventdesk/internal/adapters/email"
	"eventdesk/internal/domain/checkin"
	"eventdesk/internal/domain/patron"

	"github.com/go-playground/validator/v10"
)

// PatronStore defines the patron store interface needed for walk-in registration.
type PatronStore interface {
	GetByEmail(ctx context.Context, email string) (patron.Patron, error)
	Save(ctx context.Context, p patron.Patron) error
}

// RegisterPatronInput carries the "Add New" form fields.
type RegisterPatronInput struct {
	FirstName string `form:"add_fname" validate:"required,max=100"`
	LastName  string `form:"add_lname" validate:"required,max=100"`
	Email     string `form:"add_email" validate:"required,email,max=254"`
	EventID   string `form:"event_id"` // optional: also check the walk-in in
}

// RegisterPatronResult describes the new patron and the optional check-in.
// CheckInErr is set when the patron was saved but the check-in did not go through.
type RegisterPatronResult struct {
	Patron     patron.Patron
	CheckIn    *CheckInPatronResult
	CheckInErr error
}

// Message is the operator-facing confirmation shown verbatim by the roster.
func (r RegisterPatronResult) Message() string {
	msg := "Added " + r.Patron.DisplayName() + "."
	switch {
	case r.CheckIn != nil:
		msg += " " + r.CheckIn.Message()
	case r.CheckInErr != nil:
		msg += " The check-in did not go through; use their roster button to check them in."
	}
	return msg
}

// RegisterPatronDeps holds dependencies for RegisterPatron.
// CheckIn is used only when the input names an event; its GenerateID and
// PatronStore default to the registration's own.
type RegisterPatronDeps struct {
	PatronStore PatronStore
	CheckIn     CheckInPatronDeps
	EmailSender email.Sender // optional
	GenerateID  func() string
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// formValidator reports failures under the form field names, not the Go names.
func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateInput runs the struct rules and converts failures to a ValidationError.
func validateInput(v any) error {
	err := formValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		ve.Fields[fe.Field()] = fe.Tag()
	}
	return ve
}

// ExecuteRegisterPatron creates an active patron for a walk-in guest.
// PRE: names and email present; email not already registered
// POST: Patron created with Status=publish and Title "first last"; checked in when EventID is set
// POST: Once the patron is saved the call succeeds; a failed check-in is reported in CheckInErr
// INVARIANT: Email is unique across patrons, compared case-insensitively
func ExecuteRegisterPatron(ctx context.Context, input RegisterPatronInput, deps RegisterPatronDeps) (RegisterPatronResult, error) {
	input = RegisterPatronInput{
		FirstName: SanitizeTextField(input.FirstName),
		LastName:  SanitizeTextField(input.LastName),
		Email:     strings.ToLower(SanitizeTextField(input.Email)),
		EventID:   SanitizeTextField(input.EventID),
	}
	if err := validateInput(input); err != nil {
		return RegisterPatronResult{}, err
	}

	if input.EventID != "" {
		if err := checkEventOpen(ctx, deps.CheckIn.EventStore, input.EventID); err != nil {
			return RegisterPatronResult{}, err
		}
	}

	if _, err := deps.PatronStore.GetByEmail(ctx, input.Email); err == nil {
		return RegisterPatronResult{}, ErrDuplicateEmail
	} else if !errors.Is(err, sql.ErrNoRows) {
		return RegisterPatronResult{}, err
	}

	p := patron.Patron{
		ID:        deps.GenerateID(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Status:    patron.StatusPublish,
	}
	p.Title = p.DisplayName()
	if err := p.Validate(); err != nil {
		return RegisterPatronResult{}, err
	}
	if err := deps.PatronStore.Save(ctx, p); err != nil {
		return RegisterPatronResult{}, err
	}
	slog.Info("checkin_event", "event", "patron_registered", "patron_id", p.ID, "name", p.DisplayName())

	req, buildErr := WelcomeNote(p)
	sendBestEffort(ctx, deps.EmailSender, req, buildErr)

	result := RegisterPatronResult{Patron: p}
	if input.EventID == "" {
		return result, nil
	}

	checkInDeps := deps.CheckIn
	if checkInDeps.GenerateID == nil {
		checkInDeps.GenerateID = deps.GenerateID
	}
	if checkInDeps.PatronStore == nil {
		checkInDeps.PatronStore = staticPatron{p}
	}
	tok := checkin.NewToken(p.Email, p.ID, input.EventID)
	ci, err := ExecuteCheckInPatron(ctx, CheckInPatronInput{Token: tok.String()}, checkInDeps)
	if err != nil {
		slog.Warn("checkin_event", "event", "walk_in_checkin_failed", "patron_id", p.ID, "event_id", input.EventID, "error", err)
		result.CheckInErr = err
		return result, nil
	}
	result.CheckIn = &ci
	return result, nil
}

// checkEventOpen fails unless the event exists and is published, so a walk-in
// is never created for an event they cannot be checked in to.
func checkEventOpen(ctx context.Context, events EventLookupStore, id string) error {
	e, err := events.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if !e.IsPublished() {
		return ErrEventNotOpen
	}
	return nil
}

// staticPatron serves the just-created patron to the check-in step.
type staticPatron struct {
	p patron.Patron
}

func (s staticPatron) GetByID(_ context.Context, id string) (patron.Patron, error) {
	if id != s.p.ID {
		return patron.Patron{}, sql.ErrNoRows
	}
	return s.p, nil
}
