package orchestrators

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"strings"

	"eventdesk/internal/adapters/email"
	"eventdesk/internal/domain/event"
	"eventdesk/internal/domain/patron"
)

var checkinEmailTemplate = template.Must(template.New("checkin").Parse(
	`<p>Hi {{.Name}},</p>
<p>You are checked in for <strong>{{.Event}}</strong>{{with .When}} ({{.}}){{end}}. Enjoy!</p>`))

var welcomeEmailTemplate = template.Must(template.New("welcome").Parse(
	`<p>Hi {{.Name}},</p>
<p>Thanks for signing in at the door. You are now on our guest list, so next time we can check you in with a single click.</p>`))

type emailData struct {
	Name  string
	Event string
	When  string
}

// eventWhen joins the event's date and time, either of which may be blank.
func eventWhen(e event.Event) string {
	return strings.TrimSpace(e.Date + " " + e.Time)
}

// CheckinConfirmation builds the email sent on a patron's first check-in.
func CheckinConfirmation(p patron.Patron, e event.Event) (email.SendRequest, error) {
	data := emailData{Name: p.DisplayName(), Event: e.Title, When: eventWhen(e)}
	var buf bytes.Buffer
	if err := checkinEmailTemplate.Execute(&buf, data); err != nil {
		return email.SendRequest{}, err
	}
	text := "Hi " + data.Name + ",\n\nYou are checked in for " + data.Event
	if data.When != "" {
		text += " (" + data.When + ")"
	}
	text += ". Enjoy!\n"
	return email.SendRequest{
		To:      []string{p.Email},
		Subject: "You're checked in: " + e.Title,
		HTML:    buf.String(),
		Text:    text,
		Tags:    map[string]string{"kind": "checkin"},
	}, nil
}

// WelcomeNote builds the email sent to a newly registered walk-in patron.
func WelcomeNote(p patron.Patron) (email.SendRequest, error) {
	var buf bytes.Buffer
	if err := welcomeEmailTemplate.Execute(&buf, emailData{Name: p.DisplayName()}); err != nil {
		return email.SendRequest{}, err
	}
	return email.SendRequest{
		To:      []string{p.Email},
		Subject: "Welcome",
		HTML:    buf.String(),
		Text:    "Hi " + p.DisplayName() + ",\n\nThanks for signing in at the door. You are now on our guest list.\n",
		Tags:    map[string]string{"kind": "welcome"},
	}, nil
}

// sendBestEffort delivers req when a sender is configured. Failures are
// logged and swallowed: mail never blocks a check-in.
func sendBestEffort(ctx context.Context, sender email.Sender, req email.SendRequest, buildErr error) {
	if sender == nil {
		return
	}
	if buildErr != nil {
		slog.Warn("email_build_failed", "error", buildErr)
		return
	}
	if _, err := sender.Send(ctx, req); err != nil {
		slog.Warn("email_send_failed", "error", err, "subject", req.Subject)
	}
}
