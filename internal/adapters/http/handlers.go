package web

import (
	"bytes"
	"database/sql"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventdesk/internal/adapters/http/middleware"
	"eventdesk/internal/adapters/http/perf"
	"eventdesk/internal/application/orchestrators"
	"eventdesk/internal/domain/checkin"
	domainPage "eventdesk/internal/domain/page"
)

// authorizationMessage is shown when the anti-forgery token is missing or wrong.
const authorizationMessage = "Invalid nonce specified"

// adminPath is where error pages send the operator back to.
const adminPath = "/admin"

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "request_id", middleware.GetRequestID(r.Context()), "path", r.URL.Path, "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// statusFor maps workflow errors onto HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	var ve *orchestrators.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, checkin.ErrMalformedToken),
		errors.Is(err, checkin.ErrUnknownAction),
		errors.Is(err, orchestrators.ErrTokenMismatch),
		errors.Is(err, orchestrators.ErrNoEventSelected),
		errors.Is(err, orchestrators.ErrInvalidReturnURL):
		return http.StatusBadRequest
	case errors.Is(err, orchestrators.ErrEventNotFound),
		errors.Is(err, orchestrators.ErrPatronNotFound):
		return http.StatusNotFound
	case errors.Is(err, orchestrators.ErrDuplicateEmail),
		errors.Is(err, orchestrators.ErrEventNotOpen),
		errors.Is(err, orchestrators.ErrPatronInactive):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError answers an API request with a plain-text message the roster shows verbatim.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		internalError(w, r, err)
		return
	}
	slog.Info("checkin_event", "event", "request_rejected", "request_id", middleware.GetRequestID(r.Context()), "path", r.URL.Path, "status", status, "error", err.Error())
	http.Error(w, err.Error(), status)
}

// writeText answers with a plain-text body.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}

type layoutData struct {
	Title     string
	CSRFToken string
	Content   template.HTML
}

// renderLayout wraps content in the site layout. Rendering into a buffer
// first keeps a template failure from leaving a half-written 200.
func renderLayout(w http.ResponseWriter, r *http.Request, status int, title string, content template.HTML) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "layout", layoutData{
		Title:     title,
		CSRFToken: middleware.Token(r),
		Content:   content,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorData struct {
	Message string
	BackURL string
}

// renderErrorPage shows msg in the layout with a link back to the admin page.
func renderErrorPage(w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	frag, err := executeFragment("error", errorData{Message: msg, BackURL: adminPath})
	if err != nil {
		internalError(w, r, err)
		return
	}
	renderLayout(w, r, status, title, frag)
}

// requestContext collects what the renderers need from r.
func requestContext(r *http.Request) RequestContext {
	return RequestContext{
		CSRFToken:     middleware.Token(r),
		Path:          r.URL.Path,
		EventSelector: orchestrators.SanitizeTextField(r.URL.Query().Get(orchestrators.EventSelectorParam)),
	}
}

// handleRoot sends visitors to the check-in page.
func (a *app) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/checkin", http.StatusFound)
}

// handlePage handles GET /{slug}
func (a *app) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := r.PathValue("slug")

	p, err := a.stores.PageStore.GetBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		renderErrorPage(w, r, http.StatusNotFound, "Not found", "No page lives at /"+slug+".")
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	content, err := a.renderer.Page(ctx, p, requestContext(r))
	if err != nil {
		internalError(w, r, err)
		return
	}
	renderLayout(w, r, http.StatusOK, p.Title, content)
}

// handleAdminPost handles POST /admin-post, dispatching on the action field.
// The anti-forgery token has already been checked by the CSRF middleware.
func (a *app) handleAdminPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	switch action := r.PostFormValue("action"); action {
	case "event_form":
		result, err := orchestrators.ExecuteSelectEvent(orchestrators.SelectEventInput{
			SelectedEvent: r.PostFormValue("selected_event"),
			ReturnURL:     r.PostFormValue("event_redirect_url"),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		http.Redirect(w, r, result.Location, http.StatusFound)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

// handleCheckin handles POST /api/v1/checkin.
// The body is the raw check-in token; a url-encoded "checkin" field is
// accepted too so the roster still works without JavaScript.
func (a *app) handleCheckin(w http.ResponseWriter, r *http.Request) {
	var token string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		token = r.PostFormValue("checkin")
	} else {
		// Bounded by the BodyLimit middleware.
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		token = string(body)
	}

	result, err := orchestrators.ExecuteCheckInPatron(r.Context(), orchestrators.CheckInPatronInput{Token: token}, a.checkInDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, result.Message())
}

// handleRegisterPatron handles POST /api/v1/patrons
func (a *app) handleRegisterPatron(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.RegisterPatronInput{
		FirstName: r.PostFormValue("add_fname"),
		LastName:  r.PostFormValue("add_lname"),
		Email:     r.PostFormValue("add_email"),
		EventID:   r.PostFormValue("event_id"),
	}
	deps := orchestrators.RegisterPatronDeps{
		PatronStore: a.stores.PatronStore,
		CheckIn:     a.checkInDeps(),
		EmailSender: a.services.EmailSender,
		GenerateID:  a.services.GenerateID,
	}

	result, err := orchestrators.ExecuteRegisterPatron(r.Context(), input, deps)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeText(w, http.StatusCreated, result.Message())
}

func (a *app) checkInDeps() orchestrators.CheckInPatronDeps {
	return orchestrators.CheckInPatronDeps{
		EventStore:      a.stores.EventStore,
		PatronStore:     a.stores.PatronStore,
		AttendanceStore: a.stores.AttendanceStore,
		Publisher:       a.services.Publisher,
		EmailSender:     a.services.EmailSender,
		GenerateID:      a.services.GenerateID,
		Now:             a.services.Now,
	}
}

type adminEvent struct {
	Title      string
	When       string
	CheckedIn  int
	CheckinURL string
	HistoryURL string
}

type adminData struct {
	Events []adminEvent
	Pages  []domainPage.Page
	Perf   perf.Snapshot
}

// perfWindow is how far back the admin performance snapshot looks.
const perfWindow = time.Hour

// handleAdmin handles GET /admin
func (a *app) handleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := a.stores.EventStore.ListPublished(ctx)
	if err != nil {
		internalError(w, r, err)
		return
	}
	pages, err := a.stores.PageStore.List(ctx)
	if err != nil {
		internalError(w, r, err)
		return
	}

	data := adminData{Pages: pages}
	for _, e := range events {
		checkedIn, err := a.stores.AttendanceStore.CountByEvent(ctx, e.ID)
		if err != nil {
			internalError(w, r, err)
			return
		}
		q := url.Values{orchestrators.EventSelectorParam: {e.ID}}.Encode()
		data.Events = append(data.Events, adminEvent{
			Title:      e.Title,
			When:       eventWhen(e),
			CheckedIn:  checkedIn,
			CheckinURL: "/checkin?" + q,
			HistoryURL: "/history?" + q,
		})
	}
	if a.collector != nil {
		data.Perf = a.collector.Snapshot(time.Now().Add(-perfWindow), 5)
	}

	frag, err := executeFragment("admin", data)
	if err != nil {
		internalError(w, r, err)
		return
	}
	renderLayout(w, r, http.StatusOK, "Event Desk admin", frag)
}

// handleCSRFFailure answers requests rejected by the anti-forgery check.
// API callers get the message as plain text; browsers get a page with a
// link back to the admin overview.
func handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	slog.Warn("csrf_rejected",
		"request_id", middleware.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"reason", middleware.FailureReason(r),
	)
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeText(w, http.StatusForbidden, authorizationMessage)
		return
	}
	renderErrorPage(w, r, http.StatusForbidden, "Access denied", authorizationMessage)
}
