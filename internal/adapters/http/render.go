package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"eventdesk/internal/application/projections"
	domainEvent "eventdesk/internal/domain/event"
	"eventdesk/internal/domain/page"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// templates are parsed once; every view is a named template in templates/.
var templates = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

// staticAssets serves /static/ from the embedded tree.
func staticAssets() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts operator-authored markdown. On failure the source is
// shown escaped rather than dropped.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// RequestContext is everything a renderer needs to know about the request.
// It is passed explicitly; renderers never read the request themselves.
type RequestContext struct {
	CSRFToken     string // masked anti-forgery token for this response
	Path          string // page hosting the view; the event picker returns here
	EventSelector string // custom-form query value
}

// Renderer turns projections into HTML fragments.
type Renderer struct {
	Events     projections.EventStore
	Patrons    projections.PatronStore
	Attendance projections.AttendanceStore
	TimeoutMs  int // client-side check-in timeout carried on the roster
}

type pickerData struct {
	CSRFToken string
	ReturnURL string
	Events    []projections.EventOption
}

type letterLink struct {
	Letter  string
	Present bool
}

type rosterData struct {
	CSRFToken   string
	TimeoutMs   int
	View        projections.GetCheckinViewResult
	Letters     []letterLink
	When        string
	Description template.HTML
}

type historyData struct {
	View projections.GetHistoryViewResult
	When string
}

// CheckinView renders the event picker or the grouped roster.
// POST: identical store state and RequestContext yield byte-identical output
func (rd Renderer) CheckinView(ctx context.Context, rc RequestContext) (template.HTML, error) {
	view, err := projections.QueryGetCheckinView(ctx, projections.GetCheckinViewQuery{EventSelector: rc.EventSelector}, projections.GetCheckinViewDeps{
		EventStore:      rd.Events,
		PatronStore:     rd.Patrons,
		AttendanceStore: rd.Attendance,
	})
	if err != nil {
		return "", err
	}
	if view.Selecting {
		return executeFragment("event_picker", pickerData{CSRFToken: rc.CSRFToken, ReturnURL: rc.Path, Events: view.Events})
	}

	present := make(map[string]bool, len(view.Groups))
	for _, g := range view.Groups {
		present[g.Initial] = true
	}
	letters := make([]letterLink, 0, len(view.Letters))
	for _, l := range view.Letters {
		letters = append(letters, letterLink{Letter: l, Present: present[l]})
	}

	data := rosterData{
		CSRFToken: rc.CSRFToken,
		TimeoutMs: rd.TimeoutMs,
		View:      view,
		Letters:   letters,
		When:      eventWhen(view.Event),
	}
	if strings.TrimSpace(view.Event.Description) != "" {
		data.Description = renderMarkdown(view.Event.Description)
	}
	return executeFragment("checkin_roster", data)
}

// HistoryView renders the event picker or the attendee list.
func (rd Renderer) HistoryView(ctx context.Context, rc RequestContext) (template.HTML, error) {
	view, err := projections.QueryGetHistoryView(ctx, projections.GetHistoryViewQuery{EventSelector: rc.EventSelector}, projections.GetHistoryViewDeps{
		EventStore:  rd.Events,
		PatronStore: rd.Patrons,
	})
	if err != nil {
		return "", err
	}
	if view.Selecting {
		return executeFragment("event_picker", pickerData{CSRFToken: rc.CSRFToken, ReturnURL: rc.Path, Events: view.Events})
	}
	return executeFragment("history_list", historyData{View: view, When: eventWhen(view.Event)})
}

// Page renders a host page: markdown runs through goldmark and each view
// directive is replaced by its fragment.
func (rd Renderer) Page(ctx context.Context, p page.Page, rc RequestContext) (template.HTML, error) {
	var out strings.Builder
	for _, seg := range p.Segments() {
		var frag template.HTML
		var err error
		switch seg.Directive {
		case "":
			frag = renderMarkdown(seg.Markdown)
		case page.DirectiveCheckin:
			frag, err = rd.CheckinView(ctx, rc)
		case page.DirectiveHistory:
			frag, err = rd.HistoryView(ctx, rc)
		default:
			err = fmt.Errorf("unknown view directive %q", seg.Directive)
		}
		if err != nil {
			return "", err
		}
		out.WriteString(string(frag))
	}
	return template.HTML(out.String()), nil
}

func executeFragment(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// eventWhen joins the free-form date and time columns for display.
func eventWhen(e domainEvent.Event) string {
	return strings.TrimSpace(strings.TrimSpace(e.Date) + " " + strings.TrimSpace(e.Time))
}
