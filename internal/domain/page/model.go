package page

import (
	"errors"
	"regexp"
	"strings"
)

// View directives recognised inside page bodies.
const (
	DirectiveCheckin = "event_checkin"
	DirectiveHistory = "event_history"
)

// Page is a piece of host content whose markdown body may embed view directives.
type Page struct {
	Slug  string
	Title string
	Body  string
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Validate checks if the Page has valid data.
// PRE: Page struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (p *Page) Validate() error {
	if !slugPattern.MatchString(p.Slug) {
		return errors.New("page slug must be lowercase letters, digits and dashes")
	}
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("page title cannot be empty")
	}
	return nil
}

// Segment is either a run of markdown or a single directive.
type Segment struct {
	Directive string // empty for markdown segments
	Markdown  string
}

// directiveLine matches a line holding only a bracketed directive, e.g. "[event_checkin]".
var directiveLine = regexp.MustCompile(`(?m)^[ \t]*\[(` + DirectiveCheckin + `|` + DirectiveHistory + `)\][ \t]*$`)

// Segments splits the body into markdown runs and directives, in order.
// Directives must stand on their own line; inline mentions stay markdown.
func (p *Page) Segments() []Segment {
	var segs []Segment
	last := 0
	for _, loc := range directiveLine.FindAllStringSubmatchIndex(p.Body, -1) {
		// loc[0]:loc[1] is the whole line, loc[2]:loc[3] the directive name.
		if md := p.Body[last:loc[0]]; strings.TrimSpace(md) != "" {
			segs = append(segs, Segment{Markdown: md})
		}
		segs = append(segs, Segment{Directive: p.Body[loc[2]:loc[3]]})
		last = loc[1]
	}
	if md := p.Body[last:]; strings.TrimSpace(md) != "" {
		segs = append(segs, Segment{Markdown: md})
	}
	return segs
}
