package orchestrators

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	octetPattern   = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
	unclosedTagPat = regexp.MustCompile(`<[^>]*$`)
)

// SanitizeTextField reduces free text to a single plain line: tags, percent
// octets and control characters are removed and whitespace runs collapse to
// one space. The result is safe to treat as an opaque identifier.
func SanitizeTextField(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = tagPattern.ReplaceAllString(s, "")
	s = unclosedTagPat.ReplaceAllString(s, "")
	s = octetPattern.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// SanitizeReturnURL accepts an absolute http(s) URL or a site-relative path.
// Anything else, including scheme-relative "//host" URLs, is rejected.
func SanitizeReturnURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.IndexFunc(raw, unicode.IsControl) >= 0 {
		return nil, ErrInvalidReturnURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidReturnURL
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, ErrInvalidReturnURL
		}
	case "":
		if u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(raw, "//") {
			return nil, ErrInvalidReturnURL
		}
	default:
		return nil, ErrInvalidReturnURL
	}
	return u, nil
}
