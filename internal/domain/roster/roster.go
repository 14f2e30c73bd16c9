// Package roster orders patrons by display name and partitions them into
// contiguous first-letter groups for the check-in view.
package roster

import (
	"sort"
	"strings"
	"unicode/utf8"

	"eventdesk/internal/domain/patron"
)

// NoInitial is the heading used for patrons whose display name is empty.
const NoInitial = "#"

// Group is a run of patrons sharing the same initial.
type Group struct {
	Initial string
	Patrons []patron.Patron
}

// Letters returns the fixed A-Z jump bar.
func Letters() []string {
	letters := make([]string, 0, 26)
	for c := 'A'; c <= 'Z'; c++ {
		letters = append(letters, string(c))
	}
	return letters
}

// Initial returns the upper-cased first character of name, or NoInitial.
func Initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return NoInitial
	}
	r, _ := utf8.DecodeRuneInString(strings.ToUpper(name))
	return string(r)
}

// Sort orders patrons ascending by display name, case-insensitively.
// Ties fall back to the exact name and then the ID so output is deterministic.
// POST: input slice is not modified
func Sort(patrons []patron.Patron) []patron.Patron {
	sorted := make([]patron.Patron, len(patrons))
	copy(sorted, patrons)
	sort.SliceStable(sorted, func(i, j int) bool {
		ni, nj := sorted[i].DisplayName(), sorted[j].DisplayName()
		ii, ij := Initial(ni), Initial(nj)
		if ii != ij {
			return ii < ij
		}
		ui, uj := strings.ToUpper(ni), strings.ToUpper(nj)
		if ui != uj {
			return ui < uj
		}
		if ni != nj {
			return ni < nj
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// GroupByInitial sorts patrons and splits them into groups by initial.
// POST: group initials are strictly ascending; every patron sits under its own initial
// Zero patrons yields an empty, non-nil slice.
func GroupByInitial(patrons []patron.Patron) []Group {
	groups := []Group{}
	for _, p := range Sort(patrons) {
		initial := Initial(p.DisplayName())
		if n := len(groups); n == 0 || groups[n-1].Initial != initial {
			groups = append(groups, Group{Initial: initial})
		}
		last := &groups[len(groups)-1]
		last.Patrons = append(last.Patrons, p)
	}
	return groups
}
