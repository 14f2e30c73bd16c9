package orchestrators

import (
	"context"
	"log/slog"

	"eventdesk/internal/domain/page"
)

// PageStoreForSeed defines the store interface needed by SeedPages.
type PageStoreForSeed interface {
	SaveIfMissing(ctx context.Context, p page.Page) (bool, error)
}

// SeedPagesDeps holds dependencies for SeedPages.
type SeedPagesDeps struct {
	PageStore PageStoreForSeed
}

// DefaultPages are the host pages carrying the two view directives.
var DefaultPages = []page.Page{
	{
		Slug:  "checkin",
		Title: "Event Check-in",
		Body:  "Pick an event, then click a guest's name as they arrive.\n\n[" + page.DirectiveCheckin + "]\n",
	},
	{
		Slug:  "history",
		Title: "Attendance History",
		Body:  "Who came to a past event.\n\n[" + page.DirectiveHistory + "]\n",
	},
}

// ExecuteSeedPages creates the default pages that do not exist yet.
// POST: every DefaultPages slug exists; pages edited by an operator are left alone
func ExecuteSeedPages(ctx context.Context, deps SeedPagesDeps) error {
	for _, p := range DefaultPages {
		if err := p.Validate(); err != nil {
			return err
		}
		inserted, err := deps.PageStore.SaveIfMissing(ctx, p)
		if err != nil {
			return err
		}
		if inserted {
			slog.Info("page_seeded", "slug", p.Slug)
		}
	}
	return nil
}
