package orchestrators

import (
	"context"
	"log/slog"

	"eventdesk/internal/domain/event"
	"eventdesk/internal/domain/patron"
)

// EventStoreForSeed defines the event store interface needed by SeedDemo.
type EventStoreForSeed interface {
	Save(ctx context.Context, e event.Event) error
	Count(ctx context.Context) (int, error)
}

// PatronStoreForSeed defines the patron store interface needed by SeedDemo.
type PatronStoreForSeed interface {
	Save(ctx context.Context, p patron.Patron) error
	Count(ctx context.Context) (int, error)
}

// SeedDemoDeps holds dependencies for SeedDemo.
type SeedDemoDeps struct {
	EventStore  EventStoreForSeed
	PatronStore PatronStoreForSeed
	GenerateID  func() string
}

var demoEvents = []event.Event{
	{Title: "Spring Gala", Date: "2026-04-18", Time: "19:00", Description: "Black tie optional. **Doors open at 6:30.**"},
	{Title: "Volunteer Orientation", Date: "2026-05-02", Time: "10:00", Description: "Bring a photo ID."},
	{Title: "Summer Book Club", Date: "2026-06-11", Time: "18:30"},
	{Title: "Board Retreat (draft)", Date: "2026-09-01", Status: event.StatusDraft},
}

var demoPatrons = [][3]string{
	{"Alice", "Adams", "alice@example.org"},
	{"Aaron", "Ng", "aaron@example.org"},
	{"Bob", "Brown", "bob@example.org"},
	{"Carol", "Chen", "carol@example.org"},
	{"Dmitri", "Ivanov", "dmitri@example.org"},
	{"Grace", "Hopper", "grace@example.org"},
	{"Mere", "Tāwhiri", "mere@example.org"},
	{"Zoë", "Walsh", "zoe@example.org"},
}

// ExecuteSeedDemo fills an empty store with demo events and patrons.
// PRE: none
// POST: if both stores were empty they now hold the demo rows; otherwise nothing changes
func ExecuteSeedDemo(ctx context.Context, deps SeedDemoDeps) error {
	events, err := deps.EventStore.Count(ctx)
	if err != nil {
		return err
	}
	patrons, err := deps.PatronStore.Count(ctx)
	if err != nil {
		return err
	}
	if events > 0 || patrons > 0 {
		return nil // Already has data
	}

	for _, e := range demoEvents {
		e.ID = deps.GenerateID()
		if e.Status == "" {
			e.Status = event.StatusPublish
		}
		if err := e.Validate(); err != nil {
			return err
		}
		if err := deps.EventStore.Save(ctx, e); err != nil {
			return err
		}
	}
	for _, row := range demoPatrons {
		p := patron.Patron{
			ID:        deps.GenerateID(),
			FirstName: row[0],
			LastName:  row[1],
			Email:     row[2],
			Status:    patron.StatusPublish,
		}
		p.Title = p.DisplayName()
		if err := p.Validate(); err != nil {
			return err
		}
		if err := deps.PatronStore.Save(ctx, p); err != nil {
			return err
		}
	}

	slog.Info("demo_seeded", "events", len(demoEvents), "patrons", len(demoPatrons))
	return nil
}
