package event

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"eventdesk/internal/adapters/storage"
	domain "eventdesk/internal/domain/event"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

// TestSQLiteStore_SaveAndGet tests a round trip through the store.
func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := domain.Event{ID: "42", Title: "Spring Gala", Date: "2026-04-01", Time: "19:00", Description: "**Black tie**", Status: domain.StatusPublish}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.GetByID(ctx, "42")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != want {
		t.Errorf("GetByID = %+v, want %+v", got, want)
	}

	want.Title = "Spring Gala (moved)"
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save update: %v", err)
	}
	got, _ = store.GetByID(ctx, "42")
	if got.Title != "Spring Gala (moved)" {
		t.Errorf("Title after update = %q", got.Title)
	}
}

// TestSQLiteStore_GetByID_NotFound tests the not-found error.
func TestSQLiteStore_GetByID_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

// TestSQLiteStore_ListPublished tests filtering and ordering.
func TestSQLiteStore_ListPublished(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, e := range []domain.Event{
		{ID: "1", Title: "winter Ball", Status: domain.StatusPublish},
		{ID: "2", Title: "Autumn Fair", Status: domain.StatusPublish},
		{ID: "3", Title: "Board Meeting", Status: domain.StatusDraft},
		{ID: "4", Title: "book Club", Status: domain.StatusPublish},
	} {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save %s: %v", e.ID, err)
		}
	}

	events, err := store.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	var ids []string
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	want := []string{"2", "4", "1"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids = %v, want %v", ids, want)
			break
		}
	}

	n, err := store.Count(ctx)
	if err != nil || n != 4 {
		t.Errorf("Count = %d, %v; want 4", n, err)
	}
}

// TestSQLiteStore_ListPublished_Empty tests the empty case returns a non-nil slice.
func TestSQLiteStore_ListPublished_Empty(t *testing.T) {
	events, err := newTestStore(t).ListPublished(context.Background())
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("events = %#v, want empty slice", events)
	}
}
