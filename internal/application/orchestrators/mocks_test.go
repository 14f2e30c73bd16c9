package orchestrators

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"eventdesk/internal/domain/attendance"
	"eventdesk/internal/domain/event"
	"eventdesk/internal/domain/page"
	"eventdesk/internal/domain/patron"
)

var fixedTime = time.Date(2026, 4, 18, 19, 5, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// sequenceIDs returns a generator yielding id-1, id-2, ...
func sequenceIDs() func() string {
	n := 0
	return func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
}

type mockEventStore struct {
	events map[string]event.Event
}

// GetByID implements EventLookupStore for testing.
func (m *mockEventStore) GetByID(_ context.Context, id string) (event.Event, error) {
	if e, ok := m.events[id]; ok {
		return e, nil
	}
	return event.Event{}, sql.ErrNoRows
}

// Save implements EventStoreForSeed for testing.
func (m *mockEventStore) Save(_ context.Context, e event.Event) error {
	if m.events == nil {
		m.events = make(map[string]event.Event)
	}
	m.events[e.ID] = e
	return nil
}

// Count implements EventStoreForSeed for testing.
func (m *mockEventStore) Count(_ context.Context) (int, error) {
	return len(m.events), nil
}

type mockPatronStore struct {
	patrons map[string]patron.Patron
}

// GetByID implements PatronLookupStore for testing.
func (m *mockPatronStore) GetByID(_ context.Context, id string) (patron.Patron, error) {
	if p, ok := m.patrons[id]; ok {
		return p, nil
	}
	return patron.Patron{}, sql.ErrNoRows
}

// GetByEmail implements PatronStore for testing.
func (m *mockPatronStore) GetByEmail(_ context.Context, email string) (patron.Patron, error) {
	for _, p := range m.patrons {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return patron.Patron{}, sql.ErrNoRows
}

// Save implements PatronStore for testing.
func (m *mockPatronStore) Save(_ context.Context, p patron.Patron) error {
	if m.patrons == nil {
		m.patrons = make(map[string]patron.Patron)
	}
	m.patrons[p.ID] = p
	return nil
}

// Count implements PatronStoreForSeed for testing.
func (m *mockPatronStore) Count(_ context.Context) (int, error) {
	return len(m.patrons), nil
}

type mockAttendanceStore struct {
	records map[string]attendance.Attendance
}

// Record implements AttendanceRecorder for testing, keyed by (event, patron).
func (m *mockAttendanceStore) Record(_ context.Context, a attendance.Attendance) (bool, error) {
	if m.records == nil {
		m.records = make(map[string]attendance.Attendance)
	}
	key := a.EventID + "|" + a.PatronID
	if _, ok := m.records[key]; ok {
		return false, nil
	}
	m.records[key] = a
	return true, nil
}

// GetByEventAndPatron implements AttendanceRecorder for testing.
func (m *mockAttendanceStore) GetByEventAndPatron(_ context.Context, eventID, patronID string) (attendance.Attendance, error) {
	a, ok := m.records[eventID+"|"+patronID]
	if !ok {
		return attendance.Attendance{}, sql.ErrNoRows
	}
	return a, nil
}

type mockPageStore struct {
	pages map[string]page.Page
}

// SaveIfMissing implements PageStoreForSeed for testing.
func (m *mockPageStore) SaveIfMissing(_ context.Context, p page.Page) (bool, error) {
	if m.pages == nil {
		m.pages = make(map[string]page.Page)
	}
	if _, ok := m.pages[p.Slug]; ok {
		return false, nil
	}
	m.pages[p.Slug] = p
	return true, nil
}
