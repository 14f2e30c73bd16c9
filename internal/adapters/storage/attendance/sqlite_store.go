package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eventdesk/internal/adapters/storage"
	domain "eventdesk/internal/domain/attendance"
)

// SQLiteStore implements Store on the event_history table.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new attendance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// parseStoredTime accepts RFC3339 with or without fractional seconds.
func parseStoredTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row scanner) (domain.Attendance, error) {
	var a domain.Attendance
	var checkedIn string
	if err := row.Scan(&a.ID, &a.EventID, &a.PatronID, &checkedIn); err != nil {
		return domain.Attendance{}, err
	}
	t, err := parseStoredTime(checkedIn)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("failed to parse checked_in_at: %w", err)
	}
	a.CheckedInAt = t
	return a, nil
}

// Record inserts an attendance record, ignoring a duplicate (event, patron) pair.
// PRE: entity has been validated
// POST: Exactly one record exists for the pair; returns true if this call created it
// INVARIANT: Existing records are never updated
func (s *SQLiteStore) Record(ctx context.Context, a domain.Attendance) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO event_history (id, event_id, patron_id, checked_in_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(event_id, patron_id) DO NOTHING`,
		a.ID, a.EventID, a.PatronID, a.CheckedInAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetByEventAndPatron retrieves the record for a pair.
// PRE: eventID and patronID are non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByEventAndPatron(ctx context.Context, eventID, patronID string) (domain.Attendance, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, event_id, patron_id, checked_in_at FROM event_history WHERE event_id = ? AND patron_id = ?",
		eventID, patronID,
	)
	a, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return domain.Attendance{}, fmt.Errorf("attendance not found: %w", err)
	}
	return a, err
}

// ListByEvent returns the records for an event in check-in order.
// PRE: eventID is non-empty
// POST: Returns a non-nil slice
func (s *SQLiteStore) ListByEvent(ctx context.Context, eventID string) ([]domain.Attendance, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, event_id, patron_id, checked_in_at FROM event_history WHERE event_id = ? ORDER BY checked_in_at, id",
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.Attendance{}
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// CountByEvent returns how many patrons are recorded present at an event.
func (s *SQLiteStore) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM event_history WHERE event_id = ?", eventID).Scan(&n)
	return n, err
}
