package event

import (
	"context"
	"database/sql"
	"fmt"

	"eventdesk/internal/adapters/storage"
	domain "eventdesk/internal/domain/event"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const eventColumns = "id, title, event_date, event_time, description, status"

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.Title, &e.Date, &e.Time, &e.Description, &e.Status)
	return e, err
}

// GetByID retrieves an Event by its ID, whatever its status.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM event WHERE id = ?", id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return domain.Event{}, fmt.Errorf("event not found: %w", err)
	}
	return e, err
}

// Save persists an Event to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title=excluded.title, event_date=excluded.event_date,
			event_time=excluded.event_time, description=excluded.description, status=excluded.status`,
		e.ID, e.Title, e.Date, e.Time, e.Description, e.Status,
	)
	return err
}

// ListPublished returns every published event ordered by title.
// PRE: none
// POST: Returns a non-nil slice
func (s *SQLiteStore) ListPublished(ctx context.Context) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM event WHERE status = ? ORDER BY title COLLATE NOCASE, id",
		domain.StatusPublish,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// Count returns the number of stored events of any status.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM event").Scan(&n)
	return n, err
}
