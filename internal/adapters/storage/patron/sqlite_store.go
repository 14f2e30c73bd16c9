package patron

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"eventdesk/internal/adapters/storage"
	domain "eventdesk/internal/domain/patron"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new patron store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const patronColumns = "p.id, p.title, p.first_name, p.last_name, p.email, p.status"

type scanner interface {
	Scan(dest ...any) error
}

func scanPatron(row scanner) (domain.Patron, error) {
	var p domain.Patron
	err := row.Scan(&p.ID, &p.Title, &p.FirstName, &p.LastName, &p.Email, &p.Status)
	return p, err
}

func (s *SQLiteStore) queryPatrons(ctx context.Context, query string, args ...any) ([]domain.Patron, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.Patron{}
	for rows.Next() {
		p, err := scanPatron(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// GetByID retrieves a Patron by its ID, whatever its status.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Patron, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+patronColumns+" FROM patron p WHERE p.id = ?", id)
	p, err := scanPatron(row)
	if err == sql.ErrNoRows {
		return domain.Patron{}, fmt.Errorf("patron not found: %w", err)
	}
	return p, err
}

// GetByEmail retrieves a Patron by email, case-insensitively.
// PRE: email is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Patron, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+patronColumns+" FROM patron p WHERE lower(p.email) = ? ORDER BY p.id LIMIT 1",
		strings.ToLower(strings.TrimSpace(email)),
	)
	p, err := scanPatron(row)
	if err == sql.ErrNoRows {
		return domain.Patron{}, fmt.Errorf("patron not found: %w", err)
	}
	return p, err
}

// Save persists a Patron. The stored title is always the display name.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, p domain.Patron) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO patron (id, title, first_name, last_name, email, status) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title=excluded.title, first_name=excluded.first_name,
			last_name=excluded.last_name, email=excluded.email, status=excluded.status`,
		p.ID, p.DisplayName(), p.FirstName, p.LastName, p.Email, p.Status,
	)
	return err
}

// ListActive returns every published patron ordered by display name.
// PRE: none
// POST: Returns a non-nil slice
func (s *SQLiteStore) ListActive(ctx context.Context) ([]domain.Patron, error) {
	return s.queryPatrons(ctx,
		"SELECT "+patronColumns+" FROM patron p WHERE p.status = ? ORDER BY p.title COLLATE NOCASE, p.id",
		domain.StatusPublish,
	)
}

// ListByEvent returns the published patrons with an attendance record for the event,
// ordered by display name.
// PRE: eventID is non-empty
// POST: Returns a non-nil slice; each patron appears at most once
func (s *SQLiteStore) ListByEvent(ctx context.Context, eventID string) ([]domain.Patron, error) {
	return s.queryPatrons(ctx,
		`SELECT DISTINCT `+patronColumns+`
		FROM patron p
		JOIN event_history h ON h.patron_id = p.id
		WHERE p.status = ? AND h.event_id = ?
		ORDER BY p.title COLLATE NOCASE, p.id`,
		domain.StatusPublish, eventID,
	)
}

// Count returns the number of stored patrons of any status.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM patron").Scan(&n)
	return n, err
}
