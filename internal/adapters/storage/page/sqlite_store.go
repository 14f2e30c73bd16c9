package page

import (
	"context"
	"database/sql"
	"fmt"

	"eventdesk/internal/adapters/storage"
	domain "eventdesk/internal/domain/page"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new page store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetBySlug retrieves a Page by its slug.
// PRE: slug is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetBySlug(ctx context.Context, slug string) (domain.Page, error) {
	var p domain.Page
	err := s.db.QueryRowContext(ctx, "SELECT slug, title, body FROM page WHERE slug = ?", slug).
		Scan(&p.Slug, &p.Title, &p.Body)
	if err == sql.ErrNoRows {
		return domain.Page{}, fmt.Errorf("page not found: %w", err)
	}
	return p, err
}

// Save persists a Page to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, p domain.Page) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO page (slug, title, body) VALUES (?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET title=excluded.title, body=excluded.body`,
		p.Slug, p.Title, p.Body,
	)
	return err
}

// SaveIfMissing inserts a Page unless its slug is taken; operator edits are kept.
func (s *SQLiteStore) SaveIfMissing(ctx context.Context, p domain.Page) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO page (slug, title, body) VALUES (?, ?, ?) ON CONFLICT(slug) DO NOTHING",
		p.Slug, p.Title, p.Body,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// List returns every page ordered by slug.
// POST: Returns a non-nil slice
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Page, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT slug, title, body FROM page ORDER BY slug")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.Page{}
	for rows.Next() {
		var p domain.Page
		if err := rows.Scan(&p.Slug, &p.Title, &p.Body); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}
