package page

import (
	"context"

	domain "eventdesk/internal/domain/page"
)

// Store persists host content pages.
type Store interface {
	GetBySlug(ctx context.Context, slug string) (domain.Page, error)
	Save(ctx context.Context, value domain.Page) error
	// SaveIfMissing inserts the page only when no page holds its slug.
	// It reports whether the page was inserted.
	SaveIfMissing(ctx context.Context, value domain.Page) (bool, error)
	List(ctx context.Context) ([]domain.Page, error)
}
