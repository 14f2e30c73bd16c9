package patron

import (
	"context"

	domain "eventdesk/internal/domain/patron"
)

// Store persists Patron state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Patron, error)
	GetByEmail(ctx context.Context, email string) (domain.Patron, error)
	Save(ctx context.Context, value domain.Patron) error
	ListActive(ctx context.Context) ([]domain.Patron, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Patron, error)
	Count(ctx context.Context) (int, error)
}
