package event

import (
	"context"

	domain "eventdesk/internal/domain/event"
)

// Store persists Event state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, value domain.Event) error
	ListPublished(ctx context.Context) ([]domain.Event, error)
	Count(ctx context.Context) (int, error)
}
