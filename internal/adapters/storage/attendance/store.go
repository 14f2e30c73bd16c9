package attendance

import (
	"context"

	domain "eventdesk/internal/domain/attendance"
)

// Store persists Attendance records.
type Store interface {
	// Record inserts the record unless the (event, patron) pair already exists.
	// It reports whether a new record was created.
	Record(ctx context.Context, value domain.Attendance) (bool, error)
	GetByEventAndPatron(ctx context.Context, eventID, patronID string) (domain.Attendance, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Attendance, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
}
