package event

import (
	"context"
	"time"

	"github.com/ecell/certportal/internal/domain"
)

// Repository defines the data access contract for events.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single event. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Event, error)

	// List returns events ordered by start_date DESC, with certificate
	// counts populated.
	List(ctx context.Context, filter ListFilter) ([]domain.Event, int, error)

	// Create inserts a new event and returns its ID.
	Create(ctx context.Context, e *domain.Event) (string, error)

	// Update applies the non-nil fields. Returns ErrNotFound if the event
	// doesn't exist.
	Update(ctx context.Context, id string, u UpdateFields) error

	// Delete removes an event. The service refuses deletion while
	// certificates still reference it.
	Delete(ctx context.Context, id string) error

	// CertificateCount returns how many certificates reference the event.
	CertificateCount(ctx context.Context, id string) (int, error)
}

// ListFilter controls pagination and search for event lists.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// UpdateFields holds the mutable fields for an event update.
// Nil fields are not applied.
type UpdateFields struct {
	Title     *string
	StartDate *time.Time
	EndDate   *time.Time
	Organizer *string
	Template  *string
}
