package certificate

import (
	"context"

	"github.com/ecell/certportal/internal/domain"
)

// Repository defines the data access contract for certificates.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Insert persists a new certificate. Returns ErrDuplicateNumber when
	// the storage-level uniqueness constraint on certificate_number is
	// violated.
	Insert(ctx context.Context, c *domain.Certificate) error

	// ExistsByNumber reports whether a certificate with the given number
	// has been issued.
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// AllNumbers returns every issued certificate number, used to seed
	// import validation.
	AllNumbers(ctx context.Context) ([]string, error)

	// Get returns a certificate by record ID. Returns ErrNotFound if it
	// doesn't exist.
	Get(ctx context.Context, id string) (*domain.Certificate, error)

	// GetByNumber returns a certificate by its number. Returns
	// ErrNotFound if it doesn't exist.
	GetByNumber(ctx context.Context, number string) (*domain.Certificate, error)

	// ListByEvent returns all certificates of one event, newest first.
	ListByEvent(ctx context.Context, eventID string) ([]domain.Certificate, error)

	// Delete removes a certificate record.
	Delete(ctx context.Context, id string) error
}

// EventLookup is the narrow slice of the event repository the generator
// needs: resolving the target event once per call.
type EventLookup interface {
	Get(ctx context.Context, id string) (*domain.Event, error)
}
