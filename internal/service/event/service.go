package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ecell/certportal/internal/domain"
)

// Service implements event business logic on top of a Repository.
type Service struct {
	repo      Repository
	templates map[string]bool
}

// NewService creates an event service. templateIDs lists the certificate
// template identifiers the renderer knows about; Create and Update reject
// anything else.
func NewService(repo Repository, templateIDs []string) *Service {
	templates := make(map[string]bool, len(templateIDs))
	for _, id := range templateIDs {
		templates[id] = true
	}
	return &Service{repo: repo, templates: templates}
}

// CreateInput holds the fields for a new event.
type CreateInput struct {
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Organizer string    `json:"organizer"`
	Template  string    `json:"template"`
}

// Get returns a single event.
func (s *Service) Get(ctx context.Context, id string) (*domain.Event, error) {
	return s.repo.Get(ctx, id)
}

// List returns events matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Event, int, error) {
	return s.repo.List(ctx, f)
}

// Create validates and persists a new event.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Event, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, fmt.Errorf("start_date and end_date are required")
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, fmt.Errorf("end_date is before start_date")
	}
	if input.Template != "" && !s.templates[input.Template] {
		return nil, ErrUnknownTemplate
	}

	e := &domain.Event{
		ID:        uuid.New().String(),
		Title:     input.Title,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Organizer: input.Organizer,
		Template:  input.Template,
	}

	id, err := s.repo.Create(ctx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return e, nil
}

// Update modifies mutable event fields.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) error {
	if u.Template != nil && *u.Template != "" && !s.templates[*u.Template] {
		return ErrUnknownTemplate
	}
	return s.repo.Update(ctx, id, u)
}

// Delete removes an event. Events with issued certificates cannot be
// deleted; the certificates must be deleted first so their storage
// artifacts are cleaned up too.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.repo.CertificateCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasCertificates
	}
	return s.repo.Delete(ctx, id)
}
