package event_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecell/certportal/internal/domain"
	"github.com/ecell/certportal/internal/service/event"
)

// memRepo is an in-memory event repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	events    map[string]*domain.Event
	certCount map[string]int
}

func newMemRepo() *memRepo {
	return &memRepo{
		events:    make(map[string]*domain.Event),
		certCount: make(map[string]int),
	}
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, event.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f event.ListFilter) ([]domain.Event, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Event
	for _, e := range m.events {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, e *domain.Event) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		return "", fmt.Errorf("id required")
	}
	cp := *e
	m.events[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) Update(_ context.Context, id string, u event.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return event.ErrNotFound
	}
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Organizer != nil {
		e.Organizer = *u.Organizer
	}
	if u.Template != nil {
		e.Template = *u.Template
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return event.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *memRepo) CertificateCount(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.certCount[id], nil
}

func validInput() event.CreateInput {
	return event.CreateInput{
		Title:     "Startup Bootcamp",
		StartDate: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
		Organizer: "E-Cell",
		Template:  "classic",
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := newMemRepo()
	svc := event.NewService(repo, []string{"classic", "modern"})

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Startup Bootcamp", got.Title)
	assert.Equal(t, "classic", got.Template)
}

func TestCreateValidation(t *testing.T) {
	svc := event.NewService(newMemRepo(), []string{"classic"})
	ctx := context.Background()

	in := validInput()
	in.Title = ""
	_, err := svc.Create(ctx, in)
	assert.Error(t, err)

	in = validInput()
	in.EndDate = in.StartDate.AddDate(0, 0, -1)
	_, err = svc.Create(ctx, in)
	assert.Error(t, err)

	in = validInput()
	in.Template = "sparkly"
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, event.ErrUnknownTemplate)
}

func TestUpdateUnknownTemplate(t *testing.T) {
	repo := newMemRepo()
	svc := event.NewService(repo, []string{"classic"})

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	bad := "sparkly"
	err = svc.Update(context.Background(), created.ID, event.UpdateFields{Template: &bad})
	assert.ErrorIs(t, err, event.ErrUnknownTemplate)
}

func TestDeleteRefusedWithCertificates(t *testing.T) {
	repo := newMemRepo()
	svc := event.NewService(repo, []string{"classic"})

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	repo.certCount[created.ID] = 3
	err = svc.Delete(context.Background(), created.ID)
	assert.ErrorIs(t, err, event.ErrHasCertificates)

	repo.certCount[created.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, event.ErrNotFound)
}
