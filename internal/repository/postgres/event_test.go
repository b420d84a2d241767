package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecell/certportal/internal/service/event"
)

func TestEventGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM events").
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "start_date", "end_date", "organizer", "template", "created_at", "updated_at",
		}).AddRow("e1", "Bootcamp", now, now, "E-Cell", "classic", now, now))

	repo := NewEventRepo(db)
	e, err := repo.Get(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Bootcamp", e.Title)
	assert.Equal(t, "classic", e.Template)
}

func TestEventGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM events").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewEventRepo(db)
	_, err = repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, event.ErrNotFound)
}

func TestEventUpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	title := "New Title"
	mock.ExpectExec("UPDATE events").
		WithArgs(title, "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewEventRepo(db)
	err = repo.Update(context.Background(), "nope", event.UpdateFields{Title: &title})
	assert.ErrorIs(t, err, event.ErrNotFound)
}

func TestEventCertificateCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	repo := NewEventRepo(db)
	n, err := repo.CertificateCount(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
