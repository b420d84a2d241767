// Package postgres implements the service repository interfaces against
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ecell/certportal/internal/domain"
	"github.com/ecell/certportal/internal/service/event"
)

// EventRepo implements event.Repository against PostgreSQL.
type EventRepo struct{ db *sql.DB }

// NewEventRepo creates a Postgres-backed event repository.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Get(ctx context.Context, id string) (*domain.Event, error) {
	e := &domain.Event{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, start_date, end_date, COALESCE(organizer,''),
		       COALESCE(template,''), created_at, updated_at
		FROM events
		WHERE id = $1
	`, id).Scan(
		&e.ID, &e.Title, &e.StartDate, &e.EndDate, &e.Organizer,
		&e.Template, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, event.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (r *EventRepo) List(ctx context.Context, f event.ListFilter) ([]domain.Event, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	countQ := `SELECT COUNT(*) FROM events`
	args := []interface{}{}
	idx := 1

	if f.Search != "" {
		countQ += fmt.Sprintf(" WHERE title ILIKE $%d", idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	q := `
		SELECT e.id, e.title, e.start_date, e.end_date, COALESCE(e.organizer,''),
		       COALESCE(e.template,''), e.created_at, e.updated_at,
		       (SELECT COUNT(*) FROM certificates c WHERE c.event_id = e.id)
		FROM events e`

	qArgs := []interface{}{}
	qIdx := 1
	if f.Search != "" {
		q += fmt.Sprintf(" WHERE e.title ILIKE $%d", qIdx)
		qArgs = append(qArgs, "%"+f.Search+"%")
		qIdx++
	}
	q += fmt.Sprintf(" ORDER BY e.start_date DESC LIMIT $%d OFFSET $%d", qIdx, qIdx+1)
	qArgs = append(qArgs, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, qArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(
			&e.ID, &e.Title, &e.StartDate, &e.EndDate, &e.Organizer,
			&e.Template, &e.CreatedAt, &e.UpdatedAt, &e.CertificateCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO events (id, title, start_date, end_date, organizer, template, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id
	`, e.ID, e.Title, e.StartDate, e.EndDate, e.Organizer, e.Template).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	return id, nil
}

func (r *EventRepo) Update(ctx context.Context, id string, u event.UpdateFields) error {
	q := `UPDATE events SET updated_at = NOW()`
	args := []interface{}{}
	idx := 1

	if u.Title != nil {
		q += fmt.Sprintf(", title = $%d", idx)
		args = append(args, *u.Title)
		idx++
	}
	if u.StartDate != nil {
		q += fmt.Sprintf(", start_date = $%d", idx)
		args = append(args, *u.StartDate)
		idx++
	}
	if u.EndDate != nil {
		q += fmt.Sprintf(", end_date = $%d", idx)
		args = append(args, *u.EndDate)
		idx++
	}
	if u.Organizer != nil {
		q += fmt.Sprintf(", organizer = $%d", idx)
		args = append(args, *u.Organizer)
		idx++
	}
	if u.Template != nil {
		q += fmt.Sprintf(", template = $%d", idx)
		args = append(args, *u.Template)
		idx++
	}

	q += fmt.Sprintf(" WHERE id = $%d", idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return event.ErrNotFound
	}
	return nil
}

func (r *EventRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return event.ErrNotFound
	}
	return nil
}

func (r *EventRepo) CertificateCount(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM certificates WHERE event_id = $1`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count certificates: %w", err)
	}
	return n, nil
}
