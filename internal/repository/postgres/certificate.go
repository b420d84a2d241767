package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ecell/certportal/internal/domain"
	"github.com/ecell/certportal/internal/service/certificate"
)

// uniqueViolation is the Postgres error code for a unique constraint
// violation.
const uniqueViolation = "23505"

// CertificateRepo implements certificate.Repository against PostgreSQL.
type CertificateRepo struct{ db *sql.DB }

// NewCertificateRepo creates a Postgres-backed certificate repository.
func NewCertificateRepo(db *sql.DB) *CertificateRepo { return &CertificateRepo{db: db} }

func (r *CertificateRepo) Insert(ctx context.Context, c *domain.Certificate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO certificates
			(id, event_id, certificate_number, participant_name, participant_email,
			 certificate_url, storage_public_id, verification_hash, issued_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
	`, c.ID, c.EventID, c.CertificateNumber, c.ParticipantName, c.ParticipantEmail,
		c.CertificateURL, c.StoragePublicID, c.VerificationHash, c.IssuedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return certificate.ErrDuplicateNumber
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (r *CertificateRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM certificates WHERE certificate_number = $1)`,
		number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check certificate number: %w", err)
	}
	return exists, nil
}

func (r *CertificateRepo) AllNumbers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT certificate_number FROM certificates`)
	if err != nil {
		return nil, fmt.Errorf("list certificate numbers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan certificate number: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

const certColumns = `
	id, event_id, certificate_number, participant_name,
	COALESCE(participant_email,''), certificate_url, storage_public_id,
	verification_hash, issued_at`

func (r *CertificateRepo) scanOne(row *sql.Row) (*domain.Certificate, error) {
	c := &domain.Certificate{}
	err := row.Scan(
		&c.ID, &c.EventID, &c.CertificateNumber, &c.ParticipantName,
		&c.ParticipantEmail, &c.CertificateURL, &c.StoragePublicID,
		&c.VerificationHash, &c.IssuedAt,
	)
	if err == sql.ErrNoRows {
		return nil, certificate.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	return c, nil
}

func (r *CertificateRepo) Get(ctx context.Context, id string) (*domain.Certificate, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+certColumns+` FROM certificates WHERE id = $1`, id))
}

func (r *CertificateRepo) GetByNumber(ctx context.Context, number string) (*domain.Certificate, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+certColumns+` FROM certificates WHERE certificate_number = $1`, number))
}

func (r *CertificateRepo) ListByEvent(ctx context.Context, eventID string) ([]domain.Certificate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+certColumns+` FROM certificates WHERE event_id = $1 ORDER BY issued_at DESC`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var out []domain.Certificate
	for rows.Next() {
		var c domain.Certificate
		if err := rows.Scan(
			&c.ID, &c.EventID, &c.CertificateNumber, &c.ParticipantName,
			&c.ParticipantEmail, &c.CertificateURL, &c.StoragePublicID,
			&c.VerificationHash, &c.IssuedAt,
		); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CertificateRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return certificate.ErrNotFound
	}
	return nil
}
