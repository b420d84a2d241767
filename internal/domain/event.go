package domain

import "time"

// Event represents an event for which certificates are issued.
type Event struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
	Organizer string    `json:"organizer" db:"organizer"`
	Template  string    `json:"template" db:"template"`

	// CertificateCount is read-only, populated by list queries.
	CertificateCount int `json:"certificate_count" db:"certificate_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
