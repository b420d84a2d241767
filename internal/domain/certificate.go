package domain

import "time"

// Certificate is the persistent record of one issued certificate.
//
// Once created, the number, storage artifact, and event linkage are
// immutable. Corrections require delete-and-regenerate, never an in-place
// edit, so no update path exists anywhere in the codebase.
type Certificate struct {
	ID                string    `json:"id" db:"id"`
	EventID           string    `json:"event_id" db:"event_id"`
	CertificateNumber string    `json:"certificate_number" db:"certificate_number"`
	ParticipantName   string    `json:"participant_name" db:"participant_name"`
	ParticipantEmail  string    `json:"participant_email,omitempty" db:"participant_email"`
	CertificateURL    string    `json:"certificate_url" db:"certificate_url"`
	StoragePublicID   string    `json:"storage_public_id" db:"storage_public_id"`
	VerificationHash  string    `json:"verification_hash" db:"verification_hash"`
	IssuedAt          time.Time `json:"issued_at" db:"issued_at"`
}
