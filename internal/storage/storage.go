// Package storage persists rendered certificate PDFs in object storage.
package storage

import (
	"context"
	"errors"
)

// Sentinel errors for the artifact store.
var (
	// ErrNotConfigured indicates the store has no usable credentials or
	// bucket. Callers treat this as a call-level failure and do no
	// partial work.
	ErrNotConfigured = errors.New("artifact storage is not configured")

	// ErrObjectNotFound indicates a deletion handle that no longer
	// resolves to a stored object.
	ErrObjectNotFound = errors.New("stored object not found")
)

// StoredObject describes one uploaded artifact.
type StoredObject struct {
	// URL is the public location of the artifact.
	URL string `json:"url"`
	// Key is the opaque deletion handle.
	Key string `json:"key"`
}

// ArtifactStore is the contract the generation pipeline uses to persist
// and remove rendered PDFs.
type ArtifactStore interface {
	// Ready reports whether the store can accept uploads. Returns
	// ErrNotConfigured otherwise.
	Ready() error

	// Upload stores data under the desired name and returns its public
	// URL and deletion handle.
	Upload(ctx context.Context, data []byte, name string) (*StoredObject, error)

	// Delete removes a previously uploaded artifact. Deleting an object
	// that is already gone is not an error.
	Delete(ctx context.Context, key string) error
}
